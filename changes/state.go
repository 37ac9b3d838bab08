package changes

import "fmt"

type stateKind int

const (
	stateUnknown  stateKind = iota // never observed
	stateDeferred                  // observed, but not loaded this time
	stateLoaded
)

// FieldState is the last known stored state of a field: either a loaded
// value or one of two markers for values that were never seen.
//
// The zero FieldState is Unknown.
type FieldState struct {
	kind  stateKind
	value any
}

// Unknown is the state of fields of a record that was never stored or loaded
func Unknown() FieldState {
	return FieldState{kind: stateUnknown}
}

// Deferred is the state of fields left out of a partial load
func Deferred() FieldState {
	return FieldState{kind: stateDeferred}
}

// Loaded is the state of a field holding a known value
func Loaded(value any) FieldState {
	return FieldState{kind: stateLoaded, value: value}
}

// IsUnknown reports whether the state is Unknown
func (s FieldState) IsUnknown() bool {
	return s.kind == stateUnknown
}

// IsDeferred reports whether the state is Deferred
func (s FieldState) IsDeferred() bool {
	return s.kind == stateDeferred
}

// IsLoaded reports whether the state holds a value
func (s FieldState) IsLoaded() bool {
	return s.kind == stateLoaded
}

// Value returns the loaded value, nil for Unknown and Deferred
func (s FieldState) Value() any {
	return s.value
}

// Truthy reports whether the state holds a nonzero value. Unknown and
// Deferred are never truthy.
func (s FieldState) Truthy() bool {
	return s.kind == stateLoaded && !isZero(s.value)
}

// Equal compares two states. Markers are equal to markers of the same kind
// only; loaded values are compared by content.
func (s FieldState) Equal(other FieldState) bool {
	if s.kind != other.kind {
		return false
	}
	if s.kind != stateLoaded {
		return true
	}
	return Equal(s.value, other.value)
}

func (s FieldState) String() string {
	switch s.kind {
	case stateUnknown:
		return "unknown"
	case stateDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("%v", s.value)
	}
}
