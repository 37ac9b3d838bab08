package changes

import (
	"fmt"
	"sort"
	"strings"
)

// Change is a pair of the last stored state of a field and its current value
type Change struct {
	Initial FieldState
	Current FieldState
}

func (c Change) String() string {
	return fmt.Sprintf("%s -> %s", c.Initial, c.Current)
}

// ChangeSet is a read-only view of fields whose current values differ from
// their initial ones. It has no mutating operations.
type ChangeSet interface {
	// Diff returns the changed fields, restricted to the given ones if any
	Diff(fields ...string) map[string]Change
	// ChangedValues returns the current values of the changed fields
	ChangedValues() map[string]any
	// Len returns the number of changed fields
	Len() int
	// Has reports whether any of the given fields is changed
	Has(fields ...string) bool
	// Keys returns the changed fields in declaration order
	Keys() []string
	// Get returns the change of a field, false if it is not changed
	Get(field string) (Change, bool)
	// InitialValues returns a copy of the initial states
	InitialValues() map[string]FieldState
}

type changeSet struct {
	order   []string
	initial map[string]FieldState
	current func(fields ...string) map[string]FieldState
}

func (cs changeSet) Diff(fields ...string) map[string]Change {
	diff := map[string]Change{}
	for name, current := range cs.current(fields...) {
		initial := cs.initial[name]
		if !initial.Equal(current) {
			diff[name] = Change{Initial: initial, Current: current}
		}
	}
	return diff
}

func (cs changeSet) ChangedValues() map[string]any {
	values := map[string]any{}
	for name, change := range cs.Diff() {
		values[name] = change.Current.Value()
	}
	return values
}

func (cs changeSet) Len() int {
	return len(cs.Diff())
}

func (cs changeSet) Has(fields ...string) bool {
	if len(fields) == 0 {
		return false
	}
	return len(cs.Diff(fields...)) > 0
}

func (cs changeSet) Keys() []string {
	diff := cs.Diff()
	keys := make([]string, 0, len(diff))
	for _, name := range cs.order {
		if _, ok := diff[name]; ok {
			keys = append(keys, name)
		}
	}
	return keys
}

func (cs changeSet) Get(field string) (Change, bool) {
	change, ok := cs.Diff(field)[field]
	return change, ok
}

func (cs changeSet) InitialValues() map[string]FieldState {
	return copyStates(cs.initial)
}

func (cs changeSet) String() string {
	diff := cs.Diff()
	parts := make([]string, 0, len(diff))
	for name, change := range diff {
		parts = append(parts, name+": "+change.String())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}

// Frozen returns a ChangeSet of captured initial and current states which
// does not follow later changes of the record
func Frozen(order []string, initial, current map[string]FieldState) ChangeSet {
	initial = copyStates(initial)
	current = copyStates(current)
	return changeSet{
		order:   order,
		initial: initial,
		current: func(fields ...string) map[string]FieldState {
			return pick(current, fields)
		},
	}
}

func copyStates(states map[string]FieldState) map[string]FieldState {
	res := make(map[string]FieldState, len(states))
	for name, state := range states {
		res[name] = state
	}
	return res
}

func pick(states map[string]FieldState, fields []string) map[string]FieldState {
	if len(fields) == 0 {
		return copyStates(states)
	}
	res := make(map[string]FieldState, len(fields))
	for _, name := range fields {
		if state, ok := states[name]; ok {
			res[name] = state
		}
	}
	return res
}
