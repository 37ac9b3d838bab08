package changes

// Accessor exposes the persisted fields of a live record to a Tracker
type Accessor interface {
	// Fields returns the names of persisted fields in declaration order
	Fields() []string
	// Value returns the current value of a field
	Value(field string) any
	// Fetched reports whether the field was loaded from storage or set since.
	// A field left out of a partial load is not fetched.
	Fetched(field string) bool
}

// Tracker follows a live record, comparing its present fields with the
// baseline captured when it was last stored or loaded.
//
// A Tracker belongs to one record and must not be used concurrently.
type Tracker struct {
	accessor Accessor
	initial  map[string]FieldState
}

// NewTracker returns a tracker with every field Unknown
func NewTracker(accessor Accessor) *Tracker {
	initial := map[string]FieldState{}
	for _, name := range accessor.Fields() {
		initial[name] = Unknown()
	}
	return &Tracker{accessor: accessor, initial: initial}
}

// InitialValues returns a copy of the baseline
func (t *Tracker) InitialValues() map[string]FieldState {
	return copyStates(t.initial)
}

// CurrentValues returns the present states of the given fields, or of all
// fields. A field that was not fetched keeps its baseline state.
func (t *Tracker) CurrentValues(fields ...string) map[string]FieldState {
	if len(fields) == 0 {
		fields = t.accessor.Fields()
	}
	current := make(map[string]FieldState, len(fields))
	for _, name := range fields {
		initial, ok := t.initial[name]
		if !ok {
			continue
		}
		if t.accessor.Fetched(name) {
			current[name] = Loaded(Copy(t.accessor.Value(name)))
		} else {
			current[name] = initial
		}
	}
	return current
}

// Refresh captures the present values of the given fields as the new
// baseline. Without arguments it refreshes every field that is not Deferred.
// Fields left Unknown afterwards become Deferred.
func (t *Tracker) Refresh(fields ...string) {
	if len(fields) == 0 {
		for _, name := range t.accessor.Fields() {
			if !t.initial[name].IsDeferred() {
				fields = append(fields, name)
			}
		}
	}
	if len(fields) > 0 {
		for name, state := range t.CurrentValues(fields...) {
			t.initial[name] = state
		}
	}
	for name, state := range t.initial {
		if state.IsUnknown() {
			t.initial[name] = Deferred()
		}
	}
}

// Changes returns a live ChangeSet comparing the baseline with the present
// state of the record
func (t *Tracker) Changes() ChangeSet {
	return changeSet{
		order:   t.accessor.Fields(),
		initial: t.initial,
		current: t.CurrentValues,
	}
}

// Freeze returns a ChangeSet capturing the baseline and the present state,
// unaffected by later changes of the record or of the baseline
func (t *Tracker) Freeze() ChangeSet {
	return Frozen(t.accessor.Fields(), t.initial, t.CurrentValues())
}
