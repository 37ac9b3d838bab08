package chamber

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

// Cleaner is implemented by records with their own validation, run after
// field validation. Return a ValidationError to report field messages; any
// other error is reported as a message about the whole record.
type Cleaner interface {
	Clean(ctx context.Context) error
}

// Validation messages
const (
	MessageRequired  = "This field cannot be blank."
	MessageConst     = "This field cannot be changed."
	messageDuplicate = "%s with this %s already exists."
)

// Validate runs full validation of the record and returns the failures, nil
// if there are none. Fields in exclude and fields not fetched are not
// checked.
//
// Validation covers required fields, const fields of stored records, the
// model's field validators, unique indices and the Clean hook, in this
// order.
func (r *Record[T]) Validate(ctx context.Context, exclude ...string) *ValidationError {
	m := r.model
	skip := func(field string) bool {
		return slices.Contains(exclude, field) || !(accessor[T]{r: r}).Fetched(field)
	}
	var verr ValidationError

	for _, field := range m.kind.MissingRequired(&r.Data) {
		if !skip(field) {
			verr.Add(field, MessageRequired)
		}
	}
	if !r.adding {
		cs := r.tracker.Changes()
		for _, f := range m.kind.Fields {
			if f.Const && !skip(f.Name) && cs.Has(f.Name) {
				verr.Add(f.Name, MessageConst)
			}
		}
	}

	initial := r.tracker.InitialValues()
	for _, field := range m.names {
		validators := m.config.validators[field]
		if len(validators) == 0 || skip(field) {
			continue
		}
		value := r.value(field).Interface()
		for _, v := range validators {
			if err := v.Validate(value); err != nil {
				verr.Add(field, err.Error())
				continue
			}
			if tv, ok := v.(TransitionValidator); ok {
				if err := tv.ValidateTransition(initial[field], value); err != nil {
					verr.Add(field, err.Error())
				}
			}
		}
	}

	for _, index := range m.db.Reader().Conflicts(m.kind, r.Data) {
		message := fmt.Sprintf(messageDuplicate, m.kind.DBName, index)
		switch _, field := m.fields[index]; {
		case !field:
			verr.AddMessage(message)
		case !skip(index):
			verr.Add(index, message)
		}
	}

	if c, ok := any(&r.Data).(Cleaner); ok {
		if err := c.Clean(ctx); err != nil {
			var cerr ValidationError
			var pcerr *ValidationError
			switch {
			case errors.As(err, &cerr):
				verr.Merge(cerr)
			case errors.As(err, &pcerr):
				verr.Merge(*pcerr)
			default:
				verr.AddMessage(err.Error())
			}
		}
	}

	if verr.Empty() {
		return nil
	}
	return &verr
}

// FullClean validates the record like Validate and returns the failures as
// a *PersistenceError
func (r *Record[T]) FullClean(ctx context.Context, exclude ...string) error {
	if verr := r.Validate(ctx, exclude...); verr != nil {
		return verr.Persistence()
	}
	return nil
}
