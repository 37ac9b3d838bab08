package chamber

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ridge/chamber/changes"
)

// Record is a live record of type T: the data along with what is known
// about its stored state.
//
// A Record must not be used concurrently.
type Record[T any] struct {
	// Data is the record itself. Change it freely, changes are detected by
	// comparing it with the stored state.
	Data T

	model    *Model[T]
	adding   bool
	deferred map[string]any // stored values of fields left out of a partial load
	tracker  *changes.Tracker
}

type accessor[T any] struct {
	r *Record[T]
}

func (a accessor[T]) Fields() []string {
	return a.r.model.names
}

func (a accessor[T]) Value(field string) any {
	return a.r.value(field).Interface()
}

// A deferred field counts as fetched once its value differs from the stored one
func (a accessor[T]) Fetched(field string) bool {
	stored, ok := a.r.deferred[field]
	return !ok || !changes.Equal(a.r.value(field).Interface(), stored)
}

func (r *Record[T]) value(field string) reflect.Value {
	return reflect.ValueOf(&r.Data).Elem().FieldByIndex(r.model.field(field).Index)
}

// fetched returns the fields that are loaded or assigned, in declaration order
func (r *Record[T]) fetched() []string {
	a := accessor[T]{r: r}
	res := make([]string, 0, len(r.model.names))
	for _, name := range r.model.names {
		if a.Fetched(name) {
			res = append(res, name)
		}
	}
	return res
}

// Model returns the model of the record
func (r *Record[T]) Model() *Model[T] {
	return r.model
}

// IsAdding reports whether the record has never been saved
func (r *Record[T]) IsAdding() bool {
	return r.adding
}

// IsChanging reports whether the record was loaded or saved
func (r *Record[T]) IsChanging() bool {
	return !r.adding
}

// ID returns the identity of the record, empty for a new record before its
// first save unless set explicitly
func (r *Record[T]) ID() string {
	return r.model.kind.IDOf(r.Data)
}

// HasChanged reports whether any field differs from its stored state
func (r *Record[T]) HasChanged() bool {
	return r.tracker.Changes().Len() > 0
}

// ChangedFields returns a live view of the fields that differ from their
// stored state
func (r *Record[T]) ChangedFields() ChangeSet {
	return r.tracker.Changes()
}

// InitialValues returns the stored states of all fields
func (r *Record[T]) InitialValues() map[string]changes.FieldState {
	return r.tracker.InitialValues()
}

// DeferredFields returns the fields left out of a partial load that have
// not been fetched since
func (r *Record[T]) DeferredFields() []string {
	a := accessor[T]{r: r}
	var res []string
	for _, name := range r.model.names {
		if !a.Fetched(name) {
			res = append(res, name)
		}
	}
	return res
}

func (r *Record[T]) String() string {
	return fmt.Sprintf("%s #%s", r.model.kind.DBName, r.ID())
}

// Change assigns fields by name. Values must be assignable to the fields,
// or convertible between types of the same kind; nil assigns a zero value.
// Nothing is assigned if any of the values does not fit.
func (r *Record[T]) Change(values map[string]any) error {
	converted := make(map[string]reflect.Value, len(values))
	for _, name := range sortedKeys(values) {
		v, err := r.convert(name, values[name])
		if err != nil {
			return err
		}
		converted[name] = v
	}
	for name, v := range converted {
		r.value(name).Set(v)
		delete(r.deferred, name)
	}
	return nil
}

func (r *Record[T]) convert(name string, value any) (reflect.Value, error) {
	if _, ok := r.model.fields[name]; !ok {
		return reflect.Value{}, fmt.Errorf("%v has no field %s", r.model.kind.Type, name)
	}
	t := r.value(name).Type()
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Kind() == t.Kind() && v.Type().ConvertibleTo(t):
		return v.Convert(t), nil
	default:
		return reflect.Value{}, fmt.Errorf("cannot assign %T to %v.%s of type %v", value, r.model.kind.Type, name, t)
	}
}

// ChangeAndSave assigns fields by name and saves the record
func (r *Record[T]) ChangeAndSave(ctx context.Context, values map[string]any, options ...SaveOption) error {
	if err := r.Change(values); err != nil {
		return err
	}
	return r.Save(ctx, options...)
}

// Refresh reloads the given fields, or the whole record, from the database
// and makes the reloaded values the stored state of these fields
func (r *Record[T]) Refresh(ctx context.Context, fields ...string) error {
	if r.adding {
		return ErrUnsaved
	}
	stored, err := r.model.load(r.ID())
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		r.Data = stored
		r.deferred = nil
		r.tracker.Refresh(r.model.names...)
		return nil
	}
	src := reflect.ValueOf(&stored).Elem()
	for _, name := range fields {
		f := r.model.field(name)
		r.value(name).Set(src.FieldByIndex(f.Index))
		delete(r.deferred, name)
	}
	r.tracker.Refresh(fields...)
	return nil
}

// Locked reloads the record inside the current atomic block. The atomic
// block holds the only writer of the database, so the returned record cannot
// be changed by anybody else until the block ends.
func (r *Record[T]) Locked(ctx context.Context) (*Record[T], error) {
	if r.adding {
		return nil, ErrUnsaved
	}
	if !r.model.db.InAtomicBlock() {
		return nil, ErrNotAtomic
	}
	return r.model.Get(ctx, r.ID())
}
