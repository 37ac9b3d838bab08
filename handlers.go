package chamber

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/commit"
	"github.com/ridge/chamber/fields"
)

// Dispatcher reacts to saves of records of a model. cs holds the changes of
// the save.
type Dispatcher[T any] interface {
	Dispatch(ctx context.Context, r *Record[T], cs ChangeSet) error
}

// Handler is an action on a record. As a Dispatcher it runs on every save.
type Handler[T any] func(ctx context.Context, r *Record[T]) error

// Dispatch calls h
func (h Handler[T]) Dispatch(ctx context.Context, r *Record[T], cs ChangeSet) error {
	return h(ctx, r)
}

type propertyDispatcher[T any] struct {
	handler  Handler[T]
	property func(r *Record[T]) bool
}

// PropertyDispatcher calls handler on saves where property returns true
func PropertyDispatcher[T any](handler Handler[T], property func(r *Record[T]) bool) Dispatcher[T] {
	return propertyDispatcher[T]{handler: handler, property: property}
}

func (d propertyDispatcher[T]) Dispatch(ctx context.Context, r *Record[T], cs ChangeSet) error {
	if !d.property(r) {
		return nil
	}
	return d.handler(ctx, r)
}

type stateDispatcher[T any] struct {
	handler Handler[T]
	field   string
	value   any
}

// StateDispatcher calls handler on saves that change field to value.
// Panics if the enum does not contain value or T has no such field.
func StateDispatcher[T any](handler Handler[T], enum fields.Choices, field string, value any) Dispatcher[T] {
	if !enum.Contains(value) {
		panic(fmt.Sprintf("enum of state dispatcher does not contain %v", value))
	}
	var zero T
	if _, ok := reflect.TypeOf(zero).FieldByName(field); !ok {
		panic(fmt.Sprintf("%T has no field %s", zero, field))
	}
	return stateDispatcher[T]{handler: handler, field: field, value: value}
}

func (d stateDispatcher[T]) Dispatch(ctx context.Context, r *Record[T], cs ChangeSet) error {
	if !cs.Has(d.field) {
		return nil
	}
	current := r.value(d.field)
	want := reflect.ValueOf(d.value)
	if want.Type() != current.Type() {
		if !want.Type().ConvertibleTo(current.Type()) || want.Kind() != current.Kind() {
			return nil
		}
		want = want.Convert(current.Type())
	}
	if !changes.Equal(current.Interface(), want.Interface()) {
		return nil
	}
	return d.handler(ctx, r)
}

// OnSuccess returns a handler that defers handler until the outermost atomic
// block of the record's database commits. Outside of atomic blocks handler
// runs right away.
func OnSuccess[T any](handler Handler[T]) Handler[T] {
	return func(ctx context.Context, r *Record[T]) error {
		return r.model.db.OnSuccess(ctx, commit.Func(func(ctx context.Context) error {
			return handler(ctx, r)
		}))
	}
}

type instanceKey struct {
	name string
	kind string
	id   string
}

type instanceOneTime[T any] struct {
	commit.UniqueBase
	key     instanceKey
	model   *Model[T]
	handler Handler[T]
}

func (c *instanceOneTime[T]) UniqueKey() any {
	return c.key
}

// The record is reloaded, so the handler sees the state as committed
func (c *instanceOneTime[T]) Run(ctx context.Context) error {
	r, err := c.model.Get(ctx, c.key.id)
	if err != nil {
		return err
	}
	return c.handler(ctx, r)
}

// InstanceOneTime returns a handler that defers handler until the outermost
// atomic block commits, and runs it once per record no matter how many
// saves of the record in the block asked for it. name tells handlers apart.
// At run time the record is reloaded from the database.
func InstanceOneTime[T any](name string, handler Handler[T]) Handler[T] {
	return func(ctx context.Context, r *Record[T]) error {
		return r.model.db.OnSuccess(ctx, &instanceOneTime[T]{
			UniqueBase: commit.NewUniqueBase(commit.Kwargs{"instance": r.ID()}),
			key:        instanceKey{name: name, kind: r.model.kind.DBName, id: r.ID()},
			model:      r.model,
			handler:    handler,
		})
	}
}
