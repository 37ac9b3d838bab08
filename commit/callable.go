package commit

import (
	"context"
	"reflect"
)

// Callable is a unit of work deferred until a logical transaction commits
type Callable interface {
	Run(ctx context.Context) error
}

// Func adapts a function to Callable. Every registration of a Func runs.
type Func func(ctx context.Context) error

// Run calls f
func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}

// Kwargs is the data of one registration of a unique callable
type Kwargs map[string]any

// Unique is a Callable that runs at most once per logical transaction.
//
// Registrations with equal identity, which is the pair of the concrete type
// and UniqueKey, are joined into the first one: it runs once and sees the
// data of every registration in KwargsList, oldest first.
type Unique interface {
	Callable
	// UniqueKey discriminates instances of one type. It must be comparable:
	// registration fails otherwise.
	// Nil makes all instances of the type one per transaction.
	UniqueKey() any
	// KwargsList returns the accumulated registration data
	KwargsList() []Kwargs
	// Join appends the registration data of other
	Join(other Unique)
}

// UniqueBase implements the bookkeeping part of Unique for embedding.
// The embedding type supplies Run, and UniqueKey if it needs a discriminant.
type UniqueBase struct {
	kwargsList []Kwargs
}

// NewUniqueBase returns a UniqueBase holding one registration
func NewUniqueBase(kwargs Kwargs) UniqueBase {
	return UniqueBase{kwargsList: []Kwargs{kwargs}}
}

// UniqueKey returns nil
func (b *UniqueBase) UniqueKey() any {
	return nil
}

// KwargsList returns the accumulated registration data
func (b *UniqueBase) KwargsList() []Kwargs {
	return b.kwargsList
}

// Join appends the registration data of other
func (b *UniqueBase) Join(other Unique) {
	b.kwargsList = append(b.kwargsList, other.KwargsList()...)
}

// OneTime is a Unique running a function with the accumulated registration
// data. Its identity is its key alone, so the key must name the work.
type OneTime struct {
	UniqueBase
	key any
	fn  func(ctx context.Context, kwargsList []Kwargs) error
}

// NewOneTime returns a OneTime registration
func NewOneTime(key any, kwargs Kwargs, fn func(ctx context.Context, kwargsList []Kwargs) error) *OneTime {
	return &OneTime{UniqueBase: NewUniqueBase(kwargs), key: key, fn: fn}
}

// UniqueKey returns the key
func (o *OneTime) UniqueKey() any {
	return o.key
}

// Run calls the function with all the registration data
func (o *OneTime) Run(ctx context.Context) error {
	return o.fn(ctx, o.KwargsList())
}

type identity struct {
	t   reflect.Type
	key any
}

func identityOf(u Unique) identity {
	return identity{t: reflect.TypeOf(u), key: u.UniqueKey()}
}
