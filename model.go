package chamber

import (
	"fmt"
	"reflect"

	"github.com/ridge/chamber/changes"
	"github.com/ridge/chamber/meta"
)

// Validator checks the value of a field
type Validator interface {
	Validate(value any) error
}

// TransitionValidator checks the value of a field against the value it had
// when the record was loaded. The initial state is Unknown for new records.
type TransitionValidator interface {
	ValidateTransition(initial changes.FieldState, value any) error
}

type modelConfig struct {
	cleanPreSave    bool
	cleanPostSave   bool
	cleanPreDelete  bool
	cleanPostDelete bool
	saveAtomic      bool
	deleteAtomic    bool
	validators      map[string][]Validator
}

// ModelOption configures a model
type ModelOption func(c *modelConfig)

// WithCleanPreSave sets whether records are validated before the write of
// a save. On by default.
func WithCleanPreSave(clean bool) ModelOption {
	return func(c *modelConfig) { c.cleanPreSave = clean }
}

// WithCleanPostSave sets whether records are validated again after the write
// of a save
func WithCleanPostSave(clean bool) ModelOption {
	return func(c *modelConfig) { c.cleanPostSave = clean }
}

// WithCleanPreDelete sets whether records are validated before a delete
func WithCleanPreDelete(clean bool) ModelOption {
	return func(c *modelConfig) { c.cleanPreDelete = clean }
}

// WithCleanPostDelete sets whether records are validated after a delete
func WithCleanPostDelete(clean bool) ModelOption {
	return func(c *modelConfig) { c.cleanPostDelete = clean }
}

// WithSaveAtomic makes every save run in an atomic block of its own, so that
// writes made by hooks and dispatchers are undone together with the save
func WithSaveAtomic(atomic bool) ModelOption {
	return func(c *modelConfig) { c.saveAtomic = atomic }
}

// WithDeleteAtomic makes every delete run in an atomic block of its own
func WithDeleteAtomic(atomic bool) ModelOption {
	return func(c *modelConfig) { c.deleteAtomic = atomic }
}

// WithValidators adds validators of a field. Validators that also implement
// TransitionValidator are called both ways.
func WithValidators(field string, validators ...Validator) ModelOption {
	return func(c *modelConfig) {
		c.validators[field] = append(c.validators[field], validators...)
	}
}

// Model binds a record type T to a database. T must be the struct type of
// a kind registered in the database.
//
// Configure a model (options, dispatchers) before using it. After that it is
// read-only and can be shared.
type Model[T any] struct {
	db     *DB
	kind   *Kind
	config modelConfig
	names  []string
	fields map[string]meta.Field

	preSaveDispatchers []Dispatcher[T]
	dispatchers        []Dispatcher[T]
}

// NewModel creates a model
func NewModel[T any](db *DB, kind *Kind, options ...ModelOption) *Model[T] {
	var zero T
	if t := reflect.TypeOf(zero); t != kind.Type {
		panic(fmt.Sprintf("kind %s does not describe %v", kind, t))
	}
	if !db.tdb.HasKind(kind) {
		panic(fmt.Sprintf("kind %s is not registered in database %q", kind, db.Alias()))
	}
	m := &Model[T]{
		db:   db,
		kind: kind,
		config: modelConfig{
			cleanPreSave: true,
			validators:   map[string][]Validator{},
		},
		names:  kind.Names(),
		fields: make(map[string]meta.Field, len(kind.Fields)),
	}
	for _, f := range kind.Fields {
		m.fields[f.Name] = f
	}
	for _, opt := range options {
		opt(&m.config)
	}
	for field := range m.config.validators {
		m.field(field)
	}
	return m
}

// Dispatch adds dispatchers run after the write of every save
func (m *Model[T]) Dispatch(dispatchers ...Dispatcher[T]) *Model[T] {
	m.dispatchers = append(m.dispatchers, dispatchers...)
	return m
}

// DispatchPreSave adds dispatchers run before the write of every save
func (m *Model[T]) DispatchPreSave(dispatchers ...Dispatcher[T]) *Model[T] {
	m.preSaveDispatchers = append(m.preSaveDispatchers, dispatchers...)
	return m
}

// DB returns the database of the model
func (m *Model[T]) DB() *DB {
	return m.db
}

// Kind returns the kind of the model
func (m *Model[T]) Kind() *Kind {
	return m.kind
}

func (m *Model[T]) field(name string) meta.Field {
	f, ok := m.fields[name]
	if !ok {
		panic(fmt.Sprintf("field %s.%s not found", m.kind.Type, name))
	}
	return f
}

func (m *Model[T]) newRecord(data T, adding bool, deferred map[string]any) *Record[T] {
	r := &Record[T]{Data: data, model: m, adding: adding, deferred: deferred}
	r.tracker = changes.NewTracker(accessor[T]{r: r})
	if !adding {
		r.tracker.Refresh(r.fetched()...)
	}
	return r
}

// New returns a record that is not saved yet. Every field of it is Unknown
// to change tracking until the first save.
func (m *Model[T]) New(data T) *Record[T] {
	return m.newRecord(data, true, nil)
}
