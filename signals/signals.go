// Package signals is a minimal publish/subscribe surface for record
// lifecycle notifications.
//
// Receivers are connected to a Signal for one source type, or for all
// sources. Sending calls matching receivers synchronously in the order they
// were connected.
package signals

import (
	"context"
	"reflect"
	"sync"

	"github.com/ridge/chamber/changes"
)

// Event is the payload of a notification
type Event struct {
	// Instance is the record being saved or deleted
	Instance any
	// Changed is false while the record is being created
	Changed bool
	// Changes is the frozen change set of the save, nil for deletes
	Changes changes.ChangeSet
}

// Receiver handles a notification. An error stops delivery to the remaining
// receivers and is returned by Send.
type Receiver func(ctx context.Context, event Event) error

type receiver struct {
	id     int
	source reflect.Type // nil matches all sources
	fn     Receiver
}

// Signal is a named notification channel. Safe for concurrent use.
type Signal struct {
	name string

	mu        sync.RWMutex
	nextID    int
	receivers []receiver
}

// New creates a signal
func New(name string) *Signal {
	return &Signal{name: name}
}

// Name returns the name of the signal
func (s *Signal) Name() string {
	return s.name
}

// SourceType returns the type notifications about values like example are
// sent for: the struct type, pointers dereferenced. Nil stands for all types.
func SourceType(example any) reflect.Type {
	if example == nil {
		return nil
	}
	t := reflect.TypeOf(example)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// Connect subscribes fn to notifications about sources of the type of source
// (nil for all). The returned function disconnects it.
func (s *Signal) Connect(source any, fn Receiver) (disconnect func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.receivers = append(s.receivers, receiver{id: id, source: SourceType(source), fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, r := range s.receivers {
			if r.id == id {
				s.receivers = append(s.receivers[:i:i], s.receivers[i+1:]...)
				return
			}
		}
	}
}

func (s *Signal) matching(source reflect.Type) []Receiver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Receiver
	for _, r := range s.receivers {
		if r.source == nil || r.source == source {
			res = append(res, r.fn)
		}
	}
	return res
}

// HasReceivers reports whether any receiver matches the source type
func (s *Signal) HasReceivers(source reflect.Type) bool {
	return len(s.matching(source)) > 0
}

// Send notifies the receivers matching the source type
func (s *Signal) Send(ctx context.Context, source reflect.Type, event Event) error {
	for _, fn := range s.matching(source) {
		if err := fn(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Set is the set of record lifecycle signals of a database
type Set struct {
	PreSave    *Signal
	PostSave   *Signal
	PreDelete  *Signal
	PostDelete *Signal
}

// NewSet creates a set of distinct lifecycle signals
func NewSet() *Set {
	return &Set{
		PreSave:    New("pre_save"),
		PostSave:   New("post_save"),
		PreDelete:  New("pre_delete"),
		PostDelete: New("post_delete"),
	}
}
