package fields

import (
	"fmt"
	"reflect"

	"github.com/ridge/chamber/changes"
)

// StateField validates a field holding the state of a state machine.
//
// Any state of the enum is accepted for a new record. A stored record may
// only move along Transitions; staying in the same state is always allowed.
// States of a named type are converted to S when their kinds match.
type StateField[S comparable] struct {
	Enum        Choices
	Transitions map[S][]S
}

// Validate checks that the state belongs to the enum
func (f StateField[S]) Validate(value any) error {
	return ChoiceField{Choices: f.Enum}.Validate(value)
}

// ValidateTransition checks the move from the stored state to value
func (f StateField[S]) ValidateTransition(initial changes.FieldState, value any) error {
	if err := f.Validate(value); err != nil {
		return err
	}
	if !initial.IsLoaded() {
		return nil
	}
	from, err := toState[S](initial.Value())
	if err != nil {
		return err
	}
	to, err := toState[S](value)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	for _, allowed := range f.Transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("Transition from %v to %v is not allowed.", from, to)
}

// toState converts a value of a type sharing the underlying kind of S
func toState[S comparable](value any) (S, error) {
	if s, ok := value.(S); ok {
		return s, nil
	}
	var s S
	t := reflect.TypeOf(&s).Elem()
	if value == nil {
		return s, fmt.Errorf("state must be %v, got nil", t)
	}
	v := reflect.ValueOf(value)
	if v.Kind() != t.Kind() || !v.Type().ConvertibleTo(t) {
		return s, fmt.Errorf("state must be %v, got %T", t, value)
	}
	return v.Convert(t).Interface().(S), nil
}
