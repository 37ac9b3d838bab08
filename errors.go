package chamber

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	// ErrNotFound is returned when a record is not in the database
	ErrNotFound = errors.New("record not found")
	// ErrUnsaved is returned by operations that need a saved record
	ErrUnsaved = errors.New("record is not saved")
	// ErrNotAtomic is returned by Locked outside of atomic blocks
	ErrNotAtomic = errors.New("locking requires an atomic block")
)

// NonFieldErrors is the key of messages not bound to a field in
// PersistenceError.Fields
const NonFieldErrors = "__all__"

// ValidationError collects validation failures: messages per field and
// messages about the record as a whole.
//
// Clean hooks can return a ValidationError to report field messages.
type ValidationError struct {
	Fields   map[string][]string
	Messages []string
}

// FieldError returns a ValidationError with one message for a field
func FieldError(field, message string) ValidationError {
	return ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add adds a message for a field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// AddMessage adds a message not bound to a field
func (e *ValidationError) AddMessage(message string) {
	e.Messages = append(e.Messages, message)
}

// Merge adds all messages of another error
func (e *ValidationError) Merge(other ValidationError) {
	for _, field := range sortedKeys(other.Fields) {
		for _, m := range other.Fields[field] {
			e.Add(field, m)
		}
	}
	e.Messages = append(e.Messages, other.Messages...)
}

// Empty reports whether there are no messages
func (e ValidationError) Empty() bool {
	return len(e.Fields) == 0 && len(e.Messages) == 0
}

func (e ValidationError) Error() string {
	return e.Persistence().Message
}

// Persistence translates the error into the form reported by saves and
// deletes
func (e ValidationError) Persistence() *PersistenceError {
	if len(e.Fields) == 0 {
		return &PersistenceError{Message: strings.Join(e.Messages, ", ")}
	}
	fields := make(map[string][]string, len(e.Fields)+1)
	for field, messages := range e.Fields {
		fields[field] = slices.Clone(messages)
	}
	if len(e.Messages) > 0 {
		fields[NonFieldErrors] = slices.Clone(e.Messages)
	}
	parts := make([]string, 0, len(fields))
	for _, field := range sortedKeys(fields) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(fields[field], ", ")))
	}
	return &PersistenceError{Message: strings.Join(parts, ", "), Fields: fields}
}

// PersistenceError is returned by saves and deletes that fail validation.
//
// Message lists the messages as "field: m1, m2, field2: m3" with fields
// sorted, or just the messages when none is bound to a field. Fields is nil
// in the latter case.
type PersistenceError struct {
	Message string
	Fields  map[string][]string
}

func (e *PersistenceError) Error() string {
	return e.Message
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
