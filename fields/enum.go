package fields

import (
	"fmt"
	"reflect"
)

// CollisionError is returned when an enumeration is built with a repeated
// name or code
type CollisionError struct {
	What  string // "name" or "code"
	Value any
}

func (e CollisionError) Error() string {
	return fmt.Sprintf("duplicate enum %s %v", e.What, e.Value)
}

// Choice is one allowed value of a field with its label
type Choice struct {
	Value any
	Label string
}

// Choices is a closed set of allowed field values
type Choices interface {
	// Choices lists the allowed values in declaration order
	Choices() []Choice
	// Contains reports whether a value is allowed. Named types are compared
	// by their underlying string or integer value.
	Contains(value any) bool
}

// normalize maps string-based values to string and integer-based values to
// int64
func normalize(value any) any {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return value
	}
}

// Enum is a set of string values, each its own label
type Enum struct {
	names []string
	set   map[string]bool
}

// NewEnum creates an Enum
func NewEnum(names ...string) (*Enum, error) {
	e := &Enum{set: map[string]bool{}}
	for _, name := range names {
		if e.set[name] {
			return nil, CollisionError{What: "name", Value: name}
		}
		e.set[name] = true
		e.names = append(e.names, name)
	}
	return e, nil
}

// MustEnum is NewEnum panicking on error
func MustEnum(names ...string) *Enum {
	e, err := NewEnum(names...)
	if err != nil {
		panic(err)
	}
	return e
}

// Choices implements Choices
func (e *Enum) Choices() []Choice {
	choices := make([]Choice, 0, len(e.names))
	for _, name := range e.names {
		choices = append(choices, Choice{Value: name, Label: name})
	}
	return choices
}

// Contains implements Choices
func (e *Enum) Contains(value any) bool {
	name, ok := normalize(value).(string)
	return ok && e.set[name]
}

// NumericEnum numbers names from 1 in declaration order. An empty name skips
// a number.
type NumericEnum struct {
	names []string
	codes map[string]int
}

// NewNumericEnum creates a NumericEnum
func NewNumericEnum(names ...string) (*NumericEnum, error) {
	e := &NumericEnum{codes: map[string]int{}}
	for i, name := range names {
		if name == "" {
			continue
		}
		if _, ok := e.codes[name]; ok {
			return nil, CollisionError{What: "name", Value: name}
		}
		e.codes[name] = i + 1
		e.names = append(e.names, name)
	}
	return e, nil
}

// MustNumericEnum is NewNumericEnum panicking on error
func MustNumericEnum(names ...string) *NumericEnum {
	e, err := NewNumericEnum(names...)
	if err != nil {
		panic(err)
	}
	return e
}

// Code returns the number of a name
func (e *NumericEnum) Code(name string) (int, bool) {
	code, ok := e.codes[name]
	return code, ok
}

// Choices implements Choices
func (e *NumericEnum) Choices() []Choice {
	choices := make([]Choice, 0, len(e.names))
	for _, name := range e.names {
		choices = append(choices, Choice{Value: e.codes[name], Label: name})
	}
	return choices
}

// Contains implements Choices
func (e *NumericEnum) Contains(value any) bool {
	code, ok := normalize(value).(int64)
	if !ok {
		return false
	}
	for _, c := range e.codes {
		if int64(c) == code {
			return true
		}
	}
	return false
}

// NumChoice declares one entry of a ChoicesNumEnum
type NumChoice struct {
	Name  string
	Label string
	Code  int
}

// ChoicesNumEnum is a numeric enumeration with explicit codes and labels
type ChoicesNumEnum struct {
	entries []NumChoice
	byName  map[string]NumChoice
	byCode  map[int]NumChoice
}

// NewChoicesNumEnum creates a ChoicesNumEnum. Names and codes must be unique.
func NewChoicesNumEnum(entries ...NumChoice) (*ChoicesNumEnum, error) {
	e := &ChoicesNumEnum{byName: map[string]NumChoice{}, byCode: map[int]NumChoice{}}
	for _, entry := range entries {
		if _, ok := e.byName[entry.Name]; ok {
			return nil, CollisionError{What: "name", Value: entry.Name}
		}
		if _, ok := e.byCode[entry.Code]; ok {
			return nil, CollisionError{What: "code", Value: entry.Code}
		}
		e.byName[entry.Name] = entry
		e.byCode[entry.Code] = entry
		e.entries = append(e.entries, entry)
	}
	return e, nil
}

// Code returns the code of a name
func (e *ChoicesNumEnum) Code(name string) (int, bool) {
	entry, ok := e.byName[name]
	return entry.Code, ok
}

// Label returns the label of a code
func (e *ChoicesNumEnum) Label(code int) (string, bool) {
	entry, ok := e.byCode[code]
	return entry.Label, ok
}

// Choices implements Choices
func (e *ChoicesNumEnum) Choices() []Choice {
	choices := make([]Choice, 0, len(e.entries))
	for _, entry := range e.entries {
		choices = append(choices, Choice{Value: entry.Code, Label: entry.Label})
	}
	return choices
}

// Contains implements Choices
func (e *ChoicesNumEnum) Contains(value any) bool {
	code, ok := normalize(value).(int64)
	if !ok {
		return false
	}
	_, ok = e.byCode[int(code)]
	return ok
}
