package meta

import (
	"fmt"
	"reflect"
)

// Meta is a type for dummy fields bearing tags for the containing structure
type Meta struct{}

var metaType = reflect.TypeOf(Meta{})

// Audit tells whether a field is maintained automatically on save
type Audit int

// Audit values
const (
	AuditNone    Audit = iota
	AuditCreated       // set once, when the record is inserted
	AuditChanged       // set on every save
)

// Field describes a leaf structure field (not an embedded substructure).
// All fields are read-only.
type Field struct {
	Name  string
	Index []int
	Type  reflect.Type

	Const    bool
	Required bool
	Audit    Audit
}

// String returns the field name
func (f Field) String() string {
	return f.Name
}

// Struct describes a structure.
// All fields are read-only.
type Struct struct {
	DBName   string
	Type     reflect.Type
	Fields   []Field
	identity int // index into Fields
}

const noIdentity = -1

// String returns the Go and DB type names
func (s Struct) String() string {
	return fmt.Sprintf("%s (%s)", s.Type, s.DBName)
}

// Identity returns the structure's identity field
func (s Struct) Identity() Field {
	return s.Fields[s.identity]
}

// Field finds the field with a given name
func (s Struct) Field(name string) (Field, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	// skipped field: return anyway to allow indices on skipped fields
	if f, ok := s.Type.FieldByName(name); ok {
		return Field{Name: name, Index: f.Index, Type: f.Type}, true
	}
	return Field{}, false
}

// Names returns the names of all surveyed fields in declaration order
func (s Struct) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// AuditField returns the field maintained with the given audit policy, if any
func (s Struct) AuditField(audit Audit) (Field, bool) {
	for _, f := range s.Fields {
		if f.Audit == audit {
			return f, true
		}
	}
	return Field{}, false
}
