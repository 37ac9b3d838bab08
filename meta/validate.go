package meta

import (
	"reflect"
)

// MissingRequired returns the names of required fields that hold empty values.
// Note that an empty but non-nil slice or map is not an empty value.
func (s Struct) MissingRequired(entity any) []string {
	v := reflect.Indirect(reflect.ValueOf(entity))
	if v.Type() != s.Type {
		panicf("expected struct type %v", s.Type)
	}
	var missing []string
	for _, field := range s.Fields {
		if !field.Required {
			continue
		}
		if v.FieldByIndex(field.Index).IsZero() {
			missing = append(missing, field.Name)
		}
	}
	return missing
}
