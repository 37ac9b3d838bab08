package fields

import (
	"errors"
	"fmt"
	"reflect"
)

// DecimalField validates decimal field values (Decimal or *Decimal; nil
// pointers pass)
type DecimalField struct {
	Min    *Decimal
	Max    *Decimal
	Places int // maximum digits after the decimal point, 0 for any
}

// Validate checks the bounds and the number of decimal places
func (f DecimalField) Validate(value any) error {
	var d Decimal
	switch v := value.(type) {
	case Decimal:
		d = v
	case *Decimal:
		if v == nil {
			return nil
		}
		d = *v
	default:
		panic(fmt.Sprintf("DecimalField expects a Decimal, got %T", value))
	}
	if f.Min != nil && d.Cmp(*f.Min) < 0 {
		return fmt.Errorf("Ensure this value is greater than or equal to %s.", f.Min)
	}
	if f.Max != nil && d.Cmp(*f.Max) > 0 {
		return fmt.Errorf("Ensure this value is less than or equal to %s.", f.Max)
	}
	if f.Places > 0 {
		if places := d.Places(); places < 0 || places > f.Places {
			return fmt.Errorf("Ensure that there are no more than %d decimal places.", f.Places)
		}
	}
	return nil
}

// ChoiceField validates that a value belongs to a set of choices
type ChoiceField struct {
	Choices Choices
}

// Validate checks membership
func (f ChoiceField) Validate(value any) error {
	if !f.Choices.Contains(value) {
		return fmt.Errorf("Value %v is not a valid choice.", value)
	}
	return nil
}

// Func adapts a function to a field validator
type Func func(value any) error

// Validate calls f
func (f Func) Validate(value any) error {
	return f(value)
}

// NotBlank rejects zero values of any type
var NotBlank = Func(func(value any) error {
	if value == nil || reflect.ValueOf(value).IsZero() {
		return errors.New("This field cannot be blank.")
	}
	return nil
})
