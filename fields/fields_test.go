package fields

import (
	"testing"

	"github.com/ridge/chamber/changes"
	"github.com/stretchr/testify/require"
)

func decimalPtr(s string) *Decimal {
	d := MustParseDecimal(s)
	return &d
}

func TestDecimal(t *testing.T) {
	a := MustParseDecimal("12.50")
	b := NewDecimal(1, 4)
	require.Equal(t, "12.5", a.String())
	require.Equal(t, "0.25", b.String())
	require.Equal(t, "12.75", a.Add(b).String())
	require.Equal(t, "12.25", a.Sub(b).String())
	require.Equal(t, "3.125", a.Mul(b).String())
	require.Equal(t, 1, a.Cmp(b))
	require.Equal(t, 0, Decimal{}.Sign())
	require.Equal(t, "0", Decimal{}.String())
	require.True(t, MustParseDecimal("1.0").Equal(MustParseDecimal("1")))
	require.Equal(t, 2, MustParseDecimal("0.01").Places())
	require.Equal(t, 0, MustParseDecimal("100").Places())
	require.Equal(t, -1, NewDecimal(1, 3).Places())

	_, err := ParseDecimal("1/3")
	require.Error(t, err)
	_, err = ParseDecimal("abc")
	require.Error(t, err)
	require.Panics(t, func() { NewDecimal(1, 0) })
}

func TestDecimalChangeTracking(t *testing.T) {
	a := MustParseDecimal("1.5")
	cp := changes.Copy(a).(Decimal)
	require.True(t, changes.Equal(a, cp))
	require.True(t, changes.Equal(MustParseDecimal("1.50"), a))
	require.False(t, changes.Equal(MustParseDecimal("1.51"), a))
}

func TestDecimalField(t *testing.T) {
	f := DecimalField{Min: decimalPtr("0"), Max: decimalPtr("100"), Places: 2}
	require.NoError(t, f.Validate(MustParseDecimal("10.25")))
	require.NoError(t, f.Validate((*Decimal)(nil)))
	require.NoError(t, f.Validate(decimalPtr("100")))
	require.EqualError(t, f.Validate(MustParseDecimal("-1")), "Ensure this value is greater than or equal to 0.")
	require.EqualError(t, f.Validate(MustParseDecimal("100.5")), "Ensure this value is less than or equal to 100.")
	require.EqualError(t, f.Validate(MustParseDecimal("1.125")), "Ensure that there are no more than 2 decimal places.")
	require.Panics(t, func() { _ = f.Validate(1.5) })
}

func TestEnum(t *testing.T) {
	type color string
	e := MustEnum("red", "green")
	require.True(t, e.Contains("red"))
	require.True(t, e.Contains(color("green")))
	require.False(t, e.Contains("blue"))
	require.False(t, e.Contains(1))
	require.Equal(t, []Choice{{Value: "red", Label: "red"}, {Value: "green", Label: "green"}}, e.Choices())

	_, err := NewEnum("a", "a")
	require.Equal(t, CollisionError{What: "name", Value: "a"}, err)
	require.EqualError(t, err, "duplicate enum name a")
}

func TestNumericEnum(t *testing.T) {
	e := MustNumericEnum("A", "", "C")
	code, ok := e.Code("C")
	require.True(t, ok)
	require.Equal(t, 3, code)
	_, ok = e.Code("B")
	require.False(t, ok)
	require.True(t, e.Contains(1))
	require.False(t, e.Contains(2))
	require.True(t, e.Contains(uint8(3)))
	require.Equal(t, []Choice{{Value: 1, Label: "A"}, {Value: 3, Label: "C"}}, e.Choices())

	_, err := NewNumericEnum("A", "A")
	require.Error(t, err)
}

func TestChoicesNumEnum(t *testing.T) {
	e, err := NewChoicesNumEnum(
		NumChoice{Name: "draft", Label: "Draft", Code: 10},
		NumChoice{Name: "done", Label: "Done", Code: 20},
	)
	require.NoError(t, err)
	code, ok := e.Code("done")
	require.True(t, ok)
	require.Equal(t, 20, code)
	label, ok := e.Label(10)
	require.True(t, ok)
	require.Equal(t, "Draft", label)
	require.True(t, e.Contains(20))
	require.False(t, e.Contains(30))
	require.Equal(t, []Choice{{Value: 10, Label: "Draft"}, {Value: 20, Label: "Done"}}, e.Choices())

	_, err = NewChoicesNumEnum(NumChoice{Name: "a", Code: 1}, NumChoice{Name: "b", Code: 1})
	require.Equal(t, CollisionError{What: "code", Value: 1}, err)
	_, err = NewChoicesNumEnum(NumChoice{Name: "a", Code: 1}, NumChoice{Name: "a", Code: 2})
	require.Equal(t, CollisionError{What: "name", Value: "a"}, err)
}

func TestStateField(t *testing.T) {
	type state string
	f := StateField[state]{
		Enum: MustEnum("new", "active", "closed"),
		Transitions: map[state][]state{
			"new":    {"active"},
			"active": {"closed"},
		},
	}
	require.NoError(t, f.ValidateTransition(changes.Unknown(), state("closed")))
	require.NoError(t, f.ValidateTransition(changes.Deferred(), state("active")))
	require.NoError(t, f.ValidateTransition(changes.Loaded(state("new")), state("new")))
	require.NoError(t, f.ValidateTransition(changes.Loaded(state("new")), state("active")))
	require.EqualError(t, f.ValidateTransition(changes.Loaded(state("new")), state("closed")),
		"Transition from new to closed is not allowed.")
	require.EqualError(t, f.ValidateTransition(changes.Unknown(), state("gone")), "Value gone is not a valid choice.")
	require.Error(t, f.Validate(state("gone")))
}

func TestStateFieldNamedType(t *testing.T) {
	type state string
	f := StateField[string]{
		Enum:        MustEnum("new", "active", "closed"),
		Transitions: map[string][]string{"new": {"active"}},
	}
	require.NoError(t, f.ValidateTransition(changes.Loaded(state("new")), state("active")))
	require.NoError(t, f.ValidateTransition(changes.Loaded("new"), state("new")))
	require.EqualError(t, f.ValidateTransition(changes.Loaded(state("new")), state("closed")),
		"Transition from new to closed is not allowed.")

	g := StateField[int]{Enum: MustEnum("new")}
	require.NotPanics(t, func() {
		require.EqualError(t, g.ValidateTransition(changes.Loaded(1), "new"), "state must be int, got string")
	})
}

func TestRestrictedFile(t *testing.T) {
	f := RestrictedFile{
		MaxSize:             1024,
		ContentTypes:        []string{"image/png"},
		SniffedContentTypes: []string{"image/png"},
	}
	png := []byte("\x89PNG\x0D\x0A\x1A\x0A")
	require.NoError(t, f.Validate(File{}))
	require.NoError(t, f.Validate((*File)(nil)))
	require.NoError(t, f.Validate(File{Name: "a.PNG", Size: 10, Head: png}))
	require.EqualError(t, f.Validate(&File{Name: "a.png", Size: 2048, Head: png}),
		"Please keep filesize under 1.0 KB. Current filesize 2.0 KB")
	require.EqualError(t, f.Validate(File{Name: "a.exe", Size: 10, Head: png}),
		"Extension of file name is not allowed")
	require.EqualError(t, f.Validate(File{Name: "a.png", Size: 10, Head: []byte("hello")}),
		"File content was evaluated as not supported file type")
}

func TestFileSize(t *testing.T) {
	require.Equal(t, "1 byte", FileSize(1))
	require.Equal(t, "512 bytes", FileSize(512))
	require.Equal(t, "1.5 KB", FileSize(1536))
	require.Equal(t, "2.0 MB", FileSize(2*1024*1024))
}

func TestValidators(t *testing.T) {
	require.Error(t, NotBlank.Validate(""))
	require.Error(t, NotBlank.Validate(nil))
	require.NoError(t, NotBlank.Validate("x"))
	require.NoError(t, ChoiceField{Choices: MustEnum("a")}.Validate("a"))
}
