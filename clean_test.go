package chamber

import (
	"context"
	"errors"
	"testing"

	"github.com/ridge/chamber/fields"
	"github.com/stretchr/testify/require"
)

func persistenceError(t *testing.T, err error) *PersistenceError {
	t.Helper()
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	return perr
}

func TestPersistenceMessage(t *testing.T) {
	verr := ValidationError{Fields: map[string][]string{"b": {"m3"}, "a": {"m1", "m2"}}}
	require.Equal(t, "a: m1, m2, b: m3", verr.Error())

	verr = ValidationError{Messages: []string{"x", "y"}}
	perr := verr.Persistence()
	require.Equal(t, "x, y", perr.Message)
	require.Nil(t, perr.Fields)

	verr = ValidationError{}
	verr.Add("a", "m1")
	verr.AddMessage("x")
	perr = verr.Persistence()
	require.Equal(t, "__all__: x, a: m1", perr.Message)
	require.Equal(t, map[string][]string{"a": {"m1"}, NonFieldErrors: {"x"}}, perr.Fields)

	require.True(t, ValidationError{}.Empty())
}

func TestValidateRequired(t *testing.T) {
	e := newEnv(t)

	_, err := e.items.Create(e.ctx, item{})
	perr := persistenceError(t, err)
	require.Equal(t, "Name: "+MessageRequired, perr.Message)
	require.Zero(t, e.items.Count(e.ctx))

	_, err = e.items.Create(e.ctx, item{}, Exclude("Name"))
	require.NoError(t, err)

	_, err = e.items.Create(e.ctx, item{}, CleanPreSave(false))
	require.NoError(t, err)
	require.Equal(t, 2, e.items.Count(e.ctx))
}

func TestValidateConst(t *testing.T) {
	e := newEnv(t)

	r, err := e.items.Create(e.ctx, item{Name: "a", Origin: "import"})
	require.NoError(t, err)

	r.Data.Origin = "manual"
	perr := persistenceError(t, r.Save(e.ctx))
	require.Equal(t, "Origin: "+MessageConst, perr.Message)

	r.Data.Origin = "import"
	require.NoError(t, r.Save(e.ctx))
}

func TestValidators(t *testing.T) {
	zero := fields.MustParseDecimal("0")
	e := newEnv(t,
		WithValidators("Status", fields.StateField[string]{
			Enum: statuses,
			Transitions: map[string][]string{
				"new":    {"active"},
				"active": {"closed"},
			},
		}),
		WithValidators("Price", fields.DecimalField{Min: &zero, Places: 2}),
	)

	_, err := e.items.Create(e.ctx, item{Name: "a", Status: "bogus"})
	require.Equal(t, "Status: Value bogus is not a valid choice.", persistenceError(t, err).Message)

	r, err := e.items.Create(e.ctx, item{Name: "a", Status: "active"})
	require.NoError(t, err, "a new record may start in any state")

	r.Data.Status = "new"
	require.Equal(t, "Status: Transition from active to new is not allowed.", persistenceError(t, r.Save(e.ctx)).Message)

	r.Data.Status = "closed"
	r.Data.Price = fields.MustParseDecimal("-1.005")
	perr := persistenceError(t, r.Save(e.ctx))
	require.Equal(t, map[string][]string{"Price": {"Ensure this value is greater than or equal to 0."}}, perr.Fields)

	r.Data.Price = fields.MustParseDecimal("1.005")
	perr = persistenceError(t, r.Save(e.ctx))
	require.Equal(t, "Price: Ensure that there are no more than 2 decimal places.", perr.Message)

	r.Data.Price = fields.MustParseDecimal("1.01")
	require.NoError(t, r.Save(e.ctx))
}

func TestValidateUnique(t *testing.T) {
	e := newEnv(t)

	_, err := e.items.Create(e.ctx, item{ID: "a", Name: "a", Code: "x"})
	require.NoError(t, err)

	_, err = e.items.Create(e.ctx, item{ID: "b", Name: "b", Code: "x"})
	require.Equal(t, "Code: item with this Code already exists.", persistenceError(t, err).Message)

	r, err := e.items.Create(e.ctx, item{ID: "b", Name: "b", Code: "y"})
	require.NoError(t, err)
	r.Data.Code = "x"
	require.Error(t, r.Save(e.ctx))
	require.Nil(t, r.Validate(e.ctx, "Code"))

	_, err = e.items.Create(e.ctx, item{ID: "c", Name: "c"})
	require.NoError(t, err, "zero codes are not indexed")
	_, err = e.items.Create(e.ctx, item{ID: "d", Name: "d"})
	require.NoError(t, err)
}

func TestValidateUniqueAfterBulkDuplicates(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.items.BulkCreate(e.ctx, []item{
		{ID: "a", Name: "a", Code: "x"},
		{ID: "b", Name: "b", Code: "x"},
	}))
	for _, id := range []string{"a", "b"} {
		r, err := e.items.Get(e.ctx, id)
		require.NoError(t, err)
		verr := r.Validate(e.ctx)
		require.NotNil(t, verr, id)
		require.Equal(t, map[string][]string{"Code": {"item with this Code already exists."}}, verr.Fields)
	}
}

type cleaned struct {
	Meta `chamber:"name=cleaned"`

	ID   string `chamber:"identity"`
	From int
	To   int
}

var kindCleaned = KindOf(cleaned{})

func (c *cleaned) Clean(ctx context.Context) error {
	if c.From > c.To {
		return errors.New("range is empty")
	}
	if c.To > 100 {
		return &ValidationError{Fields: map[string][]string{"To": {"too far"}}}
	}
	return nil
}

func TestCleanHook(t *testing.T) {
	db := New(Config{Kinds: KindList{kindCleaned}})
	model := NewModel[cleaned](db, kindCleaned, WithCleanPostSave(true))
	ctx := newEnv(t).ctx

	_, err := model.Create(ctx, cleaned{From: 2, To: 1})
	perr := persistenceError(t, err)
	require.Equal(t, "range is empty", perr.Message)
	require.Nil(t, perr.Fields)

	_, err = model.Create(ctx, cleaned{To: 101})
	require.Equal(t, "To: too far", persistenceError(t, err).Message)

	r, err := model.Create(ctx, cleaned{To: 1})
	require.NoError(t, err)

	r.Data.From = 5
	require.Error(t, r.Save(ctx, CleanPreSave(false)), "post-save validation")
	stored, err := model.Get(ctx, r.ID())
	require.NoError(t, err)
	require.Equal(t, 5, stored.Data.From, "post-save validation runs after the write")
}
