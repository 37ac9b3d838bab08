package chamber

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ids(records []*Record[item]) []string {
	res := make([]string, 0, len(records))
	for _, r := range records {
		res = append(res, r.ID())
	}
	return res
}

func seed(t *testing.T, e env) {
	require.NoError(t, e.items.BulkCreate(e.ctx, []item{
		{ID: "a", Name: "alpha", Status: "new", Count: 1},
		{ID: "b", Name: "beta", Status: "active", Count: 2, Code: "B"},
		{ID: "c", Name: "gamma", Status: "active", Count: 3},
	}))
}

func TestGet(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	r, err := e.items.Get(e.ctx, "b")
	require.NoError(t, err)
	require.Equal(t, "beta", r.Data.Name)
	require.True(t, r.IsChanging())
	require.False(t, r.HasChanged())
	require.Equal(t, "item #b", r.String())

	_, err = e.items.Get(e.ctx, "x")
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, e.items.GetOrNone(e.ctx, "x"))
	require.NotNil(t, e.items.GetOrNone(e.ctx, "a"))
}

func TestQueries(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	require.Equal(t, []string{"a", "b", "c"}, ids(e.items.All(e.ctx)))
	require.Equal(t, 3, e.items.Count(e.ctx))
	require.Equal(t, []string{"b", "c"}, ids(e.items.Search(e.ctx, itemIndexStatus, "active")))
	require.Equal(t, []string{"b"}, ids(e.items.Search(e.ctx, itemIndexCode, "B")))
	require.Equal(t, []string{"a", "c"}, ids(e.items.Filter(e.ctx, func(data *item) bool {
		return data.Count%2 == 1
	})))

	require.Equal(t, []string{"b", "c"}, ids(e.items.FilterBy(e.ctx, map[string]any{"Status": "active"})))
	require.Equal(t, []string{"c"}, ids(e.items.FilterBy(e.ctx, map[string]any{"Status": "active", "Count": 3})))
	require.Equal(t, []string{"a", "c"}, ids(e.items.FilterBy(e.ctx, map[string]any{"Code": nil})))
	require.Empty(t, e.items.FilterBy(e.ctx, map[string]any{"Name": "delta"}))
	require.Panics(t, func() { e.items.FilterBy(e.ctx, map[string]any{"Missing": 1}) })
}

func TestQueryIsolation(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	r, err := e.items.Get(e.ctx, "a")
	require.NoError(t, err)
	r.Data.Tags = append(r.Data.Tags, "changed in memory")
	r.Data.Name = "changed in memory"

	again, err := e.items.Get(e.ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "alpha", again.Data.Name)
	require.Nil(t, again.Data.Tags)
}

func TestBulkCreate(t *testing.T) {
	e := newEnv(t)
	var log []string
	e.items.Dispatch(recordIDs(&log))

	require.NoError(t, e.items.BulkCreate(e.ctx, nil))
	require.NoError(t, e.items.BulkCreate(e.ctx, []item{{Name: "a"}, {Name: "b"}, {}}))
	require.Empty(t, log, "no dispatchers in bulk")
	require.Equal(t, 3, e.items.Count(e.ctx))
	for _, r := range e.items.All(e.ctx) {
		require.NotEmpty(t, r.ID())
		require.True(t, r.Data.Created.Equal(epoch))
	}
}

func TestUpdateOrCreate(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	r, created, err := e.items.UpdateOrCreate(e.ctx,
		map[string]any{"Name": "beta"},
		map[string]any{"Count": 20})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "b", r.ID())
	stored, _ := e.stored(t, "b")
	require.Equal(t, 20, stored.Count)

	r, created, err = e.items.UpdateOrCreate(e.ctx,
		map[string]any{"Name": "delta", "Status": "new"},
		map[string]any{"Count": 4})
	require.NoError(t, err)
	require.True(t, created)
	stored, ok := e.stored(t, r.ID())
	require.True(t, ok)
	require.Equal(t, "delta", stored.Name)
	require.Equal(t, "new", stored.Status)
	require.Equal(t, 4, stored.Count)

	_, _, err = e.items.UpdateOrCreate(e.ctx,
		map[string]any{"Name": "epsilon"},
		map[string]any{"Count": "many"})
	require.Error(t, err)
	require.Empty(t, e.items.FilterBy(e.ctx, map[string]any{"Name": "epsilon"}))
}

func TestBulkChangeAndSave(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	active := e.items.FilterBy(e.ctx, map[string]any{"Status": "active"})
	require.NoError(t, e.items.BulkChangeAndSave(e.ctx, active, map[string]any{"Status": "closed"}, UpdateOnlyChangedFields()))
	require.Equal(t, []string{"b", "c"}, ids(e.items.FilterBy(e.ctx, map[string]any{"Status": "closed"})))

	all := e.items.All(e.ctx)
	err := e.items.BulkChangeAndSave(e.ctx, all, map[string]any{"Name": ""})
	require.Error(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, []string{
		e.items.GetOrNone(e.ctx, "a").Data.Name,
		e.items.GetOrNone(e.ctx, "b").Data.Name,
		e.items.GetOrNone(e.ctx, "c").Data.Name,
	}, "a failed bulk change is undone as a whole")
}

func TestDeleteAll(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	var log []string
	e.db.Signals().PreDelete.Connect(nil, logTo(&log, "pre_delete"))

	n, err := e.items.DeleteAll(e.ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Zero(t, e.items.Count(e.ctx))
	require.Empty(t, log)

	require.NoError(t, e.db.Atomic(e.ctx, func(ctx context.Context) error {
		seed(t, e)
		n, err := e.items.DeleteAll(ctx)
		require.Equal(t, 3, n)
		return err
	}))
	require.Zero(t, e.items.Count(e.ctx))
}

func TestFilterByDate(t *testing.T) {
	e := newEnv(t)
	late := time.Date(2023, 6, 1, 23, 30, 0, 0, time.UTC)
	require.NoError(t, e.items.BulkCreate(e.ctx, []item{
		{ID: "a", Audit: Audit{Created: epoch}},
		{ID: "b", Audit: Audit{Created: epoch.AddDate(0, 0, 1)}},
		{ID: "c", Audit: Audit{Created: late}},
	}))

	require.Equal(t, []string{"a", "c"}, ids(e.items.FilterByDate(e.ctx, map[string]time.Time{"Created": epoch})))
	require.Equal(t, []string{"b"}, ids(e.items.ExcludeByDate(e.ctx, map[string]time.Time{"Created": epoch})))

	east := time.FixedZone("UTC+2", 2*60*60)
	day := time.Date(2023, 6, 2, 0, 0, 0, 0, east)
	require.Equal(t, []string{"b", "c"}, ids(e.items.FilterByDate(e.ctx, map[string]time.Time{"Created": day})),
		"days are taken in the location of the given time")
	require.Equal(t, []string{"a"}, ids(e.items.ExcludeByDate(e.ctx, map[string]time.Time{"Created": day})))

	require.Equal(t, []string{"b", "c"}, ids(e.items.FilterByDate(e.ctx, map[string]time.Time{"Created": day, "Changed": epoch})))
	require.Empty(t, e.items.FilterByDate(e.ctx, map[string]time.Time{"Created": day, "Changed": day}))
	require.Panics(t, func() { e.items.FilterByDate(e.ctx, map[string]time.Time{"Name": epoch}) })
}

func TestDistinct(t *testing.T) {
	e := newEnv(t)
	seed(t, e)

	require.Equal(t, []any{"new", "active"}, e.items.Distinct(e.ctx, "Status"))
	require.Equal(t, []any{"", "B"}, e.items.Distinct(e.ctx, "Code"))
	require.Equal(t, []any{1, 2, 3}, e.items.Distinct(e.ctx, "Count"))
	require.Panics(t, func() { e.items.Distinct(e.ctx, "Missing") })
}
