package changes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type record struct {
	values   map[string]any
	deferred map[string]bool
}

func newRecord() *record {
	return &record{
		values:   map[string]any{"Name": "", "Number": 0, "Tags": []string(nil)},
		deferred: map[string]bool{},
	}
}

func (r *record) Fields() []string {
	return []string{"Name", "Number", "Tags"}
}

func (r *record) Value(field string) any {
	return r.values[field]
}

func (r *record) Fetched(field string) bool {
	return !r.deferred[field]
}

func TestFieldState(t *testing.T) {
	require.True(t, Unknown().IsUnknown())
	require.True(t, FieldState{}.IsUnknown())
	require.True(t, Deferred().IsDeferred())
	require.True(t, Loaded(nil).IsLoaded())

	require.False(t, Unknown().Truthy())
	require.False(t, Deferred().Truthy())
	require.False(t, Loaded(0).Truthy())
	require.False(t, Loaded("").Truthy())
	require.True(t, Loaded(5).Truthy())

	require.True(t, Unknown().Equal(Unknown()))
	require.True(t, Deferred().Equal(Deferred()))
	require.False(t, Unknown().Equal(Deferred()))
	require.False(t, Deferred().Equal(Loaded(nil)))
	require.False(t, Unknown().Equal(Loaded(0)))
	require.True(t, Loaded([]int{1}).Equal(Loaded([]int{1})))
	require.False(t, Loaded(1).Equal(Loaded(int64(1))))

	require.Equal(t, "unknown", Unknown().String())
	require.Equal(t, "deferred", Deferred().String())
	require.Equal(t, "5", Loaded(5).String())
}

func TestEqual(t *testing.T) {
	now := time.Now()
	require.True(t, Equal(now, now.UTC()))
	require.True(t, Equal(nil, nil))
	require.False(t, Equal(nil, 0))
	require.True(t, Equal(map[string]int{"a": 1}, map[string]int{"a": 1}))
}

func TestCopy(t *testing.T) {
	tags := []string{"a"}
	cp := Copy(tags).([]string)
	tags[0] = "b"
	require.Equal(t, []string{"a"}, cp)

	type nested struct {
		M map[string][]int
		P *int
	}
	n := 1
	src := nested{M: map[string][]int{"x": {1}}, P: &n}
	dst := Copy(src).(nested)
	src.M["x"][0] = 2
	*src.P = 2
	require.Equal(t, []int{1}, dst.M["x"])
	require.Equal(t, 1, *dst.P)

	require.Nil(t, Copy(nil))
	require.Nil(t, Copy([]int(nil)))
}

func TestNewRecord(t *testing.T) {
	r := newRecord()
	tr := NewTracker(r)
	for _, state := range tr.InitialValues() {
		require.True(t, state.IsUnknown())
	}
	cs := tr.Changes()
	require.Equal(t, 3, cs.Len())
	require.Equal(t, []string{"Name", "Number", "Tags"}, cs.Keys())

	r.values["Number"] = 5
	change, ok := cs.Get("Number")
	require.True(t, ok)
	require.True(t, change.Initial.IsUnknown())
	require.Equal(t, Loaded(5), change.Current)
	require.Equal(t, 5, cs.ChangedValues()["Number"])
}

func TestRefreshNoChanges(t *testing.T) {
	r := newRecord()
	tr := NewTracker(r)
	r.values["Number"] = 5
	tr.Refresh()

	cs := tr.Changes()
	require.Zero(t, cs.Len())
	require.Empty(t, cs.Keys())

	r.values["Number"] = 5
	require.Zero(t, cs.Len())
	require.Equal(t, Loaded(5), tr.InitialValues()["Number"])
}

func TestSetThenRevert(t *testing.T) {
	r := newRecord()
	r.values["Name"] = "foo"
	tr := NewTracker(r)
	tr.Refresh()

	r.values["Name"] = "bar"
	require.True(t, tr.Changes().Has("Name"))
	r.values["Name"] = "foo"
	require.False(t, tr.Changes().Has("Name"))
	require.False(t, tr.Changes().Has())
}

func TestInPlaceMutation(t *testing.T) {
	r := newRecord()
	tags := []string{"a"}
	r.values["Tags"] = tags
	tr := NewTracker(r)
	tr.Refresh()

	tags[0] = "b"
	change, ok := tr.Changes().Get("Tags")
	require.True(t, ok)
	require.Equal(t, Loaded([]string{"a"}), change.Initial)
	require.Equal(t, Loaded([]string{"b"}), change.Current)
}

func TestPartialLoad(t *testing.T) {
	r := newRecord()
	r.values["Name"] = "foo"
	r.deferred["Number"] = true
	tr := NewTracker(r)
	tr.Refresh("Name", "Tags")

	initial := tr.InitialValues()
	require.True(t, initial["Number"].IsDeferred())
	require.False(t, initial["Number"].Truthy())
	require.False(t, initial["Number"].Equal(Loaded(0)))
	require.False(t, initial["Number"].Equal(Loaded(nil)))
	require.Zero(t, tr.Changes().Len())

	r.deferred["Number"] = false
	r.values["Number"] = 3
	change, ok := tr.Changes().Get("Number")
	require.True(t, ok)
	require.True(t, change.Initial.IsDeferred())
	require.Equal(t, Loaded(3), change.Current)

	tr.Refresh()
	require.True(t, tr.InitialValues()["Number"].IsDeferred())
	tr.Refresh("Number")
	require.Equal(t, Loaded(3), tr.InitialValues()["Number"])
	require.Zero(t, tr.Changes().Len())
}

func TestRefreshAllDeferred(t *testing.T) {
	r := newRecord()
	for _, name := range r.Fields() {
		r.deferred[name] = true
	}
	tr := NewTracker(r)
	tr.Refresh()
	tr.Refresh()
	for _, state := range tr.InitialValues() {
		require.True(t, state.IsDeferred())
	}
}

func TestFreeze(t *testing.T) {
	r := newRecord()
	tr := NewTracker(r)
	tr.Refresh()

	r.values["Name"] = "foo"
	frozen := tr.Freeze()
	live := tr.Changes()

	r.values["Name"] = "bar"
	r.values["Number"] = 7
	require.Equal(t, []string{"Name"}, frozen.Keys())
	require.Equal(t, map[string]any{"Name": "foo"}, frozen.ChangedValues())
	require.Equal(t, []string{"Name", "Number"}, live.Keys())

	tr.Refresh()
	require.Equal(t, 1, frozen.Len())
	require.Zero(t, live.Len())
	require.Equal(t, Loaded(""), frozen.InitialValues()["Name"])
	require.Equal(t, "{Name:  -> foo}", frozen.(interface{ String() string }).String())
}

func TestDiffRestricted(t *testing.T) {
	r := newRecord()
	tr := NewTracker(r)
	tr.Refresh()

	r.values["Name"] = "foo"
	r.values["Number"] = 7
	live := tr.Changes()
	frozen := tr.Freeze()
	for _, cs := range []ChangeSet{live, frozen} {
		require.Len(t, cs.Diff(), 2)
		diff := cs.Diff("Number", "Tags")
		require.Len(t, diff, 1)
		require.Equal(t, Change{Initial: Loaded(0), Current: Loaded(7)}, diff["Number"])
		require.True(t, cs.Has("Tags", "Name"))
		require.False(t, cs.Has("Tags"))
	}
}
