package typeddb

import (
	"testing"

	"github.com/ridge/chamber/indices"
	"github.com/ridge/chamber/meta"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	type Foo struct {
		meta.Meta `chamber:"name=foo"`
		ID        string `chamber:"identity"`
		Name      string
	}
	kind := KindOf(Foo{}, indices.FieldIndex("Name"))
	require.Equal(t, "foo", kind.DBName)
	require.Equal(t, "ID", kind.Identity().Name)
	require.Equal(t, "id", kind.IdentityIndex().Name())
	require.Contains(t, kind.Indices, "Name")
	require.Equal(t, "abc", kind.IDOf(&Foo{ID: "abc"}))
	require.Panics(t, func() { kind.IDOf(42) })
	require.PanicsWithValue(t, "duplicate index name on typeddb.Foo (foo): Name", func() {
		_ = KindOf(Foo{},
			indices.FieldIndex("Name"),
			indices.FieldIndex("Name"),
		)
	})
}
