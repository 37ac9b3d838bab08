package meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTag(t *testing.T) {
	require.Equal(t, "", option{}.String())
	require.Equal(t, "foo", option{key: "foo"}.String())
	require.Equal(t, "foo=bar", option{key: "foo=", value: "bar"}.String())
}

func TestParseTag(t *testing.T) {
	require.Empty(t, parseTag(``))
	require.Empty(t, parseTag(`foo`))
	require.Empty(t, parseTag(`foo chamber:""`))
	require.Equal(t, []option{{key: "foo"}}, parseTag(`chamber:"foo"`))
	require.Equal(t, []option{{key: "foo"}, {key: "bar=", value: "qux"}}, parseTag(`chamber:"foo,bar=qux"`))
	require.Equal(t, []option{{key: "foo=", value: "bar=baz"}}, parseTag(`chamber:"foo=bar=baz"`))
}
