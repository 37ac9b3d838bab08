package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMock(t *testing.T) {
	start := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewMock(start)
	require.Equal(t, start, c.Now())
	c.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), c.Now())
	c.Set(start)
	require.Equal(t, start, c.Now())
}

func TestReal(t *testing.T) {
	var c Clock = Real{}
	require.WithinDuration(t, time.Now(), c.Now(), time.Minute)
}
