package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ridge/parallel"
	"github.com/stretchr/testify/require"
)

// Group returns a parallel.Group running in a testing context. The group is
// shut down at the end of the test, failing it if any task failed.
func Group(t *testing.T) *parallel.Group {
	return newGroup(t, Context(t))
}

// GroupWithTimeout is a version of Group with a timeout
func GroupWithTimeout(t *testing.T, timeout time.Duration) *parallel.Group {
	return newGroup(t, ContextWithTimeout(t, timeout))
}

func newGroup(t *testing.T, ctx context.Context) *parallel.Group {
	group := parallel.NewGroup(ctx)
	t.Cleanup(func() {
		group.Exit(nil)
		if err := group.Wait(); !errors.Is(err, context.Canceled) {
			require.NoError(t, err)
		}
	})
	return group
}
