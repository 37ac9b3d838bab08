package test

import (
	"context"
	"testing"
	"time"

	"github.com/ridge/chamber/tlog"
)

// Context returns a new testing context carrying a testing logger
func Context(t *testing.T) context.Context {
	return tlog.WithLogger(context.Background(), tlog.NewForTesting(t))
}

// ContextWithTimeout is a version of Context that is closed with
// context.DeadlineExceeded after the timeout
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(Context(t), timeout)
	t.Cleanup(cancel)
	return ctx
}
