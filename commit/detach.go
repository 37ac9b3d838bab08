package commit

import (
	"context"
	"time"
)

// committed is the context of on-success callables: the transaction is
// already committed, so they keep the values of the scope context but not
// its deadline or cancellation
type committed struct {
	context.Context //nolint:containedctx // this struct exists to wrap a context
}

func (committed) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

func (committed) Done() <-chan struct{} {
	return nil
}

func (committed) Err() error {
	return nil
}
