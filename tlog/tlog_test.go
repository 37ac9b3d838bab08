package tlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContext(t *testing.T) {
	ctx := context.Background()
	require.NotNil(t, Get(ctx))

	logger := NewForTesting(t)
	ctx = WithLogger(ctx, logger)
	require.Same(t, logger, Get(ctx))

	sub := With(ctx, zap.String("alias", "default"))
	require.NotSame(t, logger, Get(sub))
}

func TestNew(t *testing.T) {
	require.NotNil(t, New(Config{Format: FormatJSON}))
	require.NotNil(t, New(Config{Name: "x", Format: FormatText, Color: ColorNo}))
	require.Panics(t, func() { New(Config{Format: "xml"}) })
	require.Panics(t, func() { New(Config{Format: FormatText, Color: "maybe"}) })
}
