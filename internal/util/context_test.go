package util

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx = ContextWithRequestID(ctx, "abc-123")
	assert.Equal(t, "abc-123", RequestIDFromContext(ctx))
}

func TestStartTimeContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.True(t, StartTimeFromContext(ctx).IsZero())

	start := time.Now()
	ctx = ContextWithStartTime(ctx, start)
	assert.Equal(t, start, StartTimeFromContext(ctx))
}

func TestOriginalPathContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, ok := OriginalPathFromContext(ctx)
	assert.False(t, ok)

	ctx = ContextWithOriginalPath(ctx, "/crates//foo/")
	uri, ok := OriginalPathFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "/crates//foo/", uri)
}
