// Package util provides request-scoped context helpers shared across the
// middleware chain and the bridge.
package util

import (
	"context"
	"time"
)

// Context keys.
type ctxKey string

const (
	ctxKeyRequestID    ctxKey = "request_id"
	ctxKeyStartTime    ctxKey = "start_time"
	ctxKeyOriginalPath ctxKey = "original_path"
)

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return v
	}
	return ""
}

// ContextWithStartTime adds a request start time to the context.
func ContextWithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyStartTime, t)
}

// StartTimeFromContext extracts the request start time from context.
func StartTimeFromContext(ctx context.Context) time.Time {
	if v, ok := ctx.Value(ctxKeyStartTime).(time.Time); ok {
		return v
	}
	return time.Time{}
}

// ContextWithOriginalPath records the pre-normalization request URI.
// Present only when an upstream step actually rewrote the path.
func ContextWithOriginalPath(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, ctxKeyOriginalPath, uri)
}

// OriginalPathFromContext returns the pre-normalization request URI and
// whether one was recorded.
func OriginalPathFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyOriginalPath).(string)
	return v, ok
}
