// Package report passes error-reporting context explicitly between the
// serving goroutine and the blocking worker. A hub is cloned when a request
// enters the pipeline and handed to everything that may need to attribute
// an error or annotation to that request; no ambient goroutine-local state
// is involved.
package report

import (
	"context"

	"github.com/getsentry/sentry-go"
)

// Hub is the per-request error-reporting context.
type Hub = sentry.Hub

// Clone derives a fresh per-request hub from the process-wide client.
func Clone() *Hub {
	return sentry.CurrentHub().Clone()
}

// Bind attaches hub to ctx so downstream stages of the same request can
// retrieve it.
func Bind(ctx context.Context, hub *Hub) context.Context {
	return sentry.SetHubOnContext(ctx, hub)
}

// FromContext returns the hub bound to ctx, or nil when none was bound.
func FromContext(ctx context.Context) *Hub {
	if !sentry.HasHubOnContext(ctx) {
		return nil
	}
	return sentry.GetHubFromContext(ctx)
}

// CaptureError forwards err to the error-reporting sink under hub's scope.
// A nil hub drops the report.
func CaptureError(hub *Hub, err error) {
	if hub == nil || err == nil {
		return
	}
	hub.CaptureException(err)
}

// AddExtra attaches a key/value annotation to hub's scope so a later error
// report carries the same context as the access log line.
func AddExtra(hub *Hub, key, value string) {
	if hub == nil {
		return
	}
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetExtra(key, value)
	})
}
