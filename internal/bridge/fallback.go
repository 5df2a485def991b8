package bridge

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/HomyeeKing/crates.io/internal/conduit"
	"github.com/HomyeeKing/crates.io/internal/middleware"
	"github.com/HomyeeKing/crates.io/internal/observability"
	"github.com/HomyeeKing/crates.io/internal/report"
	"github.com/HomyeeKing/crates.io/internal/util"
)

// Adaptor serves wire requests by running one shared blocking handler on
// the worker pool. It owns the handler reference for the process lifetime.
type Adaptor struct {
	handler conduit.Handler
	pool    *Pool
	logger  observability.Logger
}

// AdaptorOption is a functional option for configuring the adaptor.
type AdaptorOption func(*Adaptor)

// WithAdaptorLogger sets the logger for the adaptor.
func WithAdaptorLogger(logger observability.Logger) AdaptorOption {
	return func(a *Adaptor) {
		a.logger = logger
	}
}

// NewAdaptor creates an adaptor dispatching to handler via pool.
func NewAdaptor(handler conduit.Handler, pool *Pool, opts ...AdaptorOption) *Adaptor {
	a := &Adaptor{
		handler: handler,
		pool:    pool,
		logger:  observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fallback registers the adaptor as the engine's catch-all route, invoked
// when no primary route matched.
func Fallback(engine *gin.Engine, a *Adaptor) {
	engine.NoRoute(gin.WrapH(a))
}

// ServeHTTP converts one wire request into one wire response via the
// blocking handler, without blocking the goroutines serving other
// connections. Once dispatched, the handler runs to completion even if the
// client disconnects; cancellation policy belongs to an outer layer.
func (a *Adaptor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if reason := checkContentLength(r); reason != "" {
		a.logger.Warn("bad request",
			observability.String("reason", "Content-Length "+reason),
			observability.String("path", r.URL.Path),
		)
		getBridgeMetrics().guardRejected.WithLabelValues(reason).Inc()

		w.WriteHeader(http.StatusBadRequest)
		return
	}

	hub := report.FromContext(r.Context())
	if hub == nil {
		hub = report.Clone()
	}

	start := util.StartTimeFromContext(r.Context())
	if start.IsZero() {
		start = time.Now()
	}

	// The guard bounds the declared size, so the body can be materialized
	// into a contiguous buffer.
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			a.serverError(w, hub, fmt.Errorf("failed to buffer request body: %w", err), failureKindBodyRead)
			return
		}
	}

	// The worker owns these copies; the wire request is never mutated in
	// place.
	u := *r.URL
	header := r.Header.Clone()
	method := r.Method
	remoteAddr := r.RemoteAddr
	metadata := middleware.MetadataFromContext(r.Context())

	var (
		resp       *conduit.Response
		handlerErr error
		panicked   bool
	)

	done, err := a.pool.Submit(r.Context(), func() {
		// The captured hub travels into the worker through the metadata
		// store and the failure path below; nothing relies on ambient
		// goroutine state.
		defer func() {
			if rec := recover(); rec != nil {
				panicked = true
				handlerErr = fmt.Errorf("handler panicked: %v\n%s", rec, debug.Stack())
			}
		}()

		req := conduit.NewRequest(method, &u, header, body, remoteAddr, start)
		if metadata != nil {
			req.SetExtension(conduit.ExtCustomMetadata, metadata)
		}

		resp, handlerErr = a.handler.Handle(req)
		if handlerErr == nil && resp != nil {
			convertResponse(req, resp)
		}
	})
	if err != nil {
		a.serverError(w, hub, fmt.Errorf("failed to dispatch handler: %w", err), failureKindDispatch)
		return
	}

	select {
	case <-done:
	case <-a.pool.Done():
		a.serverError(w, hub, fmt.Errorf("handler result not delivered: %w", ErrPoolUnavailable), failureKindDispatch)
		return
	}

	if handlerErr != nil {
		kind := failureKindError
		if panicked {
			kind = failureKindPanic
		} else if metadata != nil {
			// Surface returned handler errors in the access log alongside
			// the generic 500.
			metadata.Add("error", handlerErr.Error())
		}
		a.serverError(w, hub, handlerErr, kind)
		return
	}
	if resp == nil {
		a.serverError(w, hub, fmt.Errorf("handler returned no response"), failureKindError)
		return
	}

	a.writeResponse(w, resp)
}

// convertResponse transplants the matched route pattern, if any, from the
// handler-neutral request onto the outgoing response so downstream
// instrumentation can see which logical route served the fallback.
func convertResponse(req *conduit.Request, resp *conduit.Response) {
	if pattern, ok := req.RemoveExtension(conduit.ExtRoutePattern); ok {
		resp.SetExtension(conduit.ExtRoutePattern, pattern)
	}
}

// writeResponse translates the body variant onto the wire. The switch
// covers every variant; an unknown one is a programming error.
func (a *Adaptor) writeResponse(w http.ResponseWriter, resp *conduit.Response) {
	for key, values := range resp.Header {
		w.Header()[key] = values
	}

	switch body := resp.Body.(type) {
	case conduit.StaticBody:
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(resp.Status)
		_, _ = w.Write(body)
	case conduit.OwnedBody:
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(resp.Status)
		_, _ = w.Write(body)
	case conduit.FileBody:
		w.WriteHeader(resp.Status)
		if _, err := NewFileStream(body.File).WriteTo(w); err != nil {
			a.logger.Error("failed to stream file response", observability.Error(err))
		}
	case nil:
		w.WriteHeader(resp.Status)
	default:
		panic(fmt.Sprintf("unhandled body variant %T", body))
	}
}

// serverError logs an error message, reports it, and writes a generic
// status 500 response. The client never sees internal detail.
func (a *Adaptor) serverError(w http.ResponseWriter, hub *report.Hub, err error, kind string) {
	a.logger.Error("Internal Server Error", observability.Error(err))
	report.CaptureError(hub, err)
	getBridgeMetrics().handlerFailures.WithLabelValues(kind).Inc()

	w.Header().Set(middleware.HeaderContentType, middleware.ContentTypeTextPlain)
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = io.WriteString(w, middleware.ErrInternalServerError)
}
