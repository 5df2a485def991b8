// Package conduit defines the handler-neutral request/response model used
// by legacy synchronous handlers. The bridge converts inbound wire requests
// into this form, runs the handler off the serving path, and converts the
// result back into a wire response.
package conduit

import (
	"net/http"
	"net/url"
	"time"
)

// Handler is the synchronous business-logic unit. Implementations block
// until the response is fully produced; they are never invoked on the
// server's accept/serve path directly.
type Handler interface {
	Handle(req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(req *Request) (*Response, error)

// Handle calls f(req).
func (f HandlerFunc) Handle(req *Request) (*Response, error) {
	return f(req)
}

// ExtensionKey identifies a value in a request or response extension map.
// Keys are declared as typed constants so writers and readers agree on
// what travels under each key.
type ExtensionKey string

const (
	// ExtRoutePattern carries the matched route pattern (a RoutePattern)
	// from the handler-neutral request onto the outgoing response, so
	// instrumentation can see which logical route served the request.
	ExtRoutePattern ExtensionKey = "route-pattern"

	// ExtCustomMetadata carries the per-request custom metadata store
	// (a *middleware.CustomMetadata) into the handler execution context.
	ExtCustomMetadata ExtensionKey = "custom-metadata"
)

// RoutePattern is the logical route that matched a request, e.g.
// "/api/v1/crates/:crate_id/:version/download".
type RoutePattern string

// Request is the handler-neutral view of one wire request. It owns a fully
// buffered copy of the body and is never shared across requests.
type Request struct {
	Method     string
	URL        *url.URL
	Header     http.Header
	Body       []byte
	RemoteAddr string

	// StartTime is the monotonic instant recorded when the wire request
	// entered the bridge, before the body was buffered.
	StartTime time.Time

	extensions map[ExtensionKey]any
}

// NewRequest builds a handler-neutral request from buffered wire parts.
func NewRequest(method string, u *url.URL, header http.Header, body []byte, remoteAddr string, start time.Time) *Request {
	return &Request{
		Method:     method,
		URL:        u,
		Header:     header,
		Body:       body,
		RemoteAddr: remoteAddr,
		StartTime:  start,
	}
}

// Extension returns the value stored under key, if any.
func (r *Request) Extension(key ExtensionKey) (any, bool) {
	v, ok := r.extensions[key]
	return v, ok
}

// SetExtension stores a value under key, replacing any previous value.
func (r *Request) SetExtension(key ExtensionKey, value any) {
	if r.extensions == nil {
		r.extensions = make(map[ExtensionKey]any)
	}
	r.extensions[key] = value
}

// RemoveExtension removes and returns the value stored under key.
func (r *Request) RemoveExtension(key ExtensionKey) (any, bool) {
	v, ok := r.extensions[key]
	if ok {
		delete(r.extensions, key)
	}
	return v, ok
}

// Response is the result of one handler invocation: status, headers, and
// exactly one body variant.
type Response struct {
	Status int
	Header http.Header
	Body   Body

	extensions map[ExtensionKey]any
}

// NewResponse builds a response with the given status and body and an
// empty header map.
func NewResponse(status int, body Body) *Response {
	return &Response{
		Status: status,
		Header: make(http.Header),
		Body:   body,
	}
}

// Extension returns the value stored under key, if any. Extensions are
// internal attributes for later instrumentation; they are never serialized
// to the client.
func (r *Response) Extension(key ExtensionKey) (any, bool) {
	v, ok := r.extensions[key]
	return v, ok
}

// SetExtension stores a value under key, replacing any previous value.
func (r *Response) SetExtension(key ExtensionKey, value any) {
	if r.extensions == nil {
		r.extensions = make(map[ExtensionKey]any)
	}
	r.extensions[key] = value
}
