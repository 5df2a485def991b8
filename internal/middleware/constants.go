// Package middleware provides the HTTP middleware chain around the
// synchronous-handler bridge: request IDs, path normalization, request
// logging and panic recovery.
package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderXRequestID is the X-Request-Id header name.
	HeaderXRequestID = "X-Request-Id"

	// HeaderXRealIP is the X-Real-Ip header name carrying the
	// forwarded client IP.
	HeaderXRealIP = "X-Real-Ip"
)

// Content type constants.
const (
	// ContentTypeTextPlain is the plain text content type.
	ContentTypeTextPlain = "text/plain; charset=utf-8"
)

// ErrInternalServerError is the fixed response body for contained
// failures. No internal detail is ever disclosed to the client.
const ErrInternalServerError = "Internal Server Error"
