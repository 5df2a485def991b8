// Package bridge converts inbound wire requests into handler-neutral
// requests, runs the blocking legacy handler on a dedicated worker pool,
// and converts the result back into a wire response.
package bridge

import (
	"net/http"
	"strconv"
)

// MaxContentLength is the maximum size allowed in the Content-Length
// header.
//
// Chunked requests may grow to be larger over time if that much data is
// actually sent; request sizes for those must be limited higher in the
// stack.
const MaxContentLength int64 = 128 * 1024 * 1024 // 128 MB

// Guard rejection reasons. Logged server-side, never disclosed to the
// client.
const (
	reasonNotASCII     = "not ASCII"
	reasonNotU64       = "not a u64"
	reasonTooLarge     = "too large"
	reasonHintTooLarge = "body size hint too large"
)

// checkContentLength validates a declared body size before any buffering
// occurs. It returns a non-empty rejection reason when the request must be
// refused with a 400 and the handler must never be invoked.
//
// If a Content-Length is provided, a buffer of that size may be allocated
// upfront when the body is materialized; an oversized or malformed value
// would allow a denial of service to other clients.
func checkContentLength(r *http.Request) string {
	if value := r.Header.Get("Content-Length"); value != "" {
		if !isASCII(value) {
			return reasonNotASCII
		}

		contentLength, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return reasonNotU64
		}

		if contentLength > uint64(MaxContentLength) {
			return reasonTooLarge
		}
	}

	// A duplicate check against the transport's own lower-bound size
	// estimate, for transports that do not surface a literal header value.
	if r.ContentLength > MaxContentLength {
		return reasonHintTooLarge
	}

	return ""
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
