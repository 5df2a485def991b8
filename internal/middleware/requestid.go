package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/HomyeeKing/crates.io/internal/util"
)

// RequestID returns a middleware that ensures every request carries an
// X-Request-Id header, generating one when the client or an upstream proxy
// did not. The ID is echoed on the response and stored in the context.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
				r.Header.Set(HeaderXRequestID, requestID)
			}

			ctx := util.ContextWithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)

			w.Header().Set(HeaderXRequestID, requestID)

			next.ServeHTTP(w, r)
		})
	}
}
