package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/HomyeeKing/crates.io/internal/observability"
	"github.com/HomyeeKing/crates.io/internal/report"
)

// Recovery returns a middleware that contains panics from routes outside
// the bridge: the panic is logged with its stack, forwarded to the
// error-reporting sink, and converted into a generic 500 response. No
// failure escapes to the server process.
func Recovery(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					stack := debug.Stack()

					logger.Error("panic recovered",
						observability.String("path", r.URL.Path),
						observability.String("method", r.Method),
						observability.Any("error", rec),
						observability.String("stack", string(stack)),
					)

					report.CaptureError(
						report.FromContext(r.Context()),
						fmt.Errorf("panic: %v", rec),
					)

					GetMiddlewareMetrics().panicsRecovered.Inc()

					w.Header().Set(HeaderContentType, ContentTypeTextPlain)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, ErrInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
