package middleware

import (
	"net/http"
	"strings"

	"github.com/HomyeeKing/crates.io/internal/util"
)

// NormalizePath returns a middleware that collapses duplicate slashes and
// strips a single trailing slash (the root path is exempt). When the path
// is rewritten, the original request URI is recorded in the context so the
// request logger can emit both the original and the normalized form.
func NormalizePath() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			normalized := normalizePath(r.URL.Path)
			if normalized != r.URL.Path {
				ctx := util.ContextWithOriginalPath(r.Context(), r.URL.RequestURI())
				r = r.WithContext(ctx)

				r.URL.Path = normalized
				r.URL.RawPath = ""
			}

			next.ServeHTTP(w, r)
		})
	}
}

func normalizePath(path string) string {
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
