package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HomyeeKing/crates.io/internal/observability"
	"github.com/HomyeeKing/crates.io/internal/report"
	"github.com/HomyeeKing/crates.io/internal/util"
)

// slowRequestThresholdMS is the elapsed time, in whole milliseconds, above
// which a request is marked slow.
const slowRequestThresholdMS int64 = 1000

// downloadSuffix identifies the highest-traffic route. Since log volume is
// billed per byte, redirects from this route are logged with a reduced
// field set.
const downloadSuffix = "/download"

// requestMetadata is the parsed view of selected request headers, captured
// once at request entry and immutable afterward.
type requestMetadata struct {
	method       string
	uri          string
	path         string
	originalPath string
	hasOriginal  bool
	userAgent    string
	requestID    string
	realIP       string
}

func captureRequestMetadata(r *http.Request) requestMetadata {
	originalPath, hasOriginal := util.OriginalPathFromContext(r.Context())

	return requestMetadata{
		method:       r.Method,
		uri:          r.URL.RequestURI(),
		path:         r.URL.Path,
		originalPath: originalPath,
		hasOriginal:  hasOriginal,
		userAgent:    r.UserAgent(),
		requestID:    r.Header.Get(HeaderXRequestID),
		realIP:       r.Header.Get(HeaderXRealIP),
	}
}

// logMetadata assembles one access-log line from the request view, the
// response status, the elapsed time and the custom metadata store.
type logMetadata struct {
	request  requestMetadata
	status   int
	duration time.Duration
	custom   *CustomMetadata
}

func (m *logMetadata) line() string {
	var b strings.Builder
	l := logLine{b: &b, first: true}

	isDownloadEndpoint := strings.HasSuffix(m.request.path, downloadSuffix)
	isRedirect := m.status >= 300 && m.status < 400
	isDownloadRedirect := isDownloadEndpoint && isRedirect && m.request.method == http.MethodGet

	if !isDownloadRedirect {
		l.addField("method", m.request.method)
	}

	if m.request.hasOriginal {
		l.addQuotedField("path", m.request.originalPath)
	} else {
		l.addQuotedField("path", m.request.uri)
	}

	if !isDownloadRedirect {
		l.addField("request_id", m.request.requestID)
	}

	l.addQuotedField("fwd", m.request.realIP)

	responseTimeMS := m.duration.Milliseconds()
	if !isDownloadRedirect || responseTimeMS > 0 {
		l.addField("service", strconv.FormatInt(responseTimeMS, 10)+"ms")
	}

	if !isDownloadRedirect {
		l.addField("status", strconv.Itoa(m.status))
	}

	l.addQuotedField("user_agent", m.request.userAgent)

	if m.request.hasOriginal {
		l.addQuotedField("normalized_path", m.request.uri)
	}

	if m.custom != nil {
		for _, e := range m.custom.Entries() {
			l.addQuotedField(e.Key, e.Value)
		}
	}

	if responseTimeMS > slowRequestThresholdMS {
		l.addMarker("SLOW REQUEST")
	}

	return b.String()
}

// RequestLog returns a middleware that wraps one request/response cycle
// and emits exactly one access-log line on completion. On entry it clones
// a fresh error-reporting hub and installs a fresh custom metadata store;
// downstream stages (including the blocking handler) may append to the
// store until the response has been produced. Lines for 5xx responses go
// to the error sink, everything else to the info sink. The response itself
// is never altered.
func RequestLog(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			hub := report.Clone()
			ctx := report.Bind(r.Context(), hub)

			metadata := NewCustomMetadata(hub)
			ctx = ContextWithMetadata(ctx, metadata)
			ctx = util.ContextWithStartTime(ctx, start)
			r = r.WithContext(ctx)

			request := captureRequestMetadata(r)

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			m := logMetadata{
				request:  request,
				status:   rw.status,
				duration: time.Since(start),
				custom:   metadata,
			}

			if m.duration.Milliseconds() > slowRequestThresholdMS {
				GetMiddlewareMetrics().slowRequests.Inc()
			}

			if m.status >= http.StatusInternalServerError {
				logger.Error(m.line())
			} else {
				logger.Info(m.line())
			}
		})
	}
}

// logLine accumulates space-separated key=value tokens.
type logLine struct {
	b     *strings.Builder
	first bool
}

func (l *logLine) addField(key, value string) {
	l.startItem()
	l.b.WriteString(key)
	l.b.WriteByte('=')
	l.b.WriteString(value)
}

func (l *logLine) addQuotedField(key, value string) {
	l.startItem()
	l.b.WriteString(key)
	l.b.WriteString(`="`)
	l.b.WriteString(value)
	l.b.WriteByte('"')
}

func (l *logLine) addMarker(marker string) {
	l.startItem()
	l.b.WriteString(marker)
}

func (l *logLine) startItem() {
	if !l.first {
		l.b.WriteByte(' ')
	}
	l.first = false
}
