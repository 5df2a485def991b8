package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/HomyeeKing/crates.io/internal/observability"
	"github.com/HomyeeKing/crates.io/internal/util"
)

func TestLogLine_FieldOrder(t *testing.T) {
	t.Parallel()

	m := logMetadata{
		request: requestMetadata{
			method:    http.MethodGet,
			uri:       "/api/v1/crates?page=2",
			path:      "/api/v1/crates",
			userAgent: "cargo/1.70",
			requestID: "req-123",
			realIP:    "203.0.113.7",
		},
		status:   http.StatusOK,
		duration: 17 * time.Millisecond,
	}

	expected := `method=GET path="/api/v1/crates?page=2" request_id=req-123 ` +
		`fwd="203.0.113.7" service=17ms status=200 user_agent="cargo/1.70"`
	assert.Equal(t, expected, m.line())
}

func TestLogLine_MissingHeadersEmitEmptyValues(t *testing.T) {
	t.Parallel()

	m := logMetadata{
		request: requestMetadata{
			method: http.MethodGet,
			uri:    "/",
			path:   "/",
		},
		status:   http.StatusOK,
		duration: 0,
	}

	expected := `method=GET path="/" request_id= fwd="" service=0ms status=200 user_agent=""`
	assert.Equal(t, expected, m.line())
}

func TestLogLine_DownloadRedirect(t *testing.T) {
	t.Parallel()

	m := logMetadata{
		request: requestMetadata{
			method:    http.MethodGet,
			uri:       "/crates/foo/download",
			path:      "/crates/foo/download",
			userAgent: "<ua>",
		},
		status:   http.StatusFound,
		duration: 3 * time.Millisecond,
	}

	assert.Equal(t, `path="/crates/foo/download" fwd="" service=3ms user_agent="<ua>"`, m.line())
}

func TestLogLine_DownloadRedirectZeroDuration(t *testing.T) {
	t.Parallel()

	m := logMetadata{
		request: requestMetadata{
			method:    http.MethodGet,
			uri:       "/crates/foo/download",
			path:      "/crates/foo/download",
			userAgent: "<ua>",
		},
		status:   http.StatusFound,
		duration: 400 * time.Microsecond,
	}

	// service is suppressed when the elapsed time rounds to 0 ms.
	assert.Equal(t, `path="/crates/foo/download" fwd="" user_agent="<ua>"`, m.line())
}

func TestLogLine_DownloadSuppressionRequiresAllConditions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{name: "not a redirect", method: http.MethodGet, path: "/crates/foo/download", status: http.StatusOK},
		{name: "not the download route", method: http.MethodGet, path: "/crates/foo", status: http.StatusFound},
		{name: "not a GET", method: http.MethodPut, path: "/crates/foo/download", status: http.StatusFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := logMetadata{
				request: requestMetadata{
					method: tt.method,
					uri:    tt.path,
					path:   tt.path,
				},
				status:   tt.status,
				duration: 5 * time.Millisecond,
			}

			line := m.line()
			assert.Contains(t, line, "method=")
			assert.Contains(t, line, "request_id=")
			assert.Contains(t, line, "status=")
		})
	}
}

func TestLogLine_NormalizedPath(t *testing.T) {
	t.Parallel()

	m := logMetadata{
		request: requestMetadata{
			method:       http.MethodGet,
			uri:          "/api/v1/crates",
			path:         "/api/v1/crates",
			originalPath: "/api//v1/crates/",
			hasOriginal:  true,
			userAgent:    "cargo",
		},
		status:   http.StatusOK,
		duration: time.Millisecond,
	}

	expected := `method=GET path="/api//v1/crates/" request_id= fwd="" service=1ms ` +
		`status=200 user_agent="cargo" normalized_path="/api/v1/crates"`
	assert.Equal(t, expected, m.line())
}

func TestLogLine_CustomMetadataInInsertionOrder(t *testing.T) {
	t.Parallel()

	metadata := NewCustomMetadata(nil)
	metadata.Add("crate", "serde")
	metadata.Add("version", "1.0.0")
	metadata.Add("crate", "serde_json")

	m := logMetadata{
		request: requestMetadata{
			method: http.MethodGet,
			uri:    "/x",
			path:   "/x",
		},
		status:   http.StatusOK,
		duration: time.Millisecond,
		custom:   metadata,
	}

	assert.Contains(t, m.line(),
		`crate="serde" version="1.0.0" crate="serde_json"`)
}

func TestLogLine_SlowRequestMarker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		duration   time.Duration
		wantMarker bool
	}{
		{name: "fast request", duration: 900 * time.Millisecond, wantMarker: false},
		{name: "exactly at threshold", duration: 1000 * time.Millisecond, wantMarker: false},
		{name: "slow request", duration: 1001 * time.Millisecond, wantMarker: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := logMetadata{
				request:  requestMetadata{method: http.MethodGet, uri: "/x", path: "/x"},
				status:   http.StatusOK,
				duration: tt.duration,
			}

			line := m.line()
			if tt.wantMarker {
				assert.True(t, len(line) > len("SLOW REQUEST"))
				assert.Equal(t, "SLOW REQUEST", line[len(line)-len("SLOW REQUEST"):])
			} else {
				assert.NotContains(t, line, "SLOW REQUEST")
			}
		})
	}
}

func observedLogger(t *testing.T) (observability.Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	return observability.FromZap(zap.New(core)), logs
}

func TestRequestLog_EmitsOneLinePerRequest(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(t)

	handler := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	req.Header.Set("User-Agent", "cargo/1.70")
	req.Header.Set(HeaderXRequestID, "req-42")
	req.Header.Set(HeaderXRealIP, "198.51.100.3")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, `method=GET path="/api/v1/summary" request_id=req-42 fwd="198.51.100.3"`)
	assert.Contains(t, entries[0].Message, `status=200 user_agent="cargo/1.70"`)
}

func TestRequestLog_ServerErrorsGoToErrorSink(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(t)

	handler := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
}

func TestRequestLog_ClientErrorsStayOnInfoSink(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(t)

	handler := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestRequestLog_InstallsMetadataStoreAndStartTime(t *testing.T) {
	t.Parallel()

	logger, logs := observedLogger(t)

	handler := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metadata := MetadataFromContext(r.Context())
		require.NotNil(t, metadata)
		metadata.Add("crate", "serde")

		assert.False(t, util.StartTimeFromContext(r.Context()).IsZero())
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Message, `crate="serde"`)
}

func TestRequestLog_DoesNotAlterResponse(t *testing.T) {
	t.Parallel()

	logger, _ := observedLogger(t)

	handler := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Thing", "kept")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "kept", rec.Header().Get("X-Thing"))
	assert.Equal(t, "created", rec.Body.String())
}
