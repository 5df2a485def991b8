package bridge

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckContentLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		contentLength  string
		expectedReason string
	}{
		{
			name:           "no header",
			contentLength:  "",
			expectedReason: "",
		},
		{
			name:           "zero",
			contentLength:  "0",
			expectedReason: "",
		},
		{
			name:           "small value",
			contentLength:  "4096",
			expectedReason: "",
		},
		{
			name:           "exactly at the limit",
			contentLength:  strconv.FormatInt(MaxContentLength, 10),
			expectedReason: "",
		},
		{
			name:           "one over the limit",
			contentLength:  strconv.FormatInt(MaxContentLength+1, 10),
			expectedReason: "too large",
		},
		{
			name:           "absurdly large",
			contentLength:  "999999999999",
			expectedReason: "too large",
		},
		{
			name:           "larger than u64",
			contentLength:  "18446744073709551616",
			expectedReason: "not a u64",
		},
		{
			name:           "not a number",
			contentLength:  "foo",
			expectedReason: "not a u64",
		},
		{
			name:           "negative",
			contentLength:  "-1",
			expectedReason: "not a u64",
		},
		{
			name:           "not ASCII",
			contentLength:  "\xc3\xa9",
			expectedReason: "not ASCII",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.contentLength != "" {
				req.Header["Content-Length"] = []string{tt.contentLength}
			}

			assert.Equal(t, tt.expectedReason, checkContentLength(req))
		})
	}
}

func TestCheckContentLength_TransportSizeHint(t *testing.T) {
	t.Parallel()

	// No literal header, but the transport reports an oversized body.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = MaxContentLength + 1

	assert.Equal(t, "body size hint too large", checkContentLength(req))
}

func TestCheckContentLength_TransportSizeHintWithinBounds(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = MaxContentLength

	assert.Empty(t, checkContentLength(req))
}
