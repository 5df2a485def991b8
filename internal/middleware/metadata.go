package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/HomyeeKing/crates.io/internal/report"
)

// MetadataEntry is one custom key/value annotation.
type MetadataEntry struct {
	Key   string
	Value string
}

// CustomMetadata is a per-request, append-only ordered collection of
// key/value annotations. The handler worker appends while the logging
// path may concurrently hold a reference; appends are serialized by the
// mutex and the logger only iterates after the handler has joined back.
// Created once per request by the request logger, discarded after the log
// line is emitted.
type CustomMetadata struct {
	mu      sync.Mutex
	entries []MetadataEntry
	hub     *report.Hub
}

// NewCustomMetadata creates an empty store. Every append is mirrored onto
// hub's scope so error reports carry the same annotations as the log line.
func NewCustomMetadata(hub *report.Hub) *CustomMetadata {
	return &CustomMetadata{hub: hub}
}

// Add formats value as text and appends the pair. Duplicate keys are kept;
// insertion order is significant.
func (m *CustomMetadata) Add(key string, value any) {
	text := fmt.Sprint(value)

	m.mu.Lock()
	m.entries = append(m.entries, MetadataEntry{Key: key, Value: text})
	m.mu.Unlock()

	report.AddExtra(m.hub, key, text)
}

// Entries returns a copy of the annotations in insertion order.
func (m *CustomMetadata) Entries() []MetadataEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]MetadataEntry, len(m.entries))
	copy(entries, m.entries)
	return entries
}

// Get returns the first value recorded under key.
func (m *CustomMetadata) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

type metadataCtxKey struct{}

// ContextWithMetadata attaches the store to ctx for this request only.
func ContextWithMetadata(ctx context.Context, m *CustomMetadata) context.Context {
	return context.WithValue(ctx, metadataCtxKey{}, m)
}

// MetadataFromContext returns the request's store, or nil when the request
// logger is not installed.
func MetadataFromContext(ctx context.Context) *CustomMetadata {
	m, _ := ctx.Value(metadataCtxKey{}).(*CustomMetadata)
	return m
}
