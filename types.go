package logship

import (
	"context"
	"time"
)

// Record is a single processed log entry. It is constructed by the buffering
// engine and must not be mutated after Submit returns it.
type Record struct {
	ID      string         `json:"id"`
	Message string         `json:"message"`
	Level   Level          `json:"level"`
	Dt      time.Time      `json:"dt"`
	Context map[string]any `json:"context,omitempty"`
}

// SyncFunc attempts delivery of a ready batch. On success it returns the
// original batch so the engine can evict it; on failure the engine retries or
// drops per its own policy. The engine guarantees at most one in-flight call
// per instance.
type SyncFunc func(ctx context.Context, batch []Record) ([]Record, error)

// BufferingEngine owns record construction, level filtering and batching.
type BufferingEngine interface {
	Submit(message string, level Level, context map[string]any) (*Record, error)
	SetSyncFunc(fn SyncFunc)
	Start()
	Stop()
}

// Processor is an enrichment hook run between caller-location enrichment and
// the merge of the caller's explicit context.
type Processor interface {
	Enrich(context map[string]any) map[string]any
}

// Config holds the buffering engine knobs.
type Config struct {
	BatchSize     int
	FlushInterval time.Duration
	MaxRetries    int
	MinLevel      Level
}

// EngineError wraps a failure reported by the buffering engine.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return "logship: engine: " + e.Err.Error()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
