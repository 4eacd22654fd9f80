// Package logship is a client for shipping structured application logs to a
// remote ingestion endpoint. Callers submit messages through a Logger; a
// buffering engine batches the resulting records and hands them to a sync
// function for delivery.
package logship

import (
	"encoding/json"
	"io"
	"sync"
)

type Logger struct {
	engine     BufferingEngine
	processors []Processor

	sinkMu sync.Mutex
	sink   io.Writer
}

// New wires a Logger to its buffering engine. Processors run in order on
// every call, after caller-location enrichment and before the caller's
// explicit context is merged on top.
func New(engine BufferingEngine, processors ...Processor) *Logger {
	return &Logger{
		engine:     engine,
		processors: processors,
	}
}

// Pipe registers w as the destination for a best-effort copy of every
// produced record, one JSON line per record. The last registered writer
// wins; the previous one is simply no longer written to. Returns w for
// chaining.
func (l *Logger) Pipe(w io.Writer) io.Writer {
	l.sinkMu.Lock()
	l.sink = w
	l.sinkMu.Unlock()
	return w
}

// Log submits one entry. context may be any value: mappings pass through,
// errors become {"error": v}, other values become {"extra": v}, and explicit
// keys always override the enriched caller-location fields. The returned
// record is nil when the engine filtered the entry by level.
func (l *Logger) Log(message string, level Level, context any) (*Record, error) {
	return l.LogSkip(1, message, level, context)
}

// LogSkip is Log for wrappers: skip counts stack frames between the caller
// of LogSkip and the call site that should be attributed. skip 0 attributes
// the direct caller.
func (l *Logger) LogSkip(skip int, message string, level Level, context any) (*Record, error) {
	base := callerContext(skip + 1)
	for _, p := range l.processors {
		base = p.Enrich(base)
	}
	final := MergeContext(base, NormalizeContext(context))

	rec, err := l.engine.Submit(message, level, final)
	if err != nil {
		return nil, &EngineError{Err: err}
	}
	if rec != nil {
		l.writeSink(*rec)
	}
	return rec, nil
}

func (l *Logger) Debug(message string, context any) (*Record, error) {
	return l.LogSkip(1, message, LevelDebug, context)
}

func (l *Logger) Info(message string, context any) (*Record, error) {
	return l.LogSkip(1, message, LevelInfo, context)
}

func (l *Logger) Warn(message string, context any) (*Record, error) {
	return l.LogSkip(1, message, LevelWarn, context)
}

func (l *Logger) Error(message string, context any) (*Record, error) {
	return l.LogSkip(1, message, LevelError, context)
}

// writeSink duplicates rec to the registered sink as JSON + newline.
// Best effort: marshal and write failures never surface to the Log caller.
func (l *Logger) writeSink(rec Record) {
	l.sinkMu.Lock()
	w := l.sink
	l.sinkMu.Unlock()
	if w == nil {
		return
	}

	rec.Context = renderContext(rec.Context)
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	w.Write(append(line, '\n'))
}
