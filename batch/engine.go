// Package batch implements the buffering engine: it constructs records,
// filters them by level, groups them into batches and drives the registered
// sync function with retry orchestration.
package batch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logshipio/logship"
)

const flushQueueSize = 100

type Engine struct {
	ctx    context.Context
	cancel context.CancelFunc
	// syncCtx is handed to sync invocations. It is the caller's context,
	// not torn down by Stop, so the shutdown drain can still deliver.
	syncCtx   context.Context
	config    logship.Config
	syncFn    logship.SyncFunc
	buf       []logship.Record
	bufMutex  sync.Mutex
	flushChan chan []logship.Record
	wg        sync.WaitGroup
}

func NewEngine(ctx context.Context, config logship.Config) *Engine {
	if config.BatchSize <= 0 {
		config.BatchSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}

	nCtx, cancel := context.WithCancel(ctx)
	return &Engine{
		ctx:       nCtx,
		cancel:    cancel,
		syncCtx:   ctx,
		config:    config,
		flushChan: make(chan []logship.Record, flushQueueSize),
	}
}

// SetSyncFunc registers the delivery function. Must be called before Start;
// batches that become ready while no sync function is set are dropped.
func (e *Engine) SetSyncFunc(fn logship.SyncFunc) {
	e.syncFn = fn
}

// Submit constructs a record from the already-merged context, applies level
// filtering and appends it to the current batch. A nil record with a nil
// error means the entry was filtered out.
func (e *Engine) Submit(message string, level logship.Level, ctx map[string]any) (*logship.Record, error) {
	if message == "" {
		return nil, errors.New("empty message")
	}
	if level < e.config.MinLevel {
		return nil, nil
	}

	rec := logship.Record{
		ID:      uuid.NewString(),
		Message: message,
		Level:   level,
		Dt:      time.Now().UTC(),
		Context: ctx,
	}

	e.bufMutex.Lock()
	e.buf = append(e.buf, rec)
	if len(e.buf) >= e.config.BatchSize {
		e.flushLocked()
	}
	e.bufMutex.Unlock()

	return &rec, nil
}

func (e *Engine) Start() {
	e.wg.Add(2)
	go e.flushTimer()
	go e.dispatch()
}

// Stop flushes whatever is buffered and waits for in-flight deliveries.
func (e *Engine) Stop() {
	e.bufMutex.Lock()
	e.flushLocked()
	e.bufMutex.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) flushTimer() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.bufMutex.Lock()
			if len(e.buf) > 0 {
				e.flushLocked()
			}
			e.bufMutex.Unlock()
		case <-e.ctx.Done():
			return
		}
	}
}

// dispatch is the single goroutine invoking the sync function, which keeps
// the at-most-one-in-flight-delivery contract.
func (e *Engine) dispatch() {
	defer e.wg.Done()

	for {
		select {
		case batch := <-e.flushChan:
			e.deliver(batch)
		case <-e.ctx.Done():
			// drain anything flushed during shutdown
			for {
				select {
				case batch := <-e.flushChan:
					e.deliver(batch)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) deliver(batch []logship.Record) {
	if e.syncFn == nil {
		log.Printf("No sync function registered, dropping batch of %d records", len(batch))
		return
	}

	var err error
	for attempt := 0; attempt < e.config.MaxRetries; attempt++ {
		if _, err = e.syncFn(e.syncCtx, batch); err == nil {
			return
		}

		if attempt < e.config.MaxRetries-1 {
			log.Printf("Retry %d/%d after error: %v", attempt+1, e.config.MaxRetries, err)
			select {
			case <-time.After(time.Duration(attempt+1) * time.Second):
			case <-e.syncCtx.Done():
				log.Printf("Dropping batch of %d records, caller context cancelled during retry backoff: %v", len(batch), err)
				return
			}
		}
	}

	log.Printf("Dropping batch of %d records after %d attempts: %v", len(batch), e.config.MaxRetries, err)
}

func (e *Engine) flushLocked() {
	if len(e.buf) == 0 {
		return
	}

	ready := make([]logship.Record, len(e.buf))
	copy(ready, e.buf)
	e.buf = e.buf[:0]

	select {
	case e.flushChan <- ready:
	default:
		log.Printf("Flush queue full, dropping batch of %d records", len(ready))
	}
}
