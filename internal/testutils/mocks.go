package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/logshipio/logship"
)

// MockEngine implements logship.BufferingEngine: it constructs records the
// same way the real engine does but keeps them in memory.
type MockEngine struct {
	mu          sync.Mutex
	Records     []logship.Record
	SyncFn      logship.SyncFunc
	MinLevel    logship.Level
	ShouldFail  bool
	SubmitCalls int
	StartCalls  int
	StopCalls   int
}

func (m *MockEngine) Submit(message string, level logship.Level, ctx map[string]any) (*logship.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SubmitCalls++

	if m.ShouldFail {
		return nil, fmt.Errorf("mock submit failed")
	}
	if level < m.MinLevel {
		return nil, nil
	}

	rec := logship.Record{
		ID:      uuid.NewString(),
		Message: message,
		Level:   level,
		Dt:      time.Now().UTC(),
		Context: ctx,
	}
	m.Records = append(m.Records, rec)
	return &rec, nil
}

func (m *MockEngine) SetSyncFunc(fn logship.SyncFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncFn = fn
}

func (m *MockEngine) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartCalls++
}

func (m *MockEngine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
}

func (m *MockEngine) GetRecords() []logship.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]logship.Record(nil), m.Records...)
}

// MockShipper records every Log call, for tailer tests.
type MockShipper struct {
	mu         sync.Mutex
	Messages   []string
	ShouldFail bool
}

func (m *MockShipper) Log(message string, level logship.Level, context any) (*logship.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldFail {
		return nil, fmt.Errorf("mock log failed")
	}

	m.Messages = append(m.Messages, message)
	return &logship.Record{Message: message, Level: level}, nil
}

func (m *MockShipper) GetMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}

func CreateTempLogStructure(t *testing.T) string {
	tempDir := t.TempDir()

	structure := map[string]string{
		"api/access.log":     "GET /healthz 200\nGET /v1/items 200\n",
		"api/error.log":      "upstream timeout\n",
		"worker/worker.log":  "job 42 started\njob 42 done\n",
		"worker/ignored.txt": "not a log file\n",
	}

	for path, content := range structure {
		fullPath := filepath.Join(tempDir, path)
		dir := filepath.Dir(fullPath)

		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", fullPath, err)
		}
	}

	return tempDir
}
