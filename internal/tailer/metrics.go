package tailer

import (
	"sync"
)

type Metrics struct {
	FilesDiscovered int
	FilesProcessed  int
	FilesFailed     int
	QueuedFiles     int
	QueueCapacity   int
	LinesShipped    int
	LinesDropped    int
	mu              sync.RWMutex
}

func (m *Metrics) IncFilesDiscovered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesDiscovered++
}

func (m *Metrics) IncFilesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesProcessed++
}

func (m *Metrics) IncFilesFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FilesFailed++
}

func (m *Metrics) IncQueuedFiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueuedFiles++
}

func (m *Metrics) DecQueuedFiles() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueuedFiles--
}

func (m *Metrics) IncLinesShipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesShipped++
}

func (m *Metrics) IncLinesDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinesDropped++
}

func (m *Metrics) Snapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		FilesDiscovered: m.FilesDiscovered,
		FilesProcessed:  m.FilesProcessed,
		FilesFailed:     m.FilesFailed,
		QueuedFiles:     m.QueuedFiles,
		QueueCapacity:   m.QueueCapacity,
		LinesShipped:    m.LinesShipped,
		LinesDropped:    m.LinesDropped,
	}
}

func (m *Metrics) QueueUsage() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.QueueCapacity == 0 {
		return 0
	}
	return float64(m.QueuedFiles) / float64(m.QueueCapacity)
}
