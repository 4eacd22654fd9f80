// Package tailer follows log files under a root directory and ships every
// new line through a Logger.
package tailer

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hpcloud/tail"

	"github.com/logshipio/logship"
)

// Shipper is the slice of the Logger surface the tailer needs. Satisfied by
// *logship.Logger.
type Shipper interface {
	Log(message string, level logship.Level, context any) (*logship.Record, error)
}

type Config struct {
	Root         string
	ScanInterval time.Duration
	Workers      int
	QueueSize    int
	// If > 0, stop tailing a file after this period without new lines
	IdleTimeout time.Duration
}

type Service struct {
	config        Config
	shipper       Shipper
	fileQueue     chan string
	workersWg     sync.WaitGroup
	subServicesWg sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
	metrics       *Metrics

	seenFiles map[string]struct{}
}

func NewService(ctx context.Context, config Config, shipper Shipper) *Service {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 50
	}

	nCtx, cancel := context.WithCancel(ctx)
	return &Service{
		config:    config,
		shipper:   shipper,
		fileQueue: make(chan string, config.QueueSize),
		ctx:       nCtx,
		cancel:    cancel,
		metrics: &Metrics{
			QueueCapacity: config.QueueSize,
		},
		seenFiles: make(map[string]struct{}),
	}
}

func (s *Service) Start() {
	log.Printf("Starting tailer: workers=%d, queue size=%d, root=%s",
		s.config.Workers, s.config.QueueSize, s.config.Root)

	for i := 0; i < s.config.Workers; i++ {
		s.workersWg.Add(1)
		go s.worker(i)
	}

	s.subServicesWg.Add(1)
	go s.scanner()

	s.subServicesWg.Add(1)
	go s.metricsReporter()
}

func (s *Service) Stop() {
	log.Println("Stopping tailer...")
	s.cancel()

	s.subServicesWg.Wait()

	close(s.fileQueue)
	s.workersWg.Wait()

	log.Println("Tailer stopped")
}

func (s *Service) worker(id int) {
	defer s.workersWg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d panicked: %v", id, r)
		}
	}()

	for {
		select {
		case filePath, ok := <-s.fileQueue:
			if !ok {
				return
			}
			s.metrics.DecQueuedFiles()
			s.followFile(filePath)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) followFile(filePath string) {
	defer s.metrics.IncFilesProcessed()

	t, err := tail.TailFile(filePath, tail.Config{
		Follow:   true,
		ReOpen:   true,
		Poll:     true,
		Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:   tail.DiscardingLogger,
	})
	if err != nil {
		log.Printf("Failed to tail file %s: %v", filePath, err)
		s.metrics.IncFilesFailed()
		return
	}
	defer t.Cleanup()

	checkTicker := time.NewTicker(1 * time.Second)
	defer checkTicker.Stop()

	lastActivity := time.Now()

	for {
		select {
		case line := <-t.Lines:
			if line == nil {
				continue
			}
			if line.Err != nil {
				log.Printf("Error reading from %s: %v", filePath, line.Err)
				continue
			}

			if _, err := s.shipper.Log(line.Text, logship.LevelInfo, map[string]any{"file": filePath}); err != nil {
				s.metrics.IncLinesDropped()
				continue
			}
			s.metrics.IncLinesShipped()
			lastActivity = time.Now()

		case <-checkTicker.C:
			// waking up from blocking line reading to check context status and idle timeout
			if s.config.IdleTimeout > 0 && time.Since(lastActivity) > s.config.IdleTimeout {
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) scanner() {
	defer s.subServicesWg.Done()

	ticker := time.NewTicker(s.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.scanFiles()
		case <-s.ctx.Done():
			return
		}
	}
}

// scanFiles enqueues newly discovered *.log files. seenFiles is touched only
// from this goroutine.
func (s *Service) scanFiles() {
	files, err := s.discoverLogFiles()
	if err != nil {
		log.Printf("Error discovering log files: %v", err)
		return
	}

	for _, file := range files {
		if _, ok := s.seenFiles[file]; ok {
			continue
		}

		select {
		case s.fileQueue <- file:
			s.seenFiles[file] = struct{}{}
			s.metrics.IncFilesDiscovered()
			s.metrics.IncQueuedFiles()
		case <-s.ctx.Done():
			return
		default:
			// not marked seen, so a later scan retries it
			log.Printf("File queue full (%d/%d), skipping %s",
				len(s.fileQueue), cap(s.fileQueue), file)
		}
	}
}

func (s *Service) metricsReporter() {
	defer s.subServicesWg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m := s.metrics.Snapshot()
			log.Printf(
				"Tailer metrics: files discovered=%d processed=%d failed=%d, queue=%d/%d, lines shipped=%d dropped=%d",
				m.FilesDiscovered, m.FilesProcessed, m.FilesFailed,
				m.QueuedFiles, m.QueueCapacity,
				m.LinesShipped, m.LinesDropped,
			)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Service) discoverLogFiles() ([]string, error) {
	var logFiles []string

	err := filepath.Walk(s.config.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("Error accessing path %s: %v", path, err)
			return nil
		}

		if !info.IsDir() && strings.HasSuffix(info.Name(), ".log") {
			logFiles = append(logFiles, path)
		}
		return nil
	})

	return logFiles, err
}
