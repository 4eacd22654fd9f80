package tailer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logshipio/logship/internal/testutils"
)

func makeTestConfig(root string) Config {
	return Config{
		Root:         root,
		ScanInterval: 20 * time.Millisecond,
		Workers:      2,
		QueueSize:    10,
	}
}

func TestDiscoverLogFiles(t *testing.T) {
	root := testutils.CreateTempLogStructure(t)
	s := NewService(context.TODO(), makeTestConfig(root), &testutils.MockShipper{})

	files, err := s.discoverLogFiles()
	require.NoError(t, err)

	assert.Len(t, files, 3)
	for _, f := range files {
		assert.Equal(t, ".log", filepath.Ext(f))
	}
}

func TestScanFiles_EnqueuesNewFilesOnce(t *testing.T) {
	root := testutils.CreateTempLogStructure(t)
	s := NewService(context.TODO(), makeTestConfig(root), &testutils.MockShipper{})

	s.scanFiles()
	assert.Equal(t, 3, len(s.fileQueue))
	assert.Equal(t, 3, s.metrics.Snapshot().FilesDiscovered)

	// a second scan finds nothing new
	s.scanFiles()
	assert.Equal(t, 3, len(s.fileQueue))
	assert.Equal(t, 3, s.metrics.Snapshot().FilesDiscovered)
}

func TestScanFiles_QueueFull(t *testing.T) {
	root := testutils.CreateTempLogStructure(t)
	config := makeTestConfig(root)
	config.QueueSize = 1
	s := NewService(context.TODO(), config, &testutils.MockShipper{})

	s.scanFiles()

	assert.Equal(t, 1, len(s.fileQueue))
	// skipped files stay undiscovered so a later scan can retry them
	assert.Equal(t, 1, s.metrics.Snapshot().FilesDiscovered)
}

func TestService_ShipsAppendedLines(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, "app.log")
	require.NoError(t, os.WriteFile(logPath, []byte("old line\n"), 0644))

	shipper := &testutils.MockShipper{}
	s := NewService(context.TODO(), makeTestConfig(root), shipper)
	s.Start()
	defer s.Stop()

	// give the scanner and tail a moment to attach; tailing starts at EOF
	time.Sleep(300 * time.Millisecond)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("fresh line\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		for _, msg := range shipper.GetMessages() {
			if msg == "fresh line" {
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)

	assert.NotContains(t, shipper.GetMessages(), "old line")
}

func TestService_ContextCancellation(t *testing.T) {
	root := testutils.CreateTempLogStructure(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewService(ctx, makeTestConfig(root), &testutils.MockShipper{})
	s.Start()

	cancel()
	time.Sleep(20 * time.Millisecond)

	select {
	case <-s.ctx.Done():
	default:
		t.Fatalf("service context not cancelled")
	}

	s.Stop()
}
