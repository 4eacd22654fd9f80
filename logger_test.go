package logship_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logshipio/logship"
	"github.com/logshipio/logship/internal/testutils"
)

func TestLog_NoContext(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	rec, err := logger.Log("hello", 0, nil)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "hello", rec.Message)
	assert.Equal(t, logship.LevelInfo, rec.Level)
	assert.NotEmpty(t, rec.ID)

	// context is the stack context only, no extra/error wrapper
	assert.NotContains(t, rec.Context, "extra")
	assert.NotContains(t, rec.Context, "error")
	assert.True(t, strings.HasSuffix(rec.Context["file"].(string), "logger_test.go"))
	assert.Contains(t, rec.Context["function"].(string), "TestLog_NoContext")
}

func TestLog_ErrorContext(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	cause := errors.New("x")
	rec, err := logger.Log("oops", logship.LevelError, cause)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, logship.LevelError, rec.Level)
	assert.Equal(t, cause, rec.Context["error"])
	// merged over stack context, not instead of it
	assert.Contains(t, rec.Context, "file")
}

func TestLog_ExplicitKeysOverrideEnrichment(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	rec, err := logger.Log("msg", 0, map[string]any{"file": "mine.go", "request_id": "r-9"})
	require.NoError(t, err)

	assert.Equal(t, "mine.go", rec.Context["file"])
	assert.Equal(t, "r-9", rec.Context["request_id"])
	assert.Contains(t, rec.Context, "line")
}

func TestLog_PrimitiveContextWrappedAsExtra(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	rec, err := logger.Log("msg", 0, 42)
	require.NoError(t, err)

	assert.Equal(t, 42, rec.Context["extra"])
}

func TestLog_EngineFailureSurfacesAsEngineError(t *testing.T) {
	engine := &testutils.MockEngine{ShouldFail: true}
	logger := logship.New(engine)

	rec, err := logger.Log("msg", 0, nil)
	assert.Nil(t, rec)

	var engineErr *logship.EngineError
	require.ErrorAs(t, err, &engineErr)
}

func TestLog_FilteredByLevel(t *testing.T) {
	engine := &testutils.MockEngine{MinLevel: logship.LevelWarn}
	logger := logship.New(engine)

	sink := logger.Pipe(&bytes.Buffer{}).(*bytes.Buffer)

	rec, err := logger.Debug("too quiet", nil)
	require.NoError(t, err)
	assert.Nil(t, rec)
	// filtered records never reach the sink
	assert.Zero(t, sink.Len())
}

func TestLog_ConvenienceLevels(t *testing.T) {
	engine := &testutils.MockEngine{MinLevel: logship.LevelDebug}
	logger := logship.New(engine)

	recDebug, _ := logger.Debug("d", nil)
	recWarn, _ := logger.Warn("w", nil)
	recError, _ := logger.Error("e", nil)

	assert.Equal(t, logship.LevelDebug, recDebug.Level)
	assert.Equal(t, logship.LevelWarn, recWarn.Level)
	assert.Equal(t, logship.LevelError, recError.Level)
	// severities attribute the caller, not the convenience method
	assert.Contains(t, recWarn.Context["function"].(string), "TestLog_ConvenienceLevels")
}

type tagProcessor struct {
	key, value string
}

func (p tagProcessor) Enrich(ctx map[string]any) map[string]any {
	ctx[p.key] = p.value
	return ctx
}

func TestLog_ProcessorsRunBeforeCallerMerge(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine, tagProcessor{"service", "api"}, tagProcessor{"zone", "eu-1"})

	rec, err := logger.Log("msg", 0, map[string]any{"zone": "override"})
	require.NoError(t, err)

	assert.Equal(t, "api", rec.Context["service"])
	assert.Equal(t, "override", rec.Context["zone"])
}

func TestPipe_ReceivesNewlineDelimitedJSON(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	var sink bytes.Buffer
	returned := logger.Pipe(&sink)
	assert.Same(t, &sink, returned)

	_, err := logger.Log("first", 0, nil)
	require.NoError(t, err)
	_, err = logger.Log("second", logship.LevelWarn, map[string]any{"k": "v"})
	require.NoError(t, err)

	var lines []string
	scanner := bufio.NewScanner(&sink)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.Len(t, lines, 2)

	var rec1, rec2 logship.Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec1))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &rec2))

	assert.Equal(t, "first", rec1.Message)
	assert.Equal(t, "second", rec2.Message)
	assert.Equal(t, logship.LevelWarn, rec2.Level)
	assert.Equal(t, "v", rec2.Context["k"])
}

func TestPipe_LastRegistrationWins(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	var first, second bytes.Buffer
	logger.Pipe(&first)
	logger.Pipe(&second)

	_, err := logger.Log("msg", 0, nil)
	require.NoError(t, err)

	assert.Zero(t, first.Len())
	assert.Positive(t, second.Len())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("sink unavailable")
}

func TestLog_SinkWriteFailureDoesNotSurface(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)
	logger.Pipe(failingWriter{})

	rec, err := logger.Log("still fine", 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestLogSkip_AttributesThroughWrapper(t *testing.T) {
	engine := &testutils.MockEngine{}
	logger := logship.New(engine)

	rec := logViaWrapper(t, logger, "wrapped")

	assert.Contains(t, rec.Context["function"].(string), "TestLogSkip_AttributesThroughWrapper")
	assert.NotContains(t, rec.Context["function"].(string), "logViaWrapper")
}

func logViaWrapper(t *testing.T, logger *logship.Logger, msg string) *logship.Record {
	t.Helper()
	rec, err := logger.LogSkip(1, msg, 0, nil)
	require.NoError(t, err)
	return rec
}
