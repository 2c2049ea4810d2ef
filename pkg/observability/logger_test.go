package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dilovar-s/protokol/pkg/contextkeys"
)

func parseLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("record_id", "rec-1").Info("record created")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "record created", entry["msg"])
	assert.Equal(t, "rec-1", entry["record_id"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("suppressed")
	assert.Zero(t, buf.Len())

	logger.Warn("emitted")
	assert.NotZero(t, buf.Len())
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("disk full")).Error("upload failed")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "disk full", entry["error"])

	// nil error is a no-op
	assert.Same(t, logger, logger.WithError(nil))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("bogus"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := contextkeys.WithLogger(context.Background(), logger)
	ctx = contextkeys.WithRequestID(ctx, "req-42")

	FromContext(ctx).Info("hello")

	entry := parseLogLine(t, &buf)
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestFromContextFallsBack(t *testing.T) {
	// no logger in context must still return a usable logger
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
}
