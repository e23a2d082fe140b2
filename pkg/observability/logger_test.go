package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	t.Run("debug not logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Debug("debug message")
		assert.Zero(t, buf.Len())
	})

	t.Run("info logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")

		entry := decodeEntry(t, &buf)
		assert.Equal(t, "info", entry.Level)
		assert.Equal(t, "info message", entry.Message)
	})

	t.Run("warn and error logged at info level", func(t *testing.T) {
		buf.Reset()
		logger.Warn("warn message")
		assert.NotZero(t, buf.Len())

		buf.Reset()
		logger.Error("error message")
		assert.NotZero(t, buf.Len())
	})
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithField("tenant_id", "t-1").WithFields(map[string]interface{}{
		"hooks": 3,
	}).Info("propagated")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "t-1", entry.Fields["tenant_id"])
	assert.Equal(t, float64(3), entry.Fields["hooks"])
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.WithError(errors.New("boom")).Error("something went wrong")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "boom", entry.Fields["error"])

	assert.Same(t, logger, logger.WithError(nil))
}

func TestLogger_Formatters(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(DebugLevel, &buf)

	cases := map[string]func(){
		"debug 1": func() { logger.Debugf("debug %d", 1) },
		"info 2":  func() { logger.Infof("info %d", 2) },
		"warn 3":  func() { logger.Warnf("warn %d", 3) },
		"error 4": func() { logger.Errorf("error %d", 4) },
	}
	for want, emit := range cases {
		t.Run(want, func(t *testing.T) {
			buf.Reset()
			emit()
			assert.Equal(t, want, decodeEntry(t, &buf).Message)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	ctx := context.Background()
	ctx = WithLogger(ctx, logger)
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithAccountID(ctx, "acc-456")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	assert.Equal(t, "acc-456", GetAccountID(ctx))
	assert.Same(t, logger, GetLogger(ctx))

	FromContext(ctx).Info("test message")
	entry := decodeEntry(t, &buf)
	assert.Equal(t, "req-123", entry.Fields["request_id"])
	assert.Equal(t, "acc-456", entry.Fields["account_id"])

	assert.Empty(t, GetRequestID(context.Background()))
	assert.NotNil(t, GetLogger(context.Background()))
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARN", WarnLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
}
