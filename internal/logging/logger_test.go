package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("defaults to info", func(t *testing.T) {
		logger := NewLogger(Config{})
		require.NotNil(t, logger)

		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("honours level", func(t *testing.T) {
		logger := NewLogger(Config{Level: "DEBUG"})
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

		logger = NewLogger(Config{Level: "error"})
		assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	})

	t.Run("writes json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(Config{Format: "json", Output: &buf})
		logger.Info("hello", FieldPool, "main")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "main", line[FieldPool])
	})
}

func TestHelpers(t *testing.T) {
	t.Run("nil logger is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Debug(nil, "x")
			Info(nil, "x")
			Warn(nil, "x")
			Error(nil, "x", errors.New("boom"))
		})
	})

	t.Run("error appends the error field", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(Config{Output: &buf})

		Error(logger, "failed", errors.New("boom"), FieldPool, "main")

		assert.Contains(t, buf.String(), "error=boom")
		assert.Contains(t, buf.String(), "pool=main")
	})
}
