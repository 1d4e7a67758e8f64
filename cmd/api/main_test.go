package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appealnotify/internal/types"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			logger := newLogger(tt.level)
			require.NotNil(t, logger)
			assert.True(t, logger.Enabled(context.Background(), tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Enabled(context.Background(), tt.want-4))
			}
		})
	}
}

func TestSlogAdapterImplementsLogger(t *testing.T) {
	adapter := &slogAdapter{logger: slog.New(slog.DiscardHandler)}

	var logger types.Logger = adapter
	child := logger.With("case_id", "123")

	require.NotNil(t, child)
	assert.NotSame(t, logger, child)

	// Must not panic on any level.
	child.Info("info", "k", "v")
	child.Warn("warn")
	child.Error("error", "err", "boom")
}
