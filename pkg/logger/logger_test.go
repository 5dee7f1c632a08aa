package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/empd2/empd-admin/pkg/logger"
)

var _ logger.Interface = (*logger.Logger)(nil)

func TestNewDefaultsToInfo(t *testing.T) {
	l := logger.New()
	require.True(t, l.GetSlogLogger().Enabled(context.Background(), slog.LevelInfo))
	require.False(t, l.GetSlogLogger().Enabled(context.Background(), slog.LevelDebug))
}

func TestNewWithLevel(t *testing.T) {
	l := logger.NewWithLevel(slog.LevelDebug)
	require.True(t, l.GetSlogLogger().Enabled(context.Background(), slog.LevelDebug))

	l = logger.NewWithLevel(slog.LevelWarn)
	require.False(t, l.GetSlogLogger().Enabled(context.Background(), slog.LevelInfo))
	require.True(t, l.GetSlogLogger().Enabled(context.Background(), slog.LevelWarn))
}
