package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, closer := newLogger(&Config{LogFile: path, LogFormat: "json", LogLevel: "warn", LogMaxSizeMB: 1})
	require.NotNil(t, closer)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("disk is getting full", slog.Int("percent", 91))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"disk is getting full"`)
	assert.Contains(t, string(data), `"percent":91`)
}

func TestNewLogger_Stdout(t *testing.T) {
	_, closer := newLogger(&Config{})
	assert.Nil(t, closer)
}
