package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestNewLogger_Attributes(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "copper", "v0.1.0", "info")

	logger.Info("template optimized", "parts", 4)
	logger.Debug("suppressed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "copper", rec["module"])
	assert.Equal(t, "v0.1.0", rec["version"])
	assert.Equal(t, "template optimized", rec["msg"])
	assert.EqualValues(t, 4, rec["parts"])
	_, hasSource := rec["source"]
	assert.False(t, hasSource, "info level should not add source")
}

func TestNewLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "copper", "dev", "debug")

	logger.Debug("split")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Contains(t, rec, "source")
}

func TestSetDefaultStructuredLoggerToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "copper.log")
	closer := SetDefaultStructuredLoggerToFile("copper", "dev", "info", path)
	slog.Info("catalog synced", "collections", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"catalog synced"`)
}

func TestSetDefaultStructuredLoggerToFile_EmptyPath(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	closer := SetDefaultStructuredLoggerToFile("copper", "dev", "info", "  ")
	assert.NoError(t, closer.Close())
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	assert.Equal(t, "debug", levelFromEnv("info"))

	t.Setenv(EnvLogLevel, "")
	assert.Equal(t, "info", levelFromEnv("info"))
}
