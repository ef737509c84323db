// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// EnvLogLevel overrides the configured log level when set.
	EnvLogLevel = "LOG_LEVEL"
)

// ParseLogLevel converts a level name into a slog.Level.
// Unknown or empty values map to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelFromEnv returns LOG_LEVEL when set, otherwise fallback.
func levelFromEnv(fallback string) string {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return v
	}
	return fallback
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})
}

// NewStructuredLogger returns a JSON logger writing to stderr with module
// and version attributes attached to every record.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	return newLogger(os.Stderr, module, version, level)
}

func newLogger(w io.Writer, module, version, level string) *slog.Logger {
	return slog.New(newHandler(w, ParseLogLevel(level))).With(
		"module", module,
		"version", version,
	)
}

// SetDefaultStructuredLogger installs the structured logger as the slog default,
// taking the level from LOG_LEVEL (info when unset).
func SetDefaultStructuredLogger(module, version string) {
	SetDefaultStructuredLoggerWithLevel(module, version, levelFromEnv("info"))
}

// SetDefaultStructuredLoggerWithLevel installs the structured logger with an explicit level.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	slog.SetDefault(NewStructuredLogger(module, version, level))
}

// SetDefaultStructuredLoggerToFile installs the structured logger writing to path.
// When the file cannot be opened the logger falls back to stderr and the returned
// closer is a no-op.
func SetDefaultStructuredLoggerToFile(module, version, level, path string) io.Closer {
	path = strings.TrimSpace(path)
	if path == "" {
		SetDefaultStructuredLoggerWithLevel(module, version, level)
		return nopCloser{}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			slog.SetDefault(newLogger(f, module, version, level))
			return f
		}
	}

	SetDefaultStructuredLoggerWithLevel(module, version, level)
	slog.Warn("failed to open log file, logging to stderr", "path", path)
	return nopCloser{}
}

// NewLogLogger adapts the default slog handler to a standard library *log.Logger.
func NewLogLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(slog.Default().Handler(), level)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
