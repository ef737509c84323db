// Package logging provides structured logging utilities for copper components.
//
// # Overview
//
// This package wraps the standard library slog package with copper defaults
// and conventions for consistent logging across all components. It supports
// environment-based log level configuration, module/version context injection,
// and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Optional file sink (log_file)
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("copper", "v1.0.0")
//	    defer slog.Info("application started")
//
//	    // Use slog as normal
//	    slog.Info("processing request", "id", "req-123")
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("copper-server", "v1.0.0", "debug")
//	logger.Info("server starting", "port", 8080)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("copper", "v1.0.0", "warn")
//
// Writing to a file (the log_file config setting):
//
//	closer := logging.SetDefaultStructuredLoggerToFile("copper", version, "info", "/tmp/copper.log")
//	defer closer.Close()
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug copper template optimize era5
//	LOG_LEVEL=error copper serve
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "template optimized",
//	    "module": "copper",
//	    "version": "v1.0.0",
//	    "parts": 4
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "optimizer.(*Optimizer).Optimize",
//	        "file": "optimizer.go",
//	        "line": 45
//	    },
//	    "msg": "split",
//	    "module": "copper",
//	    "version": "v1.0.0"
//	}
//
// # Best Practices
//
// 1. Set default logger early in main():
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("copper", version)
//	    defer slog.Info("application started")
//	    // ...
//	}
//
// 2. Include context in log messages:
//
//	slog.Info("template optimized",
//	    "template", name,
//	    "budget", budget,
//	    "parts", len(parts),
//	)
//
// 3. Use appropriate log levels:
//
//	slog.Debug("cache hit", "url", url)          // Development/troubleshooting
//	slog.Info("catalog synced")                  // Normal operations
//	slog.Warn("oracle unavailable, using local") // Potential issues
//	slog.Error("failed to open store")           // Errors requiring action
//
// 4. Log errors with context:
//
//	slog.Error("failed to persist sub-templates",
//	    "error", err,
//	    "template", name,
//	)
//
// # Integration
//
// This package is used by:
//   - pkg/cli - CLI command logging
//   - pkg/api - API server logging
//   - pkg/catalog - remote catalog client logging
//   - pkg/retrieve - download job logging
//
// All components share consistent logging format and configuration.
package logging
