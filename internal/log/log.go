// Package log is the process-wide structured logger. Robot binaries run
// two ways: interactively during bring-up, where text on stderr keeps
// stdout clean for diagnostics, and as a systemd unit on the robot,
// where GO_ENV=production switches to JSON for the journal.
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// Init configures the process logger. The first call wins; later calls
// are no-ops, so a library can never reconfigure logging out from under
// main.
func Init(level string) {
	once.Do(func() {
		opts := &slog.HandlerOptions{Level: parseLevel(level)}

		var handler slog.Handler
		if os.Getenv("GO_ENV") == "production" {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}

		logger = slog.New(handler)
		slog.SetDefault(logger)
	})
}

// parseLevel maps a --log-level flag value to a slog level. Unknown
// values fall back to info rather than erroring: a typo in a service
// file should not keep the robot from starting.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the process logger, initializing at info level if no main
// ever called Init (tests, mostly).
func L() *slog.Logger {
	if logger == nil {
		Init("info")
	}
	return logger
}

// With returns a child logger. Packages call With("component", ...)
// once at construction and log through the result.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}
