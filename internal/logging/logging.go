// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init builds the process logger, installs it as slog's default, and returns
// it. Logs always go to stderr so the measure stream owns stdout. When
// dataOnStdout is true the handler switches to JSON, keeping stderr
// machine-parseable alongside the data stream; otherwise a text handler is
// used for reading by hand.
func Init(dataOnStdout bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if dataOnStdout {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// slog.Level. Unknown names fall back to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
