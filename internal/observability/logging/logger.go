package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger builds the process logger. Both binaries log structured
// JSON to stdout; the service attribute tells nota-api and nota-worker
// lines apart in a shared stream.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// ParseLevel maps a config string to a slog level, defaulting to info on
// anything it does not recognize.
func ParseLevel(level string) slog.Level {
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
