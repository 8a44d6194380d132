// ABOUTME: Structured logging configuration using log/slog
// ABOUTME: Writes to debug.log in the config dir so output never disturbs the terminal UI

package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the log file created inside the config directory
const FileName = "debug.log"

// New builds a logger writing to w. format is "json" or "text".
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Open creates the config directory if needed and returns a logger appending
// to its debug.log, plus a func that closes the file.
// If configDir is empty, logging is disabled.
func Open(configDir, level, format string) (*slog.Logger, func() error, error) {
	if configDir == "" {
		return Discard(), func() error { return nil }, nil
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return Discard(), func() error { return nil }, err
	}

	f, err := os.OpenFile(filepath.Join(configDir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return Discard(), func() error { return nil }, err
	}

	return New(f, level, format), f.Close, nil
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
