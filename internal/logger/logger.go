package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Initialize sets up the default slog logger with the given level and format.
func Initialize(level string, useJSON bool) *slog.Logger {
	l := New(os.Stdout, level, useJSON)
	slog.SetDefault(l)
	return l
}

// New builds a logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, level string, useJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(level),
		AddSource: true,
	}

	if useJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
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
