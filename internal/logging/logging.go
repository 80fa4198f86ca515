package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New initializes a new slog logger writing to stdout and sets it as the
// default. format is "text" (the default, for development) or "json"; level
// is one of debug, info, warn or error and defaults to info.
func New(format, level string) *slog.Logger {
	logger := slog.New(newHandler(os.Stdout, format, level))
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, format, level string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, opts)
	default:
		opts.AddSource = true // Adds source file and line number
		return slog.NewTextHandler(w, opts)
	}
}

// ParseLevel maps a level name to its slog.Level, falling back to Info.
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
