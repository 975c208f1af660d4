// Package log wraps log/slog with component-scoped loggers and the
// structured field names used across the service.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// FieldComponent is the attribute every component logger stamps on its
// records.
const FieldComponent = "component"

// Logger is a slog.Logger bound to a component name. Every record it
// emits carries a "component" attribute.
type Logger struct {
	*slog.Logger
}

// New builds a component logger on top of the given handler. A nil
// handler falls back to text output on stdout at Info level.
func New(component string, handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return &Logger{Logger: slog.New(handler).With(FieldComponent, component)}
}

// NewFromEnv builds the process root logger from LOG_LEVEL and
// LOG_FORMAT (text or json) and installs it as the slog default.
func NewFromEnv(component string) *Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := New(component, handler)
	slog.SetDefault(logger.Logger)
	return logger
}

// WithComponent returns a logger for a sub-component sharing the same
// handler.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component)}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
