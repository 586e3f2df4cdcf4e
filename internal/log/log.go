// Package log provides structured logging for go-nain.
// It wraps slog with sensible defaults for production use.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// Options controls logger construction.
type Options struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string

	// Format is "json" or "text". Empty selects JSON when GO_ENV=production.
	Format string

	// Output defaults to stdout.
	Output io.Writer
}

// ParseLevel maps a level name to a slog level. Unknown names map to info.
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

// New builds a logger without touching the global one.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	format := opts.Format
	if format == "" && os.Getenv("GO_ENV") == "production" {
		format = "json"
	}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

// Init replaces the global logger and the slog default.
func Init(level string) {
	Setup(Options{Level: level})
}

// Setup replaces the global logger with one built from opts.
func Setup(opts Options) {
	l := New(opts)

	mu.Lock()
	logger = l
	mu.Unlock()

	slog.SetDefault(l)
}

// L returns the global logger instance.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l == nil {
		Init("info")
		return L()
	}
	return l
}

// Component returns the global logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}

// Discard returns a logger that drops every record. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
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

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
