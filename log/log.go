// Package log provides structured logging (slog) for the SDK, including
// the plugin-scoped loggers used for denial diagnostics.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Option configures NewLogger.
type Option func(*loggerConfig)

type loggerConfig struct {
	writer    io.Writer
	level     slog.Level
	addSource bool
	json      bool
}

func defaultLoggerConfig() loggerConfig {
	return loggerConfig{
		writer: os.Stderr,
		level:  slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Level) Option {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) Option {
	return func(c *loggerConfig) {
		c.addSource = enabled
	}
}

// WithWriter sets the output destination. Defaults to stderr.
func WithWriter(w io.Writer) Option {
	return func(c *loggerConfig) {
		c.writer = w
	}
}

// WithJSON switches output from logfmt text to JSON records.
func WithJSON(enabled bool) Option {
	return func(c *loggerConfig) {
		c.json = enabled
	}
}

// NewLogger creates a structured logger with the given options.
func NewLogger(opts ...Option) *slog.Logger {
	cfg := defaultLoggerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	hopts := &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.addSource,
	}
	var h slog.Handler
	if cfg.json {
		h = slog.NewJSONHandler(cfg.writer, hopts)
	} else {
		h = slog.NewTextHandler(cfg.writer, hopts)
	}
	return slog.New(h)
}

// ForPlugin returns a logger scoped to one plugin identity. Denial
// diagnostics always go through a plugin-scoped logger so host operators
// can attribute every rejected call. A nil base falls back to slog.Default.
func ForPlugin(base *slog.Logger, identity string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("plugin", identity))
}
