// Package logger wraps log/slog with the handful of knobs the config file
// exposes.
package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Logger struct {
	*slog.Logger
}

type Options struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // "json" or "text"
	Output     string `yaml:"output" json:"output"` // "stdout" or "stderr"
	TimeFormat string `yaml:"time_format" json:"time_format"`
}

type Option func(*Options)

func WithLevel(level string) Option {
	return func(o *Options) { o.Level = level }
}

func WithFormat(format string) Option {
	return func(o *Options) { o.Format = format }
}

// New builds a logger writing to w; a nil writer falls back to Output.
func New(w io.Writer, opts Options, extra ...Option) *Logger {
	for _, opt := range extra {
		opt(&opts)
	}
	if w == nil {
		w = parseOutput(opts.Output)
	}

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && opts.TimeFormat != "" {
				switch opts.TimeFormat {
				case "Unix":
					return slog.Int64(slog.TimeKey, a.Value.Time().Unix())
				case "UnixMilli":
					return slog.Int64(slog.TimeKey, a.Value.Time().UnixMilli())
				default:
					return slog.String(slog.TimeKey, a.Value.Time().Format(opts.TimeFormat))
				}
			}
			return a
		},
	}

	var h slog.Handler
	switch strings.ToLower(opts.Format) {
	case "text":
		h = slog.NewTextHandler(w, handlerOpts)
	default:
		h = slog.NewJSONHandler(w, handlerOpts)
	}
	return &Logger{Logger: slog.New(h)}
}

func NewDefault(extra ...Option) *Logger {
	return New(os.Stderr, Options{Level: "INFO", Format: "json", TimeFormat: time.RFC3339}, extra...)
}

// Discard drops everything; handy in tests.
func Discard() *Logger {
	return New(io.Discard, Options{Level: "ERROR"})
}

// Std adapts l for APIs that still want a *log.Logger (http.Server.ErrorLog).
func (l *Logger) Std(level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.Handler(), level)
}

func (l *Logger) WarnContextf(ctx context.Context, format string, args ...any) {
	l.WarnContext(ctx, fmt.Sprintf(format, args...))
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseOutput(s string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}
