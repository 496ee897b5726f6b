// Package logging is the structured logging layer for the platform. Both
// binaries log through it so that request-scoped fields and the domain
// field helpers in fields.go stay consistent across services.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/middleware"
)

// Logger wraps slog.Logger. The *Context methods attach request-scoped
// fields pulled from the context before delegating to slog.
type Logger struct {
	*slog.Logger
}

// New builds a logger writing to stdout. format is "json" or "text";
// anything else falls back to json. Source locations are recorded only
// when the level is error or stricter.
func New(level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelError,
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns the underlying slog logger enriched with the request
// id carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *slog.Logger {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		return l.Logger.With(slog.String("request_id", reqID))
	}
	return l.Logger
}

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).DebugContext(ctx, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).InfoContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).ErrorContext(ctx, msg, args...)
}

// With returns a logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ParseLevel maps the configured level string to a slog.Level. Unknown
// values mean info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetDefault routes slog.Default and the stdlib log package through l, so
// dependencies logging via slog share the configured handler.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
