// Package logging provides structured logging configuration using log/slog.
//
// Every pipeline pass is tagged with a pass ID stored in its context, so all
// log entries emitted while serving one interaction can be correlated.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyPassID contextKey = "pass_id"

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// parseLevel converts a string log level to slog.Level.
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

// NewPass returns a context tagged with a fresh pass ID, and the ID itself.
// An ID already present in ctx is kept.
func NewPass(ctx context.Context) (context.Context, string) {
	if id := PassID(ctx); id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return context.WithValue(ctx, ctxKeyPassID, id), id
}

// PassID extracts the pass ID from ctx, or "" when none was set.
func PassID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyPassID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns a logger enriched with the pass ID carried by ctx.
//
// Usage:
//
//	logger := logging.FromContext(ctx)
//	logger.Warn("mapping fallback", "stage", stage)
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if id := PassID(ctx); id != "" {
		logger = logger.With("pass_id", id)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	passLogger := logging.WithFields(ctx,
//	    "dataset", key,
//	    "column", column,
//	)
//	passLogger.Info("pass started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
