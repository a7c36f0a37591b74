// Package logging wraps log/slog with the JSON logger and helpers every
// component of the tracker logs through.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type loggerKey struct{}

// NewStructuredLogger creates a JSON logger writing to w at the given level.
func NewStructuredLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Component returns a child logger tagged with the component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", name))
}

// LogError logs err at error level with the given attributes.
func LogError(logger *slog.Logger, message string, err error, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs)+1)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}

	logger.Error(message, args...)
}

// LogOperation logs a completed operation at info level.
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		// Skip zero-value durations
		if attr.Key == "duration" && attr.Value.Kind() == slog.KindDuration && attr.Value.Duration() == 0 {
			continue
		}
		args = append(args, attr)
	}

	logger.Info(operation, args...)
}

// LogHTTPRequest logs one served request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	if logger == nil {
		return
	}

	args := make([]any, 0, len(attrs)+4)
	args = append(args,
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	)
	for _, attr := range attrs {
		args = append(args, attr)
	}

	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "http_request", args...)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves a logger from the context, or returns the default logger
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
