// Package ctxlog carries a *slog.Logger through a context.Context so that
// every stage of a run logs through the logger the CLI configured, without
// threading a logger argument through every signature.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is unexported so no other package can collide with our context entry.
type key struct{}

var loggerKey = key{}

// WithLogger returns a child context that carries the given logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default when the
// context carries none. Callers can therefore log unconditionally.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
