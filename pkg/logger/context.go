package logger

import (
	"context"
	"log/slog"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// With derives a request-scoped logger carrying extra fields (trace id,
// user id) and stores it back in the context for downstream handlers.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerKey, l)
}

// From returns the request-scoped logger. Outside a request, or before
// Init has run, it falls back to the process logger and then to slog's
// default so callers never get nil.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok && l != nil {
		return l
	}
	if l := LoggerWrapper(); l != nil {
		return l
	}
	return slog.Default()
}
