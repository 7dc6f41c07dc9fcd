package logging

import (
	"context"

	"go.uber.org/zap"
)

// Context keys for request-scoped identifiers.
type ctxKey string

const (
	TraceIDKey   ctxKey = "trace_id"
	RequestIDKey ctxKey = "request_id"
	UserIDKey    ctxKey = "user_id"
)

var contextKeys = []ctxKey{TraceIDKey, RequestIDKey, UserIDKey}

// WithContext returns a child logger carrying the request identifiers found
// in ctx as context fields.
func WithContext(logger Logger, ctx context.Context) Logger {
	if ctx == nil {
		return logger
	}
	var fields []zap.Field
	for _, key := range contextKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// SetContextValue stores a request identifier for WithContext.
func SetContextValue(ctx context.Context, key ctxKey, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// loggerKey is the context key for storing a logger in context.
type loggerKey struct{}

// ToContext stores the Logger in the context.
func ToContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the Logger stored in ctx, or one that discards
// everything.
func FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return nopLogger()
	}
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return nopLogger()
}
