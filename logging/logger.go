package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, fields ...zap.Field)
	// Info logs a message at InfoLevel.
	Info(msg string, fields ...zap.Field)
	// Warn logs a message at WarnLevel.
	Warn(msg string, fields ...zap.Field)
	// Error logs a message at ErrorLevel.
	Error(msg string, fields ...zap.Field)
	// Fatal logs a message at FatalLevel and then calls os.Exit(1).
	Fatal(msg string, fields ...zap.Field)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)

	// With creates a child logger with additional context fields. The child
	// writes through the same handlers.
	With(fields ...zap.Field) Logger
	// WithError creates a child logger with an error field.
	WithError(err error) Logger

	// Name is the channel the logger was created for.
	Name() string
	// Handlers returns the handlers attached at creation, in order.
	Handlers() []Handler

	// Zap returns the underlying *zap.Logger.
	Zap() *zap.Logger
	// Sugar returns the underlying *zap.SugaredLogger.
	Sugar() *zap.SugaredLogger
	// Sync flushes every handler.
	Sync() error
}

// channelLogger is the Logger a Factory hands out for one channel.
type channelLogger struct {
	name     string
	handlers []Handler
	zl       *zap.Logger
	sl       *zap.SugaredLogger
}

// newChannelLogger wires handlers, processors and hooks into one zap logger
// named after the channel. Handler order is kept.
func newChannelLogger(name string, handlers []Handler, processors []Processor, hooks []Hook, opts ...zap.Option) *channelLogger {
	cores := make([]zapcore.Core, 0, len(handlers))
	for _, h := range handlers {
		cores = append(cores, h.Core())
	}

	var core zapcore.Core = newChannelCore(cores, processors)
	if len(hooks) > 0 {
		core = newHookCore(core, hooks)
	}

	zl := zap.New(core, opts...).Named(name)
	return &channelLogger{
		name:     name,
		handlers: handlers,
		zl:       zl,
		sl:       zl.Sugar(),
	}
}

func (l *channelLogger) derive(zl *zap.Logger) Logger {
	return &channelLogger{name: l.name, handlers: l.handlers, zl: zl, sl: zl.Sugar()}
}

func (l *channelLogger) Debug(msg string, fields ...zap.Field) {
	l.zl.Debug(msg, fields...)
}

func (l *channelLogger) Info(msg string, fields ...zap.Field) {
	l.zl.Info(msg, fields...)
}

func (l *channelLogger) Warn(msg string, fields ...zap.Field) {
	l.zl.Warn(msg, fields...)
}

func (l *channelLogger) Error(msg string, fields ...zap.Field) {
	l.zl.Error(msg, fields...)
}

func (l *channelLogger) Fatal(msg string, fields ...zap.Field) {
	l.zl.Fatal(msg, fields...)
}

func (l *channelLogger) Debugf(format string, args ...any) {
	l.sl.Debugf(format, args...)
}

func (l *channelLogger) Infof(format string, args ...any) {
	l.sl.Infof(format, args...)
}

func (l *channelLogger) Warnf(format string, args ...any) {
	l.sl.Warnf(format, args...)
}

func (l *channelLogger) Errorf(format string, args ...any) {
	l.sl.Errorf(format, args...)
}

func (l *channelLogger) Fatalf(format string, args ...any) {
	l.sl.Fatalf(format, args...)
}

func (l *channelLogger) With(fields ...zap.Field) Logger {
	return l.derive(l.zl.With(fields...))
}

func (l *channelLogger) WithError(err error) Logger {
	return l.derive(l.zl.With(zap.Error(err)))
}

func (l *channelLogger) Name() string { return l.name }

func (l *channelLogger) Handlers() []Handler {
	return append([]Handler(nil), l.handlers...)
}

func (l *channelLogger) Zap() *zap.Logger {
	return l.zl
}

func (l *channelLogger) Sugar() *zap.SugaredLogger {
	return l.sl
}

func (l *channelLogger) Sync() error {
	return l.zl.Sync()
}

// nopLogger returns a Logger with no handlers that discards everything.
func nopLogger() Logger {
	return newChannelLogger("", nil, nil, nil)
}

// Ensure channelLogger implements Logger.
var _ Logger = (*channelLogger)(nil)
