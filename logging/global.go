package logging

import (
	"sync"

	"github.com/leeforge/logfactory/config"
	"go.uber.org/zap"
)

var (
	defaultFactory *Factory
	defaultMu      sync.RWMutex
	once           sync.Once
)

// initDefault sets up a factory with no handlers and the default format, so
// package-level calls work before Init.
func initDefault() {
	once.Do(func() {
		source := config.NewMapSource().
			Set(ConfigSection, HandlersKey, config.NewOrderedMap()).
			Set(ConfigSection, FormatterKey, map[string]any{})
		defaultFactory = NewFactory(source)
	})
}

// Default returns the process-wide factory.
func Default() *Factory {
	defaultMu.RLock()
	if defaultFactory != nil {
		defer defaultMu.RUnlock()
		return defaultFactory
	}
	defaultMu.RUnlock()

	initDefault()

	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultFactory
}

// SetDefault replaces the process-wide factory. Loggers obtained from the
// previous one keep working.
func SetDefault(f *Factory) {
	initDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFactory = f
}

// Init builds a factory over source and makes it the default.
func Init(source ConfigSource, opts ...Option) *Factory {
	f := NewFactory(source, opts...)
	SetDefault(f)
	return f
}

// GetLogger returns a channel logger from the default factory.
func GetLogger(name string) (Logger, error) {
	return Default().GetLogger(name)
}

// GetRootLogger returns the Root channel of the default factory.
func GetRootLogger() (Logger, error) {
	return Default().GetRootLogger()
}

// GetGlobalContext returns the global context of the default factory.
func GetGlobalContext() *GlobalContext {
	return Default().GlobalContext()
}

// Root is the Root channel of the default factory, or a logger that
// discards everything when it cannot be built.
func Root() Logger {
	l, err := GetRootLogger()
	if err != nil {
		return nopLogger()
	}
	return l
}

// Package-level convenience functions that delegate to Root().

func Debug(msg string, fields ...zap.Field) {
	Root().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Root().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Root().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Root().Error(msg, fields...)
}

// Sync flushes every logger of the default factory.
func Sync() error {
	return Default().Sync()
}
