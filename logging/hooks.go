package logging

import (
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// Hook is called for each record a logger writes, after the level check and
// before the handlers. metrics.Collector.RecordHook is one.
type Hook func(entry zapcore.Entry) error

// hookCore wraps a zapcore.Core and calls hooks on each log entry.
type hookCore struct {
	zapcore.Core
	hooks []Hook
}

func newHookCore(core zapcore.Core, hooks []Hook) zapcore.Core {
	return &hookCore{
		Core:  core,
		hooks: hooks,
	}
}

func (c *hookCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

// Write runs every hook, then the wrapped core. Hook errors do not stop the
// write; they are returned alongside its result so zap reports them on the
// logger's ErrorOutput.
func (c *hookCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var err error
	for _, hook := range c.hooks {
		err = multierr.Append(err, hook(entry))
	}
	return multierr.Append(err, c.Core.Write(entry, fields))
}

func (c *hookCore) With(fields []zapcore.Field) zapcore.Core {
	return &hookCore{
		Core:  c.Core.With(fields),
		hooks: c.hooks,
	}
}
