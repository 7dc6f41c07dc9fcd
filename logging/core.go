package logging

import (
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

// sink receives one formatted record. Handlers implement it so the core can
// pass the entry along, which the syslog handler needs for severity.
type sink interface {
	emit(ent zapcore.Entry, line []byte) error
	Sync() error
}

// handlerCore is the zapcore.Core behind a single Handler.
type handlerCore struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	out sink
}

func newHandlerCore(level zapcore.LevelEnabler, enc zapcore.Encoder, out sink) zapcore.Core {
	return &handlerCore{LevelEnabler: level, enc: enc, out: out}
}

func (c *handlerCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.enc.Clone()
	for _, f := range fields {
		f.AddTo(clone)
	}
	return &handlerCore{LevelEnabler: c.LevelEnabler, enc: clone, out: c.out}
}

func (c *handlerCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *handlerCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	defer buf.Free()
	return c.out.emit(ent, buf.Bytes())
}

func (c *handlerCore) Sync() error {
	return c.out.Sync()
}

// channelCore fans a channel's records out to its handler cores. Fields bound
// with With are kept here rather than pushed into the handler encoders, so
// processors see them and can place their own fields underneath.
type channelCore struct {
	cores      []zapcore.Core
	processors []Processor
	bound      []zapcore.Field
}

func newChannelCore(cores []zapcore.Core, processors []Processor) *channelCore {
	return &channelCore{cores: cores, processors: processors}
}

func (c *channelCore) Enabled(level zapcore.Level) bool {
	for _, core := range c.cores {
		if core.Enabled(level) {
			return true
		}
	}
	return false
}

func (c *channelCore) With(fields []zapcore.Field) zapcore.Core {
	bound := make([]zapcore.Field, 0, len(c.bound)+len(fields))
	bound = append(bound, c.bound...)
	bound = append(bound, fields...)
	return &channelCore{cores: c.cores, processors: c.processors, bound: bound}
}

func (c *channelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write runs the processors once, then hands the record to every handler
// whose threshold admits it. A failing handler does not stop the others.
func (c *channelCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.bound)+len(fields))
	all = append(all, c.bound...)
	all = append(all, fields...)
	for _, p := range c.processors {
		all = p.Process(ent, all)
	}

	var err error
	for _, core := range c.cores {
		if core.Enabled(ent.Level) {
			err = multierr.Append(err, core.Write(ent, all))
		}
	}
	return err
}

func (c *channelCore) Sync() error {
	var err error
	for _, core := range c.cores {
		err = multierr.Append(err, core.Sync())
	}
	return err
}
