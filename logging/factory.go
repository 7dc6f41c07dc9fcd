package logging

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leeforge/logfactory/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Configuration layout read by a Factory.
const (
	ConfigSection = "logger"
	HandlersKey   = "handlers"
	FormatterKey  = "formatter"

	// RootChannel is the channel GetRootLogger returns.
	RootChannel = "Root"
)

// ConfigSource supplies the logger section. Get fails when section.key is
// absent; config.Config and config.MapSource both qualify.
type ConfigSource interface {
	Get(section, key string) (any, error)
}

// Option configures a Factory.
type Option func(*Factory)

// WithHandlerKind registers an extra handler kind, or replaces a built-in one.
func WithHandlerKind(kind string, ctor HandlerConstructor) Option {
	return func(f *Factory) {
		f.kinds.Register(kind, ctor)
	}
}

// WithHandlerKinds replaces the whole kind table. The table is copied.
func WithHandlerKinds(kinds *HandlerKinds) Option {
	return func(f *Factory) {
		f.kinds = kinds.clone()
	}
}

// WithProcessors adds processors that run on every record, before the
// global context is merged in.
func WithProcessors(processors ...Processor) Option {
	return func(f *Factory) {
		f.processors = append(f.processors, processors...)
	}
}

// WithHooks adds hooks that observe every record.
func WithHooks(hooks ...Hook) Option {
	return func(f *Factory) {
		f.hooks = append(f.hooks, hooks...)
	}
}

// WithDiagnostics sets the logger the factory reports its own decisions to.
func WithDiagnostics(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.diag = l
		}
	}
}

// WithZapOptions passes options to every zap.Logger the factory builds,
// e.g. zap.AddCaller or zap.ErrorOutput.
func WithZapOptions(opts ...zap.Option) Option {
	return func(f *Factory) {
		f.zapOpts = append(f.zapOpts, opts...)
	}
}

// Factory builds one Logger per channel name and keeps it for its lifetime.
// All loggers of a factory share one Formatter and one GlobalContext.
type Factory struct {
	source     ConfigSource
	kinds      *HandlerKinds
	processors []Processor
	hooks      []Hook
	diag       *zap.Logger
	zapOpts    []zap.Option

	loggers sync.Map // map[string]Logger
	buildMu sync.Mutex

	formatterMu sync.Mutex
	formatter   *Formatter

	globalOnce sync.Once
	global     *GlobalContext
}

// NewFactory creates a Factory reading its configuration from source.
// Nothing is read until the first logger or formatter is requested.
func NewFactory(source ConfigSource, opts ...Option) *Factory {
	f := &Factory{
		source: source,
		kinds:  DefaultHandlerKinds(),
		diag:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GetLogger returns the logger for name, building it on first use. A build
// that fails is not cached; the next call tries again.
func (f *Factory) GetLogger(name string) (Logger, error) {
	// Fast path: check if logger exists
	if v, ok := f.loggers.Load(name); ok {
		return v.(Logger), nil
	}

	f.buildMu.Lock()
	defer f.buildMu.Unlock()
	if v, ok := f.loggers.Load(name); ok {
		return v.(Logger), nil
	}

	logger, err := f.build(name)
	if err != nil {
		return nil, err
	}
	f.loggers.Store(name, logger)
	f.diag.Debug("logger built",
		zap.String("channel", name),
		zap.Int("handlers", len(logger.handlers)))
	return logger, nil
}

// GetRootLogger is GetLogger(RootChannel).
func (f *Factory) GetRootLogger() (Logger, error) {
	return f.GetLogger(RootChannel)
}

// MustGetLogger is GetLogger that panics on error.
func (f *Factory) MustGetLogger(name string) Logger {
	logger, err := f.GetLogger(name)
	if err != nil {
		panic(err)
	}
	return logger
}

func (f *Factory) build(name string) (*channelLogger, error) {
	raw, err := f.source.Get(ConfigSection, HandlersKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading logger handlers").WithDetail("channel", name)
	}
	entries, err := handlerEntries(raw)
	if err != nil {
		return nil, errors.Wrap(err, "reading logger handlers").WithDetail("channel", name)
	}

	handlers := make([]Handler, 0, len(entries))
	fail := func(err error, kind string) (*channelLogger, error) {
		_ = closeHandlers(handlers)
		return nil, errors.Wrap(err, fmt.Sprintf("building %s handler", kind)).
			WithDetail("channel", name).
			WithDetail("handler", kind)
	}

	for _, entry := range entries {
		if !f.kinds.Has(entry.kind) {
			f.diag.Debug("unknown handler kind skipped",
				zap.String("channel", name),
				zap.String("kind", entry.kind))
			continue
		}
		options, err := toOptions(HandlersKey+"."+entry.kind, entry.raw)
		if err != nil {
			return fail(err, entry.kind)
		}
		h, err := f.kinds.Build(entry.kind, options)
		if err != nil {
			return fail(err, entry.kind)
		}
		if h == nil {
			continue
		}

		formatter, err := f.Formatter()
		if err != nil {
			_ = h.Close()
			return fail(err, entry.kind)
		}
		h.SetFormatter(formatter)
		handlers = append(handlers, h)
	}

	processors := make([]Processor, 0, len(f.processors)+1)
	processors = append(processors, f.processors...)
	processors = append(processors, NewGlobalContextProcessor(f.GlobalContext()))

	return newChannelLogger(name, handlers, processors, f.hooks, f.zapOpts...), nil
}

// Formatter returns the shared formatter, building it from logger.formatter
// on first use. A failed build is not cached.
func (f *Factory) Formatter() (*Formatter, error) {
	f.formatterMu.Lock()
	defer f.formatterMu.Unlock()
	if f.formatter != nil {
		return f.formatter, nil
	}

	raw, err := f.source.Get(ConfigSection, FormatterKey)
	if err != nil {
		return nil, errors.Wrap(err, "reading logger formatter")
	}
	options, err := toOptions(ConfigSection+"."+FormatterKey, raw)
	if err != nil {
		return nil, err
	}

	var cfg FormatterConfig
	if err := decodeOptions(FormatterKey, formatterAliases(options), &cfg); err != nil {
		return nil, err
	}
	formatter, err := NewFormatter(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "building formatter")
	}
	f.formatter = formatter
	return formatter, nil
}

// formatterAliases accepts the camelCase spellings dateFormat and
// allowInlineLineBreaks, lowercased or not.
func formatterAliases(options map[string]any) map[string]any {
	aliases := map[string]string{
		"dateFormat":            "date_format",
		"dateformat":            "date_format",
		"allowInlineLineBreaks": "allow_inline_line_breaks",
		"allowinlinelinebreaks": "allow_inline_line_breaks",
	}
	out := make(map[string]any, len(options))
	for k, v := range options {
		out[k] = v
	}
	for alias, key := range aliases {
		v, ok := out[alias]
		if !ok {
			continue
		}
		delete(out, alias)
		if _, set := out[key]; !set {
			out[key] = v
		}
	}
	return out
}

// GlobalContext returns the context shared by every logger of the factory.
func (f *Factory) GlobalContext() *GlobalContext {
	f.globalOnce.Do(func() {
		f.global = NewGlobalContext()
	})
	return f.global
}

// Loggers returns the channel names built so far, sorted.
func (f *Factory) Loggers() []string {
	var names []string
	f.loggers.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Sync flushes every handler of every logger built so far.
func (f *Factory) Sync() error {
	var err error
	f.loggers.Range(func(_, v any) bool {
		err = multierr.Append(err, v.(Logger).Sync())
		return true
	})
	return err
}

// Close releases the handlers of every logger built so far. Loggers stay
// cached; file and network handlers reopen on their next record.
func (f *Factory) Close() error {
	var err error
	f.loggers.Range(func(_, v any) bool {
		err = multierr.Append(err, closeHandlers(v.(Logger).Handlers()))
		return true
	})
	return err
}

func closeHandlers(handlers []Handler) error {
	var err error
	for _, h := range handlers {
		err = multierr.Append(err, h.Close())
	}
	return err
}
