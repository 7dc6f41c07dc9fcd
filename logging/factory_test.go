package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leeforge/logfactory/config"
	"github.com/leeforge/logfactory/errors"
	"github.com/leeforge/logfactory/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const testFormat = "%channel%.%level_name%: %message% %context% %extra%\n"

func memSource(handlers *config.OrderedMap) *config.MapSource {
	return config.NewMapSource().
		Set(ConfigSection, HandlersKey, handlers).
		Set(ConfigSection, FormatterKey, map[string]any{"format": testFormat, "date_format": "Y-m-d"})
}

func memFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()
	handlers := config.NewOrderedMap().Set("memory", map[string]any{"level": "debug"})
	opts = append([]Option{WithHandlerKind("memory", newMemHandler)}, opts...)
	return NewFactory(memSource(handlers), opts...)
}

func memLines(t *testing.T, l Logger) []string {
	t.Helper()
	require.Len(t, l.Handlers(), 1)
	return l.Handlers()[0].(*memHandler).Lines()
}

func TestGetLoggerReturnsSameInstance(t *testing.T) {
	f := memFactory(t)

	a, err := f.GetLogger("App")
	require.NoError(t, err)
	b, err := f.GetLogger("App")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "App", a.Name())
}

func TestGetLoggerDistinctChannels(t *testing.T) {
	f := memFactory(t)

	a := f.MustGetLogger("A")
	b := f.MustGetLogger("B")
	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Handlers()[0], b.Handlers()[0], "each channel builds its own handlers")
	assert.Equal(t, []string{"A", "B"}, f.Loggers())

	a.Info("from a")
	assert.Equal(t, []string{"A.INFO: from a [] []\n"}, memLines(t, a))
	assert.Empty(t, memLines(t, b))
}

func TestGetRootLogger(t *testing.T) {
	f := memFactory(t)

	root, err := f.GetRootLogger()
	require.NoError(t, err)
	byName, err := f.GetLogger(RootChannel)
	require.NoError(t, err)
	assert.Same(t, root, byName)
	assert.Equal(t, "Root", root.Name())
}

func TestGetLoggerConcurrentFirstAccess(t *testing.T) {
	f := memFactory(t)

	var wg sync.WaitGroup
	got := make([]Logger, 16)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = f.MustGetLogger("Shared")
		}(i)
	}
	wg.Wait()
	for _, l := range got[1:] {
		assert.Same(t, got[0], l)
	}
}

func TestFormatterAndGlobalContextAreShared(t *testing.T) {
	f := memFactory(t)

	f1, err := f.Formatter()
	require.NoError(t, err)
	f2, err := f.Formatter()
	require.NoError(t, err)
	assert.Same(t, f1, f2)
	assert.Equal(t, testFormat, f1.FormatString())

	assert.Same(t, f.GlobalContext(), f.GlobalContext())

	a := f.MustGetLogger("A")
	b := f.MustGetLogger("B")
	assert.Same(t, f1, a.Handlers()[0].Formatter())
	assert.Same(t, f1, b.Handlers()[0].Formatter())
}

func TestFormatterCamelCaseKeys(t *testing.T) {
	src := config.NewMapSource().
		Set(ConfigSection, HandlersKey, config.NewOrderedMap()).
		Set(ConfigSection, FormatterKey, map[string]any{"format": "%datetime%", "dateformat": "d.m.Y"})

	formatter, err := NewFactory(src).Formatter()
	require.NoError(t, err)
	assert.Equal(t, "d.m.Y", formatter.DateFormat())
}

func TestUnknownHandlerKindIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	handlers := config.NewOrderedMap().
		Set("stream", map[string]any{"path": path, "level": "debug"}).
		Set("bogus-kind", map[string]any{})

	var diag bytes.Buffer
	diagLogger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(&diag),
		zapcore.DebugLevel,
	))

	f := NewFactory(memSource(handlers), WithDiagnostics(diagLogger))
	l, err := f.GetLogger("Filtered")
	require.NoError(t, err)
	require.Len(t, l.Handlers(), 1)
	assert.Equal(t, KindStream, l.Handlers()[0].Kind())
	assert.Contains(t, diag.String(), `"kind":"bogus-kind"`)

	l.Info("written")
	require.NoError(t, f.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Filtered.INFO: written [] []\n", string(data))
}

func TestEmptyHandlers(t *testing.T) {
	f := NewFactory(memSource(config.NewOrderedMap()))

	l, err := f.GetLogger("Empty")
	require.NoError(t, err)
	assert.Empty(t, l.Handlers())
	assert.NotPanics(t, func() { l.Error("nowhere") })
}

func TestHandlerOrderFollowsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	handlers := config.NewOrderedMap().
		Set("redis", map[string]any{"host": "127.0.0.1", "port": 6379, "key": "logs", "level": "error"}).
		Set("stream", map[string]any{"path": path, "level": "debug"})

	l, err := NewFactory(memSource(handlers)).GetLogger("Ordered")
	require.NoError(t, err)
	require.Len(t, l.Handlers(), 2)
	assert.Equal(t, KindRedis, l.Handlers()[0].Kind())
	assert.Equal(t, KindStream, l.Handlers()[1].Kind())
}

func TestHandlerLevelsFilterPerHandler(t *testing.T) {
	handlers := config.NewOrderedMap().
		Set("memory", map[string]any{"level": "debug"}).
		Set("loud", map[string]any{"level": "error"})
	f := NewFactory(memSource(handlers),
		WithHandlerKind("memory", newMemHandler),
		WithHandlerKind("loud", newMemHandler))

	l := f.MustGetLogger("Levels")
	l.Info("quiet")
	l.Error("loud")

	all := l.Handlers()[0].(*memHandler).Lines()
	errorsOnly := l.Handlers()[1].(*memHandler).Lines()
	assert.Len(t, all, 2)
	assert.Equal(t, []string{"Levels.ERROR: loud [] []\n"}, errorsOnly)
}

func TestGlobalContextIsLive(t *testing.T) {
	f := memFactory(t)
	l := f.MustGetLogger("Live")

	l.Info("before")
	f.GlobalContext().Set("request", "r1")
	l.Info("after")
	f.GlobalContext().Set("user", "global")
	l.Info("override", zap.String("user", "local"))
	l.With(zap.String("user", "bound")).Info("bound")
	f.GlobalContext().Delete("request")
	l.Info("deleted")

	assert.Equal(t, []string{
		"Live.INFO: before [] []\n",
		`Live.INFO: after {"request":"r1"} []` + "\n",
		`Live.INFO: override {"request":"r1","user":"local"} []` + "\n",
		`Live.INFO: bound {"request":"r1","user":"bound"} []` + "\n",
		`Live.INFO: deleted {"user":"global"} []` + "\n",
	}, memLines(t, l))
}

func TestMissingSyslogPortFails(t *testing.T) {
	handlers := config.NewOrderedMap().
		Set("memory", map[string]any{"level": "debug"}).
		Set("syslog-logstash", map[string]any{
			"source_program":  "app",
			"source_host":     "web1",
			"syslog_host":     "127.0.0.1",
			"syslog_facility": "local0",
			"level":           "debug",
		})
	var built []*memHandler
	f := NewFactory(memSource(handlers), WithHandlerKind("memory", func(o map[string]any) (Handler, error) {
		h, err := newMemHandler(o)
		if err == nil {
			built = append(built, h.(*memHandler))
		}
		return h, err
	}))

	_, err := f.GetLogger("Broken")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeRequired))
	assert.Contains(t, err.Error(), "syslog_port")
	assert.Empty(t, f.Loggers(), "failed builds are not cached")
	require.Len(t, built, 1)
	assert.Equal(t, 1, built[0].closed, "handlers built before the failure are closed")

	assert.Panics(t, func() { f.MustGetLogger("Broken") })
}

func TestMissingSectionsFail(t *testing.T) {
	_, err := NewFactory(config.NewMapSource()).GetLogger("App")
	assert.True(t, errors.IsType(err, errors.ErrorTypeRequired))

	src := config.NewMapSource().Set(ConfigSection, HandlersKey,
		config.NewOrderedMap().Set("memory", map[string]any{"level": "debug"}))
	f := NewFactory(src, WithHandlerKind("memory", newMemHandler))
	_, err = f.GetLogger("App")
	assert.True(t, errors.IsType(err, errors.ErrorTypeRequired))

	_, err = f.Formatter()
	assert.Error(t, err)
	src.Set(ConfigSection, FormatterKey, map[string]any{})
	formatter, err := f.Formatter()
	require.NoError(t, err, "a failed formatter read is retried")
	assert.Equal(t, DefaultFormat, formatter.FormatString())
}

func TestProcessorsAndHooks(t *testing.T) {
	collector := metrics.NewCollector()
	uid := NewUIDProcessor()
	f := memFactory(t, WithProcessors(uid), WithHooks(collector.RecordHook()))

	l := f.MustGetLogger("Metered")
	l.Info("one")
	l.Infof("two %d", 2)
	l.Warn("three")

	lines := memLines(t, l)
	require.Len(t, lines, 3)
	assert.Equal(t, `Metered.INFO: two 2 [] {"uid":"`+uid.UID()+`"}`+"\n", lines[1])

	info, ok := collector.GetMetric(metrics.RecordsTotal, map[string]string{"channel": "Metered", "level": "info"})
	require.True(t, ok)
	assert.Equal(t, float64(2), info.Value)
	warn, ok := collector.GetMetric(metrics.RecordsTotal, map[string]string{"channel": "Metered", "level": "warn"})
	require.True(t, ok)
	assert.Equal(t, float64(1), warn.Value)
}

func TestHookErrorsDoNotStopWrites(t *testing.T) {
	f := memFactory(t, WithHooks(func(zapcore.Entry) error {
		return errors.NewInternal("hook failed")
	}))

	l := f.MustGetLogger("Hooked")
	l.Info("still written")
	assert.Len(t, memLines(t, l), 1)
}

func TestLoggerWithError(t *testing.T) {
	f := memFactory(t)
	l := f.MustGetLogger("Errs")

	l.WithError(errors.NewInternal("db down")).Error("query failed")
	assert.Equal(t, []string{`Errs.ERROR: query failed {"error":"db down"} []` + "\n"}, memLines(t, l))
	assert.NotNil(t, l.Zap())
	assert.NotNil(t, l.Sugar())
	assert.NoError(t, l.Sync())
}

func TestFactoryWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "app.log")
	yaml := "logger:\n" +
		"  handlers:\n" +
		"    stream:\n" +
		"      path: " + logPath + "\n" +
		"      level: debug\n" +
		"    bogus-kind: {}\n" +
		"    memory:\n" +
		"      level: warning\n" +
		"  formatter:\n" +
		"    format: \"%level_name% %channel% %context%: %message%\\n\"\n" +
		"    date_format: \"Y-m-d H:i:s\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	opts := config.DefaultConfigOptions()
	opts.BasePath = dir
	cfg, err := config.NewConfig(opts)
	require.NoError(t, err)

	f := NewFactory(cfg, WithHandlerKind("memory", newMemHandler))
	l, err := f.GetLogger("Web")
	require.NoError(t, err)
	require.Len(t, l.Handlers(), 2)
	assert.Equal(t, KindStream, l.Handlers()[0].Kind())
	assert.Equal(t, "memory", l.Handlers()[1].Kind())

	l.Info("hello", zap.String("ip", "10.0.0.1"))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, `INFO Web {"ip":"10.0.0.1"}: hello`+"\n", string(data))
}

func TestContextRoundTrip(t *testing.T) {
	f := memFactory(t)
	l := f.MustGetLogger("Ctx")

	ctx := ToContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	empty := FromContext(context.Background())
	require.NotNil(t, empty)
	assert.Empty(t, empty.Handlers())

	ctx = SetContextValue(ctx, RequestIDKey, "req-1")
	WithContext(FromContext(ctx), ctx).Info("scoped")
	assert.Equal(t, []string{`Ctx.INFO: scoped {"request_id":"req-1"} []` + "\n"}, memLines(t, l))
}

func TestDefaultFactory(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	root, err := GetRootLogger()
	require.NoError(t, err)
	assert.Empty(t, root.Handlers())

	handlers := config.NewOrderedMap().Set("memory", map[string]any{"level": "debug"})
	f := Init(memSource(handlers), WithHandlerKind("memory", newMemHandler))
	assert.Same(t, f, Default())
	assert.Same(t, f.GlobalContext(), GetGlobalContext())

	GetGlobalContext().Set("app", "demo")
	Info("via package")
	l, err := GetLogger(RootChannel)
	require.NoError(t, err)
	assert.Equal(t, []string{`Root.INFO: via package {"app":"demo"} []` + "\n"}, memLines(t, l))
	assert.NoError(t, Sync())
}

func TestUnknownKindWithScalarConfigIsSkipped(t *testing.T) {
	for _, raw := range []any{"disabled", true, []any{"a"}, nil} {
		handlers := config.NewOrderedMap().
			Set("memory", map[string]any{"level": "debug"}).
			Set("bogus-kind", raw)
		f := NewFactory(memSource(handlers), WithHandlerKind("memory", newMemHandler))

		l, err := f.GetLogger("Tolerant")
		require.NoError(t, err, "%v", raw)
		require.Len(t, l.Handlers(), 1)
		assert.Equal(t, "memory", l.Handlers()[0].Kind())
	}
}

func TestKnownKindWithScalarConfigFails(t *testing.T) {
	handlers := config.NewOrderedMap().Set("stream", "disabled")

	_, err := NewFactory(memSource(handlers)).GetLogger("Strict")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalid))
	assert.Contains(t, err.Error(), "handlers.stream")
}

func TestFormatterAndGlobalContextConcurrentFirstAccess(t *testing.T) {
	f := memFactory(t)

	var wg sync.WaitGroup
	formatters := make([]*Formatter, 16)
	globals := make([]*GlobalContext, 16)
	for i := range formatters {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			formatters[i], _ = f.Formatter()
			globals[i] = f.GlobalContext()
		}(i)
	}
	wg.Wait()

	require.NotNil(t, formatters[0])
	require.NotNil(t, globals[0])
	for i := 1; i < len(formatters); i++ {
		assert.Same(t, formatters[0], formatters[i])
		assert.Same(t, globals[0], globals[i])
	}
}

func TestWithHandlerKindsCopiesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	handlers := config.NewOrderedMap().
		Set("stream", map[string]any{"path": path, "level": "debug"}).
		Set("memory", map[string]any{"level": "debug"})

	kinds := NewHandlerKinds().Register("memory", newMemHandler)
	f := NewFactory(memSource(handlers), WithHandlerKinds(kinds))
	kinds.Register(KindStream, NewStreamHandlerFromOptions)

	l, err := f.GetLogger("OnlyMemory")
	require.NoError(t, err)
	require.Len(t, l.Handlers(), 1, "stream was registered after the factory copied the table")
	assert.Equal(t, "memory", l.Handlers()[0].Kind())
}

func TestWithZapOptionsAndProcessorFunc(t *testing.T) {
	host := ProcessorFunc(func(_ zapcore.Entry, fields []zapcore.Field) []zapcore.Field {
		return append(fields, Extra("host", "web1"))
	})
	f := memFactory(t,
		WithZapOptions(zap.Fields(zap.String("app", "demo"))),
		WithProcessors(host))

	l := f.MustGetLogger("Opts")
	l.Info("ready")
	assert.Equal(t, []string{`Opts.INFO: ready {"app":"demo"} {"host":"web1"}` + "\n"}, memLines(t, l))
}

func TestGlobalContextSetAllAndClear(t *testing.T) {
	f := memFactory(t)
	l := f.MustGetLogger("Bulk")
	g := f.GlobalContext()

	g.SetAll(map[string]any{"region": "eu", "build": 42})
	assert.Equal(t, 2, g.Len())
	v, ok := g.Get("region")
	require.True(t, ok)
	assert.Equal(t, "eu", v)
	l.Info("tagged")

	g.Clear()
	assert.Zero(t, g.Len())
	l.Info("plain")

	assert.Equal(t, []string{
		`Bulk.INFO: tagged {"build":42,"region":"eu"} []` + "\n",
		"Bulk.INFO: plain [] []\n",
	}, memLines(t, l))
}
