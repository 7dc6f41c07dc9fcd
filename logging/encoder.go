package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

// extraValue marks a field that belongs in Record.Extra instead of Context.
type extraValue struct {
	value any
}

// Extra builds a field that is rendered through %extra% rather than
// %context%.
func Extra(key string, value any) zapcore.Field {
	return zap.Reflect(key, extraValue{value: value})
}

// lineEncoder adapts a shared Formatter to zapcore.Encoder. The embedded map
// encoder holds fields bound through With; the Formatter itself is never
// copied.
type lineEncoder struct {
	*zapcore.MapObjectEncoder
	formatter *Formatter
}

// Encoder returns a fresh zap encoder that renders through f.
func (f *Formatter) Encoder() zapcore.Encoder {
	return &lineEncoder{
		MapObjectEncoder: zapcore.NewMapObjectEncoder(),
		formatter:        f,
	}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return &lineEncoder{MapObjectEncoder: clone, formatter: e.formatter}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	enc := zapcore.NewMapObjectEncoder()
	for k, v := range e.Fields {
		enc.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	rec := Record{
		Time:    ent.Time,
		Level:   ent.Level,
		Channel: ent.LoggerName,
		Message: ent.Message,
		Context: make(map[string]any, len(enc.Fields)),
		Extra:   make(map[string]any),
	}
	for k, v := range enc.Fields {
		if x, ok := v.(extraValue); ok {
			rec.Extra[k] = x.value
			continue
		}
		rec.Context[k] = v
	}

	buf := bufferPool.Get()
	buf.AppendString(e.formatter.Format(rec))
	return buf, nil
}

var _ zapcore.Encoder = (*lineEncoder)(nil)
