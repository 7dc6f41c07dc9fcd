package logging

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leeforge/logfactory/json"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultFormat is used when the formatter section has no format.
	DefaultFormat = "[%datetime%] %channel%.%level_name%: %message% %context% %extra%\n"
	// DefaultDateFormat is used when the formatter section has no date_format.
	DefaultDateFormat = "Y-m-d H:i:s"
)

// FormatterConfig is the logger.formatter section.
type FormatterConfig struct {
	Format                string `mapstructure:"format" json:"format" yaml:"format"`
	DateFormat            string `mapstructure:"date_format" json:"dateFormat" yaml:"date_format" default:"Y-m-d H:i:s"`
	AllowInlineLineBreaks *bool  `mapstructure:"allow_inline_line_breaks" json:"allowInlineLineBreaks" yaml:"allow_inline_line_breaks" default:"true"`
}

// Record is one log event as a formatter sees it.
type Record struct {
	Time    time.Time
	Level   zapcore.Level
	Channel string
	Message string
	Context map[string]any
	Extra   map[string]any
}

// Formatter renders records through a %placeholder% template. A Formatter
// is immutable once built and is shared by every handler of every logger a
// Factory creates.
//
// Recognized placeholders: %datetime%, %level_name%, %level%, %channel%,
// %message%, %context%, %extra%, and %context.KEY% / %extra.KEY% for single
// values. Other %words% are left untouched.
type Formatter struct {
	format     string
	dateFormat string
	date       dateLayout
	segments   []segment
	lineBreaks bool
}

type segmentKind int

const (
	segLiteral segmentKind = iota
	segDatetime
	segLevelName
	segLevel
	segChannel
	segMessage
	segContext
	segExtra
	segContextKey
	segExtraKey
)

type segment struct {
	kind segmentKind
	text string
}

// NewFormatter compiles cfg. Empty fields fall back to DefaultFormat and
// DefaultDateFormat.
func NewFormatter(cfg FormatterConfig) (*Formatter, error) {
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = DefaultDateFormat
	}
	lineBreaks := true
	if cfg.AllowInlineLineBreaks != nil {
		lineBreaks = *cfg.AllowInlineLineBreaks
	}

	return &Formatter{
		format:     cfg.Format,
		dateFormat: cfg.DateFormat,
		date:       compileDateLayout(cfg.DateFormat),
		segments:   parseTemplate(cfg.Format),
		lineBreaks: lineBreaks,
	}, nil
}

// FormatString returns the template the formatter was built from.
func (f *Formatter) FormatString() string { return f.format }

// DateFormat returns the date pattern the formatter was built from.
func (f *Formatter) DateFormat() string { return f.dateFormat }

func parseTemplate(format string) []segment {
	var segments []segment
	rest := format
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			break
		}
		end += start + 1

		name := rest[start+1 : end]
		kind, key, ok := placeholder(name)
		if !ok {
			// not ours: keep the leading % and resume at the closing one
			segments = appendLiteral(segments, rest[:end])
			rest = rest[end:]
			continue
		}
		segments = appendLiteral(segments, rest[:start])
		segments = append(segments, segment{kind: kind, text: key})
		rest = rest[end+1:]
	}
	return appendLiteral(segments, rest)
}

func appendLiteral(segments []segment, text string) []segment {
	if text == "" {
		return segments
	}
	if n := len(segments); n > 0 && segments[n-1].kind == segLiteral {
		segments[n-1].text += text
		return segments
	}
	return append(segments, segment{kind: segLiteral, text: text})
}

func placeholder(name string) (segmentKind, string, bool) {
	switch name {
	case "datetime":
		return segDatetime, "", true
	case "level_name":
		return segLevelName, "", true
	case "level":
		return segLevel, "", true
	case "channel":
		return segChannel, "", true
	case "message":
		return segMessage, "", true
	case "context":
		return segContext, "", true
	case "extra":
		return segExtra, "", true
	}
	if key, ok := strings.CutPrefix(name, "context."); ok && key != "" {
		return segContextKey, key, true
	}
	if key, ok := strings.CutPrefix(name, "extra."); ok && key != "" {
		return segExtraKey, key, true
	}
	return segLiteral, "", false
}

// Format renders one record.
func (f *Formatter) Format(r Record) string {
	var b strings.Builder
	for _, seg := range f.segments {
		switch seg.kind {
		case segLiteral:
			b.WriteString(seg.text)
		case segDatetime:
			b.WriteString(f.date.format(r.Time))
		case segLevelName:
			b.WriteString(LevelName(r.Level))
		case segLevel:
			b.WriteString(strconv.Itoa(LevelCode(r.Level)))
		case segChannel:
			b.WriteString(r.Channel)
		case segMessage:
			b.WriteString(f.lines(r.Message))
		case segContext:
			b.WriteString(f.lines(f.renderMap(r.Context)))
		case segExtra:
			b.WriteString(f.lines(f.renderMap(r.Extra)))
		case segContextKey:
			if v, ok := r.Context[seg.text]; ok {
				b.WriteString(f.lines(f.renderValue(v)))
			}
		case segExtraKey:
			if v, ok := r.Extra[seg.text]; ok {
				b.WriteString(f.lines(f.renderValue(v)))
			}
		}
	}
	return b.String()
}

func (f *Formatter) lines(s string) string {
	if f.lineBreaks || !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

func (f *Formatter) renderMap(m map[string]any) string {
	if len(m) == 0 {
		return "[]"
	}
	out, err := json.MarshalToString(f.normalize(m))
	if err != nil {
		return fmt.Sprintf("%v", m)
	}
	return out
}

func (f *Formatter) renderValue(v any) string {
	switch val := f.normalize(v).(type) {
	case string:
		return val
	case nil:
		return "null"
	default:
		out, err := json.MarshalToString(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return out
	}
}

// normalize turns values JSON would mangle (errors, times, durations,
// Stringers, byte slices) into strings, recursively through maps and slices.
func (f *Formatter) normalize(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return val
	case error:
		return val.Error()
	case time.Time:
		return f.date.format(val)
	case time.Duration:
		return val.String()
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = f.normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = f.normalize(item)
		}
		return out
	}
	return v
}

// sortedKeys is shared by the processors that turn maps into fields.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
