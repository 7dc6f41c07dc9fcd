package logging

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/leeforge/logfactory/errors"
	"go.uber.org/zap/zapcore"
)

// Handler is an output sink with a minimum level and a formatter.
type Handler interface {
	// Kind is the configuration key the handler was built from.
	Kind() string
	// Level is the minimum level the handler records.
	Level() zapcore.Level
	// SetFormatter attaches the formatter used by cores created afterwards.
	SetFormatter(f *Formatter)
	Formatter() *Formatter
	// Core returns a zap core that writes through the handler.
	Core() zapcore.Core
	Sync() error
	Close() error
}

type baseHandler struct {
	kind      string
	level     zapcore.Level
	mu        sync.RWMutex
	formatter *Formatter
}

func (h *baseHandler) Kind() string { return h.kind }

func (h *baseHandler) Level() zapcore.Level { return h.level }

func (h *baseHandler) SetFormatter(f *Formatter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.formatter = f
}

// Formatter returns the attached formatter, or a default one when none was
// set.
func (h *baseHandler) Formatter() *Formatter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.formatter == nil {
		return defaultFormatter
	}
	return h.formatter
}

var defaultFormatter, _ = NewFormatter(FormatterConfig{})

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// decodeOptions fills out from a handler's option map: struct defaults
// first, then the options (weakly typed, so "514" fills an int), then the
// validate tags. A missing required option is reported as a required error
// naming the option.
func decodeOptions(kind string, options map[string]any, out any) error {
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s: applying defaults", kind))
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s: building decoder", kind))
	}
	if err := dec.Decode(options); err != nil {
		return errors.WrapWithType(err, errors.ErrorTypeInvalid, fmt.Sprintf("%s: decoding options", kind)).
			WithDetail("handler", kind)
	}

	if err := validate.Struct(out); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			if first.Tag() == "required" {
				return errors.NewRequired(first.Field()).WithDetail("handler", kind)
			}
			return errors.NewInvalid(first.Field(), first.Value(), "failed "+first.Tag()).WithDetail("handler", kind)
		}
		return errors.WrapWithType(err, errors.ErrorTypeInvalid, kind).WithDetail("handler", kind)
	}
	return nil
}
