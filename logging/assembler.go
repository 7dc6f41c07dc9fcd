package logging

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leeforge/logfactory/config"
	"github.com/leeforge/logfactory/errors"
	"github.com/spf13/cast"
)

// HandlerConstructor builds a handler from its option map.
type HandlerConstructor func(options map[string]any) (Handler, error)

// HandlerKinds maps a handler kind to its constructor.
type HandlerKinds struct {
	mu    sync.RWMutex
	ctors map[string]HandlerConstructor
}

func NewHandlerKinds() *HandlerKinds {
	return &HandlerKinds{ctors: make(map[string]HandlerConstructor)}
}

// DefaultHandlerKinds knows stream, syslog-logstash and redis.
func DefaultHandlerKinds() *HandlerKinds {
	return NewHandlerKinds().
		Register(KindStream, NewStreamHandlerFromOptions).
		Register(KindSyslogLogstash, NewSyslogLogstashHandlerFromOptions).
		Register(KindRedis, NewRedisHandlerFromOptions)
}

// Register adds or replaces the constructor for kind.
func (k *HandlerKinds) Register(kind string, ctor HandlerConstructor) *HandlerKinds {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.ctors[kind] = ctor
	return k
}

// Kinds returns the registered kinds, sorted.
func (k *HandlerKinds) Kinds() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.ctors))
	for kind := range k.ctors {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

// Build constructs a handler of the given kind. An unregistered kind yields
// (nil, nil): the caller skips it.
func (k *HandlerKinds) Build(kind string, options map[string]any) (Handler, error) {
	k.mu.RLock()
	ctor, ok := k.ctors[kind]
	k.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return ctor(options)
}

func (k *HandlerKinds) clone() *HandlerKinds {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := NewHandlerKinds()
	for kind, ctor := range k.ctors {
		out.ctors[kind] = ctor
	}
	return out
}

type handlerEntry struct {
	kind string
	raw  any
}

// Has reports whether kind is registered.
func (k *HandlerKinds) Has(kind string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.ctors[kind]
	return ok
}

// handlerEntries reads logger.handlers in its stored order. An unordered
// map[string]any falls back to sorted keys; a list of single-key mappings is
// also accepted. Option values are left as configured: only registered kinds
// get their options decoded.
func handlerEntries(v any) ([]handlerEntry, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case *config.OrderedMap:
		out := make([]handlerEntry, 0, val.Len())
		val.Range(func(kind string, raw any) bool {
			out = append(out, handlerEntry{kind: kind, raw: raw})
			return true
		})
		return out, nil
	case map[string]any:
		out := make([]handlerEntry, 0, len(val))
		for _, kind := range sortedKeys(val) {
			out = append(out, handlerEntry{kind: kind, raw: val[kind]})
		}
		return out, nil
	case map[any]any:
		return handlerEntries(cast.ToStringMap(val))
	case []any:
		var out []handlerEntry
		for _, item := range val {
			entries, err := handlerEntries(item)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
		return out, nil
	}
	return nil, errors.NewInvalid(HandlersKey, fmt.Sprintf("%T", v), "expected a mapping of handler kinds")
}

// toOptions turns a configured mapping found at path into an option map.
func toOptions(path string, v any) (map[string]any, error) {
	switch val := v.(type) {
	case nil:
		return map[string]any{}, nil
	case *config.OrderedMap:
		return val.Map(), nil
	case map[string]any:
		return val, nil
	case map[any]any:
		return cast.ToStringMap(val), nil
	}
	return nil, errors.NewInvalid(path, fmt.Sprintf("%T", v), "expected a mapping of options")
}
