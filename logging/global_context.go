package logging

import (
	"sync"
)

// GlobalContext is process-wide key/value data merged into every record of
// every logger that carries a GlobalContextProcessor. It is shared by
// reference, so changes show up in records emitted after them, including
// records from loggers built earlier.
type GlobalContext struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewGlobalContext() *GlobalContext {
	return &GlobalContext{values: make(map[string]any)}
}

// Set adds or replaces one entry.
func (g *GlobalContext) Set(key string, value any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[key] = value
}

// SetAll adds or replaces every entry of values.
func (g *GlobalContext) SetAll(values map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, v := range values {
		g.values[k] = v
	}
}

func (g *GlobalContext) Get(key string) (any, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[key]
	return v, ok
}

func (g *GlobalContext) Delete(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.values, key)
}

// All returns a copy of the current entries.
func (g *GlobalContext) All() map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[string]any, len(g.values))
	for k, v := range g.values {
		out[k] = v
	}
	return out
}

func (g *GlobalContext) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.values)
}

func (g *GlobalContext) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values = make(map[string]any)
}
