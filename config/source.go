package config

import (
	"sync"

	"github.com/leeforge/logfactory/errors"
)

// MapSource is an in-memory Source. Values are stored as given; pass an
// *OrderedMap where iteration order matters.
type MapSource struct {
	mu       sync.RWMutex
	sections map[string]map[string]any
}

func NewMapSource() *MapSource {
	return &MapSource{sections: make(map[string]map[string]any)}
}

// Set stores value under section.key and returns the source for chaining.
func (s *MapSource) Set(section, key string, value any) *MapSource {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sections[section] == nil {
		s.sections[section] = make(map[string]any)
	}
	s.sections[section][key] = value
	return s
}

func (s *MapSource) Get(section, key string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.sections[section]
	if !ok {
		return nil, errors.NewRequired(section).WithDetail("section", section)
	}
	value, ok := values[key]
	if !ok || value == nil {
		return nil, errors.NewRequired(section+"."+key).
			WithDetail("section", section).
			WithDetail("key", key)
	}
	return value, nil
}
