package config

import (
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OrderedMap is a string-keyed mapping that remembers insertion order.
// Config returns mappings as *OrderedMap so callers can iterate them in the
// order they were written in the config file.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]any)}
}

// Set stores value under key. A new key goes to the end; an existing key
// keeps its position.
func (m *OrderedMap) Set(key string, value any) *OrderedMap {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *OrderedMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (m *OrderedMap) Range(fn func(key string, value any) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Map returns an unordered copy.
func (m *OrderedMap) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// keyOrder maps a dotted, lowercased config path to the child keys of the
// mapping found there, in file order.
type keyOrder map[string][]string

func (o keyOrder) add(path, key string) {
	for _, k := range o[path] {
		if k == key {
			return
		}
	}
	o[path] = append(o[path], key)
}

// capture records the key order of every mapping in a YAML (or JSON) document.
// Keys are lowercased the same way viper stores them.
func (o keyOrder) capture(data []byte) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if len(root.Content) == 0 {
		return nil
	}
	o.walk(root.Content[0], "")
	return nil
}

func (o keyOrder) walk(n *yaml.Node, prefix string) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := strings.ToLower(n.Content[i].Value)
		if key == "<<" {
			o.walk(n.Content[i+1], prefix)
			continue
		}
		o.add(prefix, key)
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		o.walk(n.Content[i+1], path)
	}
}

// ordered wraps a plain map found at path into an OrderedMap. Keys the files
// did not mention (env overrides, Set) follow in sorted order.
func (o keyOrder) ordered(path string, values map[string]any) *OrderedMap {
	out := NewOrderedMap()
	for _, k := range o[path] {
		if v, ok := values[k]; ok {
			out.Set(k, v)
		}
	}

	rest := make([]string, 0, len(values))
	for k := range values {
		if _, ok := out.values[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out.Set(k, values[k])
	}
	return out
}
