package model

import (
	"sort"
	"strings"
)

// Map is a name-keyed map that ignores case on lookup and iterates in
// case-insensitive key order. It is not safe for concurrent use.
type Map[V any] struct {
	keys   map[string]string
	values map[string]V
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{keys: map[string]string{}, values: map[string]V{}}
}

// Get returns the value stored under name.
func (m *Map[V]) Get(name string) (V, bool) {
	v, ok := m.values[strings.ToLower(name)]
	return v, ok
}

// Has reports whether name is present.
func (m *Map[V]) Has(name string) bool {
	_, ok := m.values[strings.ToLower(name)]
	return ok
}

// Put stores v under name, replacing any value that differs only in case.
func (m *Map[V]) Put(name string, v V) {
	k := strings.ToLower(name)
	m.keys[k] = name
	m.values[k] = v
}

// PutIfAbsent stores v unless name is already present and returns the stored value.
func (m *Map[V]) PutIfAbsent(name string, v V) (V, bool) {
	k := strings.ToLower(name)
	if cur, ok := m.values[k]; ok {
		return cur, false
	}
	m.keys[k] = name
	m.values[k] = v
	return v, true
}

// Delete removes name.
func (m *Map[V]) Delete(name string) {
	k := strings.ToLower(name)
	delete(m.keys, k)
	delete(m.values, k)
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.values)
}

// Keys returns the original-case keys in sorted order.
func (m *Map[V]) Keys() []string {
	lower := make([]string, 0, len(m.keys))
	for k := range m.keys {
		lower = append(lower, k)
	}
	sort.Strings(lower)
	out := make([]string, len(lower))
	for i, k := range lower {
		out[i] = m.keys[k]
	}
	return out
}

// Values returns the values in key order.
func (m *Map[V]) Values() []V {
	lower := make([]string, 0, len(m.values))
	for k := range m.values {
		lower = append(lower, k)
	}
	sort.Strings(lower)
	out := make([]V, len(lower))
	for i, k := range lower {
		out[i] = m.values[k]
	}
	return out
}
