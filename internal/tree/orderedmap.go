package tree

// Entry is one key/value pair of an OrderedMap.
type Entry struct {
	Key   string
	Value any
}

// OrderedMap is an immutable string-keyed map that preserves insertion order.
// Re-setting an existing key keeps its position. The nil *OrderedMap is a
// valid empty map.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap builds a map from entries in order. Later duplicates overwrite
// the value but not the position.
func NewOrderedMap(entries ...Entry) *OrderedMap {
	m := &OrderedMap{
		keys:   make([]string, 0, len(entries)),
		values: make(map[string]any, len(entries)),
	}
	for _, e := range entries {
		if _, exists := m.values[e.Key]; !exists {
			m.keys = append(m.keys, e.Key)
		}
		m.values[e.Key] = e.Value
	}
	return m
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	dup := make([]string, len(m.keys))
	copy(dup, m.keys)
	return dup
}

// Entries returns the entries in insertion order.
func (m *OrderedMap) Entries() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, len(m.keys))
	for i, k := range m.keys {
		out[i] = Entry{Key: k, Value: m.values[k]}
	}
	return out
}

// Oldest returns the first inserted key.
func (m *OrderedMap) Oldest() (string, bool) {
	if m.Len() == 0 {
		return "", false
	}
	return m.keys[0], true
}

// Clone returns a new map with the same entries.
func (m *OrderedMap) Clone() *OrderedMap {
	return NewOrderedMap(m.Entries()...)
}

// With returns a new map with key set to value.
func (m *OrderedMap) With(key string, value any) *OrderedMap {
	return NewOrderedMap(append(m.Entries(), Entry{Key: key, Value: value})...)
}

// Without returns a new map without key.
func (m *OrderedMap) Without(key string) *OrderedMap {
	entries := m.Entries()
	out := entries[:0]
	for _, e := range entries {
		if e.Key != key {
			out = append(out, e)
		}
	}
	return NewOrderedMap(out...)
}
