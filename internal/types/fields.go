package types

import (
	"bytes"
	"encoding/json"
)

// Fields is an insertion-ordered string-keyed map.
//
// Values are scalars (string, int, int64, float64, bool), string lists,
// nested maps, or nil. Setting an existing key keeps its position.
// The zero value is ready to use.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields creates an empty Fields.
func NewFields() *Fields {
	return &Fields{values: make(map[string]any)}
}

// Set stores value under key.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// SetDefault stores value only if key is not present.
func (f *Fields) SetDefault(key string, value any) {
	if !f.Has(key) {
		f.Set(key, value)
	}
}

// Get returns the value for key.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// String returns the value for key if it is a string.
func (f *Fields) String(key string) string {
	s, _ := f.values[key].(string)
	return s
}

// Int returns the value for key if it is an integer type.
func (f *Fields) Int(key string) (int64, bool) {
	switch v := f.values[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// Has reports whether key is present.
func (f *Fields) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Delete removes key.
func (f *Fields) Delete(keys ...string) {
	for _, key := range keys {
		if _, ok := f.values[key]; !ok {
			continue
		}
		delete(f.values, key)
		for i, k := range f.keys {
			if k == key {
				f.keys = append(f.keys[:i], f.keys[i+1:]...)
				break
			}
		}
	}
}

// Keys returns the keys in order.
func (f *Fields) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	return len(f.keys)
}

// Map returns an unordered copy of the values.
func (f *Fields) Map() map[string]any {
	m := make(map[string]any, len(f.keys))
	for k, v := range f.values {
		m[k] = v
	}
	return m
}

// MarshalJSON emits the keys in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
