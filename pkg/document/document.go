// Package document implements the flat, ordered JSON document sent to the
// search index.
//
// A Document is immutable. Changes go through a Builder, which copies the
// document, and Freeze, which produces a new Document. Keys keep insertion
// order, so marshalling the same document always yields the same bytes.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reserved keys.
const (
	KeyObjectID = "objectID"
	KeyID       = "_id"
	KeyName     = "_name"
	KeyFullPath = "_fullpath"
	KeyLanguage = "_language"
	KeyTemplate = "_template"
	KeyTags     = "_tags"
)

// IsReserved reports whether key is one of the reserved metadata keys.
func IsReserved(key string) bool {
	switch key {
	case KeyObjectID, KeyID, KeyName, KeyFullPath, KeyLanguage, KeyTemplate, KeyTags:
		return true
	}
	return false
}

// Document is an ordered mapping from key to a JSON value. The zero value is
// an empty document.
type Document struct {
	keys   []string
	values map[string]any
}

// Len returns the number of keys.
func (d Document) Len() int {
	return len(d.keys)
}

// Keys returns a copy of the keys in insertion order.
func (d Document) Keys() []string {
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Get returns the value stored under key.
func (d Document) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present. A present key may hold nil.
func (d Document) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// String returns the value under key if it is a string.
func (d Document) String(key string) (string, bool) {
	v, ok := d.values[key].(string)
	return v, ok
}

// Strings returns the value under key if it is a string slice.
func (d Document) Strings(key string) []string {
	v, _ := d.values[key].([]string)
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// ObjectID returns the document identity, or "" if it has none.
func (d Document) ObjectID() string {
	id, _ := d.String(KeyObjectID)
	return id
}

// Map returns a shallow copy of the document as a map. Client libraries that
// cannot marshal a Document directly use this.
func (d Document) Map() map[string]any {
	m := make(map[string]any, len(d.keys))
	for _, k := range d.keys {
		m[k] = d.values[k]
	}
	return m
}

// Edit returns a Builder seeded with a copy of d.
func (d Document) Edit() *Builder {
	b := NewBuilder()
	for _, k := range d.keys {
		b.Set(k, d.values[k])
	}
	return b
}

// MarshalJSON writes keys in insertion order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(d.values[k])
		if err != nil {
			return nil, fmt.Errorf("error marshaling key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Builder accumulates keys for a Document. It is not safe for concurrent use.
type Builder struct {
	keys   []string
	values map[string]any
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]any)}
}

// Set stores value under key. An existing key keeps its position.
func (b *Builder) Set(key string, value any) *Builder {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = cloneValue(value)
	return b
}

// SetIfAbsent stores value under key only if the key is not present. It
// reports whether the value was stored.
func (b *Builder) SetIfAbsent(key string, value any) bool {
	if _, ok := b.values[key]; ok {
		return false
	}
	b.Set(key, value)
	return true
}

// Get returns the value currently stored under key.
func (b *Builder) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Delete removes key.
func (b *Builder) Delete(key string) *Builder {
	if _, ok := b.values[key]; !ok {
		return b
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	return b
}

// Append adds value to the string array under key, creating it if absent.
// A non-array value under key is replaced.
func (b *Builder) Append(key, value string) *Builder {
	existing, _ := b.values[key].([]string)
	next := make([]string, 0, len(existing)+1)
	next = append(next, existing...)
	next = append(next, value)
	return b.Set(key, next)
}

// Freeze returns an immutable Document. The Builder can still be used
// afterwards without affecting the returned Document.
func (b *Builder) Freeze() Document {
	d := Document{
		keys:   make([]string, len(b.keys)),
		values: make(map[string]any, len(b.values)),
	}
	copy(d.keys, b.keys)
	for k, v := range b.values {
		d.values[k] = cloneValue(v)
	}
	return d
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	}
	return v
}
