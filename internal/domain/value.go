// Package domain provides core domain models and types shared across modules.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// Value is one JSON-compatible value: a scalar, a list of values, or an
// ordered string-keyed map of values. It replaces untyped interface{} trees
// for provenance metadata so nested data stays JSON round-trippable.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string
	list []Value
	obj  *Map
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List returns a list value containing the given items.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Object returns a map value. A nil map is treated as empty.
func Object(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, obj: m}
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean payload (zero unless KindBool).
func (v Value) BoolVal() bool { return v.b }

// NumberVal returns the numeric payload (zero unless KindNumber).
func (v Value) NumberVal() float64 { return v.num }

// StringVal returns the string payload (empty unless KindString).
func (v Value) StringVal() string { return v.str }

// Items returns the list payload (nil unless KindList).
func (v Value) Items() []Value { return v.list }

// MapVal returns the map payload (nil unless KindMap).
func (v Value) MapVal() *Map { return v.obj }

// Equal reports structural equality. Map key order is ignored; key-value
// pairs and value kinds must match.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.obj.Equal(o.obj)
	}
	return false
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i := range v.list {
			items[i] = v.list[i].Clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		return Value{kind: KindMap, obj: v.obj.Clone()}
	default:
		return v
	}
}

// MarshalJSON renders the value as JSON. Map keys are written in insertion
// order.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindMap:
		return v.obj.MarshalJSON()
	}
	return nil, fmt.Errorf("unknown value kind %d", v.kind)
}

// UnmarshalJSON parses arbitrary JSON into the value, preserving object key
// order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	parsed, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// decodeValue reads one complete JSON value from the decoder's token stream.
// Using the token stream (instead of map[string]interface{}) is what keeps
// object key order intact.
func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				m.Set(key, val)
			}
			// Consume closing brace
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(m), nil
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return List(items...), nil
		}
		return Value{}, fmt.Errorf("unexpected delimiter %q", t)
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case string:
		return String(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

// Map is a string-keyed mapping of Values that remembers insertion order.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Set stores a key-value pair, keeping the key's original position when it
// already exists. Returns the map for chaining.
func (m *Map) Set(key string, v Value) *Map {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
	return m
}

// Get returns the value for a key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether the key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	out := NewMap()
	if m == nil {
		return out
	}
	for _, k := range m.keys {
		out.Set(k, m.values[k].Clone())
	}
	return out
}

// Equal reports whether both maps hold the same key-value pairs, in any
// order.
func (m *Map) Equal(o *Map) bool {
	if m.Len() != o.Len() {
		return false
	}
	if m == nil || o == nil {
		return true // both empty
	}
	for k, v := range m.values {
		ov, ok := o.values[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// MarshalJSON renders the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil || len(m.keys) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := m.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a JSON object, preserving key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	if v.Kind() != KindMap {
		return fmt.Errorf("expected JSON object, got kind %d", v.Kind())
	}
	*m = *v.MapVal()
	return nil
}
