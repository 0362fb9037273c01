// Package jsonval is a small facade over dynamic JSON.
//
// Remote payloads here (weather observations, quote endpoints) have no
// schema we control, so every access returns a tagged Value and shape
// mismatches yield the Missing value instead of an error or panic. The
// summarizers do explicit kind checks and treat Missing as "skip".
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind int

const (
	Missing Kind = iota
	Null
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is one tagged JSON value. The zero Value is Missing.
type Value struct {
	kind Kind
	v    any
}

// Parse decodes a JSON document. Numbers keep full precision until read.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Value{}, fmt.Errorf("parse json: %w", err)
	}
	return wrap(v), nil
}

func wrap(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{kind: Null}
	case bool:
		return Value{kind: Bool, v: x}
	case json.Number:
		return Value{kind: Number, v: x}
	case float64:
		return Value{kind: Number, v: x}
	case string:
		return Value{kind: String, v: x}
	case []any:
		return Value{kind: Array, v: x}
	case map[string]any:
		return Value{kind: Object, v: x}
	default:
		return Value{}
	}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }
func (v Value) IsObject() bool  { return v.kind == Object }
func (v Value) IsArray() bool   { return v.kind == Array }
func (v Value) IsNumber() bool  { return v.kind == Number }
func (v Value) IsString() bool  { return v.kind == String }

// Get returns the member under key, or Missing when v is not an object
// or the key is absent.
func (v Value) Get(key string) Value {
	m, ok := v.v.(map[string]any)
	if !ok {
		return Value{}
	}
	mv, ok := m[key]
	if !ok {
		return Value{}
	}
	return wrap(mv)
}

// Index returns element i, or Missing when v is not an array or i is out
// of range.
func (v Value) Index(i int) Value {
	a, ok := v.v.([]any)
	if !ok || i < 0 || i >= len(a) {
		return Value{}
	}
	return wrap(a[i])
}

// Len returns the array length, 0 for anything else.
func (v Value) Len() int {
	a, ok := v.v.([]any)
	if !ok {
		return 0
	}
	return len(a)
}

// Num returns the numeric value. ok is false for non-numbers and for
// numbers that do not fit a float64.
func (v Value) Num() (float64, bool) {
	switch x := v.v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

// Str returns the string value; ok is false for non-strings.
func (v Value) Str() (string, bool) {
	s, ok := v.v.(string)
	return s, ok
}

// BoolVal returns the boolean value; ok is false for non-bools.
func (v Value) BoolVal() (bool, bool) {
	b, ok := v.v.(bool)
	return b, ok
}
