// Package value provides the tagged JSON value used throughout the response
// pipeline.
//
// Route definitions, request snapshots, templates and response bodies all carry
// arbitrary JSON. Instead of passing interface{} around and type-asserting at
// every use, each piece of dynamic data is a Value with an explicit Kind and
// typed accessors that report whether the conversion applied.
//
// Kinds:
//
//   - Null, Bool, Number, String: scalars
//   - List: ordered sequence of Values
//   - Object: string-keyed map of Values
//
// The zero Value is Null. A field that does not exist is represented by the
// (Value, bool) pair returned from lookups, never by a special Kind.
package value

import (
	"maps"
	"slices"
	"strconv"
)

// Kind identifies the type held by a Value.
type Kind uint8

// Value kinds.
const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindObject
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is an immutable tagged JSON value.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	list   []Value
	fields map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int returns a numeric value from an int.
func Int(n int) Value { return Number(float64(n)) }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list value. The slice is copied.
func List(items ...Value) Value {
	if len(items) == 0 {
		return Value{kind: KindList, list: []Value{}}
	}
	return Value{kind: KindList, list: slices.Clone(items)}
}

// Object returns an object value. The map is copied.
func Object(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindObject, fields: maps.Clone(fields)}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsList returns the items of a list value. The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// AsObject returns the fields of an object value. The returned map must not be modified.
func (v Value) AsObject() (map[string]Value, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.fields, true
}

// Len returns the number of items or fields of a container, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindObject:
		return len(v.fields)
	default:
		return 0
	}
}

// Field returns the named field of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	f, ok := v.fields[name]
	return f, ok
}

// Index returns the i-th item of a list value.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Value{}, false
	}
	return v.list[i], true
}

// Keys returns the sorted field names of an object value.
func (v Value) Keys() []string {
	if v.kind != KindObject {
		return nil
	}
	return slices.Sorted(maps.Keys(v.fields))
}

// With returns a copy of the object v with the given fields overlaid.
// Non-object values are returned unchanged.
func (v Value) With(overlay map[string]Value) Value {
	if v.kind != KindObject {
		return v
	}
	merged := maps.Clone(v.fields)
	if merged == nil {
		merged = make(map[string]Value, len(overlay))
	}
	maps.Copy(merged, overlay)
	return Value{kind: KindObject, fields: merged}
}

// Equal reports strict equality: same kind and same value. Containers are
// compared element by element.
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
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindList:
		return slices.EqualFunc(v.list, o.list, Value.Equal)
	case KindObject:
		return maps.EqualFunc(v.fields, o.fields, Value.Equal)
	}
	return false
}

// Present reports whether v counts as present for the "exists" operator:
// not null and not the empty string.
func (v Value) Present() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindString:
		return v.s != ""
	default:
		return true
	}
}

// Text returns the string form of v used for string interpolation.
// Strings are returned verbatim, numbers in their shortest form and
// containers as compact JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// AsInt returns v as an integer when v is a whole number, or a string that
// parses as one.
func (v Value) AsInt() (int, bool) {
	switch v.kind {
	case KindNumber:
		if v.n != float64(int(v.n)) {
			return 0, false
		}
		return int(v.n), true
	case KindString:
		n, err := strconv.Atoi(v.s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) && n < 1e21 && n > -1e21 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
