// Package partition models the values a document store uses to physically
// route documents. A partition key is an ordered sequence of tagged scalars;
// order matches the store's declared partitioning order and is significant.
package partition

import (
	"fmt"
	"reflect"
	"strconv"
)

// Kind tags the scalar type of a partition value
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is a tagged scalar usable as one component of a partition key.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// String creates a string-typed value
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number creates a number-typed value
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool creates a bool-typed value
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Null creates a null value
func Null() Value {
	return Value{kind: KindNull}
}

// Of coerces an arbitrary runtime value to a tagged scalar. Numeric kinds
// of any width become numbers and booleans stay booleans before the string
// fallback is considered: the store's physical key type affects index layout
// and must match what was used when the document was first written.
func Of(v interface{}) Value {
	if v == nil {
		return Null()
	}

	switch t := v.(type) {
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case bool:
		return Bool(t)
	case string:
		return String(t)
	}

	// Named types (type Rating string, type Year int) land here
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.String:
		return String(rv.String())
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return Of(rv.Elem().Interface())
	}

	return String(fmt.Sprint(v))
}

// Kind returns the scalar tag
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is the null sentinel
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// StringValue returns the string payload; valid only for KindString
func (v Value) StringValue() string {
	return v.str
}

// NumberValue returns the numeric payload; valid only for KindNumber
func (v Value) NumberValue() float64 {
	return v.num
}

// BoolValue returns the boolean payload; valid only for KindBool
func (v Value) BoolValue() bool {
	return v.b
}

// Canonical returns the fixed text form of the value. Equal numbers always
// produce identical bytes regardless of the Go type they were built from.
func (v Value) Canonical() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}
