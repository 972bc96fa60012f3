package types

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type held by a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindInt32
	KindInt64
	KindDouble
	KindBool
	KindString
	KindArray
	KindObject
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindInt32:
		return "int"
	case KindInt64:
		return "long"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "(unknown)"
	}
}

// Value is the tagged union manipulated by the language.
//
// The zero Value is Undefined. Values are immutable; Array elements must not
// be modified after construction.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	arr  []Value
	doc  Document
}

// Undefined returns the undefined value.
func Undefined() Value { return Value{} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Int32 returns a 32-bit integer value.
func Int32(n int32) Value { return Value{kind: KindInt32, i: int64(n)} }

// Int64 returns a 64-bit integer value.
func Int64(n int64) Value { return Value{kind: KindInt64, i: n} }

// Double returns a floating point value.
func Double(f float64) Value { return Value{kind: KindDouble, f: f} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array returns an array value holding elems.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{kind: KindArray, arr: elems}
}

// Object wraps a nested document.
func Object(doc Document) Value { return Value{kind: KindObject, doc: doc} }

// NaN returns a Double holding IEEE NaN.
func NaN() Value { return Double(math.NaN()) }

// Infinity returns a Double holding +Inf (sign >= 0) or -Inf.
func Infinity(sign int) Value { return Double(math.Inf(sign)) }

// Integer returns the narrowest integer Value able to hold n.
func Integer(n int64) Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return Int32(int32(n))
	}
	return Int64(n)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined reports whether v is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumber reports whether v holds one of the numeric kinds.
func (v Value) IsNumber() bool {
	return v.kind == KindInt32 || v.kind == KindInt64 || v.kind == KindDouble
}

// IsNaN reports whether v is a Double holding NaN.
func (v Value) IsNaN() bool { return v.kind == KindDouble && math.IsNaN(v.f) }

// Int returns the integer payload of Int32, Int64 and Bool values.
func (v Value) Int() int64 { return v.i }

// Float returns the numeric payload converted to float64.
// Non numeric kinds return NaN.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt32, KindInt64, KindBool:
		return float64(v.i)
	case KindDouble:
		return v.f
	default:
		return math.NaN()
	}
}

// Bool returns the payload of a Bool value.
func (v Value) Bool() bool { return v.kind == KindBool && v.i != 0 }

// Str returns the payload of a String value.
func (v Value) Str() string { return v.s }

// Elems returns the elements of an Array value.
func (v Value) Elems() []Value { return v.arr }

// Len returns the number of elements of an Array value.
func (v Value) Len() int { return len(v.arr) }

// Doc returns the document wrapped by an Object value.
func (v Value) Doc() Document { return v.doc }

// String returns the string coercion of v.
func (v Value) String() string { return MakeString(v) }

// GoString returns a debugging representation that keeps kinds apart,
// e.g. Int32(1), String("1").
func (v Value) GoString() string {
	switch v.kind {
	case KindUndefined:
		return "Undefined"
	case KindNull:
		return "Null"
	case KindInt32:
		return "Int32(" + strconv.FormatInt(v.i, 10) + ")"
	case KindInt64:
		return "Int64(" + strconv.FormatInt(v.i, 10) + ")"
	case KindDouble:
		return "Double(" + formatDouble(v.f) + ")"
	case KindBool:
		return "Bool(" + strconv.FormatBool(v.Bool()) + ")"
	case KindString:
		return "String(" + strconv.Quote(v.s) + ")"
	case KindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.GoString()
		}
		return "Array(" + strings.Join(parts, ", ") + ")"
	case KindObject:
		return "Object"
	default:
		return "(invalid)"
	}
}

// Native converts v into plain Go data suitable for encoding/json.
// Non finite doubles are rendered as their sentinel strings.
func (v Value) Native() any {
	switch v.kind {
	case KindUndefined, KindNull:
		return nil
	case KindInt32, KindInt64:
		return v.i
	case KindDouble:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return formatDouble(v.f)
		}
		return v.f
	case KindBool:
		return v.Bool()
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Native()
		}
		return out
	case KindObject:
		if n, ok := v.doc.(interface{ Native() any }); ok {
			return n.Native()
		}
		return nil
	default:
		return nil
	}
}

// FromGo converts plain Go data into a Value.
//
// Supported inputs are nil, bool, the integer and float kinds, string,
// []any, []Value, Value and Document. Maps must be wrapped into a Document
// by the caller; unknown types become Undefined.
func FromGo(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Integer(int64(t))
	case int8:
		return Int32(int32(t))
	case int16:
		return Int32(int32(t))
	case int32:
		return Int32(t)
	case int64:
		return Integer(t)
	case uint8:
		return Int32(int32(t))
	case uint16:
		return Int32(int32(t))
	case uint32:
		return Integer(int64(t))
	case uint:
		if uint64(t) > math.MaxInt64 {
			return Double(float64(t))
		}
		return Integer(int64(t))
	case uint64:
		if t > math.MaxInt64 {
			return Double(float64(t))
		}
		return Integer(int64(t))
	case float32:
		return Double(float64(t))
	case float64:
		return Double(t)
	case string:
		return String(t)
	case []Value:
		return Array(t...)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = FromGo(e)
		}
		return Array(elems...)
	case Document:
		return Object(t)
	default:
		return Undefined()
	}
}

// ParseNumber converts numeric literal text into a Value. Digit runs without
// a fraction become the narrowest integer kind able to hold them and fall
// back to Double past the int64 range.
func ParseNumber(text string) (Value, error) {
	switch text {
	case "NaN":
		return NaN(), nil
	case "Infinity":
		return Infinity(1), nil
	case "-Infinity":
		return Infinity(-1), nil
	}
	if !strings.ContainsAny(text, ".eE") {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Integer(n), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return Double(f), nil
		}
		return Undefined(), err
	}
	return Double(f), nil
}
