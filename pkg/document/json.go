package document

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/sandrolain/gowhere/pkg/types"
)

// JSON is a document over parsed JSON. Lookups walk the parsed tree
// directly; values are converted only when they are read.
//
// A JSON document is immutable and safe for concurrent lookups.
type JSON struct {
	v *fastjson.Value
}

// ParseJSON parses raw JSON bytes. The top level value must be an object.
func ParseJSON(data []byte) (*JSON, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("document: invalid JSON: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("document: top level JSON value is %s, want object", v.Type())
	}
	return &JSON{v: v}, nil
}

// MustParseJSON is like ParseJSON but panics on error.
func MustParseJSON(data string) *JSON {
	j, err := ParseJSON([]byte(data))
	if err != nil {
		panic(err)
	}
	return j
}

// Lookup implements types.Document.
func (j *JSON) Lookup(path string) (types.Value, bool) {
	v := j.v.Get(types.SplitPath(path)...)
	if v == nil {
		return types.Undefined(), false
	}
	return fromFastJSON(v), true
}

// Raw returns the JSON encoding of the document.
func (j *JSON) Raw() []byte {
	return j.v.MarshalTo(nil)
}

// Native implements the plain-data view used by types.Value.Native.
func (j *JSON) Native() any {
	return nativeOf(j.v)
}

// String returns the JSON encoding of the document.
func (j *JSON) String() string {
	return j.v.String()
}

func fromFastJSON(v *fastjson.Value) types.Value {
	switch v.Type() {
	case fastjson.TypeNull:
		return types.Null()
	case fastjson.TypeTrue:
		return types.Bool(true)
	case fastjson.TypeFalse:
		return types.Bool(false)
	case fastjson.TypeString:
		return types.String(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		// The marshalled form of a number is its source text, which keeps
		// integers apart from doubles.
		n, err := types.ParseNumber(v.String())
		if err != nil {
			return types.Double(v.GetFloat64())
		}
		return n
	case fastjson.TypeArray:
		arr := v.GetArray()
		elems := make([]types.Value, len(arr))
		for i, e := range arr {
			elems[i] = fromFastJSON(e)
		}
		return types.Array(elems...)
	case fastjson.TypeObject:
		return types.Object(&JSON{v: v})
	default:
		return types.Undefined()
	}
}

func nativeOf(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		n, err := types.ParseNumber(v.String())
		if err != nil {
			return v.GetFloat64()
		}
		return n.Native()
	case fastjson.TypeArray:
		arr := v.GetArray()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = nativeOf(e)
		}
		return out
	case fastjson.TypeObject:
		out := make(map[string]any)
		v.GetObject().Visit(func(key []byte, e *fastjson.Value) {
			out[string(key)] = nativeOf(e)
		})
		return out
	default:
		return nil
	}
}
