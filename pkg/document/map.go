package document

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Map is a document over a Go map tree. Values may be nil, bool, any Go
// integer or float kind, string, json.Number, []any, map[string]any or
// map[any]any.
type Map map[string]any

// Lookup implements types.Document.
func (m Map) Lookup(path string) (types.Value, bool) {
	var cur any = map[string]any(m)
	for _, seg := range types.SplitPath(path) {
		switch t := cur.(type) {
		case map[string]any:
			v, ok := t[seg]
			if !ok {
				return types.Undefined(), false
			}
			cur = v
		case Map:
			v, ok := t[seg]
			if !ok {
				return types.Undefined(), false
			}
			cur = v
		case map[any]any:
			v, ok := t[seg]
			if !ok {
				return types.Undefined(), false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(t) {
				return types.Undefined(), false
			}
			cur = t[idx]
		default:
			return types.Undefined(), false
		}
	}
	return fromNative(cur), true
}

// Native implements the plain-data view used by types.Value.Native.
func (m Map) Native() any {
	return map[string]any(m)
}

// fromNative converts a value of a Map tree.
func fromNative(x any) types.Value {
	switch t := x.(type) {
	case map[string]any:
		return types.Object(Map(t))
	case Map:
		return types.Object(t)
	case map[any]any:
		return types.Object(stringKeys(t))
	case []any:
		elems := make([]types.Value, len(t))
		for i, e := range t {
			elems[i] = fromNative(e)
		}
		return types.Array(elems...)
	case json.Number:
		v, err := types.ParseNumber(string(t))
		if err != nil {
			return types.String(string(t))
		}
		return v
	default:
		return types.FromGo(x)
	}
}

// stringKeys converts a mapping with arbitrary keys, as decoded from YAML,
// into a Map keyed by the keys' printed form.
func stringKeys(m map[any]any) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}
