// Package document adapts structured input to the types.Document interface
// the evaluator reads from.
//
// Three representations are provided:
//   - Map: plain Go trees such as those produced by encoding/json or YAML
//   - JSON: raw JSON bytes parsed with fastjson, looked up without decoding
//     the whole tree
//   - Empty: a document without fields
//
// Paths are dotted field names. A decimal segment indexes an array, so
// "items.0.price" reads the price of the first item. Nested objects surface
// as Object values wrapping a sub-document of the same representation.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Empty is a document in which every path is undefined.
var Empty types.Document = types.EmptyDocument{}

// From converts common inputs into a Document:
//   - a types.Document is returned as is
//   - map[string]any becomes a Map
//   - []byte and string are parsed as JSON
//   - json.RawMessage is parsed as JSON
//   - nil becomes Empty
func From(x any) (types.Document, error) {
	switch t := x.(type) {
	case nil:
		return Empty, nil
	case types.Document:
		return t, nil
	case map[string]any:
		return Map(t), nil
	case json.RawMessage:
		return parseJSON(t)
	case []byte:
		return parseJSON(t)
	case string:
		return parseJSON([]byte(t))
	default:
		return nil, fmt.Errorf("document: unsupported input type %T", x)
	}
}

func parseJSON(data []byte) (types.Document, error) {
	j, err := ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return j, nil
}

// MustFrom is like From but panics on error. It is intended for tests and
// examples with literal input.
func MustFrom(x any) types.Document {
	doc, err := From(x)
	if err != nil {
		panic(err)
	}
	return doc
}

// Native returns the plain Go form of doc when the representation can
// provide one, and nil otherwise.
func Native(doc types.Document) any {
	if n, ok := doc.(interface{ Native() any }); ok {
		return n.Native()
	}
	return nil
}

// Marshal encodes doc as JSON.
func Marshal(doc types.Document) ([]byte, error) {
	if j, ok := doc.(*JSON); ok {
		return j.Raw(), nil
	}
	return json.Marshal(Native(doc))
}
