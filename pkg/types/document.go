package types

import "strings"

// Document is the read-only structured input an expression is evaluated
// against. Paths are dotted field names; numeric segments index arrays.
//
// Lookup returns (Undefined, false) when the path does not resolve.
type Document interface {
	Lookup(path string) (Value, bool)
}

// SplitPath splits a dotted path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// LookupIn navigates the remaining path segments inside an already resolved
// value. Arrays are indexed by decimal segments; objects delegate to their
// document.
func LookupIn(v Value, segments []string) (Value, bool) {
	for i, seg := range segments {
		switch v.Kind() {
		case KindArray:
			idx, ok := arrayIndex(seg, v.Len())
			if !ok {
				return Undefined(), false
			}
			v = v.Elems()[idx]
		case KindObject:
			if v.Doc() == nil {
				return Undefined(), false
			}
			return v.Doc().Lookup(strings.Join(segments[i:], "."))
		default:
			return Undefined(), false
		}
	}
	return v, true
}

func arrayIndex(seg string, n int) (int, bool) {
	if seg == "" || len(seg) > 10 {
		return 0, false
	}
	idx := 0
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, false
		}
		idx = idx*10 + int(c-'0')
	}
	if idx >= n {
		return 0, false
	}
	return idx, true
}

// EmptyDocument resolves every path to Undefined.
type EmptyDocument struct{}

// Lookup implements Document.
func (EmptyDocument) Lookup(string) (Value, bool) { return Undefined(), false }
