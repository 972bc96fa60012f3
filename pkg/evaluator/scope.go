package evaluator

import (
	"fmt"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Scope holds variable bindings and the current document.
//
// A child scope keeps a non-owning reference to its parent: lookups that
// miss locally continue in the parent chain and finally yield Undefined.
// Scopes are created per evaluation and are not safe for concurrent use.
type Scope struct {
	parent   *Scope
	bindings map[string]types.Value
	doc      types.Document
}

// NewScope creates a root scope for doc. A nil document behaves as empty.
func NewScope(doc types.Document) *Scope {
	if doc == nil {
		doc = types.EmptyDocument{}
	}
	return &Scope{
		bindings: make(map[string]types.Value),
		doc:      doc,
	}
}

// NewChild creates a scope whose lookups fall back to s. The child shares
// the current document of s.
func (s *Scope) NewChild() *Scope {
	return &Scope{
		parent:   s,
		bindings: make(map[string]types.Value),
		doc:      s.doc,
	}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Document returns the current document.
func (s *Scope) Document() types.Document {
	return s.doc
}

// Put binds name in this scope.
func (s *Scope) Put(name string, v types.Value) {
	s.bindings[name] = v
}

// PutAll binds every entry of bindings in this scope.
func (s *Scope) PutAll(bindings map[string]types.Value) {
	for name, v := range bindings {
		s.bindings[name] = v
	}
}

// Get resolves name through the scope chain. Unbound names are Undefined.
func (s *Scope) Get(name string) types.Value {
	v, _ := s.Lookup(name)
	return v
}

// Lookup resolves name through the scope chain and reports whether it was
// bound.
func (s *Scope) Lookup(name string) (types.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.bindings[name]; ok {
			return v, true
		}
	}
	return types.Undefined(), false
}

// String returns a string representation of the scope.
func (s *Scope) String() string {
	depth := 0
	for sc := s.parent; sc != nil; sc = sc.parent {
		depth++
	}
	return fmt.Sprintf("Scope{depth=%d, bindings=%d}", depth, len(s.bindings))
}
