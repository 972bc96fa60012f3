package evaluator

import (
	"strings"

	"github.com/sandrolain/gowhere/pkg/types"
)

// evalAccessor resolves a chain of member and index accessors.
//
// A chain rooted at this becomes one dotted path resolved by a single
// document lookup. Any other base is evaluated first and the remaining
// segments are navigated inside the resulting value. Index expressions are
// evaluated after the base, in source order. Unresolved paths are Undefined.
func (e *Evaluator) evalAccessor(st *evalState, node types.Node, scope *Scope) (types.Value, error) {
	base, chain := accessorChain(node)

	var root types.Value
	_, rooted := base.(*types.This)
	if !rooted {
		var err error
		if root, err = e.evalNode(st, base, scope); err != nil {
			return types.Undefined(), err
		}
	}

	segments, err := e.accessorPath(st, chain, scope)
	if err != nil {
		return types.Undefined(), err
	}

	if rooted {
		v, found := scope.Document().Lookup(strings.Join(segments, "."))
		if !found {
			return types.Undefined(), nil
		}
		return v, nil
	}
	v, found := types.LookupIn(root, segments)
	if !found {
		return types.Undefined(), nil
	}
	return v, nil
}

// accessorChain walks down to the base of an accessor chain and returns it
// together with the accessors in source order.
func accessorChain(node types.Node) (types.Node, []types.Node) {
	var chain []types.Node
	cur := node
loop:
	for {
		switch n := cur.(type) {
		case *types.Member:
			chain = append(chain, n)
			cur = n.X
		case *types.Index:
			chain = append(chain, n)
			cur = n.X
		default:
			break loop
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return cur, chain
}

// accessorPath returns the path segments of chain. Index expressions are
// evaluated and contribute their string coercion.
func (e *Evaluator) accessorPath(st *evalState, chain []types.Node, scope *Scope) ([]string, error) {
	segments := make([]string, 0, len(chain))
	for _, node := range chain {
		switch n := node.(type) {
		case *types.Member:
			segments = append(segments, n.Name)
		case *types.Index:
			idx, err := e.evalNode(st, n.Index, scope)
			if err != nil {
				return nil, err
			}
			segments = append(segments, strings.Split(types.MakeString(idx), ".")...)
		}
	}
	return segments, nil
}
