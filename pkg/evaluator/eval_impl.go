package evaluator

import (
	"context"
	"fmt"

	"github.com/sandrolain/gowhere/pkg/types"
)

// evalState is the per-call state of one evaluation.
//
// returned and result form the return latch: once a Return node has run,
// enclosing statements stop visiting children and the result propagates
// unchanged.
type evalState struct {
	ctx      context.Context
	depth    int
	returned bool
	result   types.Value
}

// evalNode evaluates an AST node in the given scope.
func (e *Evaluator) evalNode(st *evalState, node types.Node, scope *Scope) (types.Value, error) {
	if st.returned {
		return st.result, nil
	}
	if node == nil {
		return types.Undefined(), types.NewError(types.ErrInvalidProgram, "missing node", -1)
	}

	st.depth++
	defer func() { st.depth-- }()
	if e.opts.MaxDepth > 0 && st.depth > e.opts.MaxDepth {
		return types.Undefined(), types.NewError(types.ErrStackOverflow, "maximum evaluation depth exceeded", node.Pos())
	}

	switch n := node.(type) {
	case *types.Literal:
		return n.Value, nil
	case *types.Ident:
		return scope.Get(n.Name), nil
	case *types.This:
		return e.evalThis(scope), nil
	case *types.Unary:
		return e.evalUnary(st, n, scope)
	case *types.Binary:
		return e.evalBinary(st, n, scope)
	case *types.Ternary:
		return e.evalTernary(st, n, scope)
	case *types.ArrayLit:
		return e.evalArray(st, n, scope)
	case *types.Member, *types.Index:
		return e.evalAccessor(st, n, scope)
	case *types.Return:
		return e.evalReturn(st, n, scope)
	case *types.Function:
		return e.evalFunction(st, n, scope)
	case *types.Block:
		return e.evalBlock(st, n, scope)
	case *types.If:
		return e.evalIf(st, n, scope)
	case *types.While:
		return e.evalWhile(st, n, scope)
	case *types.Var:
		return e.evalVar(st, n, scope)
	default:
		return types.Undefined(), types.NewError(types.ErrInternal, fmt.Sprintf("unknown node type %T", node), node.Pos())
	}
}

func (e *Evaluator) evalThis(scope *Scope) types.Value {
	if _, empty := scope.Document().(types.EmptyDocument); empty {
		return types.Undefined()
	}
	return types.Object(scope.Document())
}

func (e *Evaluator) evalTernary(st *evalState, n *types.Ternary, scope *Scope) (types.Value, error) {
	cond, err := e.evalNode(st, n.Cond, scope)
	if err != nil {
		return types.Undefined(), err
	}
	if cond.Kind() != types.KindBool {
		return types.Undefined(), types.NewError(types.ErrNonBooleanCondition,
			fmt.Sprintf("ternary condition must be a boolean, got %s", cond.Kind()), n.Position).WithToken("?")
	}
	if cond.Bool() {
		return e.evalNode(st, n.Then, scope)
	}
	return e.evalNode(st, n.Else, scope)
}

func (e *Evaluator) evalArray(st *evalState, n *types.ArrayLit, scope *Scope) (types.Value, error) {
	elems := make([]types.Value, len(n.Elems))
	for i, el := range n.Elems {
		v, err := e.evalNode(st, el, scope)
		if err != nil {
			return types.Undefined(), err
		}
		elems[i] = v
	}
	return types.Array(elems...), nil
}

func (e *Evaluator) evalReturn(st *evalState, n *types.Return, scope *Scope) (types.Value, error) {
	v, err := e.evalNode(st, n.X, scope)
	if err != nil {
		return types.Undefined(), err
	}
	st.returned = true
	st.result = v
	return v, nil
}

// evalFunction runs the body in a child scope and yields the returned
// value, or Undefined when no return statement ran.
func (e *Evaluator) evalFunction(st *evalState, n *types.Function, scope *Scope) (types.Value, error) {
	if n.Body == nil {
		return types.Undefined(), nil
	}
	if _, err := e.evalBlock(st, n.Body, scope.NewChild()); err != nil {
		return types.Undefined(), err
	}
	if !st.returned {
		return types.Undefined(), nil
	}
	return st.result, nil
}

func (e *Evaluator) evalBlock(st *evalState, n *types.Block, scope *Scope) (types.Value, error) {
	last := types.Undefined()
	for _, stmt := range n.Stmts {
		if st.returned {
			break
		}
		v, err := e.evalNode(st, stmt, scope)
		if err != nil {
			return types.Undefined(), err
		}
		last = v
	}
	return last, nil
}

func (e *Evaluator) evalIf(st *evalState, n *types.If, scope *Scope) (types.Value, error) {
	cond, err := e.evalNode(st, n.Cond, scope)
	if err != nil {
		return types.Undefined(), err
	}
	if !types.IsFalsy(cond) {
		return e.evalNode(st, n.Then, scope)
	}
	if n.Else != nil {
		return e.evalNode(st, n.Else, scope)
	}
	return types.Undefined(), nil
}

func (e *Evaluator) evalWhile(st *evalState, n *types.While, scope *Scope) (types.Value, error) {
	last := types.Undefined()
	for i := 0; !st.returned; i++ {
		if e.opts.MaxLoopIterations > 0 && i >= e.opts.MaxLoopIterations {
			return types.Undefined(), types.NewError(types.ErrLoopLimit,
				fmt.Sprintf("loop exceeded %d iterations", e.opts.MaxLoopIterations), n.Position)
		}
		if err := st.ctx.Err(); err != nil {
			return types.Undefined(), err
		}
		cond, err := e.evalNode(st, n.Cond, scope)
		if err != nil {
			return types.Undefined(), err
		}
		if st.returned || types.IsFalsy(cond) {
			break
		}
		if last, err = e.evalNode(st, n.Body, scope); err != nil {
			return types.Undefined(), err
		}
	}
	if st.returned {
		return st.result, nil
	}
	return last, nil
}

func (e *Evaluator) evalVar(st *evalState, n *types.Var, scope *Scope) (types.Value, error) {
	v := types.Undefined()
	if n.Init != nil {
		var err error
		if v, err = e.evalNode(st, n.Init, scope); err != nil {
			return types.Undefined(), err
		}
	}
	if !st.returned {
		scope.Put(n.Name, v)
	}
	return v, nil
}
