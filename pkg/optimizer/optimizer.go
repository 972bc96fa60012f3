// Package optimizer lifts comparisons of a document field against a
// constant out of a compiled expression.
//
// The extracted predicates form a conjunction that a storage or scan layer
// can apply before the expression is evaluated. Every comparison that was
// lifted is marked on the AST and evaluates to true afterwards, so a
// document must pass the predicates before it is handed to the evaluator.
//
// Only comparisons in conjunctive position are lifted: the returned
// expression itself and the operands of &&. A comparison below ||, !, a
// ternary or another operator is left alone, since filtering on it would
// reject documents the expression accepts.
//
// # Example
//
//	expr, _ := parser.Compile("return this.a > 3 && this.b === 'x';")
//	preds := optimizer.Optimize(expr)
//	fmt.Println(preds) // (a > 3) AND (b === "x")
package optimizer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/types"
)

// Optimizer extracts native predicates from expressions.
type Optimizer struct {
	eval   *evaluator.Evaluator
	logger *slog.Logger
	debug  bool
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) {
		o.logger = logger
	}
}

// WithDebug logs every lifted and rejected comparison.
func WithDebug(enabled bool) Option {
	return func(o *Optimizer) {
		o.debug = enabled
	}
}

// WithEvaluator sets the evaluator used to fold constant operands.
func WithEvaluator(ev *evaluator.Evaluator) Option {
	return func(o *Optimizer) {
		o.eval = ev
	}
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.eval == nil {
		o.eval = evaluator.New(evaluator.WithLogger(o.logger))
	}
	return o
}

var defaultOptimizer = New()

// Optimize runs the default Optimizer over expr.
func Optimize(expr *types.Expression) *types.PredicateSet {
	return defaultOptimizer.Optimize(expr)
}

// Optimize extracts the predicates of expr. The pass runs once per
// expression; later calls return the same set. The result is never nil.
func (o *Optimizer) Optimize(expr *types.Expression) *types.PredicateSet {
	if expr == nil {
		return &types.PredicateSet{}
	}
	return expr.Optimize(func(fn *types.Function) *types.PredicateSet {
		set := &types.PredicateSet{}
		o.Reduce(fn, set)
		if o.debug {
			o.logger.Debug("optimized expression", "source", expr.Source(), "predicates", set.String())
		}
		return set
	})
}

// Reduce lifts the comparisons of node into the conjunction into and reports
// whether node is fully reducible: its value is implied by the predicates
// alone. A field access is trivially reducible and emits nothing.
func (o *Optimizer) Reduce(node types.Node, into *types.PredicateSet) bool {
	return o.reduce(node, into, true)
}

func (o *Optimizer) reduce(node types.Node, into *types.PredicateSet, conjunctive bool) bool {
	switch n := node.(type) {
	case *types.Function:
		ret, ok := finalReturn(n)
		if !ok {
			return false
		}
		return o.reduce(ret, into, conjunctive)
	case *types.Return:
		return o.reduce(n.X, into, conjunctive)
	case *types.Member, *types.Index:
		_, ok := o.FieldPath(n)
		return ok
	case *types.Binary:
		if n.Op == types.OpAnd {
			lhs := o.reduce(n.LHS, into, conjunctive)
			rhs := o.reduce(n.RHS, into, conjunctive)
			return lhs && rhs
		}
		if _, ok := types.CompareOpFor(n.Op); ok {
			return o.reduceComparison(n, into, conjunctive)
		}
		return false
	default:
		return false
	}
}

// reduceComparison emits a predicate for field op constant or constant op
// field. Anything else reports whether either side is reducible.
func (o *Optimizer) reduceComparison(n *types.Binary, into *types.PredicateSet, conjunctive bool) bool {
	if n.Optimized {
		return true
	}
	lpath, lfield := o.FieldPath(n.LHS)
	rpath, rfield := o.FieldPath(n.RHS)
	if lfield == rfield {
		// Two fields or two constants: no pushdown.
		return lfield || o.reduce(n.LHS, nil, false) || o.reduce(n.RHS, nil, false)
	}
	op, _ := types.CompareOpFor(n.Op)
	path, constant := lpath, n.RHS
	if rfield {
		path, constant, op = rpath, n.LHS, op.Mirror()
	}

	value, ok := o.fold(constant)
	if !ok {
		if o.debug {
			o.logger.Debug("comparison not lifted", "position", n.Position, "reason", "operand is not constant")
		}
		return false
	}
	if !conjunctive {
		return true
	}

	into.Add(types.Predicate{Field: path, Op: op, Value: value})
	n.Optimized = true
	if o.debug {
		o.logger.Debug("comparison lifted", "position", n.Position, "field", path, "op", string(op), "value", value.GoString())
	}
	return true
}

// fold evaluates a document independent operand.
func (o *Optimizer) fold(n types.Node) (types.Value, bool) {
	if !types.IsConstant(n) {
		return types.Undefined(), false
	}
	v, err := o.eval.EvalNode(context.Background(), n, nil)
	if err != nil {
		return types.Undefined(), false
	}
	return v, true
}

// FieldPath returns the dotted document path of an accessor chain rooted at
// this. Index operands must be constant; they contribute their string
// coercion.
func (o *Optimizer) FieldPath(n types.Node) (string, bool) {
	var rev []string
	cur := n
	for {
		switch t := cur.(type) {
		case *types.Member:
			rev = append(rev, t.Name)
			cur = t.X
		case *types.Index:
			idx, ok := o.fold(t.Index)
			if !ok {
				return "", false
			}
			parts := strings.Split(types.MakeString(idx), ".")
			for i := len(parts) - 1; i >= 0; i-- {
				rev = append(rev, parts[i])
			}
			cur = t.X
		case *types.This:
			if len(rev) == 0 {
				return "", false
			}
			segments := make([]string, len(rev))
			for i, s := range rev {
				segments[len(rev)-1-i] = s
			}
			return strings.Join(segments, "."), true
		default:
			return "", false
		}
	}
}

// finalReturn returns the return statement ending a straight-line body.
// Bodies with branches or loops can return from several places and are not
// optimized.
func finalReturn(fn *types.Function) (*types.Return, bool) {
	if fn.Body == nil || len(fn.Body.Stmts) == 0 {
		return nil, false
	}
	stmts := fn.Body.Stmts
	for _, s := range stmts[:len(stmts)-1] {
		if _, ok := s.(*types.Var); !ok {
			return nil, false
		}
	}
	ret, ok := stmts[len(stmts)-1].(*types.Return)
	return ret, ok
}
