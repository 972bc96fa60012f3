package evaluator

import (
	"fmt"
	"math"

	"github.com/sandrolain/gowhere/pkg/types"
)

func (e *Evaluator) evalUnary(st *evalState, n *types.Unary, scope *Scope) (types.Value, error) {
	x, err := e.evalNode(st, n.X, scope)
	if err != nil {
		return types.Undefined(), err
	}
	switch n.Op {
	case types.OpNeg:
		return Negate(x), nil
	case types.OpNot:
		return types.Bool(types.IsFalsy(x)), nil
	default:
		return types.Undefined(), types.NewError(types.ErrInternal, fmt.Sprintf("invalid unary operator %s", n.Op), n.Position)
	}
}

func (e *Evaluator) evalBinary(st *evalState, n *types.Binary, scope *Scope) (types.Value, error) {
	// The comparison was lifted into a native predicate that has already
	// filtered the document.
	if n.Optimized {
		return types.Bool(true), nil
	}

	lhs, err := e.evalNode(st, n.LHS, scope)
	if err != nil {
		return types.Undefined(), err
	}

	switch n.Op {
	case types.OpAnd:
		if types.IsFalsy(lhs) {
			return lhs, nil
		}
		return e.evalNode(st, n.RHS, scope)
	case types.OpOr:
		if !types.IsFalsy(lhs) {
			return lhs, nil
		}
		return e.evalNode(st, n.RHS, scope)
	}

	rhs, err := e.evalNode(st, n.RHS, scope)
	if err != nil {
		return types.Undefined(), err
	}

	v, err := ApplyBinary(n.Op, lhs, rhs)
	if err != nil {
		if te, ok := err.(*types.Error); ok && te.Position < 0 {
			te.Position = n.Position
		}
		return types.Undefined(), err
	}
	return v, nil
}

// ApplyBinary combines two evaluated operands. The logical operators are
// not short-circuiting here; they return the deciding operand.
func ApplyBinary(op types.Operator, lhs, rhs types.Value) (types.Value, error) {
	switch op {
	case types.OpAdd:
		return Add(lhs, rhs)
	case types.OpSub, types.OpMul, types.OpDiv:
		return Arithmetic(op, lhs, rhs)
	case types.OpEq:
		return types.Bool(types.LooselyEqual(lhs, rhs)), nil
	case types.OpNotEq:
		return types.Bool(!types.LooselyEqual(lhs, rhs)), nil
	case types.OpStrictEq:
		return types.Bool(types.StrictlyEqual(lhs, rhs)), nil
	case types.OpStrictNotEq:
		return types.Bool(!types.StrictlyEqual(lhs, rhs)), nil
	case types.OpLess:
		return types.Bool(types.Compare(lhs, rhs) < 0), nil
	case types.OpLessEq:
		return types.Bool(types.Compare(lhs, rhs) <= 0), nil
	case types.OpGreater:
		return types.Bool(types.Compare(lhs, rhs) > 0), nil
	case types.OpGreaterEq:
		return types.Bool(types.Compare(lhs, rhs) >= 0), nil
	case types.OpAnd:
		if types.IsFalsy(lhs) {
			return lhs, nil
		}
		return rhs, nil
	case types.OpOr:
		if !types.IsFalsy(lhs) {
			return lhs, nil
		}
		return rhs, nil
	default:
		return types.Undefined(), types.NewError(types.ErrInternal, fmt.Sprintf("invalid binary operator %s", op), -1)
	}
}

// Add implements +. A string or array operand turns the operation into
// concatenation of string coercions; otherwise both operands must be
// numeric-countable.
func Add(a, b types.Value) (types.Value, error) {
	if isConcatOperand(a) || isConcatOperand(b) {
		return types.String(types.MakeString(a) + types.MakeString(b)), nil
	}
	na, err := numericOperand(types.OpAdd, a)
	if err != nil {
		return types.Undefined(), err
	}
	nb, err := numericOperand(types.OpAdd, b)
	if err != nil {
		return types.Undefined(), err
	}

	switch {
	case na.Kind() == types.KindDouble || nb.Kind() == types.KindDouble:
		return finite(types.OpAdd, na.Float()+nb.Float())
	case na.Kind() == types.KindInt64 || nb.Kind() == types.KindInt64:
		x, y := na.Int(), nb.Int()
		sum := x + y
		// Overflow when both operands share a sign the sum does not.
		if (x >= 0) == (y >= 0) && (sum >= 0) != (x >= 0) {
			return finite(types.OpAdd, float64(x)+float64(y))
		}
		return types.Int64(sum), nil
	default:
		return types.Integer(na.Int() + nb.Int()), nil
	}
}

// Arithmetic implements -, * and /.
func Arithmetic(op types.Operator, a, b types.Value) (types.Value, error) {
	na, err := numericOperand(op, a)
	if err != nil {
		return types.Undefined(), err
	}
	nb, err := numericOperand(op, b)
	if err != nil {
		return types.Undefined(), err
	}

	if op == types.OpDiv {
		return divide(na, nb)
	}

	if na.Kind() == types.KindDouble || nb.Kind() == types.KindDouble {
		x, y := na.Float(), nb.Float()
		if op == types.OpSub {
			return finite(op, x-y)
		}
		return finite(op, x*y)
	}

	x, y := na.Int(), nb.Int()
	wide := na.Kind() == types.KindInt64 || nb.Kind() == types.KindInt64
	var r int64
	var overflow bool
	switch op {
	case types.OpSub:
		r = x - y
		overflow = (x >= 0) != (y >= 0) && (r >= 0) != (x >= 0)
	case types.OpMul:
		r = x * y
		overflow = x != 0 && (r/x != y || (x == -1 && y == math.MinInt64))
	default:
		return types.Undefined(), types.NewError(types.ErrInternal, fmt.Sprintf("invalid arithmetic operator %s", op), -1)
	}
	if overflow {
		fx, fy := float64(x), float64(y)
		if op == types.OpSub {
			return finite(op, fx-fy)
		}
		return finite(op, fx*fy)
	}
	if wide {
		return types.Int64(r), nil
	}
	return types.Integer(r), nil
}

// divide always produces a double. Division by zero yields a signed
// infinity taken from the numerator; 0/0 has no value.
func divide(a, b types.Value) (types.Value, error) {
	if types.IsZero(b) {
		if types.IsZero(a) {
			return types.Undefined(), coercionError(types.ErrNaNResult, types.OpDiv, "0 / 0 is not a number")
		}
		if types.IsNegative(a) {
			return types.String(types.SentinelNegInfinity), nil
		}
		return types.String(types.SentinelInfinity), nil
	}
	return finite(types.OpDiv, a.Float()/b.Float())
}

// Negate implements unary minus. Numbers are negated with promotion on
// overflow, true becomes -1 and false -0. Anything else is NaN.
func Negate(v types.Value) types.Value {
	switch v.Kind() {
	case types.KindInt32:
		return types.Integer(-v.Int())
	case types.KindInt64:
		if v.Int() == math.MinInt64 {
			return types.Double(-float64(v.Int()))
		}
		return types.Int64(-v.Int())
	case types.KindDouble:
		return types.Double(-v.Float())
	case types.KindBool:
		if v.Bool() {
			return types.Int32(-1)
		}
		return types.Double(math.Copysign(0, -1))
	default:
		return types.NaN()
	}
}

func isConcatOperand(v types.Value) bool {
	return v.Kind() == types.KindString || v.Kind() == types.KindArray
}

// numericOperand coerces an arithmetic operand or explains why it cannot
// take part in the operation.
func numericOperand(op types.Operator, v types.Value) (types.Value, error) {
	if v.IsUndefined() {
		return types.Undefined(), coercionError(types.ErrUndefinedOperand, op, "undefined operand")
	}
	n, ok := types.MakeNumeric(v)
	if !ok {
		return types.Undefined(), coercionError(types.ErrNonNumericOperand, op,
			fmt.Sprintf("%s operand %q is not numeric", v.Kind(), types.MakeString(v)))
	}
	if n.IsNaN() {
		return types.Undefined(), coercionError(types.ErrNaNOperand, op, "NaN operand")
	}
	return n, nil
}

// finite converts a floating point result: infinities become their
// sentinel strings and NaN is an error.
func finite(op types.Operator, f float64) (types.Value, error) {
	switch {
	case math.IsNaN(f):
		return types.Undefined(), coercionError(types.ErrNaNResult, op, "result is not a number")
	case math.IsInf(f, 1):
		return types.String(types.SentinelInfinity), nil
	case math.IsInf(f, -1):
		return types.String(types.SentinelNegInfinity), nil
	default:
		return types.Double(f), nil
	}
}

func coercionError(code types.ErrorCode, op types.Operator, msg string) *types.Error {
	return types.NewError(code, fmt.Sprintf("cannot apply %s: %s", op, msg), -1).WithToken(op.String())
}
