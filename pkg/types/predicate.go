package types

import (
	"strconv"
	"strings"
)

// CompareOp is the operator of a native predicate.
type CompareOp string

// Native predicate operators.
const (
	CmpEq  CompareOp = "$eq"
	CmpGt  CompareOp = "$gt"
	CmpGte CompareOp = "$gte"
	CmpLt  CompareOp = "$lt"
	CmpLte CompareOp = "$lte"
)

// Symbol returns the expression-language spelling of op.
func (op CompareOp) Symbol() string {
	switch op {
	case CmpEq:
		return "==="
	case CmpGt:
		return ">"
	case CmpGte:
		return ">="
	case CmpLt:
		return "<"
	case CmpLte:
		return "<="
	default:
		return string(op)
	}
}

// Mirror returns the operator obtained by swapping the operands.
func (op CompareOp) Mirror() CompareOp {
	switch op {
	case CmpGt:
		return CmpLt
	case CmpGte:
		return CmpLte
	case CmpLt:
		return CmpGt
	case CmpLte:
		return CmpGte
	default:
		return op
	}
}

// CompareOpFor maps an expression operator to its native predicate
// operator. Only ===, >, >=, < and <= have one.
func CompareOpFor(op Operator) (CompareOp, bool) {
	switch op {
	case OpStrictEq:
		return CmpEq, true
	case OpGreater:
		return CmpGt, true
	case OpGreaterEq:
		return CmpGte, true
	case OpLess:
		return CmpLt, true
	case OpLessEq:
		return CmpLte, true
	default:
		return "", false
	}
}

// Predicate is a native comparison of a document field against a constant.
type Predicate struct {
	Field string
	Op    CompareOp
	Value Value
}

// Test applies the predicate to an already resolved field value.
func (p Predicate) Test(field Value) bool {
	switch p.Op {
	case CmpEq:
		return StrictlyEqual(field, p.Value)
	case CmpGt:
		return Compare(field, p.Value) > 0
	case CmpGte:
		return Compare(field, p.Value) >= 0
	case CmpLt:
		return Compare(field, p.Value) < 0
	case CmpLte:
		return Compare(field, p.Value) <= 0
	default:
		return false
	}
}

// Matches reports whether doc satisfies the predicate. Missing fields are
// compared as undefined.
func (p Predicate) Matches(doc Document) bool {
	v, _ := doc.Lookup(p.Field)
	return p.Test(v)
}

// String renders the predicate in expression syntax, e.g. (a > 3).
func (p Predicate) String() string {
	return "(" + p.Field + " " + p.Op.Symbol() + " " + literalString(p.Value) + ")"
}

func literalString(v Value) string {
	switch v.Kind() {
	case KindString:
		return strconv.Quote(v.Str())
	case KindArray:
		parts := make([]string, v.Len())
		for i, e := range v.Elems() {
			parts[i] = literalString(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return MakeString(v)
	}
}

// PredicateSet is a conjunction of native predicates. The zero value is an
// empty set that matches every document.
type PredicateSet struct {
	preds []Predicate
}

// Add appends p to the conjunction.
func (s *PredicateSet) Add(p Predicate) {
	s.preds = append(s.preds, p)
}

// Len returns the number of predicates.
func (s *PredicateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.preds)
}

// Empty reports whether the set holds no predicate.
func (s *PredicateSet) Empty() bool { return s.Len() == 0 }

// Predicates returns a copy of the predicates in extraction order.
func (s *PredicateSet) Predicates() []Predicate {
	if s == nil {
		return nil
	}
	return append([]Predicate(nil), s.preds...)
}

// Matches reports whether doc satisfies every predicate.
func (s *PredicateSet) Matches(doc Document) bool {
	if s == nil {
		return true
	}
	for _, p := range s.preds {
		if !p.Matches(doc) {
			return false
		}
	}
	return true
}

// String renders the conjunction joined by AND.
func (s *PredicateSet) String() string {
	if s.Empty() {
		return "(true)"
	}
	parts := make([]string, len(s.preds))
	for i, p := range s.preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}
