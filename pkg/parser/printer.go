package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Format prints n as canonical source text. Binary and ternary
// expressions are fully parenthesised, so lexing and parsing the output of
// Format yields a structurally identical tree.
func Format(n types.Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n types.Node) {
	switch t := n.(type) {
	case nil:
	case *types.Literal:
		sb.WriteString(formatLiteral(t.Value))
	case *types.Ident:
		sb.WriteString(t.Name)
	case *types.This:
		sb.WriteString("this")
	case *types.Unary:
		sb.WriteString(t.Op.String())
		x := Format(t.X)
		// -Infinity would lex back as a single literal.
		if t.Op == types.OpNeg && strings.HasPrefix(x, "Infinity") {
			x = "(" + x + ")"
		}
		sb.WriteString(x)
	case *types.Binary:
		sb.WriteByte('(')
		format(sb, t.LHS)
		sb.WriteString(" " + t.Op.String() + " ")
		format(sb, t.RHS)
		sb.WriteByte(')')
	case *types.Ternary:
		sb.WriteByte('(')
		format(sb, t.Cond)
		sb.WriteString(" ? ")
		format(sb, t.Then)
		sb.WriteString(" : ")
		format(sb, t.Else)
		sb.WriteByte(')')
	case *types.ArrayLit:
		sb.WriteByte('[')
		for i, e := range t.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, e)
		}
		sb.WriteByte(']')
	case *types.Member:
		formatBase(sb, t.X)
		sb.WriteByte('.')
		sb.WriteString(t.Name)
	case *types.Index:
		formatBase(sb, t.X)
		sb.WriteByte('[')
		format(sb, t.Index)
		sb.WriteByte(']')
	case *types.Return:
		sb.WriteString("return ")
		format(sb, t.X)
		sb.WriteByte(';')
	case *types.Function:
		if t.Wrapped {
			sb.WriteString("function() { ")
			formatStmts(sb, t.Body)
			sb.WriteString(" }")
			return
		}
		formatStmts(sb, t.Body)
	case *types.Block:
		sb.WriteString("{ ")
		formatStmts(sb, t)
		sb.WriteString(" }")
	case *types.If:
		sb.WriteString("if (")
		format(sb, t.Cond)
		sb.WriteString(") ")
		format(sb, t.Then)
		if t.Else != nil {
			sb.WriteString(" else ")
			format(sb, t.Else)
		}
	case *types.While:
		sb.WriteString("while (")
		format(sb, t.Cond)
		sb.WriteString(") ")
		format(sb, t.Body)
	case *types.Var:
		sb.WriteString("var " + t.Name)
		if t.Init != nil {
			sb.WriteString(" = ")
			format(sb, t.Init)
		}
		sb.WriteByte(';')
	}
}

// formatBase prints the base of an accessor. Prefix operators bind looser
// than accessors and need parentheses.
func formatBase(sb *strings.Builder, n types.Node) {
	if _, ok := n.(*types.Unary); ok {
		sb.WriteByte('(')
		format(sb, n)
		sb.WriteByte(')')
		return
	}
	format(sb, n)
}

func formatStmts(sb *strings.Builder, b *types.Block) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		format(sb, s)
	}
}

// formatLiteral prints a value so that it lexes back to the same kind.
func formatLiteral(v types.Value) string {
	switch v.Kind() {
	case types.KindString:
		if strings.ContainsRune(v.Str(), '"') {
			return "'" + v.Str() + "'"
		}
		return `"` + v.Str() + `"`
	case types.KindDouble:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return types.MakeString(v)
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	case types.KindArray:
		parts := make([]string, v.Len())
		for i, e := range v.Elems() {
			parts[i] = formatLiteral(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return types.MakeString(v)
	}
}

// Dump prints n as an S-expression, e.g. (return (> (. this a) 3)).
// Optimized comparisons are marked with a trailing '*' on the operator.
func Dump(n types.Node) string {
	var sb strings.Builder
	dump(&sb, n)
	return sb.String()
}

func dump(sb *strings.Builder, n types.Node) {
	open := func(head string, children ...types.Node) {
		sb.WriteString("(" + head)
		for _, c := range children {
			sb.WriteByte(' ')
			dump(sb, c)
		}
		sb.WriteByte(')')
	}

	switch t := n.(type) {
	case nil:
		sb.WriteString("nil")
	case *types.Literal:
		if t.Value.Kind() == types.KindString {
			sb.WriteString(strconv.Quote(t.Value.Str()))
			return
		}
		sb.WriteString(formatLiteral(t.Value))
	case *types.Ident:
		sb.WriteString(t.Name)
	case *types.This:
		sb.WriteString("this")
	case *types.Unary:
		open(t.Op.String(), t.X)
	case *types.Binary:
		head := t.Op.String()
		if t.Optimized {
			head += "*"
		}
		open(head, t.LHS, t.RHS)
	case *types.Ternary:
		open("?:", t.Cond, t.Then, t.Else)
	case *types.ArrayLit:
		open("array", t.Elems...)
	case *types.Member:
		sb.WriteString("(. ")
		dump(sb, t.X)
		sb.WriteString(" " + t.Name + ")")
	case *types.Index:
		open("[]", t.X, t.Index)
	case *types.Return:
		open("return", t.X)
	case *types.Function:
		if t.Body == nil {
			open("function")
			return
		}
		open("function", t.Body.Stmts...)
	case *types.Block:
		open("block", t.Stmts...)
	case *types.If:
		if t.Else == nil {
			open("if", t.Cond, t.Then)
			return
		}
		open("if", t.Cond, t.Then, t.Else)
	case *types.While:
		open("while", t.Cond, t.Body)
	case *types.Var:
		if t.Init == nil {
			open("var " + t.Name)
			return
		}
		open("var "+t.Name, t.Init)
	}
}
