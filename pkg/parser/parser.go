package parser

// Package parser implements the gowhere lexer and parser.
//
// The parser is a hand-written recursive descent parser over the token
// slice produced by Lex. Every precedence level is one production that
// parses the next-higher level and then an optional operator suffix. Suffixes
// and alternatives run through a try combinator that restores the token
// cursor on failure, so a production either consumes its whole span or
// nothing at all.
//
// # Grammar
//
//	program    := 'function' '(' ')' '{' return '}' | return
//	return     := 'return' expr ';'
//	expr       := or ( '?' expr ':' expr )?
//	or         := and ( '||' and )*
//	and        := relational ( '&&' relational )*
//	relational := additive ( ('==' | '===' | '!=' | '!==' | '<' | '<=' | '>' | '>=') additive )*
//	additive   := multiplicative ( ('+' | '-') multiplicative )*
//	multiplicative := unary ( ('*' | '/') unary )*
//	unary      := ('-' | '!') unary | postfix
//	postfix    := primary ( '.' name | '[' expr ']' )*
//	primary    := literal | identifier | 'this' | '(' expr ')' | '[' ( expr ( ',' expr )* )? ']'
//
// # Example
//
//	expr, err := parser.Compile("return this.a > 3;")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(parser.Dump(expr.AST()))

import (
	"strings"

	"github.com/sandrolain/gowhere/pkg/types"
)

// Compile lexes and parses source text.
//
// Example:
//
//	expr, err := parser.Compile("return this.name === 'x';")
//	if err != nil {
//	    var perr *types.Error
//	    if errors.As(err, &perr) {
//	        fmt.Println(perr.Caret())
//	    }
//	    return
//	}
func Compile(text string, opts ...CompileOption) (*types.Expression, error) {
	tokens, err := Lex(text)
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens, opts...)
	p.source = text
	return p.Parse()
}

// Parse parses a token sequence produced by Lex. The source text of the
// resulting expression is the canonical print of the AST.
func Parse(tokens []Token, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(tokens, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// MaxDepth limits the nesting of expressions to prevent stack overflow.
	MaxDepth int
}

// WithMaxDepth sets the maximum parsing depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}

// WrapBare turns a bare expression such as "this.a > 1" into a program
// ("return this.a > 1;"). Text that already starts with return or function
// is returned unchanged.
func WrapBare(text string) string {
	switch NewLexer(text).Next().Type {
	case TokenReturn, TokenFunction:
		return text
	}
	trimmed := strings.TrimSuffix(strings.TrimSpace(text), ";")
	return "return " + trimmed + ";"
}
