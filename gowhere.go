// Package gowhere compiles and evaluates where-clause expressions over
// structured documents.
//
// A program is a single return statement over a small C-like expression
// language: arithmetic, loose and strict equality, ordering, && and ||,
// the ternary operator and field access through this. Evaluation
// reproduces the language's dynamic coercion rules; operations the rules
// cannot give a value raise a type coercion error instead of yielding NaN.
//
// Comparisons of a field against a constant can be lifted into native
// predicates that an index or scan layer applies before evaluation.
//
// # Quick Start
//
//	// Simple evaluation
//	result, err := gowhere.Eval("return this.age + 1;", document.Map{"age": 41})
//
//	// Compile once, evaluate many times
//	expr, err := gowhere.Compile("return this.price > 100;")
//	ok, _ := gowhere.Match(ctx, expr, doc1)
//
//	// Extract predicates for pushdown
//	preds := gowhere.Optimize(expr)
//	fmt.Println(preds) // (price > 100)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/sandrolain/gowhere/pkg/parser
//   - Evaluator: github.com/sandrolain/gowhere/pkg/evaluator
//   - Optimizer: github.com/sandrolain/gowhere/pkg/optimizer
//   - Documents: github.com/sandrolain/gowhere/pkg/document
//   - Store: github.com/sandrolain/gowhere/pkg/store
//   - Types: github.com/sandrolain/gowhere/pkg/types
package gowhere

import (
	"context"
	"fmt"

	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

// Version returns the current version of gowhere.
func Version() string {
	return "v0.1.0-dev"
}

var defaultEvaluator = evaluator.New()

// Lex splits source text into tokens.
func Lex(text string) ([]parser.Token, error) {
	return parser.Lex(text)
}

// Parse builds an expression from a token sequence produced by Lex.
func Parse(tokens []parser.Token, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Parse(tokens, opts...)
}

// Compile compiles a program for repeated evaluation.
//
// The compiled expression can be evaluated multiple times against different
// documents. It is safe for concurrent use.
//
// Example:
//
//	expr, err := gowhere.Compile("return this.items[0].price > 100;")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(text string, opts ...parser.CompileOption) (*types.Expression, error) {
	return parser.Compile(text, opts...)
}

// MustCompile is like Compile but panics if the program cannot be compiled.
// It simplifies safe initialization of global variables.
func MustCompile(text string) *types.Expression {
	expr, err := Compile(text)
	if err != nil {
		panic(fmt.Sprintf("gowhere: Compile(%q): %v", text, err))
	}
	return expr
}

// Optimize extracts the native predicates of expr. After Optimize the
// lifted comparisons evaluate to true, so documents must be filtered with
// the returned set before they are evaluated.
func Optimize(expr *types.Expression) *types.PredicateSet {
	return optimizer.Optimize(expr)
}

// Eval is a convenience function that compiles and evaluates a program in
// a single call. For repeated evaluations of the same program, use Compile
// instead.
//
// Example:
//
//	result, err := gowhere.Eval("return this.name;", doc)
func Eval(text string, doc types.Document, opts ...evaluator.EvalOption) (types.Value, error) {
	return EvalWithContext(context.Background(), text, doc, opts...)
}

// EvalWithContext evaluates a program with a custom context.
func EvalWithContext(ctx context.Context, text string, doc types.Document, opts ...evaluator.EvalOption) (types.Value, error) {
	expr, err := Compile(text)
	if err != nil {
		return types.Undefined(), err
	}
	ev := defaultEvaluator
	if len(opts) > 0 {
		ev = evaluator.New(opts...)
	}
	return ev.Eval(ctx, expr, doc)
}

// Match evaluates a compiled expression and reports whether the result is
// truthy.
func Match(ctx context.Context, expr *types.Expression, doc types.Document) (bool, error) {
	return defaultEvaluator.Match(ctx, expr, doc)
}
