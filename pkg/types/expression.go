// Package types defines the core type system for gowhere.
//
// This package contains type definitions for:
//   - Value: the dynamic values of the language and their coercion rules
//   - Node: the Abstract Syntax Tree
//   - Expression: compiled programs
//   - Predicate: native comparisons extracted for pushdown
//   - Error types: structured errors with codes
package types

import "sync"

// Expression represents a compiled program.
//
// An Expression can be evaluated multiple times against different documents
// by passing it to [evaluator.Evaluator.Eval]. It is safe for concurrent use
// by multiple goroutines once the optional optimize pass has run.
type Expression struct {
	ast    *Function
	source string

	optimizeOnce sync.Once
	predicates   *PredicateSet
}

// NewExpression creates a new Expression from an AST.
func NewExpression(ast *Function, source string) *Expression {
	return &Expression{
		ast:    ast,
		source: source,
	}
}

// AST returns the root of the Abstract Syntax Tree.
func (e *Expression) AST() *Function {
	return e.ast
}

// Source returns the source text of the expression.
func (e *Expression) Source() string {
	return e.source
}

// Optimize runs pass over the AST exactly once and returns the predicates it
// extracted. Later calls return the first result without running pass.
func (e *Expression) Optimize(pass func(*Function) *PredicateSet) *PredicateSet {
	e.optimizeOnce.Do(func() {
		e.predicates = pass(e.ast)
		if e.predicates == nil {
			e.predicates = &PredicateSet{}
		}
	})
	return e.predicates
}

// Predicates returns the predicates extracted by Optimize, or nil when the
// expression has not been optimized.
func (e *Expression) Predicates() *PredicateSet {
	return e.predicates
}

// String returns the source text of the expression.
func (e *Expression) String() string {
	return e.source
}
