package evaluator

// Package evaluator implements the gowhere tree-walking evaluator.
//
// The evaluator receives a compiled Expression and evaluates it against a
// document. It supports:
//   - Field access through dotted document paths
//   - The language coercion rules for arithmetic, equality and ordering
//   - Scope chains with variable bindings
//   - Short-circuiting of comparisons lifted into native predicates
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.Eval(ctx, expr, document.Map{"a": 1})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// An Evaluator holds no per-evaluation state and may be shared by many
// goroutines. Each call builds its own Scope chain.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sandrolain/gowhere/pkg/cache"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

// Evaluator evaluates compiled expressions against documents.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
	cache  *cache.Cache // non-nil when Caching is enabled
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables expression compilation caching for Compile.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached expressions.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom expression cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits the nesting of evaluated nodes.
	MaxDepth int
	// MaxLoopIterations bounds the iterations of a single while loop.
	MaxLoopIterations int
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
}

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:           false,
		MaxDepth:          10000,
		MaxLoopIterations: 1_000_000,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		c = cache.New(options.CacheSize)
	}

	return &Evaluator{
		opts:   options,
		logger: options.Logger,
		cache:  c,
	}
}

// Cache returns the expression cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Compile compiles source text, going through the expression cache when
// caching is enabled.
func (e *Evaluator) Compile(source string, opts ...parser.CompileOption) (*types.Expression, error) {
	compile := func() (*types.Expression, error) {
		expr, err := parser.Compile(source, opts...)
		if err != nil {
			if e.opts.Debug {
				e.logger.Debug("compile failed", "source", source, "error", err)
			}
			return nil, err
		}
		return expr, nil
	}
	if e.cache == nil {
		return compile()
	}
	return e.cache.GetOrCompile(source, compile)
}

// Eval evaluates an expression against a document. A nil document behaves
// as an empty one.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, doc types.Document) (types.Value, error) {
	return e.EvalWithBindings(ctx, expr, doc, nil)
}

// EvalWithBindings evaluates an expression with variables pre-bound in the
// root scope.
func (e *Evaluator) EvalWithBindings(ctx context.Context, expr *types.Expression, doc types.Document, bindings map[string]types.Value) (types.Value, error) {
	if expr == nil || expr.AST() == nil {
		return types.Undefined(), fmt.Errorf("invalid expression")
	}
	if err := ctx.Err(); err != nil {
		return types.Undefined(), err
	}

	scope := NewScope(doc)
	scope.PutAll(bindings)

	st := &evalState{ctx: ctx}
	result, err := e.evalNode(st, expr.AST(), scope)
	if err != nil {
		if e.opts.Debug {
			e.logger.Debug("evaluation failed", "source", expr.Source(), "error", err)
		}
		return types.Undefined(), err
	}

	if e.opts.Debug {
		e.logger.Debug("evaluated", "source", expr.Source(), "result", result.GoString())
	}
	return result, nil
}

// EvalNode evaluates a single node in an existing scope. It is meant for
// callers that build trees programmatically.
func (e *Evaluator) EvalNode(ctx context.Context, node types.Node, scope *Scope) (types.Value, error) {
	if scope == nil {
		scope = NewScope(nil)
	}
	st := &evalState{ctx: ctx}
	v, err := e.evalNode(st, node, scope)
	if err != nil {
		return types.Undefined(), err
	}
	if st.returned {
		return st.result, nil
	}
	return v, nil
}

// Match evaluates an expression and reports whether its result is truthy.
func (e *Evaluator) Match(ctx context.Context, expr *types.Expression, doc types.Document) (bool, error) {
	v, err := e.Eval(ctx, expr, doc)
	if err != nil {
		return false, err
	}
	return !types.IsFalsy(v), nil
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables expression compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached expressions.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external expression cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum evaluation depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithMaxLoopIterations bounds while loops.
func WithMaxLoopIterations(n int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxLoopIterations = n
	}
}
