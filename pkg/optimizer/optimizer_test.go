package optimizer_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

func compile(t *testing.T, query string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(query)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", query, err)
	}
	return expr
}

func TestOptimizePredicates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"conjunction", "return this.a > 3 && this.b === 'x';", `(a > 3) AND (b === "x")`},
		{"mirrored", "return 3 < this.a;", "(a > 3)"},
		{"mirrored lte", "return 10 <= this.a;", "(a >= 10)"},
		{"folded constant", "return this.a > 1 + 2;", "(a > 3)"},
		{"folded array", "return this.a <= [1, 'b'];", `(a <= [1, "b"])`},
		{"nested path", "return this.items[0].price >= 10;", "(items.0.price >= 10)"},
		{"string index", `return this["x"] === 1;`, "(x === 1)"},
		{"dotted index", `return this["x.y"] < 0;`, "(x.y < 0)"},
		{"folded index", "return this.tags[2 - 1] === 'b';", `(tags.1 === "b")`},
		{"null constant", "return this.a === null;", "(a === null)"},
		{"nested conjunction", "return this.a > 1 && (this.b < 2 && this.c === 3);", "(a > 1) AND (b < 2) AND (c === 3)"},
		{"partial conjunction", "return this.a > 1 && (this.b > 2 || this.c > 3);", "(a > 1)"},
		{"field against field", "return this.a > this.b;", "(true)"},
		{"disjunction", "return this.a > 3 || this.b === 'x';", "(true)"},
		{"negation", "return !(this.a > 3);", "(true)"},
		{"loose equality", "return this.a == 3;", "(true)"},
		{"strict inequality", "return this.a !== 3;", "(true)"},
		{"variable operand", "return this.a > limit;", "(true)"},
		{"bare this", "return this > 3;", "(true)"},
		{"fold error", "return this.a > 0 / 0;", "(true)"},
		{"inside ternary", "return this.a > 3 ? true : false;", "(true)"},
		{"inside arithmetic", "return (this.a > 3) + 1;", "(true)"},
		{"constant comparison", "return 1 < 2;", "(true)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds := optimizer.Optimize(compile(t, tt.query))
			if preds == nil {
				t.Fatal("Optimize returned nil")
			}
			if got := preds.String(); got != tt.want {
				t.Errorf("predicates = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptimizeMarksLiftedComparisons(t *testing.T) {
	expr := compile(t, "return this.a > 3 && this.b > this.c;")
	optimizer.Optimize(expr)

	and := expr.AST().Body.Stmts[0].(*types.Return).X.(*types.Binary)
	if !and.LHS.(*types.Binary).Optimized {
		t.Error("lifted comparison should be marked")
	}
	if and.RHS.(*types.Binary).Optimized {
		t.Error("field to field comparison should stay unmarked")
	}
}

func TestOptimizeOnce(t *testing.T) {
	expr := compile(t, "return this.a > 3;")
	first := optimizer.Optimize(expr)
	second := optimizer.New().Optimize(expr)
	if first != second || first.Len() != 1 {
		t.Errorf("expected one stable set, got %v and %v", first, second)
	}
	if expr.Predicates() != first {
		t.Error("expression should remember its predicates")
	}

	if preds := optimizer.Optimize(nil); preds == nil || !preds.Empty() {
		t.Error("Optimize(nil) should return an empty set")
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		query     string
		reducible bool
		preds     int
	}{
		{"return this.a;", true, 0},
		{"return this.a > 3;", true, 1},
		{"return this.a > 3 && this.b;", true, 1},
		{"return this.a > 3 && this.b + 1;", false, 1},
		{"return this.a > this.b;", true, 0},
		{"return this.a + 1;", false, 0},
		{"return limit;", false, 0},
		{"return 1 < 2;", false, 0},
		{"return this.a > 3 || this.b > 3;", false, 0},
	}
	o := optimizer.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			set := &types.PredicateSet{}
			if got := o.Reduce(compile(t, tt.query).AST(), set); got != tt.reducible {
				t.Errorf("Reduce = %v, want %v", got, tt.reducible)
			}
			if set.Len() != tt.preds {
				t.Errorf("emitted %d predicates (%s), want %d", set.Len(), set, tt.preds)
			}
		})
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		query string
		path  string
		ok    bool
	}{
		{"return this.a;", "a", true},
		{"return this.a.b[2];", "a.b.2", true},
		{`return this["a.b"].c;`, "a.b.c", true},
		{"return this;", "", false},
		{"return this[x];", "", false},
		{"return [this.a][0];", "", false},
		{"return x.a;", "", false},
	}
	o := optimizer.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ret := compile(t, tt.query).AST().Body.Stmts[0].(*types.Return)
			path, ok := o.FieldPath(ret.X)
			if path != tt.path || ok != tt.ok {
				t.Errorf("FieldPath = %q, %v; want %q, %v", path, ok, tt.path, tt.ok)
			}
		})
	}
}

// The predicates followed by the optimized expression must accept exactly
// the documents the original expression accepts.
func TestOptimizeEquivalence(t *testing.T) {
	queries := []string{
		"return this.a > 3 && this.b === 'x';",
		"return 3 <= this.a && this.a < 10;",
		"return this.a >= 2 && (this.b === 'x' || this.a < 0);",
		"return this.a > 3 && this.b;",
		"return this.a === null && this.b !== 'y';",
		"return this.a > 'm' && !this.b;",
	}
	as := []any{1, 3, 5, 12, -4, 2.5, "z", "a", nil, true, false, "missing"}
	bs := []any{"x", "y", "", 0, nil, "missing"}

	var docs []document.Map
	for _, a := range as {
		for _, b := range bs {
			doc := document.Map{}
			if a != "missing" {
				doc["a"] = a
			}
			if b != "missing" {
				doc["b"] = b
			}
			docs = append(docs, doc)
		}
	}

	ev := evaluator.New()
	ctx := context.Background()
	for _, q := range queries {
		original := compile(t, q)
		optimized := compile(t, q)
		preds := optimizer.Optimize(optimized)

		for _, doc := range docs {
			t.Run(fmt.Sprintf("%s %v", q, doc), func(t *testing.T) {
				want, err := ev.Match(ctx, original, doc)
				if err != nil {
					t.Fatal(err)
				}
				got := preds.Matches(doc)
				if got {
					if got, err = ev.Match(ctx, optimized, doc); err != nil {
						t.Fatal(err)
					}
				}
				if got != want {
					t.Errorf("optimized match = %v, original = %v (predicates %s)", got, want, preds)
				}
			})
		}
	}
}
