package evaluator_test

// Run with:
//
//	go test -bench=. -benchmem ./pkg/evaluator/...

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

// ---------------------------------------------------------------------------
// Test data
// ---------------------------------------------------------------------------

var (
	benchDepartments = []string{"Engineering", "Sales", "Marketing", "HR", "Finance"}

	benchMaps  []document.Map
	benchJSON  []*document.JSON
	benchQuery = "return this.age >= 30 && this.department === 'Sales' && this.salary * 1.1 > 80000;"
)

func init() {
	for i := 0; i < 1000; i++ {
		m := document.Map{
			"id":         i + 1,
			"name":       fmt.Sprintf("User%d", i+1),
			"age":        20 + (i % 40),
			"department": benchDepartments[i%5],
			"salary":     70000 + (i * 1000),
			"active":     i%2 == 0,
			"projects":   []any{fmt.Sprintf("Project%d", i), fmt.Sprintf("Project%d", i+1)},
		}
		raw, _ := json.Marshal(m)
		benchMaps = append(benchMaps, m)
		benchJSON = append(benchJSON, document.MustParseJSON(string(raw)))
	}
}

// ---------------------------------------------------------------------------
// Parse
// ---------------------------------------------------------------------------

func BenchmarkLex(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Lex(benchQuery); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompile(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := parser.Compile(benchQuery); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompileCached(b *testing.B) {
	ev := evaluator.New(evaluator.WithCaching(true))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ev.Compile(benchQuery); err != nil {
			b.Fatal(err)
		}
	}
}

// ---------------------------------------------------------------------------
// Eval
// ---------------------------------------------------------------------------

func benchmarkScan(b *testing.B, docs []types.Document, optimize bool) {
	expr, err := parser.Compile(benchQuery)
	if err != nil {
		b.Fatal(err)
	}
	var preds *types.PredicateSet
	if optimize {
		preds = optimizer.Optimize(expr)
	}
	ev := evaluator.New()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		matched := 0
		for _, doc := range docs {
			if !preds.Matches(doc) {
				continue
			}
			ok, err := ev.Match(ctx, expr, doc)
			if err != nil {
				b.Fatal(err)
			}
			if ok {
				matched++
			}
		}
		if matched == 0 {
			b.Fatal("expected matches")
		}
	}
}

func mapDocs() []types.Document {
	out := make([]types.Document, len(benchMaps))
	for i, m := range benchMaps {
		out[i] = m
	}
	return out
}

func jsonDocs() []types.Document {
	out := make([]types.Document, len(benchJSON))
	for i, j := range benchJSON {
		out[i] = j
	}
	return out
}

func BenchmarkScanMap(b *testing.B)           { benchmarkScan(b, mapDocs(), false) }
func BenchmarkScanMapOptimized(b *testing.B)  { benchmarkScan(b, mapDocs(), true) }
func BenchmarkScanJSON(b *testing.B)          { benchmarkScan(b, jsonDocs(), false) }
func BenchmarkScanJSONOptimized(b *testing.B) { benchmarkScan(b, jsonDocs(), true) }

func BenchmarkArithmetic(b *testing.B) {
	expr, err := parser.Compile("return (1 + 2) * 3 - 4 / 5 + 2147483647 + 1;")
	if err != nil {
		b.Fatal(err)
	}
	ev := evaluator.New()
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ev.Eval(ctx, expr, nil); err != nil {
			b.Fatal(err)
		}
	}
}
