package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sandrolain/gowhere/internal/metrics"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

// Plan describes how a query is executed.
type Plan struct {
	// Source is the program text, with bare expressions wrapped.
	Source string
	// Predicates is the full conjunction extracted from the expression.
	Predicates *types.PredicateSet
	// Pushed are the predicates translated to SQL.
	Pushed []types.Predicate
	// Residual are the predicates on paths without an index. They are
	// checked after the SQL prefilter.
	Residual []types.Predicate
	// SQL selects the candidate documents.
	SQL  string
	Args []any

	expr *types.Expression
}

// String renders the plan for humans.
func (p *Plan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "expression: %s\n", p.Source)
	fmt.Fprintf(&sb, "predicates: %s\n", p.Predicates)
	fmt.Fprintf(&sb, "pushed:     %s\n", joinPredicates(p.Pushed))
	fmt.Fprintf(&sb, "residual:   %s\n", joinPredicates(p.Residual))
	fmt.Fprintf(&sb, "sql:        %s\n", p.SQL)
	return sb.String()
}

func joinPredicates(ps []types.Predicate) string {
	if len(ps) == 0 {
		return "-"
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// Explain compiles src and returns its plan without running it.
func (s *Store) Explain(src string) (*Plan, error) {
	return s.plan(src)
}

// Find returns the stored documents for which src evaluates to a truthy
// value, in insertion order. src may be a bare expression.
func (s *Store) Find(ctx context.Context, src string) ([]Record, error) {
	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues("store").Observe(time.Since(start).Seconds())
	}()

	plan, err := s.plan(src)
	if err != nil {
		return nil, err
	}

	candidates, err := s.query(ctx, plan.SQL, plan.Args...)
	if err != nil {
		return nil, err
	}
	metrics.DocumentsScanned.WithLabelValues(metrics.StagePrefilter).Add(float64(len(candidates)))

	// The SQL filter is a superset: every predicate is checked exactly.
	kept := candidates[:0]
	for _, r := range candidates {
		if plan.Predicates.Matches(r.Doc) {
			kept = append(kept, r)
		}
	}
	metrics.DocumentsScanned.WithLabelValues(metrics.StagePredicate).Add(float64(len(kept)))

	matched, err := s.evaluate(ctx, plan.expr, kept)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("query finished",
		"source", plan.Source,
		"candidates", len(candidates),
		"checked", len(kept),
		"matched", len(matched),
		"duration", time.Since(start))
	return matched, nil
}

// evaluate runs the residual expression over records on the worker pool
// and keeps the matching ones in input order. The first evaluation error
// aborts the query.
func (s *Store) evaluate(ctx context.Context, expr *types.Expression, records []Record) ([]Record, error) {
	ok := make([]bool, len(records))
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i := range records {
		i := i // per-iteration copy for the goroutine (go < 1.22 loop semantics)
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			matched, err := s.eval.Match(ctx, expr, records[i].Doc)
			metrics.EvaluationsTotal.WithLabelValues(metrics.MatchStatus(matched, err)).Inc()
			ok[i], errs[i] = matched, err
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to schedule evaluation: %w", err)
		}
	}
	wg.Wait()
	metrics.DocumentsScanned.WithLabelValues(metrics.StageEvaluate).Add(float64(len(records)))

	var out []Record
	for i, r := range records {
		if errs[i] != nil {
			return nil, fmt.Errorf("document %s: %w", r.ID, errs[i])
		}
		if ok[i] {
			out = append(out, r)
		}
	}
	return out, nil
}

// plan compiles and optimizes src through the plan cache and translates
// its predicates.
func (s *Store) plan(src string) (*Plan, error) {
	text := parser.WrapBare(src)
	expr, err := s.plans.GetOrCompile(text, func() (*types.Expression, error) {
		expr, err := parser.Compile(text)
		metrics.CompilesTotal.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return nil, err
		}
		s.opt.Optimize(expr)
		return expr, nil
	})
	if err != nil {
		return nil, err
	}

	preds := expr.Predicates()
	p := &Plan{
		Source:     expr.Source(),
		Predicates: preds,
		expr:       expr,
	}

	var clauses []string
	for _, pred := range preds.Predicates() {
		if !s.paths[pred.Field] {
			p.Residual = append(p.Residual, pred)
			metrics.PredicatesPushed.WithLabelValues(string(pred.Op), "residual").Inc()
			continue
		}
		cond, args := sqlCondition(pred)
		clauses = append(clauses,
			"EXISTS (SELECT 1 FROM idx WHERE idx.doc_id = docs.id AND idx.path = ? AND ("+cond+"))")
		p.Args = append(p.Args, pred.Field)
		p.Args = append(p.Args, args...)
		p.Pushed = append(p.Pushed, pred)
		metrics.PredicatesPushed.WithLabelValues(string(pred.Op), "sql").Inc()
	}

	q := "SELECT id, body FROM docs"
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	p.SQL = q + " ORDER BY seq"
	return p, nil
}

// sqlCondition translates a predicate into a condition over one idx row.
//
// The condition accepts a superset of the rows the predicate accepts under
// the canonical order: ranks order first, numbers compare with inclusive
// bounds because the index holds them as doubles, and NaN (stored without a
// number) sorts below every number. Arrays and infinite constants only
// filter on rank.
func sqlCondition(p types.Predicate) (string, []any) {
	c := p.Value
	rank := types.Rank(c)

	if p.Op == types.CmpEq {
		switch {
		case c.IsNaN(), c.Kind() == types.KindArray, c.Kind() == types.KindObject:
			return "0", nil
		}
		within, args := sameRank(c, "=")
		return "rnk = ?" + and(within), append([]any{rank}, args...)
	}

	var across, op string
	switch p.Op {
	case types.CmpGt:
		across, op = ">", ">"
	case types.CmpGte:
		across, op = ">", ">="
	case types.CmpLt:
		across, op = "<", "<"
	case types.CmpLte:
		across, op = "<", "<="
	default:
		return "1", nil
	}
	within, args := sameRank(c, op)
	if within == "0" {
		return "rnk " + across + " ?", []any{rank}
	}
	return "(rnk " + across + " ? OR (rnk = ?" + and(within) + "))", append([]any{rank, rank}, args...)
}

// sameRank returns the condition for a field of the same rank as c to
// satisfy "field op c". "1" and "0" are constant conditions.
func sameRank(c types.Value, op string) (string, []any) {
	inclusive := op == "=" || op == ">=" || op == "<="
	switch c.Kind() {
	case types.KindInt32, types.KindInt64, types.KindDouble:
		f := c.Float()
		switch {
		case math.IsNaN(f):
			// NaN is the lowest number.
			switch op {
			case ">":
				return "num IS NOT NULL", nil
			case ">=":
				return "1", nil
			case "<":
				return "0", nil
			default:
				return "num IS NULL", nil
			}
		case math.IsInf(f, 0):
			return "1", nil
		}
		switch op {
		case "=":
			return "num = ?", []any{f}
		case ">", ">=":
			return "num >= ?", []any{f}
		default:
			return "(num <= ? OR num IS NULL)", []any{f}
		}
	case types.KindString:
		return "str " + op + " ?", []any{c.Str()}
	case types.KindBool:
		return "num " + op + " ?", []any{float64(c.Int())}
	case types.KindArray:
		return "1", nil
	default:
		// Undefined, null and objects are all equal within their rank.
		if inclusive {
			return "1", nil
		}
		return "0", nil
	}
}

func and(cond string) string {
	if cond == "1" {
		return ""
	}
	return " AND " + cond
}
