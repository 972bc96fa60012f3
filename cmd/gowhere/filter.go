package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/sandrolain/gowhere/internal/logger"
	"github.com/sandrolain/gowhere/internal/metrics"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

const filterBatch = 512

var (
	filterWorkers    int
	filterNoOptimize bool
	filterSkipErrors bool
)

var filterCmd = &cobra.Command{
	Use:   "filter PROGRAM [FILE...]",
	Short: "Print the JSON lines a program accepts",
	Long: `Read JSON documents, one per line, from the files or stdin and print
the lines for which the program is truthy, in input order.

Comparisons of a field against a constant are checked first as native
predicates; documents they reject are never evaluated. Use --no-optimize to
evaluate every document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, err := parser.Compile(parser.WrapBare(args[0]), compileOptions()...)
		metrics.CompilesTotal.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return err
		}

		f := &lineFilter{
			eval:       newEvaluator(),
			expr:       expr,
			workers:    filterWorkers,
			skipErrors: filterSkipErrors,
		}
		if cfg.Eval.Optimize && !filterNoOptimize {
			opt := optimizer.New(optimizer.WithLogger(logger.Get()), optimizer.WithDebug(cfg.Eval.Debug))
			f.preds = opt.Optimize(expr)
			for _, p := range f.preds.Predicates() {
				metrics.PredicatesPushed.WithLabelValues(string(p.Op), "filter").Inc()
			}
		}

		start := time.Now()
		defer func() {
			metrics.ScanDuration.WithLabelValues("filter").Observe(time.Since(start).Seconds())
		}()

		out := bufio.NewWriter(cmd.OutOrStdout())
		defer out.Flush()

		if len(args) == 1 {
			return f.run(commandContext(cmd), cmd.InOrStdin(), out)
		}
		for _, name := range args[1:] {
			if err := f.runFile(commandContext(cmd), name, out); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	filterCmd.Flags().IntVarP(&filterWorkers, "workers", "w", 4, "number of evaluation goroutines")
	filterCmd.Flags().BoolVar(&filterNoOptimize, "no-optimize", false, "evaluate every document without predicate pushdown")
	filterCmd.Flags().BoolVar(&filterSkipErrors, "skip-errors", false, "log and skip documents that fail instead of aborting")
	rootCmd.AddCommand(filterCmd)
}

// lineFilter evaluates a program over JSON lines.
type lineFilter struct {
	eval       *evaluator.Evaluator
	expr       *types.Expression
	preds      *types.PredicateSet
	workers    int
	skipErrors bool
}

func (f *lineFilter) runFile(ctx context.Context, name string, out io.Writer) error {
	file, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer file.Close()
	return f.run(ctx, file, out)
}

// run filters in batches: a batch is evaluated concurrently and written in
// input order before the next one is read.
func (f *lineFilter) run(ctx context.Context, in io.Reader, out io.Writer) error {
	workers := f.workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Error("filter worker panic", "panic", v)
	}))
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	batch := make([]inputLine, 0, filterBatch)
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		batch = append(batch, inputLine{no: lineNo, text: scanner.Text()})
		if len(batch) == filterBatch {
			if err := f.flush(ctx, pool, batch, out); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return f.flush(ctx, pool, batch, out)
}

type inputLine struct {
	no   int
	text string
}

func (f *lineFilter) flush(ctx context.Context, pool *ants.Pool, lines []inputLine, out io.Writer) error {
	keep := make([]bool, len(lines))
	errs := make([]error, len(lines))

	var wg sync.WaitGroup
	for i := range lines {
		i := i // per-iteration copy for the goroutine (go < 1.22 loop semantics)
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			keep[i], errs[i] = f.accept(ctx, lines[i].text)
		}); err != nil {
			wg.Done()
			wg.Wait()
			return fmt.Errorf("failed to schedule evaluation: %w", err)
		}
	}
	wg.Wait()

	for i, line := range lines {
		if errs[i] != nil {
			if !f.skipErrors {
				return fmt.Errorf("line %d: %w", line.no, errs[i])
			}
			logger.Warn("document skipped", "line", line.no, "error", errs[i])
			continue
		}
		if keep[i] {
			if _, err := fmt.Fprintln(out, line.text); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *lineFilter) accept(ctx context.Context, line string) (bool, error) {
	doc, err := document.ParseJSON([]byte(line))
	if err != nil {
		return false, err
	}
	metrics.DocumentsScanned.WithLabelValues(metrics.StagePredicate).Inc()
	if f.preds != nil && !f.preds.Matches(doc) {
		return false, nil
	}
	metrics.DocumentsScanned.WithLabelValues(metrics.StageEvaluate).Inc()
	ok, err := f.eval.Match(ctx, f.expr, doc)
	metrics.EvaluationsTotal.WithLabelValues(metrics.MatchStatus(ok, err)).Inc()
	return ok, err
}
