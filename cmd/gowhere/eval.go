package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gowhere/internal/logger"
	"github.com/sandrolain/gowhere/internal/metrics"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

var (
	evalDoc     string
	evalDocFile string
	evalVars    []string
	parseDump   bool
)

var evalCmd = &cobra.Command{
	Use:   "eval PROGRAM",
	Short: "Evaluate a program against one document",
	Long: `Evaluate a program against one document and print the result as JSON.

A bare expression is wrapped as "return <expr>;". The document comes from
--doc (inline JSON), --doc-file (JSON or YAML by extension) or is empty.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(evalDoc, evalDocFile)
		if err != nil {
			return err
		}
		bindings, err := parseBindings(evalVars)
		if err != nil {
			return err
		}

		ev := newEvaluator()
		expr, err := ev.Compile(parser.WrapBare(args[0]), compileOptions()...)
		metrics.CompilesTotal.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return err
		}

		result, err := ev.EvalWithBindings(commandContext(cmd), expr, doc, bindings)
		metrics.EvaluationsTotal.WithLabelValues(metrics.MatchStatus(!types.IsFalsy(result), err)).Inc()
		if err != nil {
			return withSource(err, expr.Source())
		}
		return printValue(cmd.OutOrStdout(), result)
	},
}

var lexCmd = &cobra.Command{
	Use:   "lex PROGRAM",
	Short: "Print the tokens of a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := parser.Lex(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, t := range tokens {
			fmt.Fprintf(out, "%4d:%-4d %-14s %q\n", t.Position, t.End, t.Type, t.Value)
		}
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse PROGRAM",
	Short: "Parse a program and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, err := parser.Compile(args[0], compileOptions()...)
		if err != nil {
			return err
		}
		if parseDump {
			fmt.Fprintln(cmd.OutOrStdout(), parser.Dump(expr.AST()))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), parser.Format(expr.AST()))
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain PROGRAM",
	Short: "Show the predicates extracted from a program",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		expr, err := parser.Compile(parser.WrapBare(args[0]), compileOptions()...)
		if err != nil {
			return err
		}
		opt := optimizer.New(optimizer.WithLogger(logger.Get()), optimizer.WithDebug(cfg.Eval.Debug))
		preds := opt.Optimize(expr)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "predicates: %s\n", preds)
		for _, p := range preds.Predicates() {
			fmt.Fprintf(out, "  %-24s %-5s %s\n", p.Field, p.Op, p.Value.GoString())
		}
		fmt.Fprintf(out, "tree:       %s\n", parser.Dump(expr.AST()))
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalDoc, "doc", "", "document as inline JSON")
	evalCmd.Flags().StringVar(&evalDocFile, "doc-file", "", "document file (.json, .yaml, .yml)")
	evalCmd.Flags().StringArrayVar(&evalVars, "var", nil, "bind a variable, name=JSON (repeatable)")
	parseCmd.Flags().BoolVar(&parseDump, "dump", false, "print the tree as an S-expression")

	rootCmd.AddCommand(evalCmd, lexCmd, parseCmd, explainCmd)
}

// loadDocument reads the document given inline or by file name.
func loadDocument(inline, file string) (types.Document, error) {
	switch {
	case inline != "" && file != "":
		return nil, errors.New("--doc and --doc-file are mutually exclusive")
	case inline != "":
		return document.ParseJSON([]byte(inline))
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return documentFromFile(file, data)
	default:
		return document.Empty, nil
	}
}

func documentFromFile(name string, data []byte) (types.Document, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return document.FromYAML(data)
	default:
		return document.ParseJSON(data)
	}
}

// parseBindings decodes name=JSON pairs.
func parseBindings(pairs []string) (map[string]types.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]types.Value, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=JSON", pair)
		}
		v, err := parseJSONValue(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --var %q: %w", pair, err)
		}
		out[name] = v
	}
	return out, nil
}

// parseJSONValue decodes any JSON value by wrapping it in a document.
func parseJSONValue(raw string) (types.Value, error) {
	doc, err := document.ParseJSON([]byte(`{"v":` + raw + `}`))
	if err != nil {
		return types.Undefined(), err
	}
	v, _ := doc.Lookup("v")
	return v, nil
}

func printValue(w io.Writer, v types.Value) error {
	if v.IsUndefined() {
		_, err := fmt.Fprintln(w, "undefined")
		return err
	}
	out, err := json.Marshal(v.Native())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func withSource(err error, source string) error {
	var te *types.Error
	if errors.As(err, &te) && te.Source == "" {
		te.WithSource(source)
	}
	return err
}

func caretOf(err error) string {
	var te *types.Error
	if errors.As(err, &te) {
		return te.Caret()
	}
	return ""
}
