package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/sandrolain/gowhere"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
	"github.com/sandrolain/gowhere/pkg/parser"
	"github.com/sandrolain/gowhere/pkg/types"
)

const (
	replPrompt = "where> "
	replHelp   = `Type an expression or a program and press enter to evaluate it
against the current document. Bare expressions are wrapped in return.

Commands:
  :doc JSON        set the current document
  :doc             print the current document
  :load FILE       load the current document from a JSON or YAML file
  :tokens PROGRAM  print the tokens of a program
  :tree PROGRAM    print the tree of a program
  :explain PROGRAM print the predicates extracted from a program
  :help            show this help
  exit, quit       leave the shell
`
)

var completionWords = []string{
	"return", "function", "this", "null", "undefined", "true", "false",
	"NaN", "Infinity",
	":doc", ":load", ":tokens", ":tree", ":explain", ":help",
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive shell",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		r := &repl{
			out:  cmd.OutOrStdout(),
			eval: newEvaluator(),
			doc:  document.Empty,
		}
		return r.run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}

type repl struct {
	out  io.Writer
	eval *evaluator.Evaluator
	doc  types.Document
}

func (r *repl) run(cmd *cobra.Command) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(filterCompletions)

	historyFile := cfg.REPL.History
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), ".gowhere_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(r.out, "gowhere", gowhere.Version())
	fmt.Fprintln(r.out, "Type ':help' for commands, Ctrl+D to quit")

	for {
		input, err := line.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(r.out, "^C")
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)
		if trimmed == "exit" || trimmed == "quit" {
			return nil
		}

		if strings.HasPrefix(trimmed, ":") {
			r.command(trimmed)
			continue
		}
		r.evaluate(cmd, trimmed)
	}
}

func (r *repl) evaluate(cmd *cobra.Command, src string) {
	expr, err := r.eval.Compile(parser.WrapBare(src), compileOptions()...)
	if err != nil {
		r.printError(err)
		return
	}
	v, err := r.eval.Eval(commandContext(cmd), expr, r.doc)
	if err != nil {
		r.printError(withSource(err, expr.Source()))
		return
	}
	fmt.Fprintln(r.out, v.GoString())
}

func (r *repl) command(input string) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ":help":
		fmt.Fprint(r.out, replHelp)
	case ":doc":
		if arg == "" {
			fmt.Fprintln(r.out, describeDocument(r.doc))
			return
		}
		doc, err := loadDocument(arg, "")
		if err != nil {
			r.printError(err)
			return
		}
		r.doc = doc
	case ":load":
		doc, err := loadDocument("", arg)
		if err != nil {
			r.printError(err)
			return
		}
		r.doc = doc
		fmt.Fprintln(r.out, describeDocument(r.doc))
	case ":tokens":
		tokens, err := parser.Lex(arg)
		if err != nil {
			r.printError(err)
			return
		}
		for _, t := range tokens {
			fmt.Fprintf(r.out, "%4d %-14s %q\n", t.Position, t.Type, t.Value)
		}
	case ":tree":
		expr, err := parser.Compile(parser.WrapBare(arg), compileOptions()...)
		if err != nil {
			r.printError(err)
			return
		}
		fmt.Fprintln(r.out, parser.Dump(expr.AST()))
	case ":explain":
		// Compiled apart from the evaluation cache: optimizing marks the tree.
		expr, err := parser.Compile(parser.WrapBare(arg), compileOptions()...)
		if err != nil {
			r.printError(err)
			return
		}
		preds := optimizer.New().Optimize(expr)
		fmt.Fprintln(r.out, preds)
		fmt.Fprintln(r.out, parser.Dump(expr.AST()))
	default:
		fmt.Fprintf(r.out, "unknown command %s, try :help\n", name)
	}
}

func (r *repl) printError(err error) {
	fmt.Fprintln(r.out, "error:", err)
	if caret := caretOf(err); caret != "" {
		fmt.Fprintln(r.out, caret)
	}
}

func describeDocument(doc types.Document) string {
	if doc == document.Empty {
		return "{}"
	}
	out, err := document.Marshal(doc)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(out)
}

func filterCompletions(line string) []string {
	start := strings.LastIndexAny(line, " ()[]!&|=<>+-*/?:,.") + 1
	if strings.HasPrefix(line, ":") && !strings.Contains(line, " ") {
		start = 0
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, w := range completionWords {
		if strings.HasPrefix(w, prefix) {
			out = append(out, line[:start]+w)
		}
	}
	sort.Strings(out)
	return out
}
