// Command gowhere compiles, evaluates and optimizes where-clause programs.
//
// Usage:
//
//	gowhere eval 'this.age > 18' --doc '{"age": 41}'
//	gowhere lex 'return this.a > 3;'
//	gowhere parse --dump 'return this.a > 3 && this.b === "x";'
//	gowhere explain 'this.a > 3 && this.b === "x"'
//	gowhere filter 'this.status === "active"' events.jsonl
//	gowhere load --index age people.jsonl
//	gowhere query 'this.age >= 18'
//	gowhere repl
//
// Settings are read from --config, then GOWHERE_* environment variables,
// then flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gowhere"
	"github.com/sandrolain/gowhere/internal/config"
	"github.com/sandrolain/gowhere/internal/logger"
	"github.com/sandrolain/gowhere/internal/metrics"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/parser"
)

var (
	cfg        config.Config
	configFile string

	flagLogLevel    string
	flagLogFormat   string
	flagMetricsAddr string
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:           "gowhere",
	Short:         "Compile, evaluate and optimize where-clause programs",
	Version:       gowhere.Version(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.Log.Level = flagLogLevel
		}
		if flags.Changed("log-format") {
			cfg.Log.Format = flagLogFormat
		}
		if flags.Changed("metrics-addr") {
			cfg.Metrics.Addr = flagMetricsAddr
		}
		if flags.Changed("debug") {
			cfg.Eval.Debug = flagDebug
		}
		if cfg.Eval.Debug {
			cfg.Log.Level = "DEBUG"
		}

		logger.Init(logger.Config{
			Level:     cfg.Log.Level,
			Format:    cfg.Log.Format,
			AddSource: cfg.Log.Source,
		})
		if cfg.Metrics.Addr != "" {
			serveMetrics(cfg.Metrics.Addr)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (YAML, JSON or TOML)")
	pf.StringVar(&flagLogLevel, "log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")
	pf.StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	pf.BoolVar(&flagDebug, "debug", false, "log compile, optimize and scan decisions")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError writes err to stderr, with a caret under the offending
// position for compile errors.
func printError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	if caret := caretOf(err); caret != "" {
		fmt.Fprintln(os.Stderr, caret)
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
}

func compileOptions() []parser.CompileOption {
	return []parser.CompileOption{parser.WithMaxDepth(cfg.Eval.ParseDepth)}
}

func newEvaluator() *evaluator.Evaluator {
	return evaluator.New(
		evaluator.WithLogger(logger.Get()),
		evaluator.WithDebug(cfg.Eval.Debug),
		evaluator.WithMaxDepth(cfg.Eval.MaxDepth),
		evaluator.WithMaxLoopIterations(cfg.Eval.MaxIterations),
		evaluator.WithCaching(true),
		evaluator.WithCacheSize(cfg.Eval.CacheSize),
	)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
