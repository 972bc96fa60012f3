// Package config loads the settings of the gowhere command line tool.
//
// Sources, later ones overriding earlier ones:
//  1. built-in defaults
//  2. an optional config file (YAML, JSON or TOML, chosen by extension)
//  3. GOWHERE_* environment variables, where underscores separate nested
//     keys: GOWHERE_EVAL_MAX_DEPTH sets eval.max.depth, which is why
//     multi-word keys are spelled without separators (eval.maxdepth)
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "GOWHERE_"

// Config is the complete CLI configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Eval    EvalConfig    `mapstructure:"eval"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	REPL    REPLConfig    `mapstructure:"repl"`
}

// LogConfig configures internal/logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Source bool   `mapstructure:"source"`
}

// EvalConfig configures compilation and evaluation.
type EvalConfig struct {
	MaxDepth      int  `mapstructure:"maxdepth"`
	ParseDepth    int  `mapstructure:"parsedepth"`
	MaxIterations int  `mapstructure:"maxiterations"`
	CacheSize     int  `mapstructure:"cachesize"`
	Debug         bool `mapstructure:"debug"`
	// Optimize enables predicate pushdown in filter and query.
	Optimize bool `mapstructure:"optimize"`
}

// StoreConfig configures pkg/store.
type StoreConfig struct {
	DSN     string   `mapstructure:"dsn"`
	Index   []string `mapstructure:"index"`
	Workers int      `mapstructure:"workers"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables it.
	Addr string `mapstructure:"addr"`
}

// REPLConfig configures the interactive shell.
type REPLConfig struct {
	History string `mapstructure:"history"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "INFO", Format: "text"},
		Eval: EvalConfig{
			MaxDepth:      10000,
			ParseDepth:    100,
			MaxIterations: 1_000_000,
			CacheSize:     256,
			Optimize:      true,
		},
		Store: StoreConfig{
			DSN:     "file:gowhere.db",
			Workers: 4,
		},
	}
}

// Load reads the configuration. file may be empty; a missing file is an
// error only when it was named explicitly.
func Load(file string) (Config, error) {
	cfg := Default()
	if err := load(file, EnvPrefix, os.Environ(), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func load(file, prefix string, environ []string, target *Config) error {
	v := viper.New()
	setDefaults(v, *target)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	// GOWHERE_LOG_LEVEL -> log.level
	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range environ {
		key, value, ok := strings.Cut(envStr, "=")
		if !ok || !strings.HasPrefix(key, prefixUpper) {
			continue
		}
		propKey := strings.TrimPrefix(key, prefixUpper)
		propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
		propKey = strings.TrimPrefix(propKey, ".")
		if propKey == "store.index" {
			v.Set(propKey, splitList(value))
			continue
		}
		v.Set(propKey, value)
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.source", d.Log.Source)
	v.SetDefault("eval.maxdepth", d.Eval.MaxDepth)
	v.SetDefault("eval.parsedepth", d.Eval.ParseDepth)
	v.SetDefault("eval.maxiterations", d.Eval.MaxIterations)
	v.SetDefault("eval.cachesize", d.Eval.CacheSize)
	v.SetDefault("eval.debug", d.Eval.Debug)
	v.SetDefault("eval.optimize", d.Eval.Optimize)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.index", d.Store.Index)
	v.SetDefault("store.workers", d.Store.Workers)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("repl.history", d.REPL.History)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
