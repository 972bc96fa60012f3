package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gowhere/internal/logger"
	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/store"
	"github.com/sandrolain/gowhere/pkg/types"
)

var (
	storeDSN     string
	storeIndex   []string
	storeWorkers int
	queryExplain bool
	queryIDs     bool
)

var loadCmd = &cobra.Command{
	Use:   "load [FILE...]",
	Short: "Insert JSON lines into a document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		var docs []types.Document
		read := func(r io.Reader, name string) error {
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
			for n := 1; scanner.Scan(); n++ {
				if len(scanner.Bytes()) == 0 {
					continue
				}
				doc, err := document.ParseJSON(scanner.Bytes())
				if err != nil {
					return fmt.Errorf("%s:%d: %w", name, n, err)
				}
				docs = append(docs, doc)
			}
			return scanner.Err()
		}

		if len(args) == 0 {
			if err := read(cmd.InOrStdin(), "stdin"); err != nil {
				return err
			}
		}
		for _, name := range args {
			f, err := os.Open(name)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", name, err)
			}
			err = read(f, name)
			f.Close()
			if err != nil {
				return err
			}
		}

		ids, err := s.InsertMany(commandContext(cmd), docs)
		if err != nil {
			return err
		}
		total, err := s.Count(commandContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "inserted %d documents (%d total)\n", len(ids), total)
		return nil
	},
}

var queryCmd = &cobra.Command{
	Use:   "query PROGRAM",
	Short: "Print the stored documents a program accepts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		if queryExplain {
			plan, err := s.Explain(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(out, plan)
			return nil
		}

		found, err := s.Find(commandContext(cmd), args[0])
		if err != nil {
			return err
		}
		for _, r := range found {
			if queryIDs {
				fmt.Fprintf(out, "%s\t%s\n", r.ID, r.Doc)
				continue
			}
			fmt.Fprintln(out, r.Doc)
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{loadCmd, queryCmd} {
		c.Flags().StringVar(&storeDSN, "dsn", "", "SQLite data source (default from config)")
		c.Flags().StringSliceVar(&storeIndex, "index", nil, "dotted paths to index (comma separated)")
		c.Flags().IntVarP(&storeWorkers, "workers", "w", 0, "number of evaluation goroutines (default from config)")
	}
	queryCmd.Flags().BoolVar(&queryExplain, "explain", false, "print the query plan instead of running it")
	queryCmd.Flags().BoolVar(&queryIDs, "ids", false, "prefix every document with its identifier")

	rootCmd.AddCommand(loadCmd, queryCmd)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn := cfg.Store.DSN
	if cmd.Flags().Changed("dsn") {
		dsn = storeDSN
	}
	workers := cfg.Store.Workers
	if cmd.Flags().Changed("workers") {
		workers = storeWorkers
	}
	index := append(append([]string(nil), cfg.Store.Index...), storeIndex...)

	return store.Open(dsn,
		store.WithIndex(index...),
		store.WithWorkers(workers),
		store.WithLogger(logger.Get()),
		store.WithCacheSize(cfg.Eval.CacheSize),
		store.WithDebug(cfg.Eval.Debug),
	)
}
