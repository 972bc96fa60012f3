// Package store is a document collection over SQLite that consumes the
// predicates extracted from gowhere expressions.
//
// Documents are stored as JSON. For every indexed path the store keeps one
// row per document holding the canonical rank of the field and its numeric
// or string payload. A query compiles its expression, lifts the comparisons
// on indexed paths into SQL, re-checks every predicate on the candidates
// and finally evaluates the expression on a worker pool. The result is the
// same set of documents a full scan with the evaluator would return.
//
// # Example
//
//	s, err := store.Open(":memory:", store.WithIndex("age", "name"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//	_, _ = s.Insert(ctx, document.Map{"name": "ann", "age": 41})
//	found, err := s.Find(ctx, "return this.age >= 18;")
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/panjf2000/ants/v2"
	_ "modernc.org/sqlite"

	"github.com/sandrolain/gowhere/internal/metrics"
	"github.com/sandrolain/gowhere/pkg/cache"
	"github.com/sandrolain/gowhere/pkg/evaluator"
	"github.com/sandrolain/gowhere/pkg/optimizer"
)

// ErrNotFound is returned by Get for unknown identifiers.
var ErrNotFound = errors.New("store: document not found")

const schema = `
CREATE TABLE IF NOT EXISTS docs (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	body BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS idx (
	doc_id TEXT NOT NULL,
	path   TEXT NOT NULL,
	rnk    INTEGER NOT NULL,
	num    REAL,
	str    TEXT,
	PRIMARY KEY (path, doc_id)
);
CREATE INDEX IF NOT EXISTS idx_num ON idx (path, rnk, num);
CREATE INDEX IF NOT EXISTS idx_str ON idx (path, rnk, str);
CREATE TABLE IF NOT EXISTS indexed_paths (
	path TEXT PRIMARY KEY
);
`

// Store is a document collection. It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	paths   map[string]bool
	pool    *ants.Pool
	logger  *slog.Logger
	eval    *evaluator.Evaluator
	opt     *optimizer.Optimizer
	plans   *cache.Cache
	workers int
}

// Option configures a Store.
type Option func(*options)

type options struct {
	index     []string
	workers   int
	logger    *slog.Logger
	cacheSize int
	debug     bool
}

// WithIndex maintains index rows for the given dotted paths. Documents
// already in the collection are indexed when the store is opened.
func WithIndex(paths ...string) Option {
	return func(o *options) {
		o.index = append(o.index, paths...)
	}
}

// WithWorkers sets the number of goroutines evaluating candidates.
// Defaults to 4.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCacheSize sets the number of compiled queries kept. Defaults to 256.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithDebug logs query plans and scan statistics at debug level.
func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// Open opens or creates a collection. dsn is a modernc.org/sqlite data
// source name such as "file:docs.db" or ":memory:".
func Open(dsn string, opts ...Option) (*Store, error) {
	o := options{workers: 4}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.workers <= 0 {
		o.workers = 1
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serialises writers and keeps :memory: databases alive
	// across calls.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:      db,
		paths:   make(map[string]bool),
		logger:  o.logger,
		workers: o.workers,
		eval:    evaluator.New(evaluator.WithLogger(o.logger), evaluator.WithDebug(o.debug)),
		opt:     optimizer.New(optimizer.WithLogger(o.logger), optimizer.WithDebug(o.debug)),
		plans: cache.New(o.cacheSize, cache.WithEvictCallback(func(string) {
			metrics.CacheEvictions.Inc()
		})),
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	if err := s.ensureIndexes(ctx, o.index); err != nil {
		db.Close()
		return nil, err
	}

	pool, err := ants.NewPool(o.workers, ants.WithPanicHandler(func(v any) {
		s.logger.Error("evaluation worker panic", "panic", v)
	}))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	s.pool = pool

	s.logger.Debug("store opened", "dsn", dsn, "indexes", s.IndexedPaths(), "workers", o.workers)
	return s, nil
}

// Close releases the worker pool and the database.
func (s *Store) Close() error {
	s.pool.Release()
	return s.db.Close()
}

// IndexedPaths returns the maintained index paths in sorted order.
func (s *Store) IndexedPaths() []string {
	out := make([]string, 0, len(s.paths))
	for p := range s.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ensureIndexes loads the recorded index paths and backfills the requested
// ones that are new.
func (s *Store) ensureIndexes(ctx context.Context, requested []string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM indexed_paths`)
	if err != nil {
		return fmt.Errorf("failed to load index paths: %w", err)
	}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return fmt.Errorf("failed to load index paths: %w", err)
		}
		s.paths[p] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load index paths: %w", err)
	}

	var added []string
	for _, p := range requested {
		if p == "" || s.paths[p] {
			continue
		}
		s.paths[p] = true
		added = append(added, p)
	}
	if len(added) == 0 {
		return nil
	}
	return s.backfill(ctx, added)
}

func (s *Store) backfill(ctx context.Context, paths []string) error {
	docs, err := s.scanAll(ctx)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range paths {
		if _, err := tx.ExecContext(ctx, `INSERT INTO indexed_paths (path) VALUES (?)`, p); err != nil {
			return fmt.Errorf("failed to record index %q: %w", p, err)
		}
	}
	for _, d := range docs {
		if err := insertEntries(ctx, tx, d.ID, d.Doc, paths); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index backfill: %w", err)
	}
	s.logger.Debug("index backfilled", "paths", paths, "documents", len(docs))
	return nil
}
