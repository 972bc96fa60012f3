package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/sandrolain/gowhere/pkg/document"
	"github.com/sandrolain/gowhere/pkg/types"
)

// Record is a stored document.
type Record struct {
	ID  string
	Doc *document.JSON
}

// Insert stores doc and returns its generated identifier.
func (s *Store) Insert(ctx context.Context, doc types.Document) (string, error) {
	ids, err := s.InsertMany(ctx, []types.Document{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// InsertMany stores docs in one transaction and returns their identifiers
// in input order.
func (s *Store) InsertMany(ctx context.Context, docs []types.Document) ([]string, error) {
	records := make([]Record, len(docs))
	for i, doc := range docs {
		body, err := document.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document %d: %w", i, err)
		}
		// Index the stored form so that index rows agree with what Find
		// reads back.
		stored, err := document.ParseJSON(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document %d: %w", i, err)
		}
		records[i] = Record{ID: uuid.NewString(), Doc: stored}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	paths := s.IndexedPaths()
	ids := make([]string, len(records))
	for i, r := range records {
		if _, err := tx.ExecContext(ctx, `INSERT INTO docs (id, body) VALUES (?, ?)`, r.ID, r.Doc.Raw()); err != nil {
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
		if err := insertEntries(ctx, tx, r.ID, r.Doc, paths); err != nil {
			return nil, err
		}
		ids[i] = r.ID
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return ids, nil
}

// Get returns the document stored under id.
func (s *Store) Get(ctx context.Context, id string) (*document.JSON, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM docs WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return document.ParseJSON(body)
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *Store) scanAll(ctx context.Context) ([]Record, error) {
	return s.query(ctx, `SELECT id, body FROM docs ORDER BY seq`)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		doc, err := document.ParseJSON(body)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		out = append(out, Record{ID: id, Doc: doc})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return out, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, id string, doc types.Document, paths []string) error {
	for _, p := range paths {
		v, _ := doc.Lookup(p)
		e := entryFor(v)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO idx (doc_id, path, rnk, num, str) VALUES (?, ?, ?, ?, ?)`,
			id, p, e.rank, e.num, e.str); err != nil {
			return fmt.Errorf("failed to index %q of %s: %w", p, id, err)
		}
	}
	return nil
}

// entry is the index row of one field.
type entry struct {
	rank int
	num  sql.NullFloat64
	str  sql.NullString
}

// entryFor maps a field value to its index row. NaN is stored without a
// number and infinities are clamped to the finite range; both mappings keep
// the order the SQL filters rely on.
func entryFor(v types.Value) entry {
	e := entry{rank: types.Rank(v)}
	switch v.Kind() {
	case types.KindInt32, types.KindInt64, types.KindDouble:
		if !v.IsNaN() {
			e.num = sql.NullFloat64{Float64: clamp(v.Float()), Valid: true}
		}
	case types.KindBool:
		e.num = sql.NullFloat64{Float64: float64(v.Int()), Valid: true}
	case types.KindString:
		e.str = sql.NullString{String: v.Str(), Valid: true}
	}
	return e
}

func clamp(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	default:
		return f
	}
}
