package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
)

// SQLiteStore persists passages and their embeddings in SQLite. Vectors are
// stored as JSON arrays and similarity is computed in process, which is fine
// for documentation-sized corpora (thousands of passages, not millions).
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS passage (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	source    TEXT NOT NULL,
	page      INTEGER NOT NULL DEFAULT 0,
	pos       INTEGER NOT NULL DEFAULT 0,
	text      TEXT NOT NULL,
	embedding TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS index_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_passage_source ON passage(source);
`

// NewSQLiteStore creates the schema if needed and returns a ready store.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("nil db handle: %w", ErrIndexUnavailable)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("create schema: %w: %w", ErrIndexUnavailable, err)
	}
	return &SQLiteStore{db: db}, nil
}

// dimension returns the recorded vector dimensionality, or 0 when the index
// is empty and no dimension has been recorded yet.
func (s *SQLiteStore) dimension(ctx context.Context) (int, error) {
	var dim int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM index_meta WHERE key = 'dimension'`).Scan(&dim)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read dimension: %w: %w", ErrIndexUnavailable, err)
	}
	return dim, nil
}

// Upsert adds passages with their vectors in a single transaction. The first
// upsert fixes the index dimensionality; later vectors must match it.
func (s *SQLiteStore) Upsert(ctx context.Context, passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("index: %d passages but %d vectors", len(passages), len(vectors))
	}
	if len(passages) == 0 {
		return nil
	}

	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has %d dims, index has %d: %w",
				i, len(vec), dim, ErrDimensionMismatch)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w: %w", ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_meta (key, value) VALUES ('dimension', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprint(dim)); err != nil {
		return fmt.Errorf("record dimension: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passage (source, page, pos, text, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for i, p := range passages {
		enc, encErr := json.Marshal(vectors[i])
		if encErr != nil {
			return fmt.Errorf("encode vector %d: %w", i, encErr)
		}
		if _, execErr := stmt.ExecContext(ctx, p.Source, p.Page, p.Offset, p.Text, string(enc)); execErr != nil {
			return fmt.Errorf("insert passage %d: %w", i, execErr)
		}
	}

	return tx.Commit()
}

// Retrieve loads all stored vectors, scores them against the query embedding
// and returns the top k above minScore, ordered by descending score with ties
// broken by insertion order (rowid).
func (s *SQLiteStore) Retrieve(ctx context.Context, embedding []float32, k int, minScore float64) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	dim, err := s.dimension(ctx)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		return nil, nil // empty index: zero context is not an error
	}
	if len(embedding) != dim {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w",
			len(embedding), dim, ErrDimensionMismatch)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, page, pos, text, embedding FROM passage ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query passages: %w: %w", ErrIndexUnavailable, err)
	}
	defer rows.Close() //nolint:errcheck

	var scored []Passage
	for rows.Next() {
		var p Passage
		var enc string
		if scanErr := rows.Scan(&p.Source, &p.Page, &p.Offset, &p.Text, &enc); scanErr != nil {
			return nil, fmt.Errorf("scan passage: %w", scanErr)
		}
		var vec []float32
		if decErr := json.Unmarshal([]byte(enc), &vec); decErr != nil {
			continue // skip malformed vectors
		}
		p.Score = cosineSimilarity(embedding, vec)
		if minScore >= 0 && p.Score < minScore {
			continue
		}
		scored = append(scored, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w: %w", ErrIndexUnavailable, err)
	}

	// Stable sort keeps rowid order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored passages.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passage`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count passages: %w: %w", ErrIndexUnavailable, err)
	}
	return n, nil
}
