package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/pkoval/attestor/internal/cache"
	"github.com/pkoval/attestor/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteIndex is a local prior-submission corpus backed by sqlite.
// Vectors are stored as little-endian float32 blobs and ranked by
// cosine similarity in process; adequate for corpora up to the tens of
// thousands of units a single reviewer pool accumulates.
type SQLiteIndex struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS prior_units (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	submission_id TEXT NOT NULL,
	author        TEXT NOT NULL,
	file_name     TEXT NOT NULL,
	kind          TEXT NOT NULL,
	excerpt       TEXT NOT NULL,
	embedding     BLOB NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_prior_units_kind ON prior_units(kind);
CREATE INDEX IF NOT EXISTS idx_prior_units_author ON prior_units(author);
`

// OpenSQLiteIndex opens (creating if needed) a local index at path
func OpenSQLiteIndex(path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Close closes the underlying database
func (idx *SQLiteIndex) Close() error {
	return idx.db.Close()
}

// Add stores one entry in the prior corpus
func (idx *SQLiteIndex) Add(ctx context.Context, entry Entry) error {
	_, err := idx.db.ExecContext(ctx,
		`INSERT INTO prior_units (submission_id, author, file_name, kind, excerpt, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SubmissionID, entry.Author, entry.FileName, string(entry.Kind),
		entry.Excerpt, cache.EncodeVector(entry.Vector), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("index add: %w", err)
	}
	return nil
}

// Search ranks stored units of the same kind by cosine similarity,
// excluding the current author's own submissions. An empty
// excludeAuthor means the author is unknown and nothing is excluded.
func (idx *SQLiteIndex) Search(ctx context.Context, vec []float32, kind model.ContentKind, excludeAuthor string, k int) ([]Hit, error) {
	query := `SELECT submission_id, author, file_name, excerpt, embedding
		 FROM prior_units WHERE kind = ?`
	args := []interface{}{string(kind)}
	if excludeAuthor != "" {
		query += ` AND author <> ?`
		args = append(args, excludeAuthor)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hits []Hit
	for rows.Next() {
		var hit Hit
		var blob []byte
		if err := rows.Scan(&hit.SubmissionID, &hit.Author, &hit.FileName, &hit.Excerpt, &blob); err != nil {
			return nil, fmt.Errorf("index scan: %w", err)
		}
		stored := cache.DecodeVector(blob)
		if stored == nil {
			continue // Corrupt row; skip rather than fail the search
		}
		hit.Score = CosineSimilarity(vec, stored)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index rows: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of stored units, used by status output
func (idx *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prior_units`).Scan(&n)
	return n, err
}
