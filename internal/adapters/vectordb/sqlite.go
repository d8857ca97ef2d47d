package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"askbase/internal/domain/ports"
)

// SQLiteBuilder persists built indexes to a SQLite file so a restart can
// serve queries without re-embedding an unchanged knowledge base. Search
// still scores in process: the corpus is small and flat cosine over a few
// hundred vectors beats any ANN setup at this scale.
type SQLiteBuilder struct {
	dataPath string
}

// NewSQLiteBuilder creates a builder writing under dataPath.
func NewSQLiteBuilder(dataPath string) (*SQLiteBuilder, error) {
	if dataPath == "" {
		dataPath = "./data"
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &SQLiteBuilder{dataPath: dataPath}, nil
}

func (b *SQLiteBuilder) dbPath() string {
	return filepath.Join(b.dataPath, "index.db")
}

// Build writes all entries in one transaction, replacing any previous
// generation, then returns the index loaded back into memory. The on-disk
// file is a cache of the last build, never a live mutable structure.
func (b *SQLiteBuilder) Build(ctx context.Context, entries []ports.IndexEntry) (ports.VectorIndex, error) {
	db, err := sql.Open("sqlite3", b.dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors`); err != nil {
		return nil, fmt.Errorf("clearing previous index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vectors (entry_id, vector) VALUES (?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		data, err := json.Marshal(e.Vector)
		if err != nil {
			return nil, fmt.Errorf("encoding vector for %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, string(data)); err != nil {
			return nil, fmt.Errorf("inserting vector for %s: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO meta (key, value) VALUES ('built_at', ?)`,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("recording build time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing index: %w", err)
	}

	return NewMemoryBuilder().Build(ctx, entries)
}

// Load reads the persisted index back as an immutable in-memory index.
// Returns ports.ErrNotFound semantics via a plain error when no build exists.
func (b *SQLiteBuilder) Load(ctx context.Context) (ports.VectorIndex, error) {
	if _, err := os.Stat(b.dbPath()); err != nil {
		return nil, fmt.Errorf("no persisted index at %s: %w", b.dbPath(), err)
	}

	db, err := sql.Open("sqlite3", b.dbPath())
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT entry_id, vector FROM vectors ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("reading persisted index: %w", err)
	}
	defer rows.Close()

	var entries []ports.IndexEntry
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(data), &vec); err != nil {
			return nil, fmt.Errorf("decoding vector for %s: %w", id, err)
		}
		entries = append(entries, ports.IndexEntry{ID: id, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return NewMemoryBuilder().Build(ctx, entries)
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS vectors (
		entry_id TEXT PRIMARY KEY,
		vector   TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}
