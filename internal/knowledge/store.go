// Package knowledge stores document chunks and their embeddings in SQLite
// and searches them.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Chunk is one embedded piece of a source document.
type Chunk struct {
	ID         int64
	Collection string
	Source     string
	Index      int
	Content    string
	Embedding  []float32
}

// Store is the SQLite-backed chunk store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	// fts is true when the SQLite build supports FTS5.
	fts bool
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		vector_size INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
		source TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_collection_source
	ON chunks(collection, source)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Open opens (and creates) the database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, logger: logger}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migration: %w", err)
		}
	}

	// FTS5 is optional; full-text search falls back to LIKE without it.
	if _, err := db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(content)`); err != nil {
		logger.Debug("FTS5 not available, using LIKE for full-text search", zap.Error(err))
	} else {
		s.fts = true
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSource swaps all chunks of source in collection for chunks.
func (s *Store) ReplaceSource(ctx context.Context, collection, source string, chunks []Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSourceTx(ctx, tx, s.fts, collection, source); err != nil {
		return err
	}

	for _, c := range chunks {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (collection, source, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?)`,
			collection, source, c.Index, c.Content, encodeEmbedding(c.Embedding))
		if err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
		if s.fts {
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("chunk id: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO chunks_fts (rowid, content) VALUES (?, ?)`, id, c.Content); err != nil {
				return fmt.Errorf("index chunk: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteSource removes all chunks of one source document.
func (s *Store) DeleteSource(ctx context.Context, collection, source string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSourceTx(ctx, tx, s.fts, collection, source); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteSourceTx(ctx context.Context, tx *sql.Tx, fts bool, collection, source string) error {
	if fts {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE collection = ? AND source = ?)`,
			collection, source); err != nil {
			return fmt.Errorf("delete fts rows: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ? AND source = ?`, collection, source); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Chunks returns every chunk of a collection, embeddings included.
func (s *Store) Chunks(ctx context.Context, collection string) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, chunk_index, content, embedding FROM chunks WHERE collection = ? ORDER BY id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c := Chunk{Collection: collection}
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		c.Embedding = decodeEmbedding(blob)
		out = append(out, c)
	}
	return out, rows.Err()
}

// MatchTerms returns up to limit chunks containing any of terms.
// Embeddings are not loaded.
func (s *Store) MatchTerms(ctx context.Context, collection string, terms []string, limit int) ([]Chunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if !s.fts {
		return s.scanTerms(ctx, collection, terms, limit)
	}

	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.source, c.chunk_index, c.content
		FROM chunks_fts f JOIN chunks c ON c.id = f.rowid
		WHERE chunks_fts MATCH ? AND c.collection = ?
		ORDER BY rank
		LIMIT ?`,
		strings.Join(quoted, " OR "), collection, limit)
	if err != nil {
		return nil, fmt.Errorf("match terms: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() {
		c := Chunk{Collection: collection}
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// scanTerms is the fallback without FTS5. SQLite's lower() folds ASCII
// only, so matching happens on Go-lowered content.
func (s *Store) scanTerms(ctx context.Context, collection string, terms []string, limit int) ([]Chunk, error) {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, chunk_index, content FROM chunks
		WHERE collection = ?
		ORDER BY id`,
		collection)
	if err != nil {
		return nil, fmt.Errorf("scan terms: %w", err)
	}
	defer rows.Close()

	var out []Chunk
	for rows.Next() && len(out) < limit {
		c := Chunk{Collection: collection}
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Content); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		content := strings.ToLower(c.Content)
		for _, t := range lowered {
			if strings.Contains(content, t) {
				out = append(out, c)
				break
			}
		}
	}
	return out, rows.Err()
}

// CountChunks returns the number of chunks in a collection.
func (s *Store) CountChunks(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// CountSources returns the number of distinct documents in a collection.
func (s *Store) CountSources(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT source) FROM chunks WHERE collection = ?`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return n, nil
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
