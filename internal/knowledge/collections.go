package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultCollection is created on first use and is active until the user
// switches away from it.
const DefaultCollection = "chunks"

const activeCollectionKey = "active_collection"

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrActiveCollection   = errors.New("collection is active")
	ErrInvalidName        = errors.New("invalid collection name")
)

// CollectionInfo describes one collection.
type CollectionInfo struct {
	Name       string
	Chunks     int
	Documents  int
	VectorSize int
	CreatedAt  time.Time
	Active     bool
}

// Collections manages named collections and tracks the active one.
type Collections struct {
	store       *Store
	defaultName string
	vectorSize  int
}

// NewCollections makes sure the default collection exists and an active
// collection is recorded.
func NewCollections(ctx context.Context, store *Store, defaultName string, vectorSize int) (*Collections, error) {
	if defaultName == "" {
		defaultName = DefaultCollection
	}
	c := &Collections{store: store, defaultName: defaultName, vectorSize: vectorSize}

	if _, err := c.Create(ctx, defaultName, vectorSize); err != nil {
		return nil, err
	}

	active, err := store.getSetting(ctx, activeCollectionKey)
	if err != nil {
		return nil, err
	}
	if active == "" {
		if err := store.setSetting(ctx, activeCollectionKey, defaultName); err != nil {
			return nil, err
		}
	} else if ok, err := c.exists(ctx, active); err != nil {
		return nil, err
	} else if !ok {
		if err := store.setSetting(ctx, activeCollectionKey, defaultName); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Create adds a collection. It reports false when the name already exists.
func (c *Collections) Create(ctx context.Context, name string, vectorSize int) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrInvalidName
	}
	if vectorSize <= 0 {
		vectorSize = c.vectorSize
	}

	res, err := c.store.db.ExecContext(ctx,
		`INSERT INTO collections (name, vector_size) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		name, vectorSize)
	if err != nil {
		return false, fmt.Errorf("create collection %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns all collections sorted by name.
func (c *Collections) List(ctx context.Context) ([]CollectionInfo, error) {
	active, err := c.Active(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.store.db.QueryContext(ctx, `
		SELECT c.name, c.vector_size, c.created_at,
			(SELECT COUNT(*) FROM chunks k WHERE k.collection = c.name),
			(SELECT COUNT(DISTINCT source) FROM chunks k WHERE k.collection = c.name)
		FROM collections c
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []CollectionInfo
	for rows.Next() {
		var info CollectionInfo
		if err := rows.Scan(&info.Name, &info.VectorSize, &info.CreatedAt, &info.Chunks, &info.Documents); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		info.Active = info.Name == active
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a collection and its chunks. The active collection is
// only deleted with force, after which the default collection is active
// again.
func (c *Collections) Delete(ctx context.Context, name string, force bool) error {
	ok, err := c.exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}

	active, err := c.Active(ctx)
	if err != nil {
		return err
	}
	if name == active && !force {
		return fmt.Errorf("%w: %s", ErrActiveCollection, name)
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if c.store.fts {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chunks_fts WHERE rowid IN (SELECT id FROM chunks WHERE collection = ?)`, name); err != nil {
			return fmt.Errorf("delete fts rows: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`, name); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if name == active {
		if _, err := c.Create(ctx, c.defaultName, c.vectorSize); err != nil {
			return err
		}
		return c.store.setSetting(ctx, activeCollectionKey, c.defaultName)
	}
	return nil
}

// Switch makes name the active collection.
func (c *Collections) Switch(ctx context.Context, name string) error {
	ok, err := c.exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c.store.setSetting(ctx, activeCollectionKey, name)
}

// Info describes one collection. An empty name means the active one.
func (c *Collections) Info(ctx context.Context, name string) (CollectionInfo, error) {
	active, err := c.Active(ctx)
	if err != nil {
		return CollectionInfo{}, err
	}
	if name == "" {
		name = active
	}

	info := CollectionInfo{Name: name, Active: name == active}
	err = c.store.db.QueryRowContext(ctx,
		`SELECT vector_size, created_at FROM collections WHERE name = ?`, name).
		Scan(&info.VectorSize, &info.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CollectionInfo{}, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	if err != nil {
		return CollectionInfo{}, fmt.Errorf("collection info: %w", err)
	}

	if info.Chunks, err = c.store.CountChunks(ctx, name); err != nil {
		return CollectionInfo{}, err
	}
	if info.Documents, err = c.store.CountSources(ctx, name); err != nil {
		return CollectionInfo{}, err
	}
	return info, nil
}

// Active returns the name of the active collection.
func (c *Collections) Active(ctx context.Context) (string, error) {
	name, err := c.store.getSetting(ctx, activeCollectionKey)
	if err != nil {
		return "", err
	}
	if name == "" {
		return c.defaultName, nil
	}
	return name, nil
}

func (c *Collections) exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := c.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM collections WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup collection: %w", err)
	}
	return n > 0, nil
}
