// Package annocache persists dumped annotation text keyed by source path and
// content hash. Repeat dumps of unchanged assets skip deserialization
// entirely; because the hash is part of the key, a modified asset can never
// hit a stale entry.
package annocache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hkforge/annokit/core/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS anno_dump (
	path        TEXT NOT NULL,
	source_hash TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	PRIMARY KEY (path, source_hash)
);
`

// Cache is a persistent dump cache backed by SQLite.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Get returns the cached annotation text for (path, sourceHash).
func (c *Cache) Get(path, sourceHash string) (string, bool, error) {
	var content string
	err := c.db.QueryRow(
		`SELECT content FROM anno_dump WHERE path = ? AND source_hash = ?`,
		path, sourceHash,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return content, true, nil
}

// Put stores the annotation text for (path, sourceHash), replacing any
// previous entry for the same key.
func (c *Cache) Put(path, sourceHash, content string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO anno_dump (path, source_hash, content, created_at) VALUES (?, ?, ?, ?)`,
		path, sourceHash, content, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache store: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
