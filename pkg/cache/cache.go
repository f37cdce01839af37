package cache

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"wikiutils/pkg/db"
)

// Cacher defines the caching interface.
type Cacher interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// SQLiteCache implements Cacher on top of pkg/db.
type SQLiteCache struct {
	db *db.DB
}

// NewSQLiteCache creates a new cache.
func NewSQLiteCache(d *db.DB) *SQLiteCache {
	return &SQLiteCache{db: d}
}

// GetCache returns the cached value for key, if present.
func (c *SQLiteCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := c.db.QueryRowContext(ctx, "SELECT value FROM cache WHERE key = ?", key).Scan(&val)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// SetCache stores val under key, replacing any previous value.
func (c *SQLiteCache) SetCache(ctx context.Context, key string, val []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, created_at = CURRENT_TIMESTAMP`,
		key, val)
	return err
}

// NullCache is a Cacher that never stores anything. Useful for tests and
// for disabling caching via configuration.
type NullCache struct{}

func (NullCache) GetCache(ctx context.Context, key string) ([]byte, bool)    { return nil, false }
func (NullCache) SetCache(ctx context.Context, key string, val []byte) error { return nil }
