package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/cache"
)

// Cache keeps document structures in a SQLite table, one row per
// (namespace, kind, ref). Only keys built by cache.Key are accepted, which
// lets a refreshed document be dropped under every kind in one statement.
type Cache struct {
	db        *sql.DB
	namespace string
	now       func() time.Time
	hits      atomic.Int64
	misses    atomic.Int64
}

// NewCache opens a database and returns a cache backed by it.
func NewCache(cfg Config, opts ...Option) (*Cache, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	c := &Cache{db: db, namespace: cfg.KeyPrefix, now: time.Now}
	if cfg.AutoMigrate {
		if err := c.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return c, nil
}

// NewCacheFromDB creates a cache on an existing connection. Caches with
// different namespaces can share one database.
func NewCacheFromDB(db *sql.DB, namespace string) (*Cache, error) {
	c := &Cache{db: db, namespace: namespace, now: time.Now}
	if err := c.migrate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS document_structures (
			namespace TEXT NOT NULL,
			kind TEXT NOT NULL,
			ref TEXT NOT NULL,
			structure BLOB NOT NULL,
			expires_at INTEGER,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (namespace, kind, ref)
		);
		CREATE INDEX IF NOT EXISTS idx_document_structures_ref ON document_structures(namespace, ref);
		CREATE INDEX IF NOT EXISTS idx_document_structures_expires_at ON document_structures(expires_at);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Get returns the encoded structure for key. Expired rows are removed lazily.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	kind, ref, ok := cache.ParseKey(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	var value []byte
	var expiresAt sql.NullInt64
	err := c.db.QueryRowContext(ctx,
		`SELECT structure, expires_at FROM document_structures
		 WHERE namespace = ? AND kind = ? AND ref = ?`,
		c.namespace, kind, ref,
	).Scan(&value, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if expiresAt.Valid && expiresAt.Int64 <= c.now().UnixMilli() {
		_, _ = c.db.ExecContext(ctx,
			"DELETE FROM document_structures WHERE namespace = ? AND kind = ? AND ref = ?",
			c.namespace, kind, ref,
		)
		c.misses.Add(1)
		return nil, false, nil
	}

	c.hits.Add(1)
	return value, true, nil
}

// Set stores an encoded structure. Keys not built by cache.Key are rejected
// with cache.ErrInvalidKey.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts cache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, ref, ok := cache.ParseKey(key)
	if !ok {
		return cache.ErrInvalidKey
	}

	now := c.now()
	var expiresAt sql.NullInt64
	if opts.TTL > 0 {
		expiresAt = sql.NullInt64{Int64: now.Add(opts.TTL).UnixMilli(), Valid: true}
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO document_structures (namespace, kind, ref, structure, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(namespace, kind, ref) DO UPDATE SET
		   structure = excluded.structure,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		c.namespace, kind, ref, value, expiresAt, now.UnixMilli(),
	)
	return err
}

// Delete removes one structure. Unknown keys are ignored.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kind, ref, ok := cache.ParseKey(key)
	if !ok {
		return nil
	}

	_, err := c.db.ExecContext(ctx,
		"DELETE FROM document_structures WHERE namespace = ? AND kind = ? AND ref = ?",
		c.namespace, kind, ref,
	)
	return err
}

// Exists reports whether a live structure is stored under key.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	kind, ref, ok := cache.ParseKey(key)
	if !ok {
		return false, nil
	}

	var exists int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM document_structures
		 WHERE namespace = ? AND kind = ? AND ref = ?
		   AND (expires_at IS NULL OR expires_at > ?)`,
		c.namespace, kind, ref, c.now().UnixMilli(),
	).Scan(&exists)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InvalidateDocument drops every structure cached for ref.
func (c *Cache) InvalidateDocument(ctx context.Context, ref string) (int, error) {
	return c.deleteWhere(ctx, "namespace = ? AND ref = ?", c.namespace, ref)
}

// Prune removes expired structures.
func (c *Cache) Prune(ctx context.Context) (int, error) {
	return c.deleteWhere(ctx,
		"namespace = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		c.namespace, c.now().UnixMilli(),
	)
}

// Clear removes every structure in the namespace.
func (c *Cache) Clear(ctx context.Context) error {
	_, err := c.deleteWhere(ctx, "namespace = ?", c.namespace)
	return err
}

func (c *Cache) deleteWhere(ctx context.Context, where string, args ...any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := c.db.ExecContext(ctx, "DELETE FROM document_structures WHERE "+where, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Stats returns lookup counters and the number of rows in the namespace.
func (c *Cache) Stats() cache.Stats {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var size int64
	_ = c.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM document_structures WHERE namespace = ?", c.namespace,
	).Scan(&size)

	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

var (
	_ cache.Cache               = (*Cache)(nil)
	_ cache.StatsProvider       = (*Cache)(nil)
	_ cache.DocumentInvalidator = (*Cache)(nil)
	_ cache.Pruner              = (*Cache)(nil)
)
