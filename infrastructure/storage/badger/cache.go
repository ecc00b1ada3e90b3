package badger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/felixgeelhaar/arrange-go/domain/cache"
)

// Cache keeps document structures in BadgerDB. Entries are laid out as
// <prefix>structures/<ref>\x00<kind> so every kind cached for one document
// sits under a common prefix. TTLs map onto badger entry expiry.
type Cache struct {
	db        *badger.DB
	keyPrefix string
	hits      atomic.Int64
	misses    atomic.Int64
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
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

	c := NewCacheFromDB(db, cfg.KeyPrefix)
	if cfg.GCInterval > 0 && !cfg.InMemory {
		c.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return c, nil
}

// NewCacheFromDB creates a cache from an existing database.
func NewCacheFromDB(db *badger.DB, keyPrefix string) *Cache {
	return &Cache{
		db:        db,
		keyPrefix: keyPrefix,
		gcStop:    make(chan struct{}),
	}
}

func (c *Cache) startGC(interval time.Duration, discardRatio float64) {
	c.gcWg.Add(1)
	go func() {
		defer c.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-c.gcStop:
				return
			case <-ticker.C:
				for c.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

const refTerminator = 0x00

func (c *Cache) namespace() []byte {
	return []byte(c.keyPrefix + "structures/")
}

func (c *Cache) documentPrefix(ref string) []byte {
	return append(append(c.namespace(), ref...), refTerminator)
}

// storageKey maps a cache.Key onto the badger layout.
func (c *Cache) storageKey(key string) ([]byte, bool) {
	kind, ref, ok := cache.ParseKey(key)
	if !ok {
		return nil, false
	}
	return append(c.documentPrefix(ref), kind...), true
}

// Get returns the encoded structure for key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	k, ok := c.storageKey(key)
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}

	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
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
	k, ok := c.storageKey(key)
	if !ok {
		return cache.ErrInvalidKey
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(k, value)
		if opts.TTL > 0 {
			e = e.WithTTL(opts.TTL)
		}
		return txn.SetEntry(e)
	})
}

// Delete removes one structure. Unknown keys are ignored.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k, ok := c.storageKey(key)
	if !ok {
		return nil
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
}

// Exists reports whether a live structure is stored under key.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	k, ok := c.storageKey(key)
	if !ok {
		return false, nil
	}

	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Clear removes all entries in the cache namespace.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.DropPrefix(c.namespace())
}

// InvalidateDocument drops every kind cached for ref in one write batch.
func (c *Cache) InvalidateDocument(ctx context.Context, ref string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	keys, err := c.keysUnder(c.documentPrefix(ref))
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (c *Cache) keysUnder(prefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// Stats returns lookup counters and the number of live structures.
func (c *Cache) Stats() cache.Stats {
	keys, _ := c.keysUnder(c.namespace())

	return cache.Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   int64(len(keys)),
	}
}

// Close stops GC and closes the database.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.gcStop)
		c.gcWg.Wait()
		err = c.db.Close()
	})
	return err
}

var (
	_ cache.Cache               = (*Cache)(nil)
	_ cache.StatsProvider       = (*Cache)(nil)
	_ cache.DocumentInvalidator = (*Cache)(nil)
)
