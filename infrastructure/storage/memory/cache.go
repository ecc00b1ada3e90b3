// Package memory provides in-memory implementations of the structure
// cache and the commit history store.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/cache"
)

type cacheEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Cache is an in-memory implementation of cache.Cache with TTL
// expiration and least-recently-used eviction.
type Cache struct {
	entries map[string]*list.Element
	order   *list.List
	maxSize int
	now     func() time.Time
	mu      sync.Mutex
	hits    int64
	misses  int64
}

// CacheOption configures the cache.
type CacheOption func(*Cache)

// WithMaxSize sets the maximum number of entries; zero means unlimited.
func WithMaxSize(size int) CacheOption {
	return func(c *Cache) {
		c.maxSize = max(size, 0)
	}
}

// WithClock sets the time source used for expiration.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a new in-memory cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: 256,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a value and marks it most recently used.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	entry := el.Value.(*cacheEntry)
	if entry.expired(c.now()) {
		c.remove(el)
		c.misses++
		return nil, false, nil
	}

	c.order.MoveToFront(el)
	c.hits++
	return append([]byte(nil), entry.value...), true, nil
}

// Set stores a value, evicting the least recently used entry when full.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts cache.SetOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cache.ErrInvalidKey
	}

	entry := &cacheEntry{key: key, value: append([]byte(nil), value...)}
	if opts.TTL > 0 {
		entry.expiresAt = c.now().Add(opts.TTL)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return nil
	}

	if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	c.entries[key] = c.order.PushFront(entry)
	return nil
}

// Delete removes a value from the cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Exists checks if an unexpired key exists without touching recency.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return !el.Value.(*cacheEntry).expired(c.now()), nil
}

// Clear removes all entries from the cache.
func (c *Cache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() cache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return cache.Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    int64(c.order.Len()),
		MaxSize: int64(c.maxSize),
	}
}

// Prune removes expired entries and returns how many were dropped.
func (c *Cache) Prune(_ context.Context) (int, error) {
	now := c.now()
	return c.removeWhere(func(e *cacheEntry) bool { return e.expired(now) }), nil
}

// InvalidateDocument drops the structures cached for ref under any kind.
func (c *Cache) InvalidateDocument(_ context.Context, ref string) (int, error) {
	return c.removeWhere(func(e *cacheEntry) bool {
		_, entryRef, ok := cache.ParseKey(e.key)
		return ok && entryRef == ref
	}), nil
}

func (c *Cache) removeWhere(match func(*cacheEntry) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if match(el.Value.(*cacheEntry)) {
			c.remove(el)
			removed++
		}
		el = next
	}
	return removed
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove must be called with the lock held.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).key)
}

var (
	_ cache.Cache               = (*Cache)(nil)
	_ cache.StatsProvider       = (*Cache)(nil)
	_ cache.DocumentInvalidator = (*Cache)(nil)
	_ cache.Pruner              = (*Cache)(nil)
)
