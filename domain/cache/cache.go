// Package cache defines the store for fetched document structures, so that
// reopening a document does not hit the processing service again.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache stores encoded structures by key. Backends live under
// infrastructure/storage.
type Cache interface {
	// Get returns the value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	Set(ctx context.Context, key string, value []byte, opts SetOptions) error

	// Delete is not an error for a missing key.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes every entry the backend owns.
	Clear(ctx context.Context) error
}

// SetOptions configures how a value is stored.
type SetOptions struct {
	// TTL of zero keeps the entry until it is deleted.
	TTL time.Duration
}

// Stats counts lookups since the backend was opened.
type Stats struct {
	Hits    int64
	Misses  int64
	Size    int64
	MaxSize int64
}

// HitRatio returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsProvider is implemented by backends that count lookups.
type StatsProvider interface {
	Stats() Stats
}

// DocumentInvalidator is implemented by backends that can drop every
// cached structure of a document ref, whatever kind it was opened as.
type DocumentInvalidator interface {
	InvalidateDocument(ctx context.Context, ref string) (int, error)
}

// Pruner is implemented by backends that expire entries lazily.
type Pruner interface {
	// Prune removes expired entries and reports how many were removed.
	Prune(ctx context.Context) (int, error)
}

// KeyPrefix starts every structure key.
const KeyPrefix = "structure:"

const escapedColon = "%3A"

// Key builds the key for the structure of a document. Colons in ref are
// escaped so that refs cannot collide across kinds.
func Key(kind, ref string) string {
	return KeyPrefix + kind + ":" + strings.ReplaceAll(ref, ":", escapedColon)
}

// ParseKey splits a key built by Key back into kind and ref.
func ParseKey(key string) (kind, ref string, ok bool) {
	rest, found := strings.CutPrefix(key, KeyPrefix)
	if !found {
		return "", "", false
	}
	kind, escaped, found := strings.Cut(rest, ":")
	if !found || kind == "" || escaped == "" {
		return "", "", false
	}
	return kind, strings.ReplaceAll(escaped, escapedColon, ":"), true
}
