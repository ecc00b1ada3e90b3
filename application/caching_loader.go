package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/cache"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
)

// CachingLoader serves document structures from a cache and falls back to
// the wrapped loader on a miss. Cache failures never fail a load.
type CachingLoader struct {
	loader structure.Loader
	cache  cache.Cache
	ttl    time.Duration
}

// NewCachingLoader wraps loader with c. A zero ttl keeps entries until
// they are invalidated.
func NewCachingLoader(loader structure.Loader, c cache.Cache, ttl time.Duration) *CachingLoader {
	return &CachingLoader{loader: loader, cache: c, ttl: ttl}
}

// Load implements structure.Loader.
func (l *CachingLoader) Load(ctx context.Context, doc session.Document) (structure.Structure, error) {
	s, _, err := l.LoadCached(ctx, doc)
	return s, err
}

// LoadCached loads the structure of doc and reports whether it came from
// the cache.
func (l *CachingLoader) LoadCached(ctx context.Context, doc session.Document) (structure.Structure, bool, error) {
	key := cache.Key(string(doc.Kind), doc.Ref)

	if s, ok := l.lookup(ctx, key, doc); ok {
		return s, true, nil
	}

	s, err := l.loader.Load(ctx, doc)
	if err != nil {
		return structure.Structure{}, false, err
	}
	s.Document = doc

	data, err := json.Marshal(s)
	if err != nil {
		return s, false, nil
	}
	if err := l.cache.Set(ctx, key, data, cache.SetOptions{TTL: l.ttl}); err != nil {
		logging.Warn().
			Add(logging.Document(doc)).
			Add(logging.ErrorField(err)).
			Msg("failed to cache structure")
	}
	return s, false, nil
}

func (l *CachingLoader) lookup(ctx context.Context, key string, doc session.Document) (structure.Structure, bool) {
	data, found, err := l.cache.Get(ctx, key)
	if err != nil {
		logging.Warn().
			Add(logging.Document(doc)).
			Add(logging.ErrorField(err)).
			Msg("structure cache unavailable")
		return structure.Structure{}, false
	}
	if !found {
		return structure.Structure{}, false
	}

	var s structure.Structure
	err = json.Unmarshal(data, &s)
	if err == nil {
		err = s.Validate()
	}
	if err == nil && s.Document != doc {
		err = fmt.Errorf("entry describes %s", s.Document)
	}
	if err != nil {
		logging.Warn().
			Add(logging.Document(doc)).
			Add(logging.ErrorField(fmt.Errorf("%w: %w", cache.ErrCorruptEntry, err))).
			Msg("dropping structure cache entry")
		_ = l.cache.Delete(ctx, key)
		return structure.Structure{}, false
	}
	return s, true
}

// Invalidate drops the cached structure of doc. Backends that index by
// document also drop the structures of doc.Ref cached under other kinds.
func (l *CachingLoader) Invalidate(ctx context.Context, doc session.Document) error {
	inv, ok := l.cache.(cache.DocumentInvalidator)
	if !ok {
		return l.cache.Delete(ctx, cache.Key(string(doc.Kind), doc.Ref))
	}

	removed, err := inv.InvalidateDocument(ctx, doc.Ref)
	if err != nil {
		return err
	}
	logging.Debug().
		Add(logging.Document(doc)).
		Add(logging.Int("removed", removed)).
		Msg("structure cache invalidated")
	return nil
}
