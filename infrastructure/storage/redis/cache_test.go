package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/arrange-go/domain/cache"
)

func TestNewCacheFromClient(t *testing.T) {
	t.Parallel()

	c := NewCacheFromClient(nil, "test:")
	if c == nil {
		t.Fatal("NewCacheFromClient() returned nil")
	}
	if c.keyPrefix != "test:" {
		t.Errorf("keyPrefix = %s, want test:", c.keyPrefix)
	}
	if c.client != nil {
		t.Error("client should be nil")
	}
}

func TestCache_prefixKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		keyPrefix string
		key       string
		expected  string
	}{
		{"default prefix", "arrange:", cache.Key("pdf", "doc-1"), "arrange:cache:structure:pdf:doc-1"},
		{"empty prefix", "", "k", "cache:k"},
		{"custom prefix", "studio:", "data", "studio:cache:data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewCacheFromClient(nil, tt.keyPrefix)
			if got := c.prefixKey(tt.key); got != tt.expected {
				t.Errorf("prefixKey(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestCache_ContextAndKeyChecks(t *testing.T) {
	t.Parallel()

	c := NewCacheFromClient(nil, "test:")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := c.Set(ctx, "k", nil, cache.SetOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
	if err := c.Set(context.Background(), "", nil, cache.SetOptions{}); !errors.Is(err, cache.ErrInvalidKey) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestCache_Stats(t *testing.T) {
	t.Parallel()

	c := NewCacheFromClient(nil, "")
	c.hits.Add(3)
	c.misses.Add(1)

	stats := c.Stats()
	if stats.Hits != 3 || stats.Misses != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	if err := wrapError(cache.ErrConnectionFailed, context.DeadlineExceeded); errors.Is(err, cache.ErrConnectionFailed) {
		t.Error("deadline errors should pass through untagged")
	}
	if err := wrapError(cache.ErrConnectionFailed, errors.New("dial tcp")); !errors.Is(err, cache.ErrConnectionFailed) {
		t.Error("connection errors should be tagged")
	}
}
