package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/redis/go-redis/v9"
)

// CommitStore is a Redis-backed implementation of commit.Store. Each
// record is a JSON string key; a sorted set scored by commit time keeps
// the newest-first index.
type CommitStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewCommitStore connects to Redis and returns a commit store.
func NewCommitStore(cfg Config, opts ...ConfigOption) (*CommitStore, error) {
	client, cfg, err := connect(cfg, opts, commit.ErrConnectionFailed)
	if err != nil {
		return nil, err
	}
	return NewCommitStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewCommitStoreFromClient creates a commit store from an existing client.
func NewCommitStoreFromClient(client *redis.Client, keyPrefix string) *CommitStore {
	return &CommitStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *CommitStore) recordKey(id string) string {
	return s.keyPrefix + "commit:" + id
}

func (s *CommitStore) indexKey() string {
	return s.keyPrefix + "commits"
}

// Save persists a new record.
func (s *CommitStore) Save(ctx context.Context, rec commit.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" {
		return commit.ErrInvalidRecordID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	ok, err := s.client.SetNX(ctx, s.recordKey(rec.ID), data, 0).Result()
	if err != nil {
		return wrapError(commit.ErrConnectionFailed, err)
	}
	if !ok {
		return commit.ErrRecordExists
	}

	err = s.client.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(rec.CommittedAt.UnixMilli()),
		Member: rec.ID,
	}).Err()
	if err != nil {
		return wrapError(commit.ErrConnectionFailed, err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *CommitStore) Get(ctx context.Context, id string) (commit.Record, error) {
	if err := ctx.Err(); err != nil {
		return commit.Record{}, err
	}
	if id == "" {
		return commit.Record{}, commit.ErrInvalidRecordID
	}

	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return commit.Record{}, commit.ErrRecordNotFound
		}
		return commit.Record{}, wrapError(commit.ErrConnectionFailed, err)
	}
	return decodeRecord(data)
}

// List returns records matching the filter, newest first.
func (s *CommitStore) List(ctx context.Context, filter commit.ListFilter) ([]commit.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rangeBy := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !filter.Since.IsZero() {
		rangeBy.Min = fmt.Sprintf("%d", filter.Since.UnixMilli())
	}
	ids, err := s.client.ZRevRangeByScore(ctx, s.indexKey(), rangeBy).Result()
	if err != nil {
		return nil, wrapError(commit.ErrConnectionFailed, err)
	}
	if len(ids) == 0 {
		return []commit.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, wrapError(commit.ErrConnectionFailed, err)
	}

	return filterRecords(values, filter), nil
}

// Close closes the Redis connection.
func (s *CommitStore) Close() error {
	return s.client.Close()
}

func decodeRecord(data []byte) (commit.Record, error) {
	var rec commit.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return commit.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// filterRecords decodes MGET values in order, skipping missing or
// undecodable entries, and applies the filter and limit.
func filterRecords(values []any, filter commit.ListFilter) []commit.Record {
	out := make([]commit.Record, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		rec, err := decodeRecord([]byte(str))
		if err != nil || !filter.Matches(rec) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

var _ commit.Store = (*CommitStore)(nil)
