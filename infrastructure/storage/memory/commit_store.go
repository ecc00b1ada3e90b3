package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
)

// CommitStore is an in-memory implementation of commit.Store. Records are
// stored as JSON so callers never share slices with the store.
type CommitStore struct {
	records map[string][]byte
	mu      sync.RWMutex
}

// NewCommitStore creates a new in-memory commit store.
func NewCommitStore() *CommitStore {
	return &CommitStore{
		records: make(map[string][]byte),
	}
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
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return commit.ErrRecordExists
	}
	s.records[rec.ID] = data
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

	s.mu.RLock()
	data, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return commit.Record{}, commit.ErrRecordNotFound
	}

	var rec commit.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return commit.Record{}, err
	}
	return rec, nil
}

// List returns records matching the filter, newest first.
func (s *CommitStore) List(ctx context.Context, filter commit.ListFilter) ([]commit.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]commit.Record, 0, len(s.records))
	for _, data := range s.records {
		var rec commit.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if filter.Matches(rec) {
			result = append(result, rec)
		}
	}

	slices.SortFunc(result, func(a, b commit.Record) int {
		return b.CommittedAt.Compare(a.CommittedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Len returns the number of stored records.
func (s *CommitStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ commit.Store = (*CommitStore)(nil)
