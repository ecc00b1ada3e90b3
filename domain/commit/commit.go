// Package commit provides the domain model for committed arrangements.
package commit

import (
	"context"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
)

// Record is a successful commit.
type Record struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`

	// SessionID is the session that produced the commit.
	SessionID string `json:"session_id"`

	// Document is the source document.
	Document session.Document `json:"document"`

	// Entries is the committed order with transforms.
	Entries []structure.Entry `json:"entries"`

	// Output references the produced document.
	Output structure.Output `json:"output"`

	// CommittedAt is when the service confirmed the commit.
	CommittedAt time.Time `json:"committed_at"`
}

// Indexes returns the committed original indexes in order.
func (r Record) Indexes() []int {
	out := make([]int, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.OriginalIndexReference
	}
	return out
}

// Store defines the interface for commit history persistence.
// Implementations may be in-memory, SQLite, PostgreSQL or Redis.
type Store interface {
	// Save persists a new record.
	Save(ctx context.Context, rec Record) error

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (Record, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, filter ListFilter) ([]Record, error)
}

// ListFilter specifies criteria for listing records.
type ListFilter struct {
	// DocumentRef filters by source document (empty means all).
	DocumentRef string

	// SessionID filters by session (empty means all).
	SessionID string

	// Since filters records committed at or after this time.
	Since time.Time

	// Limit is the maximum number of records to return (0 = no limit).
	Limit int
}

// Matches reports whether rec satisfies the filter, ignoring Limit.
func (f ListFilter) Matches(rec Record) bool {
	if f.DocumentRef != "" && rec.Document.Ref != f.DocumentRef {
		return false
	}
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	if !f.Since.IsZero() && rec.CommittedAt.Before(f.Since) {
		return false
	}
	return true
}
