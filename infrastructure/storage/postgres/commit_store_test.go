package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
)

func TestNewCommitStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		schema   string
		expected string
	}{
		{"default schema", "public", "public.arrange_commits"},
		{"custom schema", "history", "history.arrange_commits"},
		{"empty schema defaults to public", "", "public.arrange_commits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewCommitStore(nil, tt.schema)
			if got := store.tableName(); got != tt.expected {
				t.Errorf("tableName() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCommitStore_InvalidID(t *testing.T) {
	t.Parallel()

	store := NewCommitStore(nil, "")
	ctx := context.Background()

	if err := store.Save(ctx, commit.Record{}); !errors.Is(err, commit.ErrInvalidRecordID) {
		t.Errorf("Save() error = %v, want ErrInvalidRecordID", err)
	}
	if _, err := store.Get(ctx, ""); !errors.Is(err, commit.ErrInvalidRecordID) {
		t.Errorf("Get() error = %v, want ErrInvalidRecordID", err)
	}
}

func TestCommitStore_buildListQuery(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   commit.ListFilter
		query    string
		argCount int
	}{
		{
			name:   "no filter",
			filter: commit.ListFilter{},
			query:  "SELECT record FROM public.arrange_commits ORDER BY committed_at DESC",
		},
		{
			name:     "document and limit",
			filter:   commit.ListFilter{DocumentRef: "doc", Limit: 5},
			query:    "SELECT record FROM public.arrange_commits WHERE document_ref = $1 ORDER BY committed_at DESC LIMIT $2",
			argCount: 2,
		},
		{
			name:     "all conditions",
			filter:   commit.ListFilter{DocumentRef: "doc", SessionID: "s1", Since: since, Limit: 1},
			query:    "SELECT record FROM public.arrange_commits WHERE document_ref = $1 AND session_id = $2 AND committed_at >= $3 ORDER BY committed_at DESC LIMIT $4",
			argCount: 4,
		},
	}

	store := NewCommitStore(nil, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			query, args := store.buildListQuery(tt.filter)
			if query != tt.query {
				t.Errorf("query = %q, want %q", query, tt.query)
			}
			if len(args) != tt.argCount {
				t.Errorf("len(args) = %d, want %d", len(args), tt.argCount)
			}
		})
	}
}

func TestCommitStore_wrapError(t *testing.T) {
	t.Parallel()

	store := NewCommitStore(nil, "")

	if store.wrapError(nil) != nil {
		t.Error("wrapError(nil) should be nil")
	}
	if err := store.wrapError(context.DeadlineExceeded); !errors.Is(err, context.DeadlineExceeded) || errors.Is(err, commit.ErrConnectionFailed) {
		t.Errorf("wrapError(deadline) = %v", err)
	}
	err := store.wrapError(errors.New("conn reset"))
	if !errors.Is(err, commit.ErrConnectionFailed) || !strings.Contains(err.Error(), "conn reset") {
		t.Errorf("wrapError() = %v", err)
	}
}
