package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// CommitStore is a PostgreSQL-backed implementation of commit.Store.
type CommitStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewCommitStore creates a new PostgreSQL commit store.
func NewCommitStore(pool *pgxpool.Pool, schema string) *CommitStore {
	if schema == "" {
		schema = "public"
	}
	return &CommitStore{
		pool:   pool,
		schema: schema,
	}
}

func (s *CommitStore) tableName() string {
	return fmt.Sprintf("%s.arrange_commits", s.schema)
}

// Migrate creates the arrange_commits table and its indexes.
func (s *CommitStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			document_ref TEXT NOT NULL,
			document_kind TEXT NOT NULL,
			record JSONB NOT NULL,
			committed_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS arrange_commits_document_ref_idx ON %[1]s (document_ref);
		CREATE INDEX IF NOT EXISTS arrange_commits_committed_at_idx ON %[1]s (committed_at DESC);
	`, s.tableName())

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Save persists a new record.
func (s *CommitStore) Save(ctx context.Context, rec commit.Record) error {
	if rec.ID == "" {
		return commit.ErrInvalidRecordID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, session_id, document_ref, document_kind, record, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.tableName())

	_, err = s.pool.Exec(ctx, query,
		rec.ID,
		rec.SessionID,
		rec.Document.Ref,
		string(rec.Document.Kind),
		data,
		rec.CommittedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return commit.ErrRecordExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *CommitStore) Get(ctx context.Context, id string) (commit.Record, error) {
	if id == "" {
		return commit.Record{}, commit.ErrInvalidRecordID
	}

	query := fmt.Sprintf(`SELECT record FROM %s WHERE id = $1`, s.tableName())

	var data []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return commit.Record{}, commit.ErrRecordNotFound
		}
		return commit.Record{}, s.wrapError(err)
	}
	return decodeRecord(data)
}

// List returns records matching the filter, newest first.
func (s *CommitStore) List(ctx context.Context, filter commit.ListFilter) ([]commit.Record, error) {
	query, args := s.buildListQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	records := make([]commit.Record, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, s.wrapError(err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapError(err)
	}
	return records, nil
}

func (s *CommitStore) buildListQuery(filter commit.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.DocumentRef != "" {
		args = append(args, filter.DocumentRef)
		conditions = append(conditions, fmt.Sprintf("document_ref = $%d", len(args)))
	}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("committed_at >= $%d", len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT record FROM %s", s.tableName())
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY committed_at DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}

// wrapError wraps database errors with domain errors.
func (s *CommitStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(commit.ErrConnectionFailed, err)
}

func decodeRecord(data []byte) (commit.Record, error) {
	var rec commit.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return commit.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

var _ commit.Store = (*CommitStore)(nil)
