package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/mattn/go-sqlite3"
)

// CommitStore is a SQLite-backed implementation of commit.Store.
type CommitStore struct {
	db *sql.DB
}

// NewCommitStore opens a database and returns a commit store backed by it.
func NewCommitStore(cfg Config, opts ...Option) (*CommitStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &CommitStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewCommitStoreFromDB creates a commit store from an existing connection.
func NewCommitStoreFromDB(db *sql.DB) (*CommitStore, error) {
	s := &CommitStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CommitStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS commits (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			document_ref TEXT NOT NULL,
			document_kind TEXT NOT NULL,
			data BLOB NOT NULL,
			committed_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_commits_document_ref ON commits(document_ref);
		CREATE INDEX IF NOT EXISTS idx_commits_committed_at ON commits(committed_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO commits (id, session_id, document_ref, document_kind, data, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.Document.Ref, string(rec.Document.Kind), data,
		rec.CommittedAt.UnixMilli(),
	)
	if isConstraintError(err) {
		return commit.ErrRecordExists
	}
	return err
}

// Get retrieves a record by ID.
func (s *CommitStore) Get(ctx context.Context, id string) (commit.Record, error) {
	if err := ctx.Err(); err != nil {
		return commit.Record{}, err
	}
	if id == "" {
		return commit.Record{}, commit.ErrInvalidRecordID
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM commits WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return commit.Record{}, commit.ErrRecordNotFound
	}
	if err != nil {
		return commit.Record{}, err
	}
	return decodeRecord(data)
}

// List returns records matching the filter, newest first.
func (s *CommitStore) List(ctx context.Context, filter commit.ListFilter) ([]commit.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, args := buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]commit.Record, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *CommitStore) Close() error {
	return s.db.Close()
}

func buildListQuery(filter commit.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.DocumentRef != "" {
		conditions = append(conditions, "document_ref = ?")
		args = append(args, filter.DocumentRef)
	}
	if filter.SessionID != "" {
		conditions = append(conditions, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "committed_at >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	var b strings.Builder
	b.WriteString("SELECT data FROM commits")
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY committed_at DESC, rowid DESC")
	if filter.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	return b.String(), args
}

func decodeRecord(data []byte) (commit.Record, error) {
	var rec commit.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return commit.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

func isConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

var _ commit.Store = (*CommitStore)(nil)
