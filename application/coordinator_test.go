package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/commit"
	"github.com/felixgeelhaar/arrange-go/domain/ledger"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
	"github.com/felixgeelhaar/arrange-go/infrastructure/storage/memory"
)

func newTestCoordinator(t *testing.T, cfg CoordinatorConfig) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(cfg)
	if err != nil {
		t.Fatalf("NewCoordinator() error = %v", err)
	}
	return c
}

func TestNewCoordinator_RequiresOrganizer(t *testing.T) {
	t.Parallel()
	if _, err := NewCoordinator(CoordinatorConfig{}); err == nil {
		t.Fatal("NewCoordinator() error = nil, want error")
	}
}

func TestCoordinator_EmptyDocumentNeverReachesService(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name  string
		count int
	}{
		{name: "zero elements", count: 0},
		{name: "all deleted", count: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			org := &fakeOrganizer{}
			c := newTestCoordinator(t, CoordinatorConfig{Organizer: org})
			s := newTestSession(t, pdf("a.pdf"), tt.count)

			for i := 1; i <= tt.count; i++ {
				_ = s.Toggle(ctx, i)
			}
			if tt.count > 0 {
				if err := s.DeleteSelected(ctx, true); err != nil {
					t.Fatalf("DeleteSelected() error = %v", err)
				}
			}

			_, err := c.Commit(ctx, s)
			if !errors.Is(err, session.ErrEmptyDocument) {
				t.Fatalf("Commit() error = %v, want ErrEmptyDocument", err)
			}
			if n := len(org.Requests()); n != 0 {
				t.Errorf("organizer called %d times, want 0", n)
			}
			if s.State() != session.StateReady {
				t.Errorf("State() = %s, want ready", s.State())
			}
		})
	}
}

func TestCoordinator_CommitRecordsHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	history := memory.NewCommitStore()
	n := &recordingNotifier{}
	rec := &countingRecorder{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	org := &fakeOrganizer{output: structure.Output{ID: "out-7", URL: "https://files/out-7"}}
	c := newTestCoordinator(t, CoordinatorConfig{
		Organizer: org,
		History:   history,
		Notifier:  n,
		Recorder:  rec,
		Now:       func() time.Time { return at },
	})

	s := newTestSession(t, pdf("report.pdf"), 3)
	_ = s.DragReorder(ctx, 2, 0)

	res, err := c.Commit(ctx, s)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	got, err := history.Get(ctx, res.Record.ID)
	if err != nil {
		t.Fatalf("history.Get() error = %v", err)
	}
	if got.SessionID != s.ID() || got.Output.ID != "out-7" || !got.CommittedAt.Equal(at) {
		t.Errorf("record = %+v", got)
	}
	if idx := got.Indexes(); len(idx) != 3 || idx[0] != 3 || idx[1] != 1 || idx[2] != 2 {
		t.Errorf("record indexes = %v, want [3 1 2]", idx)
	}

	if rec.commits != 1 {
		t.Errorf("recorded commits = %d, want 1", rec.commits)
	}
	if !n.Has(notification.EventCommitSucceeded) {
		t.Errorf("events = %v, want commit.succeeded", n.Types())
	}
	if len(s.Ledger().EntriesByType(ledger.EntryCommitSucceeded)) != 1 {
		t.Error("ledger missing commit_succeeded entry")
	}
	if err := s.Toggle(ctx, 1); !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("Toggle() after commit error = %v, want ErrSessionClosed", err)
	}
}

func TestCoordinator_FailureKeepsArrangement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	n := &recordingNotifier{}
	org := &fakeOrganizer{err: &structure.ServiceError{Status: 500, Message: "converter crashed"}}
	c := newTestCoordinator(t, CoordinatorConfig{Organizer: org, Notifier: n})

	s := newTestSession(t, pdf("a.pdf"), 3)
	_ = s.DragReorder(ctx, 0, 2)
	_ = s.Toggle(ctx, 2)

	_, err := c.Commit(ctx, s)
	if !session.IsExternal(err) {
		t.Fatalf("Commit() error = %v, want external service error", err)
	}
	var svcErr *structure.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Message != "converter crashed" {
		t.Errorf("Commit() error = %v, want service message", err)
	}

	if s.State() != session.StateReady {
		t.Errorf("State() = %s, want ready", s.State())
	}
	assertOrder(t, s, 2, 3, 1)
	if sel := s.Selected(); len(sel) != 1 || sel[0] != 2 {
		t.Errorf("Selected() = %v, want [2]", sel)
	}

	var payload notification.CommitFailedPayload
	for _, e := range n.events {
		if e.Type == notification.EventCommitFailed {
			if err := e.DecodePayload(&payload); err != nil {
				t.Fatalf("DecodePayload() error = %v", err)
			}
		}
	}
	if payload.Code != "500" {
		t.Errorf("failed payload code = %q, want 500", payload.Code)
	}

	org.mu.Lock()
	org.err = nil
	org.output = structure.Output{ID: "retry"}
	org.mu.Unlock()

	res, err := c.Commit(ctx, s)
	if err != nil {
		t.Fatalf("retry Commit() error = %v", err)
	}
	if idx := res.Record.Indexes(); len(idx) != 3 || idx[0] != 2 {
		t.Errorf("retry indexes = %v, want [2 3 1]", idx)
	}
}

func TestCoordinator_ResetDiscardsResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	history := memory.NewCommitStore()
	rec := &countingRecorder{}
	org := &fakeOrganizer{
		output:  structure.Output{ID: "late"},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	c := newTestCoordinator(t, CoordinatorConfig{Organizer: org, History: history, Recorder: rec})
	s := newTestSession(t, pdf("a.pdf"), 3)
	_ = s.DragReorder(ctx, 0, 1)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Commit(ctx, s)
		errc <- err
	}()
	<-org.started

	if s.State() != session.StateCommitting {
		t.Fatalf("State() = %s, want committing", s.State())
	}
	if err := s.Toggle(ctx, 1); !session.HasCode(err, session.CodeBusy) {
		t.Errorf("Toggle() during commit error = %v, want busy", err)
	}
	if _, err := c.Commit(ctx, s); !session.HasCode(err, session.CodeCommitInFlight) {
		t.Errorf("second Commit() error = %v, want commit_in_flight", err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset() during commit error = %v", err)
	}
	close(org.gate)

	if err := <-errc; !errors.Is(err, session.ErrStaleResponse) {
		t.Fatalf("Commit() error = %v, want ErrStaleResponse", err)
	}
	if s.State() != session.StateReady {
		t.Errorf("State() = %s, want ready", s.State())
	}
	assertOrder(t, s, 1, 2, 3)

	records, err := history.List(ctx, commit.ListFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("history has %d records, want 0", len(records))
	}
	if len(rec.discarded) != 1 || rec.discarded[0] != "commit" {
		t.Errorf("discarded = %v, want [commit]", rec.discarded)
	}
	if len(s.Ledger().EntriesByType(ledger.EntryCommitDiscarded)) != 1 {
		t.Error("ledger missing commit_discarded entry")
	}
}

func TestCoordinator_CloseDiscardsResponse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	org := &fakeOrganizer{
		output:  structure.Output{ID: "late"},
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	c := newTestCoordinator(t, CoordinatorConfig{Organizer: org})
	s := newTestSession(t, pdf("a.pdf"), 2)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Commit(ctx, s)
		errc <- err
	}()
	<-org.started

	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	close(org.gate)

	if err := <-errc; !errors.Is(err, session.ErrStaleResponse) {
		t.Fatalf("Commit() error = %v, want ErrStaleResponse", err)
	}
	if s.State() != session.StateClosed {
		t.Errorf("State() = %s, want closed", s.State())
	}
}

func TestCoordinator_SheetEntriesOmitRotation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	org := &fakeOrganizer{output: structure.Output{ID: "book-2"}}
	c := newTestCoordinator(t, CoordinatorConfig{Organizer: org})
	s := newTestSession(t, session.Document{Ref: "book.xlsx", Kind: session.KindXLSX}, 2)
	_ = s.DragReorder(ctx, 1, 0)

	if _, err := c.Commit(ctx, s); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	req := org.Requests()[0]
	for _, e := range req.Entries {
		if e.RotationDegrees != nil {
			t.Errorf("entry %d carries rotation %d", e.OriginalIndexReference, *e.RotationDegrees)
		}
	}
	if idx := req.Indexes(); idx[0] != 2 || idx[1] != 1 {
		t.Errorf("indexes = %v, want [2 1]", idx)
	}
}
