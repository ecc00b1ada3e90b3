package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// Ledger provides an append-only record of everything that happened in a
// session.
type Ledger struct {
	sessionID string
	entries   []Entry
	mu        sync.RWMutex
}

// New creates a new ledger for the given session.
func New(sessionID string) *Ledger {
	return &Ledger{
		sessionID: sessionID,
		entries:   make([]Entry, 0),
	}
}

// Append adds an entry to the ledger.
func (l *Ledger) Append(entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.SessionID = l.sessionID
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	l.entries = append(l.entries, entry)
}

// Entries returns a copy of all entries.
func (l *Ledger) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]Entry, len(l.entries))
	copy(entries, l.entries)
	return entries
}

// EntriesByType returns entries filtered by type.
func (l *Ledger) EntriesByType(entryType EntryType) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var filtered []Entry
	for _, e := range l.entries {
		if e.Type == entryType {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// LastEntry returns the most recent entry, or nil if empty.
func (l *Ledger) LastEntry() *Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.entries) == 0 {
		return nil
	}
	entry := l.entries[len(l.entries)-1]
	return &entry
}

// Count returns the number of entries.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// SessionID returns the associated session ID.
func (l *Ledger) SessionID() string {
	return l.sessionID
}

// RecordOpened records the creation of the session.
func (l *Ledger) RecordOpened(doc session.Document, count int) {
	l.Append(NewEntry(EntrySessionOpened, l.sessionID, session.StateLoading, OpenedDetails{
		Document: doc,
		Count:    count,
	}))
}

// RecordTransition records a state transition.
func (l *Ledger) RecordTransition(from, to session.State, reason string) {
	l.Append(NewEntry(EntryStateTransition, l.sessionID, to, TransitionDetails{
		FromState: from,
		ToState:   to,
		Reason:    reason,
	}))
}

// RecordVerb records an applied verb.
func (l *Ledger) RecordVerb(state session.State, cmd session.Command) {
	l.Append(NewEntry(EntryVerbApplied, l.sessionID, state, VerbDetails{Command: cmd}))
}

// RecordRejected records a rejected verb.
func (l *Ledger) RecordRejected(state session.State, cmd session.Command, code session.ErrorCode, err error) {
	details := VerbDetails{Command: cmd, Code: code}
	if err != nil {
		details.Error = err.Error()
	}
	l.Append(NewEntry(EntryVerbRejected, l.sessionID, state, details))
}

// RecordReset records a reset to the loaded arrangement.
func (l *Ledger) RecordReset(state session.State, count int) {
	l.Append(NewEntry(EntryReset, l.sessionID, state, OpenedDetails{Count: count}))
}

// RecordCommitRequested records a commit about to be sent.
func (l *Ledger) RecordCommitRequested(indexes []int) {
	l.Append(NewEntry(EntryCommitRequested, l.sessionID, session.StateCommitting, CommitDetails{
		Indexes: indexes,
	}))
}

// RecordCommitSucceeded records a confirmed commit.
func (l *Ledger) RecordCommitSucceeded(outputID string, duration time.Duration) {
	l.Append(NewEntry(EntryCommitSucceeded, l.sessionID, session.StateCommitted, CommitDetails{
		OutputID: outputID,
		Duration: duration,
	}))
}

// RecordCommitFailed records a failed commit.
func (l *Ledger) RecordCommitFailed(err error, duration time.Duration) {
	l.Append(NewEntry(EntryCommitFailed, l.sessionID, session.StateReady, CommitDetails{
		Error:    err.Error(),
		Duration: duration,
	}))
}

// RecordCommitDiscarded records a response that arrived after the session
// moved on.
func (l *Ledger) RecordCommitDiscarded(state session.State, outputID string) {
	l.Append(NewEntry(EntryCommitDiscarded, l.sessionID, state, CommitDetails{
		OutputID: outputID,
	}))
}
