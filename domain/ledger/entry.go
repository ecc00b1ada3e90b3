// Package ledger provides domain models for session audit trails.
package ledger

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// EntryType classifies the type of ledger entry.
type EntryType string

const (
	EntrySessionOpened   EntryType = "session_opened"
	EntryStateTransition EntryType = "state_transition"
	EntryVerbApplied     EntryType = "verb_applied"
	EntryVerbRejected    EntryType = "verb_rejected"
	EntryReset           EntryType = "reset"
	EntryCommitRequested EntryType = "commit_requested"
	EntryCommitSucceeded EntryType = "commit_succeeded"
	EntryCommitFailed    EntryType = "commit_failed"
	EntryCommitDiscarded EntryType = "commit_discarded"
)

// Entry represents a single record in the ledger.
type Entry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      EntryType       `json:"type"`
	SessionID string          `json:"session_id"`
	State     session.State   `json:"state,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
}

// OpenedDetails contains details for session opened entries.
type OpenedDetails struct {
	Document session.Document `json:"document"`
	Count    int              `json:"count"`
}

// TransitionDetails contains details for state transition entries.
type TransitionDetails struct {
	FromState session.State `json:"from_state"`
	ToState   session.State `json:"to_state"`
	Reason    string        `json:"reason,omitempty"`
}

// VerbDetails contains details for verb entries.
type VerbDetails struct {
	Command session.Command   `json:"command"`
	Code    session.ErrorCode `json:"code,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CommitDetails contains details for commit entries.
type CommitDetails struct {
	Indexes  []int         `json:"indexes,omitempty"`
	OutputID string        `json:"output_id,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// NewEntry creates a new ledger entry.
func NewEntry(entryType EntryType, sessionID string, state session.State, details any) Entry {
	var detailsJSON json.RawMessage
	if details != nil {
		detailsJSON, _ = json.Marshal(details)
	}

	return Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      entryType,
		SessionID: sessionID,
		State:     state,
		Details:   detailsJSON,
	}
}

// DecodeDetails unmarshals the entry details into the given struct.
func (e Entry) DecodeDetails(v any) error {
	if e.Details == nil {
		return nil
	}
	return json.Unmarshal(e.Details, v)
}
