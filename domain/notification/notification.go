// Package notification provides domain models for webhook notifications
// about arrangement sessions and commits.
package notification

import (
	"encoding/json"
	"slices"
	"time"
)

// EventType represents the type of notification event.
type EventType string

// Event types for webhook notifications.
const (
	EventSessionOpened   EventType = "session.opened"
	EventSessionBroken   EventType = "session.broken"
	EventStateChanged    EventType = "state.changed"
	EventCommitSucceeded EventType = "commit.succeeded"
	EventCommitFailed    EventType = "commit.failed"
	EventCommitDiscarded EventType = "commit.discarded"
)

// EventTypes lists every event type in publication order.
func EventTypes() []EventType {
	return []EventType{
		EventSessionOpened,
		EventSessionBroken,
		EventStateChanged,
		EventCommitSucceeded,
		EventCommitFailed,
		EventCommitDiscarded,
	}
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return slices.Contains(EventTypes(), t)
}

// Event represents a notification event to be sent to webhooks.
type Event struct {
	// ID is a unique identifier for this event.
	ID string `json:"id"`
	// Type is the event type.
	Type EventType `json:"type"`
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
	// SessionID is the associated arrangement session.
	SessionID string `json:"session_id"`
	// Payload contains the event-specific data.
	Payload json.RawMessage `json:"payload"`
}

// SessionOpenedPayload contains data for session.opened events.
type SessionOpenedPayload struct {
	DocumentRef  string `json:"document_ref"`
	Kind         string `json:"kind"`
	ElementCount int    `json:"element_count"`
}

// SessionBrokenPayload contains data for session.broken events.
type SessionBrokenPayload struct {
	Reason string `json:"reason"`
}

// StateChangedPayload contains data for state.changed events.
type StateChangedPayload struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Verb      string `json:"verb,omitempty"`
}

// CommitSucceededPayload contains data for commit.succeeded events.
type CommitSucceededPayload struct {
	RecordID    string        `json:"record_id"`
	DocumentRef string        `json:"document_ref"`
	Kind        string        `json:"kind"`
	Order       []int         `json:"order"`
	OutputID    string        `json:"output_id"`
	OutputURL   string        `json:"output_url,omitempty"`
	Duration    time.Duration `json:"duration_ms"`
}

// CommitFailedPayload contains data for commit.failed events.
type CommitFailedPayload struct {
	DocumentRef string `json:"document_ref"`
	Kind        string `json:"kind"`
	Code        string `json:"code,omitempty"`
	Error       string `json:"error"`
}

// CommitDiscardedPayload contains data for commit.discarded events, sent
// when a service response arrives after the session was reset.
type CommitDiscardedPayload struct {
	DocumentRef string `json:"document_ref"`
	OutputID    string `json:"output_id,omitempty"`
}

// NewEvent creates a new notification event.
func NewEvent(id string, eventType EventType, sessionID string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        id,
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Payload:   payloadBytes,
	}, nil
}

// DecodePayload unmarshals the event payload into the given struct.
func (e *Event) DecodePayload(v any) error {
	if e.Payload == nil {
		return nil
	}
	return json.Unmarshal(e.Payload, v)
}
