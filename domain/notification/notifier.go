package notification

import "context"

// Notifier defines the interface for sending notifications.
type Notifier interface {
	// Notify sends a notification event.
	Notify(ctx context.Context, event *Event) error

	// NotifyBatch sends multiple notification events.
	NotifyBatch(ctx context.Context, events []*Event) error

	// Close releases any resources held by the notifier.
	Close() error
}

// NopNotifier discards every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, *Event) error { return nil }

// NotifyBatch implements Notifier.
func (NopNotifier) NotifyBatch(context.Context, []*Event) error { return nil }

// Close implements Notifier.
func (NopNotifier) Close() error { return nil }

// EventFilter defines a function that filters events.
// Returns true if the event should be sent, false to skip it.
type EventFilter func(event *Event) bool

// FilterByType returns a filter that only allows specified event types.
func FilterByType(types ...EventType) EventFilter {
	typeSet := make(map[EventType]bool)
	for _, t := range types {
		typeSet[t] = true
	}
	return func(event *Event) bool {
		return typeSet[event.Type]
	}
}

// FilterBySession returns a filter that only allows events for the given
// sessions.
func FilterBySession(sessionIDs ...string) EventFilter {
	idSet := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		idSet[id] = true
	}
	return func(event *Event) bool {
		return idSet[event.SessionID]
	}
}

// CombineFilters returns a filter that requires all provided filters to pass.
func CombineFilters(filters ...EventFilter) EventFilter {
	return func(event *Event) bool {
		for _, f := range filters {
			if !f(event) {
				return false
			}
		}
		return true
	}
}

// Endpoint represents a webhook endpoint configuration.
type Endpoint struct {
	// URL is the webhook endpoint URL.
	URL string `json:"url"`
	// Secret is the shared secret for HMAC signing.
	Secret string `json:"secret,omitempty"`
	// Headers are additional HTTP headers to include.
	Headers map[string]string `json:"headers,omitempty"`
	// Filter is an optional event filter for this endpoint.
	Filter EventFilter `json:"-"`
	// Enabled indicates if this endpoint is active.
	Enabled bool `json:"enabled"`
	// Name is an optional friendly name for the endpoint.
	Name string `json:"name,omitempty"`
}
