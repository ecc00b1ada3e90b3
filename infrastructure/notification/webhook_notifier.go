package notification

import (
	"context"
	"slices"
	"sync"

	"github.com/felixgeelhaar/arrange-go/domain/config"
	"github.com/felixgeelhaar/arrange-go/domain/notification"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
)

// WebhookNotifierConfig configures the webhook notifier.
type WebhookNotifierConfig struct {
	// Endpoints are the webhook endpoints to notify.
	Endpoints []*notification.Endpoint
	// EnableBatching enables event batching.
	EnableBatching bool
	// BatcherConfig configures the batcher when batching is enabled.
	BatcherConfig BatcherConfig
	// SenderConfig configures the HTTP sender.
	SenderConfig SenderConfig
	// GlobalFilter is applied to all events before endpoint filters.
	GlobalFilter notification.EventFilter
}

// DefaultWebhookNotifierConfig returns sensible defaults.
func DefaultWebhookNotifierConfig() WebhookNotifierConfig {
	return WebhookNotifierConfig{
		EnableBatching: true,
		BatcherConfig:  DefaultBatcherConfig(),
		SenderConfig:   DefaultSenderConfig(),
	}
}

// ConfigFromNotification builds a notifier configuration from the studio
// notification section. Every configured endpoint starts enabled.
func ConfigFromNotification(cfg config.NotificationConfig) WebhookNotifierConfig {
	out := DefaultWebhookNotifierConfig()
	for _, ep := range cfg.Endpoints {
		endpoint := &notification.Endpoint{
			Name:    ep.Name,
			URL:     ep.URL,
			Secret:  ep.Secret,
			Headers: ep.Headers,
			Enabled: true,
		}
		if len(ep.Events) > 0 {
			types := make([]notification.EventType, len(ep.Events))
			for i, name := range ep.Events {
				types[i] = notification.EventType(name)
			}
			endpoint.Filter = notification.FilterByType(types...)
		}
		out.Endpoints = append(out.Endpoints, endpoint)
	}
	return out
}

// WebhookNotifier sends notifications to configured webhook endpoints.
type WebhookNotifier struct {
	config  WebhookNotifierConfig
	sender  *Sender
	batcher *Batcher

	mu        sync.RWMutex
	endpoints []*notification.Endpoint
	closed    bool
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(cfg WebhookNotifierConfig) *WebhookNotifier {
	notifier := &WebhookNotifier{
		config:    cfg,
		endpoints: slices.Clone(cfg.Endpoints),
		sender:    NewSender(cfg.SenderConfig),
	}

	if cfg.EnableBatching {
		batcherConfig := cfg.BatcherConfig
		batcherConfig.OnBatch = notifier.sendToAllEndpoints
		notifier.batcher = NewBatcher(batcherConfig)
	}

	return notifier
}

// Notify sends a single event to all configured endpoints.
func (w *WebhookNotifier) Notify(ctx context.Context, event *notification.Event) error {
	return w.NotifyBatch(ctx, []*notification.Event{event})
}

// NotifyBatch sends multiple events to all configured endpoints. Events
// rejected by the global filter are dropped silently.
func (w *WebhookNotifier) NotifyBatch(ctx context.Context, events []*notification.Event) error {
	if w.isClosed() {
		return notification.ErrNotifierClosed
	}

	filtered := make([]*notification.Event, 0, len(events))
	for _, event := range events {
		if w.config.GlobalFilter == nil || w.config.GlobalFilter(event) {
			filtered = append(filtered, event)
		}
	}
	if len(filtered) == 0 {
		return nil
	}

	if w.batcher != nil {
		for _, event := range filtered {
			if err := w.batcher.Add(ctx, event); err != nil {
				return err
			}
		}
		return nil
	}

	return w.sendToAllEndpoints(ctx, filtered)
}

// Close flushes pending events and closes the notifier.
func (w *WebhookNotifier) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	if w.batcher != nil {
		return w.batcher.Close(context.Background())
	}
	return nil
}

// Flush immediately sends any pending batched events.
func (w *WebhookNotifier) Flush(ctx context.Context) error {
	if w.batcher != nil {
		return w.batcher.Flush(ctx)
	}
	return nil
}

// AddEndpoint adds a new endpoint to the notifier.
func (w *WebhookNotifier) AddEndpoint(endpoint *notification.Endpoint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endpoints = append(w.endpoints, endpoint)
}

// RemoveEndpoint removes an endpoint by URL.
func (w *WebhookNotifier) RemoveEndpoint(url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endpoints = slices.DeleteFunc(w.endpoints, func(ep *notification.Endpoint) bool {
		return ep.URL == url
	})
}

// Endpoints returns a snapshot of the configured endpoints.
func (w *WebhookNotifier) Endpoints() []*notification.Endpoint {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.endpoints)
}

func (w *WebhookNotifier) isClosed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// sendToAllEndpoints delivers events to every enabled endpoint concurrently
// and returns the first delivery error.
func (w *WebhookNotifier) sendToAllEndpoints(ctx context.Context, events []*notification.Event) error {
	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex

	for _, endpoint := range w.Endpoints() {
		if !endpoint.Enabled {
			continue
		}

		endpointEvents := events
		if endpoint.Filter != nil {
			endpointEvents = make([]*notification.Event, 0, len(events))
			for _, event := range events {
				if endpoint.Filter(event) {
					endpointEvents = append(endpointEvents, event)
				}
			}
		}
		if len(endpointEvents) == 0 {
			continue
		}

		wg.Add(1)
		go func(ep *notification.Endpoint, evts []*notification.Event) {
			defer wg.Done()

			if err := w.sender.SendBatch(ctx, ep, evts); err != nil {
				logging.Error().
					Add(logging.Component("webhook")).
					Add(logging.Str("endpoint", ep.URL)).
					Add(logging.Str("endpoint_name", ep.Name)).
					Add(logging.Count(len(evts))).
					Add(logging.ErrorField(err)).
					Msg("webhook delivery failed")

				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
				return
			}

			logging.Debug().
				Add(logging.Component("webhook")).
				Add(logging.Str("endpoint", ep.URL)).
				Add(logging.Count(len(evts))).
				Msg("webhook delivered")
		}(endpoint, endpointEvents)
	}

	wg.Wait()
	return firstErr
}

var _ notification.Notifier = (*WebhookNotifier)(nil)
