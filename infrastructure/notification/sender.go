package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/arrange-go/domain/notification"
)

// SenderConfig configures the HTTP sender.
type SenderConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration
	// MaxRetries is the maximum number of attempts.
	MaxRetries int
	// RetryDelay is the initial delay between retries.
	RetryDelay time.Duration
	// CircuitBreakerThreshold is consecutive failures before opening.
	CircuitBreakerThreshold int
	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration
	// UserAgent is the User-Agent header value.
	UserAgent string
}

const defaultUserAgent = "arrange-webhook/1.0"

// DefaultSenderConfig returns sensible default configuration.
func DefaultSenderConfig() SenderConfig {
	return SenderConfig{
		Timeout:                 30 * time.Second,
		MaxRetries:              3,
		RetryDelay:              1 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		UserAgent:               defaultUserAgent,
	}
}

// Sender handles HTTP delivery of webhook notifications. Each endpoint URL
// gets its own circuit breaker.
type Sender struct {
	config   SenderConfig
	client   *http.Client
	signer   *Signer
	breakers map[string]circuitbreaker.CircuitBreaker[struct{}]
	retrier  retry.Retry[struct{}]
	mu       sync.RWMutex
}

// NewSender creates a new HTTP sender.
func NewSender(config SenderConfig) *Sender {
	defaults := DefaultSenderConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = defaults.CircuitBreakerThreshold
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = defaults.CircuitBreakerTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	return &Sender{
		config:   config,
		client:   &http.Client{Timeout: config.Timeout},
		signer:   NewSigner(),
		breakers: make(map[string]circuitbreaker.CircuitBreaker[struct{}]),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:        config.MaxRetries,
			InitialDelay:       config.RetryDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         2.0,
			NonRetryableErrors: []error{notification.ErrEndpointRejected},
		}),
	}
}

// Send sends an event to the specified endpoint.
func (s *Sender) Send(ctx context.Context, endpoint *notification.Endpoint, event *notification.Event) error {
	return s.SendBatch(ctx, endpoint, []*notification.Event{event})
}

// SendBatch posts events as a JSON array to the endpoint. 5xx responses
// and transport failures are retried; 4xx responses are not.
func (s *Sender) SendBatch(ctx context.Context, endpoint *notification.Endpoint, events []*notification.Event) error {
	if endpoint == nil || endpoint.URL == "" {
		return notification.ErrInvalidEndpoint
	}

	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to serialize events: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   s.config.UserAgent,
	}
	for key, value := range endpoint.Headers {
		headers[key] = value
	}
	if endpoint.Secret != "" {
		for key, value := range s.signer.SignedHeaders(payload, endpoint.Secret, time.Now()) {
			headers[key] = value
		}
	}

	breaker := s.getBreaker(endpoint.URL)
	_, err = breaker.Execute(ctx, func(ctx context.Context) (struct{}, error) {
		return s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.post(ctx, endpoint.URL, payload, headers)
		})
	})
	return err
}

func (s *Sender) post(ctx context.Context, url string, payload []byte, headers map[string]string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrInvalidEndpoint, err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", notification.ErrEndpointUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", notification.ErrEndpointUnavailable, resp.StatusCode, body)
	default:
		return fmt.Errorf("%w: status %d: %s", notification.ErrEndpointRejected, resp.StatusCode, body)
	}
}

func (s *Sender) getBreaker(url string) circuitbreaker.CircuitBreaker[struct{}] {
	s.mu.RLock()
	breaker, exists := s.breakers[url]
	s.mu.RUnlock()
	if exists {
		return breaker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if breaker, exists = s.breakers[url]; exists {
		return breaker
	}

	threshold := uint32(s.config.CircuitBreakerThreshold) // #nosec G115 -- validated positive in NewSender
	breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    s.config.CircuitBreakerTimeout,
		Timeout:     s.config.CircuitBreakerTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	})
	s.breakers[url] = breaker
	return breaker
}

// BreakerState returns the circuit breaker state for an endpoint, or
// "unknown" if nothing has been sent to it.
func (s *Sender) BreakerState(url string) string {
	s.mu.RLock()
	breaker, exists := s.breakers[url]
	s.mu.RUnlock()

	if !exists {
		return "unknown"
	}
	return breaker.State().String()
}
