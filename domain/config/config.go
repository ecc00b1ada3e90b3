// Package config provides domain models for arrangement studio configuration.
package config

import "time"

// StudioConfig represents the complete configuration.
type StudioConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`

	// Service configures the processing service client.
	Service ServiceConfig `json:"service" yaml:"service"`
	// Resilience contains resilience settings for service calls.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Cache configures the structure metadata cache.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
	// History configures commit history persistence.
	History HistoryConfig `json:"history,omitempty" yaml:"history,omitempty"`
	// Notification configures commit webhooks.
	Notification NotificationConfig `json:"notification,omitempty" yaml:"notification,omitempty"`
	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Telemetry configures tracing.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Workspace configures session behavior.
	Workspace WorkspaceConfig `json:"workspace,omitempty" yaml:"workspace,omitempty"`
}

// ServiceConfig configures the processing service.
type ServiceConfig struct {
	// BaseURL is the service root, e.g. https://files.example.com.
	BaseURL string `json:"base_url" yaml:"base_url"`
	// Token is sent as a bearer token when set.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
	// ClientID is sent in the X-Client-ID header when set.
	ClientID string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	// Endpoints overrides the per-kind endpoint paths.
	Endpoints map[string]EndpointSet `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// EndpointSet configures the endpoints for one document kind.
type EndpointSet struct {
	// Structure is the metadata path; {id} is replaced by the file ID.
	Structure string `json:"structure,omitempty" yaml:"structure,omitempty"`
	// Organize is the commit path.
	Organize string `json:"organize,omitempty" yaml:"organize,omitempty"`
	// IndexBase is the index base the service uses for element positions.
	IndexBase *int `json:"index_base,omitempty" yaml:"index_base,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Timeout bounds a single service call.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Retry configures retry behavior for structure loads.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures circuit breaker behavior.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// Bulkhead configures bulkhead behavior.
	Bulkhead BulkheadConfig `json:"bulkhead,omitempty" yaml:"bulkhead,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Enabled enables retry.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxAttempts is the maximum retry attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// BulkheadConfig configures bulkhead behavior.
type BulkheadConfig struct {
	// Enabled enables bulkhead.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxConcurrent is the maximum concurrent requests.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// CacheConfig configures the structure metadata cache.
type CacheConfig struct {
	// Backend is none, memory, redis, badger or sqlite.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// TTL is how long cached structures stay valid (0 = forever).
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// MaxSize bounds the memory backend (0 = unlimited).
	MaxSize int `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	// Path is the data location for badger and sqlite.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// RedisConfig configures a redis connection.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// HistoryConfig configures commit history persistence.
type HistoryConfig struct {
	// Backend is none, memory, sqlite, postgres or redis.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// DSN is the sqlite path or postgres connection string.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Schema holds the commits table for the postgres backend.
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Redis configures the redis backend.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// NotificationConfig configures commit webhooks.
type NotificationConfig struct {
	// Enabled enables notifications.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Endpoints is the list of webhook endpoints.
	Endpoints []EndpointConfig `json:"endpoints,omitempty" yaml:"endpoints,omitempty"`
}

// EndpointConfig configures a webhook endpoint.
type EndpointConfig struct {
	// Name is a human-readable name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// URL is the webhook URL.
	URL string `json:"url" yaml:"url"`
	// Secret is the HMAC signing secret.
	Secret string `json:"secret,omitempty" yaml:"secret,omitempty"`
	// Headers are additional HTTP headers.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Events limits delivery to these event types. Empty means all.
	Events []string `json:"events,omitempty" yaml:"events,omitempty"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	// Exporter is none, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS to the collector.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the trace sampling ratio in [0, 1].
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// WorkspaceConfig configures session behavior.
type WorkspaceConfig struct {
	// ReloadAfterCommit opens the produced document in a new session.
	ReloadAfterCommit bool `json:"reload_after_commit,omitempty" yaml:"reload_after_commit,omitempty"`
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}

	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration with in-memory backends and tracing off.
func Default() StudioConfig {
	return StudioConfig{
		Name:    "arrange",
		Version: "1",
		Service: ServiceConfig{BaseURL: "http://localhost:8000"},
		Resilience: ResilienceConfig{
			Timeout: Duration(30 * time.Second),
			Retry: RetryConfig{
				Enabled:      true,
				MaxAttempts:  3,
				InitialDelay: Duration(200 * time.Millisecond),
				Multiplier:   2,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:   true,
				Threshold: 5,
				Timeout:   Duration(30 * time.Second),
			},
			Bulkhead: BulkheadConfig{Enabled: true, MaxConcurrent: 8},
		},
		Cache:     CacheConfig{Backend: "memory", TTL: Duration(10 * time.Minute), MaxSize: 256},
		History:   HistoryConfig{Backend: "memory"},
		Logging:   LoggingConfig{Level: "info", Format: "console"},
		Telemetry: TelemetryConfig{Exporter: "none", SampleRate: 1},
	}
}
