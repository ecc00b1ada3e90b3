package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/arrange-go/domain/notification"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates studio configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *StudioConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateService(config)
	v.validateResilience(config)
	v.validateCache(config)
	v.validateHistory(config)
	v.validateNotification(config)
	v.validateLogging(config)
	v.validateTelemetry(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *StudioConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateService(config *StudioConfig) {
	if config.Service.BaseURL == "" {
		v.addError("service.base_url", "base_url is required")
	} else if u, err := url.Parse(config.Service.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		v.addError("service.base_url", fmt.Sprintf("invalid URL: %s", config.Service.BaseURL))
	}

	validKinds := map[string]bool{"pdf": true, "docx": true, "xlsx": true}
	for kind, set := range config.Service.Endpoints {
		path := "service.endpoints." + kind
		if !validKinds[kind] {
			v.addError(path, fmt.Sprintf("unknown document kind: %s", kind))
			continue
		}
		if set.IndexBase != nil && *set.IndexBase != 0 && *set.IndexBase != 1 {
			v.addError(path+".index_base", "index_base must be 0 or 1")
		}
		if set.Structure != "" && !strings.Contains(set.Structure, "{id}") {
			v.addError(path+".structure", "structure path must contain {id}")
		}
	}
}

func (v *Validator) validateResilience(config *StudioConfig) {
	if config.Resilience.Timeout < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}

	if config.Resilience.Retry.Enabled {
		if config.Resilience.Retry.MaxAttempts <= 0 {
			v.addError("resilience.retry.max_attempts", "max_attempts must be positive when enabled")
		}
		if config.Resilience.Retry.Multiplier < 1 {
			v.addError("resilience.retry.multiplier", "multiplier must be >= 1")
		}
	}

	if config.Resilience.CircuitBreaker.Enabled {
		if config.Resilience.CircuitBreaker.Threshold <= 0 {
			v.addError("resilience.circuit_breaker.threshold", "threshold must be positive when enabled")
		}
	}

	if config.Resilience.Bulkhead.Enabled {
		if config.Resilience.Bulkhead.MaxConcurrent <= 0 {
			v.addError("resilience.bulkhead.max_concurrent", "max_concurrent must be positive when enabled")
		}
	}
}

func (v *Validator) validateCache(config *StudioConfig) {
	switch config.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if config.Cache.Redis.Addr == "" {
			v.addError("cache.redis.addr", "addr is required for redis backend")
		}
	case "badger", "sqlite":
		if config.Cache.Path == "" {
			v.addError("cache.path", fmt.Sprintf("path is required for %s backend", config.Cache.Backend))
		}
	default:
		v.addError("cache.backend", fmt.Sprintf("unknown backend: %s", config.Cache.Backend))
	}

	if config.Cache.TTL < 0 {
		v.addError("cache.ttl", "ttl must be non-negative")
	}
	if config.Cache.MaxSize < 0 {
		v.addError("cache.max_size", "max_size must be non-negative")
	}
}

func (v *Validator) validateHistory(config *StudioConfig) {
	switch config.History.Backend {
	case "", "none", "memory":
	case "sqlite", "postgres":
		if config.History.DSN == "" {
			v.addError("history.dsn", fmt.Sprintf("dsn is required for %s backend", config.History.Backend))
		}
	case "redis":
		if config.History.Redis.Addr == "" {
			v.addError("history.redis.addr", "addr is required for redis backend")
		}
	default:
		v.addError("history.backend", fmt.Sprintf("unknown backend: %s", config.History.Backend))
	}
}

func (v *Validator) validateNotification(config *StudioConfig) {
	if !config.Notification.Enabled {
		return
	}

	if len(config.Notification.Endpoints) == 0 {
		v.addError("notification.endpoints", "at least one endpoint is required when enabled")
	}
	for i, ep := range config.Notification.Endpoints {
		if ep.URL == "" {
			v.addError(fmt.Sprintf("notification.endpoints[%d].url", i), "URL is required")
		}
		for _, name := range ep.Events {
			if !notification.EventType(name).Valid() {
				v.addError(fmt.Sprintf("notification.endpoints[%d].events", i),
					fmt.Sprintf("unknown event type: %s", name))
			}
		}
	}
}

func (v *Validator) validateLogging(config *StudioConfig) {
	if config.Logging.Level != "" {
		validLevels := map[string]bool{
			"trace": true, "debug": true, "info": true, "warn": true, "error": true,
		}
		if !validLevels[config.Logging.Level] {
			v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
		}
	}
	if config.Logging.Format != "" && config.Logging.Format != "json" && config.Logging.Format != "console" {
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateTelemetry(config *StudioConfig) {
	switch config.Telemetry.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if config.Telemetry.Endpoint == "" {
			v.addError("telemetry.endpoint", "endpoint is required for otlp exporter")
		}
	default:
		v.addError("telemetry.exporter", fmt.Sprintf("unknown exporter: %s", config.Telemetry.Exporter))
	}
	if config.Telemetry.SampleRate < 0 || config.Telemetry.SampleRate > 1 {
		v.addError("telemetry.sample_rate", "sample_rate must be between 0 and 1")
	}
}
