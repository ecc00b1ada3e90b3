package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if errs := NewValidator().Validate(&cfg); errs.HasErrors() {
		t.Errorf("Default() validation errors: %v", errs)
	}
}

func TestValidator(t *testing.T) {
	t.Parallel()

	two := 2
	tests := []struct {
		name     string
		mutate   func(*StudioConfig)
		wantPath string
	}{
		{name: "missing name", mutate: func(c *StudioConfig) { c.Name = "" }, wantPath: "name"},
		{name: "bad url", mutate: func(c *StudioConfig) { c.Service.BaseURL = "files" }, wantPath: "service.base_url"},
		{
			name:     "bad index base",
			mutate:   func(c *StudioConfig) { c.Service.Endpoints = map[string]EndpointSet{"pdf": {IndexBase: &two}} },
			wantPath: "service.endpoints.pdf.index_base",
		},
		{
			name:     "unknown kind",
			mutate:   func(c *StudioConfig) { c.Service.Endpoints = map[string]EndpointSet{"pptx": {}} },
			wantPath: "service.endpoints.pptx",
		},
		{
			name:     "structure without id",
			mutate:   func(c *StudioConfig) { c.Service.Endpoints = map[string]EndpointSet{"xlsx": {Structure: "/sheets/"}} },
			wantPath: "service.endpoints.xlsx.structure",
		},
		{name: "retry attempts", mutate: func(c *StudioConfig) { c.Resilience.Retry.MaxAttempts = 0 }, wantPath: "resilience.retry.max_attempts"},
		{name: "bulkhead", mutate: func(c *StudioConfig) { c.Resilience.Bulkhead.MaxConcurrent = 0 }, wantPath: "resilience.bulkhead.max_concurrent"},
		{name: "redis cache addr", mutate: func(c *StudioConfig) { c.Cache.Backend = "redis" }, wantPath: "cache.redis.addr"},
		{name: "badger path", mutate: func(c *StudioConfig) { c.Cache.Backend = "badger" }, wantPath: "cache.path"},
		{name: "unknown cache", mutate: func(c *StudioConfig) { c.Cache.Backend = "memcached" }, wantPath: "cache.backend"},
		{name: "postgres dsn", mutate: func(c *StudioConfig) { c.History.Backend = "postgres" }, wantPath: "history.dsn"},
		{name: "webhook url", mutate: func(c *StudioConfig) {
			c.Notification = NotificationConfig{Enabled: true, Endpoints: []EndpointConfig{{Name: "x"}}}
		}, wantPath: "notification.endpoints[0].url"},
		{name: "webhook events", mutate: func(c *StudioConfig) {
			c.Notification = NotificationConfig{Enabled: true, Endpoints: []EndpointConfig{
				{URL: "https://hooks.example", Events: []string{"commit.succeeded", "run.completed"}},
			}}
		}, wantPath: "notification.endpoints[0].events"},
		{name: "log level", mutate: func(c *StudioConfig) { c.Logging.Level = "verbose" }, wantPath: "logging.level"},
		{name: "otlp endpoint", mutate: func(c *StudioConfig) { c.Telemetry.Exporter = "otlp" }, wantPath: "telemetry.endpoint"},
		{name: "sample rate", mutate: func(c *StudioConfig) { c.Telemetry.SampleRate = 2 }, wantPath: "telemetry.sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(&cfg)
			errs := NewValidator().Validate(&cfg)
			for _, e := range errs {
				if e.Path == tt.wantPath {
					return
				}
			}
			t.Errorf("expected error at %s, got %v", tt.wantPath, errs)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Parallel()

	if got := (ValidationErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
	one := ValidationErrors{{Path: "name", Message: "name is required"}}
	if got := one.Error(); got != "name: name is required" {
		t.Errorf("single Error() = %q", got)
	}
	two := append(one, ValidationError{Message: "other"})
	if got := two.Error(); !strings.HasPrefix(got, "2 validation errors") {
		t.Errorf("multi Error() = %q", got)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	var holder struct {
		Timeout Duration `json:"timeout" yaml:"timeout"`
	}

	if err := json.Unmarshal([]byte(`{"timeout":"1m30s"}`), &holder); err != nil {
		t.Fatalf("json: %v", err)
	}
	if holder.Timeout.Duration() != 90*time.Second {
		t.Errorf("json timeout = %v", holder.Timeout.Duration())
	}

	if err := yaml.Unmarshal([]byte("timeout: 250ms\n"), &holder); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if holder.Timeout.Duration() != 250*time.Millisecond {
		t.Errorf("yaml timeout = %v", holder.Timeout.Duration())
	}

	out, err := json.Marshal(Duration(2 * time.Second))
	if err != nil || string(out) != `"2s"` {
		t.Errorf("MarshalJSON() = %s, %v", out, err)
	}

	if err := json.Unmarshal([]byte(`{"timeout":"soon"}`), &holder); err == nil {
		t.Error("expected error for invalid duration")
	}
}
