package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/arrange-go/domain/config"
)

const sampleYAML = `
name: studio
version: "1"
service:
  base_url: https://files.example.com
  client_id: desk-7
  endpoints:
    docx:
      structure: /api/docx/{id}/pages
      index_base: 0
resilience:
  timeout: 5s
  retry:
    enabled: true
    max_attempts: 4
    initial_delay: 50ms
    multiplier: 2
cache:
  backend: sqlite
  path: /tmp/arrange-cache.db
  ttl: 1m
history:
  backend: postgres
  dsn: postgres://localhost/arrange
workspace:
  reload_after_commit: true
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoader_LoadFile_YAML(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader().LoadFile(writeConfig(t, "studio.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Name != "studio" || cfg.Service.ClientID != "desk-7" {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := cfg.Resilience.Timeout.Duration(); got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
	if cfg.Resilience.Retry.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.Resilience.Retry.MaxAttempts)
	}
	if set := cfg.Service.Endpoints["docx"]; set.IndexBase == nil || *set.IndexBase != 0 {
		t.Errorf("docx endpoints = %+v", set)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.TTL.Duration() != time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Workspace.ReloadAfterCommit {
		t.Error("ReloadAfterCommit = false")
	}
	if !cfg.Resilience.CircuitBreaker.Enabled {
		t.Error("circuit breaker default lost")
	}
}

func TestLoader_LoadFile_JSON(t *testing.T) {
	t.Parallel()

	content := `{
  "name": "studio",
  "version": "1",
  "service": {"base_url": "http://localhost:9000"},
  "history": {"backend": "sqlite", "dsn": "history.db"}
}`
	cfg, err := NewLoader().LoadFile(writeConfig(t, "studio.json", content))
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Service.BaseURL != "http://localhost:9000" || cfg.History.Backend != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache backend = %q, want memory default", cfg.Cache.Backend)
	}
}

func TestLoader_LoadFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "conf.yaml"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "not found", path: filepath.Join(dir, "missing.yaml"), wantErr: config.ErrConfigNotFound},
		{name: "unsupported", path: filepath.Join(dir, "studio.toml"), wantErr: config.ErrUnsupportedFormat},
		{name: "directory", path: filepath.Join(dir, "conf.yaml"), wantErr: config.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewLoader().LoadFile(tt.path); !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		format  Format
		opts    []LoaderOption
		wantErr error
	}{
		{name: "empty uses defaults", content: "", format: FormatYAML},
		{name: "invalid yaml", content: "service: [", format: FormatYAML, wantErr: config.ErrInvalidFormat},
		{name: "invalid json", content: "{", format: FormatJSON, wantErr: config.ErrInvalidFormat},
		{name: "unknown format", content: "", format: "ini", wantErr: config.ErrUnsupportedFormat},
		{
			name:    "validation failure",
			content: "cache:\n  backend: memcached\n",
			format:  FormatYAML,
			wantErr: config.ErrValidationFailed,
		},
		{
			name:    "validation disabled",
			content: "cache:\n  backend: memcached\n",
			format:  FormatYAML,
			opts:    []LoaderOption{WithValidation(false)},
		},
		{
			name:    "strict env",
			content: "service:\n  token: ${ARRANGE_LOADER_TEST_NEVER_SET}\n",
			format:  FormatYAML,
			opts:    []LoaderOption{WithStrictEnv(true)},
			wantErr: config.ErrMissingEnvVar,
		},
		{
			name:    "required env",
			content: "service:\n  token: ${ARRANGE_LOADER_TEST_NEVER_SET:?token required}\n",
			format:  FormatYAML,
			wantErr: config.ErrMissingEnvVar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewLoaderWithOptions(tt.opts...).LoadString(tt.content, tt.format)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoader_EnvExpansionDisabled(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoaderWithOptions(WithEnvExpansion(false)).
		LoadBytes([]byte("service:\n  token: ${ARRANGE_TOKEN}\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Token != "${ARRANGE_TOKEN}" {
		t.Errorf("Token = %q, want unexpanded reference", cfg.Service.Token)
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.json": FormatJSON,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("a.txt"); !errors.Is(err, config.ErrUnsupportedFormat) {
		t.Errorf("FormatFromPath(a.txt) error = %v", err)
	}
}
