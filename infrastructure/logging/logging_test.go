package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "trace", Format: "json", Output: buf})
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
	if ProductionConfig().Format != "json" {
		t.Error("ProductionConfig() should use json")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{name: "session", field: SessionID("s-1"), want: `"session_id":"s-1"`},
		{name: "document", field: Document(session.Document{Ref: "f1", Kind: session.KindPDF}), want: `"kind":"pdf"`},
		{name: "state", field: State(session.StateReady), want: `"state":"ready"`},
		{name: "from", field: FromState(session.StateReady), want: `"from_state":"ready"`},
		{name: "to", field: ToState(session.StateCommitting), want: `"to_state":"committing"`},
		{name: "verb", field: Verb(session.VerbRotate), want: `"verb":"rotate"`},
		{name: "code", field: Code(session.CodeEmptySelection), want: `"code":"empty_selection"`},
		{name: "count", field: Count(5), want: `"count":5`},
		{name: "position", field: Position(2), want: `"position":2`},
		{name: "duration", field: Duration(100 * time.Millisecond), want: `"duration_ms":100`},
		{name: "cached", field: Cached(true), want: `"cached":true`},
		{name: "error", field: ErrorField(errors.New("boom")), want: `"error":"boom"`},
		{name: "component", field: Component("workspace"), want: `"component":"workspace"`},
		{name: "operation", field: Operation("commit"), want: `"operation":"commit"`},
		{name: "str", field: Str("k", "v"), want: `"k":"v"`},
		{name: "int", field: Int("n", 7), want: `"n":7`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			NewEvent(logger.Info()).Add(tt.field).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorField_Nil(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEvent(logger.Info()).Add(ErrorField(nil)).Msg("test")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("unexpected error field in output: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	logger := New(Config{Level: "warn", Format: "json", Output: buf})
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info written at warn level: %s", buf.String())
	}
	logger.Warn().Msg("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Errorf("warn not written: %s", buf.String())
	}
}

func TestReplace(t *testing.T) {
	logger, buf := testLogger()
	prev := Replace(logger)
	defer Replace(prev)

	Info().Add(SessionID("s-9")).Msg("through default")
	if !bytes.Contains(buf.Bytes(), []byte(`"session_id":"s-9"`)) {
		t.Errorf("default logger not replaced: %s", buf.String())
	}
}
