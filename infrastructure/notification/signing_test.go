package notification

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestSigner_SignAndVerify(t *testing.T) {
	t.Parallel()

	s := NewSigner()
	payload := []byte(`[{"id":"evt-1"}]`)

	sig := s.SignPayload(payload, "secret")
	if !strings.HasPrefix(sig, "sha256=") || len(sig) != len("sha256=")+64 {
		t.Fatalf("SignPayload() = %q", sig)
	}
	if sig != s.SignPayload(payload, "secret") {
		t.Error("SignPayload() is not deterministic")
	}

	tests := []struct {
		name    string
		payload []byte
		secret  string
		sig     string
		want    bool
	}{
		{"valid", payload, "secret", sig, true},
		{"wrong secret", payload, "other", sig, false},
		{"tampered payload", []byte(`[]`), "secret", sig, false},
		{"garbage signature", payload, "secret", "sha256=00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.VerifySignature(tt.payload, tt.secret, tt.sig); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSigner_TimestampedSignature(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_800_000_000, 0)
	s := &Signer{now: func() time.Time { return now }}
	payload := []byte(`[{"id":"evt-2"}]`)

	headers := s.SignedHeaders(payload, "secret", now)
	if headers[HeaderTimestamp] != strconv.FormatInt(now.Unix(), 10) {
		t.Errorf("timestamp header = %q", headers[HeaderTimestamp])
	}
	if !s.VerifySignature(payload, "secret", headers[HeaderSignature]) {
		t.Error("plain signature header does not verify")
	}

	sig := headers[HeaderTimestampSignature]
	tests := []struct {
		name      string
		timestamp int64
		want      bool
	}{
		{"current", now.Unix(), true},
		{"other timestamp", now.Unix() - 1, false},
		{"too old", now.Add(-10 * time.Minute).Unix(), false},
		{"too new", now.Add(10 * time.Minute).Unix(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.VerifyTimestampedSignature(payload, "secret", sig, tt.timestamp, 5*time.Minute); got != tt.want {
				t.Errorf("VerifyTimestampedSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}
