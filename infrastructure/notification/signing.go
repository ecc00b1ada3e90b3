package notification

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signature headers attached to signed webhook requests.
const (
	HeaderSignature          = "X-Arrange-Signature"
	HeaderTimestamp          = "X-Arrange-Timestamp"
	HeaderTimestampSignature = "X-Arrange-Signature-V2"
)

// Signer handles payload signing for webhook requests.
type Signer struct {
	now func() time.Time
}

// NewSigner creates a new payload signer.
func NewSigner() *Signer {
	return &Signer{now: time.Now}
}

// SignPayload signs the payload with the secret. The signature format is
// "sha256=<hex>".
func (s *Signer) SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies that the signature matches the payload.
func (s *Signer) VerifySignature(payload []byte, secret, signature string) bool {
	expected := s.SignPayload(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignedHeaders returns headers to include with a signed webhook request.
// The V2 signature covers "<unix>.<payload>".
func (s *Signer) SignedHeaders(payload []byte, secret string, timestamp time.Time) map[string]string {
	unix := timestamp.Unix()
	return map[string]string{
		HeaderSignature:          s.SignPayload(payload, secret),
		HeaderTimestamp:          strconv.FormatInt(unix, 10),
		HeaderTimestampSignature: s.SignPayload(timestamped(unix, payload), secret),
	}
}

// VerifyTimestampedSignature checks that timestamp lies within tolerance of
// now and that signature covers it.
func (s *Signer) VerifyTimestampedSignature(payload []byte, secret, signature string, timestamp int64, tolerance time.Duration) bool {
	now := s.now().Unix()
	window := int64(tolerance.Seconds())
	if timestamp < now-window || timestamp > now+window {
		return false
	}

	expected := s.SignPayload(timestamped(timestamp, payload), secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func timestamped(unix int64, payload []byte) []byte {
	return fmt.Appendf(nil, "%d.%s", unix, payload)
}
