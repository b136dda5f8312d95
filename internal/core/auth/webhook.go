package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Webhook Headers
// =============================================================================

const (
	HeaderWebhookID        = "svix-id"
	HeaderWebhookTimestamp = "svix-timestamp"
	HeaderWebhookSignature = "svix-signature"
)

// DefaultWebhookTolerance is how far a webhook timestamp may drift from now.
const DefaultWebhookTolerance = 5 * time.Minute

const (
	webhookSecretPrefix = "whsec_"
	signatureVersion    = "v1"
)

var (
	ErrWebhookSecret           = errors.New("webhook secret is not configured or malformed")
	ErrWebhookHeadersMissing   = errors.New("missing webhook headers")
	ErrWebhookTimestamp        = errors.New("invalid webhook timestamp")
	ErrWebhookTimestampExpired = errors.New("webhook timestamp outside tolerance")
	ErrWebhookSignature        = errors.New("no matching webhook signature")
	ErrWebhookPayload          = errors.New("invalid webhook payload")
)

// =============================================================================
// Signature Verification
// =============================================================================

// WebhookVerifier checks account webhook signatures. The signed content is
// "{id}.{timestamp}.{body}" under HMAC-SHA256 with the base64 secret.
type WebhookVerifier struct {
	key       []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewWebhookVerifier creates a verifier from a base64 secret, optionally
// prefixed with "whsec_".
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrWebhookSecret
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, webhookSecretPrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookSecret, err)
	}
	return &WebhookVerifier{
		key:       key,
		tolerance: DefaultWebhookTolerance,
		now:       time.Now,
	}, nil
}

// WithClock replaces the verifier's time source. Used by tests.
func (v *WebhookVerifier) WithClock(now func() time.Time) *WebhookVerifier {
	v.now = now
	return v
}

// Verify checks the headers against body. The signature header is a space
// separated list of "v1,{base64}" entries; any one matching is enough.
func (v *WebhookVerifier) Verify(id, timestamp, signatures string, body []byte) error {
	if id == "" || timestamp == "" || signatures == "" {
		return ErrWebhookHeadersMissing
	}

	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrWebhookTimestamp
	}
	drift := v.now().Sub(time.Unix(secs, 0))
	if drift > v.tolerance || drift < -v.tolerance {
		return ErrWebhookTimestampExpired
	}

	expected := v.sign(id, timestamp, body)
	for _, entry := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(entry, ",")
		if !ok || version != signatureVersion {
			continue
		}
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrWebhookSignature
}

// Sign returns the "v1,{base64}" signature entry for a payload.
func (v *WebhookVerifier) Sign(id, timestamp string, body []byte) string {
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(v.sign(id, timestamp, body))
}

func (v *WebhookVerifier) sign(id, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(id))
	mac.Write([]byte("."))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// =============================================================================
// Account Events
// =============================================================================

// Account event types handled by the application.
const (
	EventUserCreated = "user.created"
	EventUserDeleted = "user.deleted"
)

// AccountEvent is the part of an identity provider webhook we act on.
type AccountEvent struct {
	Type       string
	ExternalID string
	Email      string
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// ParseAccountEvent decodes a verified webhook body. The first listed email
// address is taken. Unknown event types are returned as-is for the caller
// to ignore.
func ParseAccountEvent(body []byte) (AccountEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return AccountEvent{}, fmt.Errorf("%w: %v", ErrWebhookPayload, err)
	}
	if env.Type == "" {
		return AccountEvent{}, fmt.Errorf("%w: missing type", ErrWebhookPayload)
	}

	evt := AccountEvent{Type: env.Type, ExternalID: env.Data.ID}
	if len(env.Data.EmailAddresses) > 0 {
		evt.Email = env.Data.EmailAddresses[0].EmailAddress
	}

	switch evt.Type {
	case EventUserCreated:
		if evt.ExternalID == "" || evt.Email == "" {
			return AccountEvent{}, fmt.Errorf("%w: user.created requires id and email", ErrWebhookPayload)
		}
	case EventUserDeleted:
		if evt.ExternalID == "" {
			return AccountEvent{}, fmt.Errorf("%w: user.deleted requires id", ErrWebhookPayload)
		}
	}
	return evt, nil
}
