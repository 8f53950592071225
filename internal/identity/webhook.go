package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Webhook event types delivered by the identity provider.
const (
	EventPrincipalCreated = "principal.created"
	EventPrincipalUpdated = "principal.updated"
)

// SignatureHeader carries the hex HMAC-SHA256 signature of the raw webhook
// payload.
const SignatureHeader = "X-Identity-Signature"

// WebhookEvent is the identity-provider notification payload. Only the
// fields the portal denormalizes are decoded; the rest of the provider's
// wire format is ignored.
type WebhookEvent struct {
	Type string      `json:"type"`
	Data WebhookUser `json:"data"`
}

// WebhookUser is the principal payload inside a webhook event.
type WebhookUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ParseWebhookEvent decodes a raw webhook payload.
func ParseWebhookEvent(payload []byte) (WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return event, nil
}

// SignPayload computes the hex HMAC-SHA256 signature the provider attaches
// to webhook deliveries.
func SignPayload(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret, payload []byte, signature string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), expected)
}
