package paygreen

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureHeader carries the hex-encoded HMAC-SHA256 of the raw webhook
// body, keyed with the shop secret.
const SignatureHeader = "PG-Signature"

// EventKind is the closed set of webhook notifications this service
// understands. Dispatch switches over EventKind so a new gateway event
// type forces an explicit decision here instead of a silent default.
type EventKind int

const (
	// EventUnknown covers event types outside the closed set; receivers
	// acknowledge them without acting.
	EventUnknown EventKind = iota
	EventPaymentOrderSuccess
	EventPaymentOrderFailed
	EventPaymentOrderCancelled
)

const (
	eventTypeSuccess   = "payment_order.success"
	eventTypeFailed    = "payment_order.failed"
	eventTypeCancelled = "payment_order.cancelled"
)

func (k EventKind) String() string {
	switch k {
	case EventPaymentOrderSuccess:
		return eventTypeSuccess
	case EventPaymentOrderFailed:
		return eventTypeFailed
	case EventPaymentOrderCancelled:
		return eventTypeCancelled
	default:
		return "unknown"
	}
}

// WebhookEvent is the validated, typed form of a gateway notification.
type WebhookEvent struct {
	Kind         EventKind
	Type         string
	PaymentOrder PaymentOrder
}

// ComputeSignature returns the hex HMAC-SHA256 of payload under secret.
func ComputeSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time. A
// malformed (non-hex) signature never verifies.
func VerifySignature(payload []byte, signature, secret string) bool {
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(provided, mac.Sum(nil))
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data *struct {
		PaymentOrder *PaymentOrder `json:"payment_order"`
	} `json:"data"`
}

// ParseWebhookEvent decodes a raw webhook body into a typed event. Known
// event kinds require a payment_order payload with a non-empty id;
// payloads that do not match the expected shape are rejected rather than
// trusted on field presence.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("webhook event is missing a type")
	}

	event := &WebhookEvent{
		Kind: eventKindOf(envelope.Type),
		Type: envelope.Type,
	}
	if event.Kind == EventUnknown {
		return event, nil
	}

	if envelope.Data == nil || envelope.Data.PaymentOrder == nil {
		return nil, fmt.Errorf("event %s is missing payment_order data", envelope.Type)
	}
	if envelope.Data.PaymentOrder.ID == "" {
		return nil, fmt.Errorf("event %s has a payment_order without an id", envelope.Type)
	}

	event.PaymentOrder = *envelope.Data.PaymentOrder
	return event, nil
}

func eventKindOf(eventType string) EventKind {
	switch eventType {
	case eventTypeSuccess:
		return EventPaymentOrderSuccess
	case eventTypeFailed:
		return EventPaymentOrderFailed
	case eventTypeCancelled:
		return EventPaymentOrderCancelled
	default:
		return EventUnknown
	}
}
