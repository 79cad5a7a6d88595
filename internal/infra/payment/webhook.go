package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/usecase"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrIgnoredEvent marks event types that carry no payment outcome. Callers
	// acknowledge them so the gateway stops redelivering.
	ErrIgnoredEvent = errors.New("webhook event type ignored")
)

const (
	EventIntentSucceeded  = "payment_intent.succeeded"
	EventIntentFailed     = "payment_intent.payment_failed"
	EventCheckoutComplete = "checkout.session.completed"
)

// VerifySignature checks a hex HMAC-SHA256 of the raw body. A "sha256="
// prefix on the header value is accepted.
func VerifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "sha256=")
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), got) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the header value VerifySignature accepts for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object webhookObject `json:"object"`
	} `json:"data"`
}

// webhookObject covers both payment intents and checkout sessions.
type webhookObject struct {
	ID             string            `json:"id"`
	AmountReceived int64             `json:"amount_received"`
	AmountTotal    int64             `json:"amount_total"`
	Currency       string            `json:"currency"`
	Status         string            `json:"status"`
	PaymentStatus  string            `json:"payment_status"`
	PaymentIntent  string            `json:"payment_intent"`
	ReceiptEmail   string            `json:"receipt_email"`
	CustomerEmail  string            `json:"customer_email"`
	Metadata       map[string]string `json:"metadata"`
}

// ParseEvent decodes a verified webhook body into a payment confirmation.
// Unknown event types return ErrIgnoredEvent with the event id.
func ParseEvent(body []byte) (usecase.PaymentConfirmation, error) {
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return usecase.PaymentConfirmation{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if ev.ID == "" {
		return usecase.PaymentConfirmation{}, fmt.Errorf("%w: missing event id", ErrMalformedPayload)
	}

	obj := ev.Data.Object
	pc := usecase.PaymentConfirmation{
		GatewayEventID: ev.ID,
		IntentID:       obj.ID,
		Currency:       obj.Currency,
		ActorID:        obj.Metadata["user_id"],
	}

	switch ev.Type {
	case EventIntentSucceeded, EventIntentFailed:
		pc.Amount = obj.AmountReceived
		pc.Status = obj.Status
		pc.PayerEmail = obj.ReceiptEmail
		if ev.Type == EventIntentFailed && pc.Status == "" {
			pc.Status = "payment_failed"
		}
	case EventCheckoutComplete:
		pc.Amount = obj.AmountTotal
		pc.Status = obj.PaymentStatus
		pc.PayerEmail = obj.CustomerEmail
		if obj.PaymentIntent != "" {
			pc.IntentID = obj.PaymentIntent
		}
	default:
		return pc, fmt.Errorf("%w: %s", ErrIgnoredEvent, ev.Type)
	}

	kind, err := model.ParseTargetKind(obj.Metadata["target_kind"])
	if err != nil {
		return pc, fmt.Errorf("%w: metadata target_kind: %v", ErrMalformedPayload, err)
	}
	pc.Target = model.TargetRef{Kind: kind, ID: obj.Metadata["target_id"]}
	if err := pc.Target.Validate(); err != nil {
		return pc, fmt.Errorf("%w: metadata target_id", ErrMalformedPayload)
	}
	if pc.Amount < 0 {
		return pc, fmt.Errorf("%w: negative amount", domain.ErrInvalidArgument)
	}
	return pc, nil
}
