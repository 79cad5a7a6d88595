package model

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded" // captured at the gateway
	PaymentStatusFailed    PaymentStatus = "failed"    // attempt failed or was cancelled
)

// ClassifyGatewayStatus maps a gateway status string onto the ledger status.
// ok is false for statuses that are neither a capture nor a failure.
func ClassifyGatewayStatus(s string) (status PaymentStatus, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "succeeded", "paid", "complete", "completed":
		return PaymentStatusSucceeded, true
	case "failed", "payment_failed", "canceled", "cancelled", "requires_payment_method", "expired":
		return PaymentStatusFailed, true
	default:
		return "", false
	}
}

// PaymentEvent is an append-only ledger row keyed by the gateway event id.
type PaymentEvent struct {
	ID             string
	GatewayEventID string // idempotency key
	IntentID       string // gateway payment intent, audit only
	UserID         string
	Target         TargetRef
	Amount         int64  // minor units
	Currency       string // lower-case ISO code
	Status         PaymentStatus
	PaidAt         *time.Time // set when succeeded
	CreatedAt      time.Time
}
