// File: internal/domain/ports/adapter/notifier.go
package adapter

import (
	"context"
	"time"
)

type Audience string

const (
	AudiencePayer Audience = "payer"
	AudienceAdmin Audience = "admin"
)

// PaymentNotice carries the structured data of a payment outcome. Formatting
// and delivery belong to the Notifier.
type PaymentNotice struct {
	Audience       Audience
	Recipient      string // email address; may be empty for chat-based notifiers
	GatewayEventID string
	TargetKind     string
	TargetID       string
	Amount         int64
	Currency       string
	ExpiresAt      *time.Time
}

type PromoNotice struct {
	Audience   Audience
	Recipient  string
	Code       string
	TargetKind string
	TargetID   string
	Status     string
	ExpiresAt  time.Time
}

// Notifier dispatches outbound messages. Implementations may retry internally;
// callers treat every error as non-fatal.
type Notifier interface {
	PaymentSucceeded(ctx context.Context, n PaymentNotice) error
	PaymentFailed(ctx context.Context, n PaymentNotice) error
	PromoRedeemed(ctx context.Context, n PromoNotice) error
}
