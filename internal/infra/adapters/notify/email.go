package notify

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/mrz1836/postmark"

	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/metrics"
)

var ErrInvalidConfig = errors.New("invalid notifier config")

// emailClient is the part of *postmark.Client the notifier uses.
type emailClient interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

var _ adapter.Notifier = (*EmailNotifier)(nil)

// EmailNotifier delivers notices through Postmark's transactional API.
type EmailNotifier struct {
	client emailClient
	sender string
}

func NewEmailNotifier(serverToken, accountToken, sender string) (*EmailNotifier, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
	}
	if sender == "" {
		return nil, fmt.Errorf("%w: sender email is required", ErrInvalidConfig)
	}
	return newEmailNotifier(postmark.NewClient(serverToken, accountToken), sender), nil
}

func newEmailNotifier(client emailClient, sender string) *EmailNotifier {
	return &EmailNotifier{client: client, sender: sender}
}

func (e *EmailNotifier) PaymentSucceeded(ctx context.Context, n adapter.PaymentNotice) error {
	return e.send(ctx, "payment_succeeded", n.Recipient, paymentSucceededMessage(n))
}

func (e *EmailNotifier) PaymentFailed(ctx context.Context, n adapter.PaymentNotice) error {
	return e.send(ctx, "payment_failed", n.Recipient, paymentFailedMessage(n))
}

func (e *EmailNotifier) PromoRedeemed(ctx context.Context, n adapter.PromoNotice) error {
	return e.send(ctx, "promo_redeemed", n.Recipient, promoRedeemedMessage(n))
}

func (e *EmailNotifier) send(ctx context.Context, kind, to string, m message) error {
	if to == "" {
		metrics.IncNotification("email", kind, "skipped")
		return nil
	}
	resp, err := e.client.SendEmail(ctx, postmark.Email{
		From:     e.sender,
		To:       to,
		Subject:  m.Subject,
		Tag:      m.Tag,
		TextBody: m.Body,
		HTMLBody: "<p>" + html.EscapeString(m.Body) + "</p>",
	})
	if err == nil && resp.ErrorCode > 0 {
		err = fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	if err != nil {
		metrics.IncNotification("email", kind, "error")
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	metrics.IncNotification("email", kind, "sent")
	return nil
}
