package notify

import (
	"context"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs notices instead of sending them. Used in dev and when no
// channel is configured. Recipients are redacted unless dev is set.
type NoopNotifier struct {
	log *zerolog.Logger
	dev bool
}

func NewNoopNotifier(log *zerolog.Logger, dev bool) *NoopNotifier {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &NoopNotifier{log: log, dev: dev}
}

func (n *NoopNotifier) PaymentSucceeded(ctx context.Context, p adapter.PaymentNotice) error {
	return n.logged("payment_succeeded", p.Audience, p.Recipient, paymentSucceededMessage(p))
}

func (n *NoopNotifier) PaymentFailed(ctx context.Context, p adapter.PaymentNotice) error {
	return n.logged("payment_failed", p.Audience, p.Recipient, paymentFailedMessage(p))
}

func (n *NoopNotifier) PromoRedeemed(ctx context.Context, p adapter.PromoNotice) error {
	return n.logged("promo_redeemed", p.Audience, p.Recipient, promoRedeemedMessage(p))
}

func (n *NoopNotifier) logged(kind string, audience adapter.Audience, recipient string, m message) error {
	n.log.Debug().
		Str("kind", kind).
		Str("audience", string(audience)).
		Str("recipient", logging.Redact(recipient, n.dev)).
		Str("subject", m.Subject).
		Msg(m.Body)
	metrics.IncNotification("noop", kind, "sent")
	return nil
}
