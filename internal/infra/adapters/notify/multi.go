package notify

import (
	"context"
	"errors"

	"lineup-entitlements/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*MultiNotifier)(nil)

// MultiNotifier fans every notice out to all channels. One failing channel
// does not stop the others; the errors are joined.
type MultiNotifier struct {
	channels []adapter.Notifier
}

func NewMultiNotifier(channels ...adapter.Notifier) *MultiNotifier {
	out := make([]adapter.Notifier, 0, len(channels))
	for _, c := range channels {
		if c != nil {
			out = append(out, c)
		}
	}
	return &MultiNotifier{channels: out}
}

func (m *MultiNotifier) PaymentSucceeded(ctx context.Context, n adapter.PaymentNotice) error {
	return m.each(func(c adapter.Notifier) error { return c.PaymentSucceeded(ctx, n) })
}

func (m *MultiNotifier) PaymentFailed(ctx context.Context, n adapter.PaymentNotice) error {
	return m.each(func(c adapter.Notifier) error { return c.PaymentFailed(ctx, n) })
}

func (m *MultiNotifier) PromoRedeemed(ctx context.Context, n adapter.PromoNotice) error {
	return m.each(func(c adapter.Notifier) error { return c.PromoRedeemed(ctx, n) })
}

func (m *MultiNotifier) each(fn func(adapter.Notifier) error) error {
	var errs []error
	for _, c := range m.channels {
		if err := fn(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
