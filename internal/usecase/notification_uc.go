package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
	"lineup-entitlements/internal/infra/worker"
)

// Submitter runs tasks in the background (worker.Pool).
type Submitter interface {
	Submit(task worker.Task) error
}

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

// NotificationUseCase fans committed outcomes out to the payer and, when the
// settings ask for it, to the administrators. Every call is best-effort.
type NotificationUseCase interface {
	PaymentSucceeded(ctx context.Context, payerEmail string, ev *model.PaymentEvent, expiresAt *time.Time, s *model.Settings)
	PaymentFailed(ctx context.Context, payerEmail string, ev *model.PaymentEvent)
	PromoRedeemed(ctx context.Context, actorEmail string, res *RedemptionResult, s *model.Settings)
}

type notificationUC struct {
	notifier adapter.Notifier
	pool     Submitter
	log      *zerolog.Logger
}

// NewNotificationUseCase dispatches through pool; a nil pool sends inline.
func NewNotificationUseCase(notifier adapter.Notifier, pool Submitter, logger *zerolog.Logger) *notificationUC {
	return &notificationUC{notifier: notifier, pool: pool, log: logger}
}

func (n *notificationUC) PaymentSucceeded(ctx context.Context, payerEmail string, ev *model.PaymentEvent, expiresAt *time.Time, s *model.Settings) {
	notice := paymentNotice(ev)
	notice.ExpiresAt = expiresAt

	if payerEmail != "" {
		payer := notice
		payer.Audience, payer.Recipient = adapter.AudiencePayer, payerEmail
		n.dispatch(ctx, "payment_succeeded", func(ctx context.Context) error {
			return n.notifier.PaymentSucceeded(ctx, payer)
		})
	}
	if s != nil && s.NotifyAdminOnPayment {
		admin := notice
		admin.Audience, admin.Recipient = adapter.AudienceAdmin, s.AdminEmail
		n.dispatch(ctx, "payment_succeeded", func(ctx context.Context) error {
			return n.notifier.PaymentSucceeded(ctx, admin)
		})
	}
}

func (n *notificationUC) PaymentFailed(ctx context.Context, payerEmail string, ev *model.PaymentEvent) {
	if payerEmail == "" {
		return
	}
	notice := paymentNotice(ev)
	notice.Audience, notice.Recipient = adapter.AudiencePayer, payerEmail
	n.dispatch(ctx, "payment_failed", func(ctx context.Context) error {
		return n.notifier.PaymentFailed(ctx, notice)
	})
}

func (n *notificationUC) PromoRedeemed(ctx context.Context, actorEmail string, res *RedemptionResult, s *model.Settings) {
	notice := adapter.PromoNotice{
		Code:       res.Code,
		TargetKind: string(res.Target.Kind),
		TargetID:   res.Target.ID,
		Status:     string(res.Status),
		ExpiresAt:  res.NewExpiry,
	}
	if actorEmail != "" {
		payer := notice
		payer.Audience, payer.Recipient = adapter.AudiencePayer, actorEmail
		n.dispatch(ctx, "promo_redeemed", func(ctx context.Context) error {
			return n.notifier.PromoRedeemed(ctx, payer)
		})
	}
	if s != nil && s.NotifyAdminOnPromo {
		admin := notice
		admin.Audience, admin.Recipient = adapter.AudienceAdmin, s.AdminEmail
		n.dispatch(ctx, "promo_redeemed", func(ctx context.Context) error {
			return n.notifier.PromoRedeemed(ctx, admin)
		})
	}
}

func paymentNotice(ev *model.PaymentEvent) adapter.PaymentNotice {
	return adapter.PaymentNotice{
		GatewayEventID: ev.GatewayEventID,
		TargetKind:     string(ev.Target.Kind),
		TargetID:       ev.Target.ID,
		Amount:         ev.Amount,
		Currency:       ev.Currency,
	}
}

// dispatch never blocks the caller on delivery and never returns an error.
// The task runs with the pool's context; the request context may already be done.
func (n *notificationUC) dispatch(ctx context.Context, kind string, send func(ctx context.Context) error) {
	traceID := logging.TraceID(ctx)
	task := func(taskCtx context.Context) error {
		if traceID != "" {
			taskCtx = logging.WithTraceID(taskCtx, traceID)
		}
		if err := send(taskCtx); err != nil {
			logging.With(taskCtx, n.log).Warn().Err(err).Str("kind", kind).Msg("notification failed")
		}
		return nil
	}

	if n.pool == nil {
		_ = task(context.WithoutCancel(ctx))
		return
	}
	if err := n.pool.Submit(task); err != nil {
		metrics.IncNotification("queue", kind, "dropped")
		logging.With(ctx, n.log).Warn().Err(err).Str("kind", kind).Msg("notification dropped")
	}
}
