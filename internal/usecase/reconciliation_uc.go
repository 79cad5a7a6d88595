// File: internal/usecase/reconciliation_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/logging"
	"lineup-entitlements/internal/infra/metrics"
)

// PaymentConfirmation is a verified gateway event in domain terms.
type PaymentConfirmation struct {
	GatewayEventID string
	IntentID       string
	ActorID        string
	PayerEmail     string
	Target         model.TargetRef
	Amount         int64 // minor units
	Currency       string
	Status         string // raw gateway status
}

type ReconcileOutcome string

const (
	OutcomeApplied          ReconcileOutcome = "applied"
	OutcomeAlreadyProcessed ReconcileOutcome = "already_processed"
	OutcomeFailureRecorded  ReconcileOutcome = "failure_recorded"
	// OutcomeFailureIgnored: a failure status arrived while recording failed
	// payments is switched off.
	OutcomeFailureIgnored ReconcileOutcome = "failure_ignored"
)

type ReconcileResult struct {
	Outcome        ReconcileOutcome
	PaymentEventID string
	Status         model.AccessStatus
	NewExpiry      *time.Time
}

// ReconciliationConfig holds the payment switches read from configuration.
type ReconciliationConfig struct {
	TeamPaymentMode      model.GrantMode
	RecordFailedPayments bool
}

// errDuplicateEvent aborts the grant transaction when the ledger insert loses
// the race for a gateway event id.
var errDuplicateEvent = errors.New("duplicate payment event")

// Compile-time check
var _ ReconciliationUseCase = (*reconciliationUC)(nil)

type ReconciliationUseCase interface {
	Reconcile(ctx context.Context, pc PaymentConfirmation) (*ReconcileResult, error)
}

type reconciliationUC struct {
	events   repository.PaymentEventRepository
	targets  repository.EntitlementRepository
	settings adapter.SettingsProvider
	notify   NotificationUseCase
	tm       repository.TransactionManager
	cfg      ReconciliationConfig
	now      func() time.Time
	log      *zerolog.Logger
}

func NewReconciliationUseCase(
	events repository.PaymentEventRepository,
	targets repository.EntitlementRepository,
	settings adapter.SettingsProvider,
	notify NotificationUseCase,
	tm repository.TransactionManager,
	cfg ReconciliationConfig,
	logger *zerolog.Logger,
) *reconciliationUC {
	if cfg.TeamPaymentMode == "" {
		cfg.TeamPaymentMode = model.GrantFresh
	}
	return &reconciliationUC{
		events:   events,
		targets:  targets,
		settings: settings,
		notify:   notify,
		tm:       tm,
		cfg:      cfg,
		now:      time.Now,
		log:      logger,
	}
}

// WithClock replaces the time source.
func (u *reconciliationUC) WithClock(now func() time.Time) *reconciliationUC {
	u.now = now
	return u
}

// Reconcile applies a payment confirmation at most once per gateway event id.
// A redelivered event returns OutcomeAlreadyProcessed and changes nothing.
func (u *reconciliationUC) Reconcile(ctx context.Context, pc PaymentConfirmation) (*ReconcileResult, error) {
	defer logging.TraceDuration(u.log, "ReconciliationUC.Reconcile")()
	ctx = logging.WithTarget(ctx, pc.Target.String())
	if pc.ActorID != "" {
		ctx = logging.WithActorID(ctx, pc.ActorID)
	}
	log := logging.With(ctx, u.log).With().Str("gateway_event_id", pc.GatewayEventID).Logger()

	if err := validateConfirmation(pc); err != nil {
		return nil, err
	}

	seen, err := u.events.Exists(ctx, repository.NoTX, pc.GatewayEventID)
	if err != nil {
		return nil, err
	}
	if seen {
		metrics.IncPayment("duplicate")
		log.Info().Msg("payment event already processed")
		return &ReconcileResult{Outcome: OutcomeAlreadyProcessed}, nil
	}

	if _, err := u.targets.FindByRef(ctx, repository.NoTX, pc.Target); err != nil {
		return nil, err
	}

	status, ok := model.ClassifyGatewayStatus(pc.Status)
	if !ok {
		log.Warn().Str("status", pc.Status).Msg("unsupported payment status")
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStatus, pc.Status)
	}

	now := u.now()
	ev := &model.PaymentEvent{
		ID:             uuid.NewString(),
		GatewayEventID: pc.GatewayEventID,
		IntentID:       pc.IntentID,
		UserID:         pc.ActorID,
		Target:         pc.Target,
		Amount:         pc.Amount,
		Currency:       strings.ToLower(strings.TrimSpace(pc.Currency)),
		Status:         status,
		CreatedAt:      now,
	}

	if status == model.PaymentStatusFailed {
		return u.recordFailure(ctx, &log, pc, ev)
	}
	return u.applySuccess(ctx, &log, pc, ev, now)
}

func (u *reconciliationUC) recordFailure(ctx context.Context, log *zerolog.Logger, pc PaymentConfirmation, ev *model.PaymentEvent) (*ReconcileResult, error) {
	outcome := OutcomeFailureIgnored
	if u.cfg.RecordFailedPayments {
		err := u.events.Insert(ctx, repository.NoTX, ev)
		if errors.Is(err, domain.ErrAlreadyExists) {
			metrics.IncPayment("duplicate")
			return &ReconcileResult{Outcome: OutcomeAlreadyProcessed}, nil
		}
		if err != nil {
			return nil, err
		}
		outcome = OutcomeFailureRecorded
	}

	metrics.IncPayment("failed")
	log.Info().Str("status", pc.Status).Str("outcome", string(outcome)).Msg("payment failure received")
	// ignored failures leave no row to dedupe redeliveries against
	if u.notify != nil && outcome == OutcomeFailureRecorded {
		u.notify.PaymentFailed(ctx, pc.PayerEmail, ev)
	}

	res := &ReconcileResult{Outcome: outcome}
	if outcome == OutcomeFailureRecorded {
		res.PaymentEventID = ev.ID
	}
	return res, nil
}

func (u *reconciliationUC) applySuccess(ctx context.Context, log *zerolog.Logger, pc PaymentConfirmation, ev *model.PaymentEvent, now time.Time) (*ReconcileResult, error) {
	s, err := u.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	days, substituted := model.ResolveDurationDays(s.DefaultDurationDays)
	if substituted {
		log.Warn().Int("configured", s.DefaultDurationDays).Int("used", days).
			Msg("non-positive default grant duration, using fallback")
	}

	mode := u.cfg.TeamPaymentMode
	if pc.Target.Kind == model.TargetOrganization {
		mode = model.GrantAdditive
	}
	paidAt := now
	ev.PaidAt = &paidAt

	var grant model.Grant
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		if err := u.events.Insert(ctx, tx, ev); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return errDuplicateEvent
			}
			return err
		}
		target, err := u.targets.FindByRef(ctx, tx, pc.Target)
		if err != nil {
			return err
		}
		computed, err := model.ComputeNewExpiry(target.AccessExpiresAt, days, mode, now)
		if err != nil {
			return err
		}
		grant = model.Grant{
			Target:       pc.Target,
			Status:       model.StatusFor(pc.Target.Kind, model.GrantSourcePayment),
			ExpiresAt:    model.MonotonicExpiry(target.AccessExpiresAt, computed, now),
			ResetCounter: pc.Target.Kind == model.TargetOrganization,
		}
		return u.targets.ApplyGrant(ctx, tx, grant)
	})
	if errors.Is(err, errDuplicateEvent) {
		metrics.IncPayment("duplicate")
		log.Info().Msg("payment event already processed")
		return &ReconcileResult{Outcome: OutcomeAlreadyProcessed}, nil
	}
	if err != nil {
		log.Error().Err(err).Msg("payment reconciliation failed")
		return nil, err
	}

	metrics.IncPayment("applied")
	metrics.AddPaymentRevenue(ev.Currency, ev.Amount)
	metrics.IncGrant(string(pc.Target.Kind), string(model.GrantSourcePayment))
	log.Info().
		Int64("amount", ev.Amount).
		Str("currency", ev.Currency).
		Str("status", string(grant.Status)).
		Time("expires_at", grant.ExpiresAt).
		Msg("payment applied")

	expiry := grant.ExpiresAt
	if u.notify != nil {
		u.notify.PaymentSucceeded(ctx, pc.PayerEmail, ev, &expiry, s)
	}
	return &ReconcileResult{
		Outcome:        OutcomeApplied,
		PaymentEventID: ev.ID,
		Status:         grant.Status,
		NewExpiry:      &expiry,
	}, nil
}

func validateConfirmation(pc PaymentConfirmation) error {
	if strings.TrimSpace(pc.GatewayEventID) == "" {
		return fmt.Errorf("missing gateway event id: %w", domain.ErrInvalidArgument)
	}
	if err := pc.Target.Validate(); err != nil {
		return fmt.Errorf("payment target: %w", err)
	}
	if pc.Amount < 0 {
		return fmt.Errorf("negative amount: %w", domain.ErrInvalidArgument)
	}
	return nil
}
