package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/logging"
)

// Quote is what a client needs to create a gateway payment intent. Metadata
// must be attached to the intent unchanged; the webhook reads it back.
type Quote struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type CheckoutUseCase interface {
	Quote(ctx context.Context, actorID string, ref model.TargetRef) (*Quote, error)
}

type checkoutUC struct {
	targets  repository.EntitlementRepository
	settings adapter.SettingsProvider
	now      func() time.Time
	log      *zerolog.Logger
}

func NewCheckoutUseCase(targets repository.EntitlementRepository, settings adapter.SettingsProvider, logger *zerolog.Logger) *checkoutUC {
	return &checkoutUC{targets: targets, settings: settings, now: time.Now, log: logger}
}

// WithClock replaces the time source.
func (u *checkoutUC) WithClock(now func() time.Time) *checkoutUC {
	u.now = now
	return u
}

// Quote prices an unlock for the target. A team that already holds paid
// access has nothing to buy.
func (u *checkoutUC) Quote(ctx context.Context, actorID string, ref model.TargetRef) (*Quote, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.Quote")()
	if actorID == "" {
		return nil, fmt.Errorf("missing actor: %w", domain.ErrInvalidArgument)
	}
	t, err := u.targets.FindByRef(ctx, repository.NoTX, ref)
	if err != nil {
		return nil, err
	}
	if ref.Kind == model.TargetTeam && t.EffectiveStatus(u.now()) == model.AccessPaidActive {
		return nil, domain.ErrAlreadyEntitled
	}

	s, err := u.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if s.UnlockPrice <= 0 || s.UnlockCurrency == "" {
		logging.With(ctx, u.log).Error().
			Int64("unlock_price", s.UnlockPrice).
			Str("unlock_currency", s.UnlockCurrency).
			Msg("unlock price is not configured")
		return nil, fmt.Errorf("unlock price: %w", domain.ErrConfiguration)
	}

	return &Quote{
		Amount:   s.UnlockPrice,
		Currency: s.UnlockCurrency,
		Metadata: map[string]string{
			"user_id":     actorID,
			"target_kind": string(ref.Kind),
			"target_id":   ref.ID,
		},
	}, nil
}
