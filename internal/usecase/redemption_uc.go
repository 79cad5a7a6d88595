// File: internal/usecase/redemption_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
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

// LimitScope selects what the per-actor limit of a code is counted over.
type LimitScope int

const (
	// LimitByActor counts redemptions of the code by the acting user.
	LimitByActor LimitScope = iota
	// LimitByTarget counts redemptions of the code for the target; used for
	// organization renewals where no single user owns the attempt.
	LimitByTarget
)

type RedeemRequest struct {
	ActorID       *string
	ActorEmail    string
	Code          string
	Target        model.TargetRef
	AllowStacking bool
	LimitScope    LimitScope
}

type RedemptionResult struct {
	RedemptionID string
	Code         string
	Target       model.TargetRef
	Status       model.AccessStatus
	NewExpiry    time.Time
}

// RedemptionConfig holds the redemption switches read from configuration.
type RedemptionConfig struct {
	OrgPromoResetsTeamCounter bool
}

// Compile-time check
var _ RedemptionUseCase = (*redemptionUC)(nil)

type RedemptionUseCase interface {
	Redeem(ctx context.Context, req RedeemRequest) (*RedemptionResult, error)
}

type redemptionUC struct {
	codes       repository.PromotionCodeRepository
	redemptions repository.RedemptionRepository
	targets     repository.EntitlementRepository
	settings    adapter.SettingsProvider
	notify      NotificationUseCase
	tm          repository.TransactionManager
	cfg         RedemptionConfig
	now         func() time.Time
	log         *zerolog.Logger
}

func NewRedemptionUseCase(
	codes repository.PromotionCodeRepository,
	redemptions repository.RedemptionRepository,
	targets repository.EntitlementRepository,
	settings adapter.SettingsProvider,
	notify NotificationUseCase,
	tm repository.TransactionManager,
	cfg RedemptionConfig,
	logger *zerolog.Logger,
) *redemptionUC {
	return &redemptionUC{
		codes:       codes,
		redemptions: redemptions,
		targets:     targets,
		settings:    settings,
		notify:      notify,
		tm:          tm,
		cfg:         cfg,
		now:         time.Now,
		log:         logger,
	}
}

// WithClock replaces the time source.
func (u *redemptionUC) WithClock(now func() time.Time) *redemptionUC {
	u.now = now
	return u
}

// Redeem validates a code against the target and grants a promotional
// entitlement window. The advisory checks run without locks; all of them are
// repeated on locked rows inside the transaction, so a lost race returns the
// same error the advisory check would have.
func (u *redemptionUC) Redeem(ctx context.Context, req RedeemRequest) (*RedemptionResult, error) {
	defer logging.TraceDuration(u.log, "RedemptionUC.Redeem")()
	ctx = logging.WithTarget(ctx, req.Target.String())
	log := logging.With(ctx, u.log)

	res, s, err := u.redeem(ctx, req)
	if err != nil {
		metrics.IncRedemption(string(domain.KindOf(err)))
		log.Info().Err(err).Str("kind", string(domain.KindOf(err))).Msg("promotion redemption rejected")
		return nil, err
	}

	metrics.IncRedemption("ok")
	metrics.IncGrant(string(res.Target.Kind), string(model.GrantSourcePromo))
	log.Info().
		Str("code", res.Code).
		Str("status", string(res.Status)).
		Time("expires_at", res.NewExpiry).
		Msg("promotion code redeemed")

	if u.notify != nil {
		u.notify.PromoRedeemed(ctx, req.ActorEmail, res, s)
	}
	return res, nil
}

func (u *redemptionUC) redeem(ctx context.Context, req RedeemRequest) (*RedemptionResult, *model.Settings, error) {
	if err := req.Target.Validate(); err != nil {
		return nil, nil, err
	}
	if req.LimitScope == LimitByActor && (req.ActorID == nil || *req.ActorID == "") {
		return nil, nil, fmt.Errorf("actor required for per-actor limit: %w", domain.ErrInvalidArgument)
	}
	code := model.NormalizeCode(req.Code)
	if code == "" {
		return nil, nil, domain.ErrCodeNotFound
	}
	now := u.now()

	// Advisory checks: cheap rejections before any lock is taken.
	pc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, nil, codeLookupErr(err)
	}
	if err := u.checkCode(ctx, repository.NoTX, pc, req, now); err != nil {
		return nil, nil, err
	}
	target, err := u.targets.FindByRef(ctx, repository.NoTX, req.Target)
	if err != nil {
		return nil, nil, err
	}
	if !req.AllowStacking && target.IsEntitled(now) {
		return nil, nil, domain.ErrAlreadyEntitled
	}

	s, err := u.settings.Current(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	days := u.durationDays(ctx, pc, s)

	var res *RedemptionResult
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		locked, err := u.codes.FindByIDForUpdate(ctx, tx, pc.ID)
		if err != nil {
			return codeLookupErr(err)
		}
		if err := u.checkCode(ctx, tx, locked, req, now); err != nil {
			return err
		}
		target, err := u.targets.FindByRef(ctx, tx, req.Target)
		if err != nil {
			return err
		}
		if !req.AllowStacking && target.IsEntitled(now) {
			return domain.ErrAlreadyEntitled
		}

		rd := &model.Redemption{
			ID:              uuid.NewString(),
			UserID:          req.ActorID,
			PromotionCodeID: locked.ID,
			Target:          req.Target,
			RedeemedAt:      now,
		}
		if err := u.redemptions.Insert(ctx, tx, rd); err != nil {
			return err
		}
		used, err := u.codes.IncrementUseCount(ctx, tx, locked.ID)
		if err != nil {
			return err
		}
		if locked.MaxUses != nil && used > *locked.MaxUses {
			return domain.ErrGlobalLimitReached
		}

		mode := model.GrantFresh
		if req.Target.Kind == model.TargetOrganization {
			mode = model.GrantAdditive
		}
		computed, err := model.ComputeNewExpiry(target.AccessExpiresAt, days, mode, now)
		if err != nil {
			return err
		}
		status := model.StatusFor(req.Target.Kind, model.GrantSourcePromo)
		if target.EffectiveStatus(now) == model.AccessPaidActive {
			// a promo never downgrades a paid window
			status = model.AccessPaidActive
		}
		grant := model.Grant{
			Target:       req.Target,
			Status:       status,
			ExpiresAt:    model.MonotonicExpiry(target.AccessExpiresAt, computed, now),
			ResetCounter: req.Target.Kind == model.TargetOrganization && u.cfg.OrgPromoResetsTeamCounter,
		}
		if err := u.targets.ApplyGrant(ctx, tx, grant); err != nil {
			return err
		}

		res = &RedemptionResult{
			RedemptionID: rd.ID,
			Code:         locked.Code,
			Target:       req.Target,
			Status:       grant.Status,
			NewExpiry:    grant.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return res, s, nil
}

// checkCode runs the code preconditions. The per-actor limit is checked
// before the global one so an actor repeating a fully used code is told it
// already used it.
func (u *redemptionUC) checkCode(ctx context.Context, tx repository.Tx, pc *model.PromotionCode, req RedeemRequest, now time.Time) error {
	if err := pc.CheckUsable(now); err != nil {
		return err
	}
	filter := model.RedemptionFilter{PromotionCodeID: pc.ID}
	if req.LimitScope == LimitByTarget {
		target := req.Target
		filter.Target = &target
	} else {
		filter.UserID = req.ActorID
	}
	used, err := u.redemptions.Count(ctx, tx, filter)
	if err != nil {
		return err
	}
	if used >= pc.PerActorLimit() {
		return domain.ErrActorLimitReached
	}
	return pc.CheckGlobalLimit()
}

func (u *redemptionUC) durationDays(ctx context.Context, pc *model.PromotionCode, s *model.Settings) int {
	if pc.DurationDays != nil && *pc.DurationDays > 0 {
		return *pc.DurationDays
	}
	days, substituted := model.ResolveDurationDays(s.DefaultDurationDays)
	if substituted {
		logging.With(ctx, u.log).Warn().
			Int("configured", s.DefaultDurationDays).
			Int("used", days).
			Msg("non-positive default grant duration, using fallback")
	}
	return days
}

func codeLookupErr(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrCodeNotFound
	}
	return err
}
