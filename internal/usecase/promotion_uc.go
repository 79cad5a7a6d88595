package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/logging"
)

// NewCode describes a promotion code to register.
type NewCode struct {
	Code            string
	MaxUses         *int
	MaxUsesPerActor int
	ExpiresAt       *time.Time
	DurationDays    *int
}

// Compile-time check
var _ PromotionUseCase = (*promotionUC)(nil)

// PromotionUseCase is the administrative side of the code registry.
type PromotionUseCase interface {
	Create(ctx context.Context, in NewCode) (*model.PromotionCode, error)
	Deactivate(ctx context.Context, code string) (*model.PromotionCode, error)
}

type promotionUC struct {
	codes repository.PromotionCodeRepository
	log   *zerolog.Logger
}

func NewPromotionUseCase(codes repository.PromotionCodeRepository, logger *zerolog.Logger) *promotionUC {
	return &promotionUC{codes: codes, log: logger}
}

func (u *promotionUC) Create(ctx context.Context, in NewCode) (*model.PromotionCode, error) {
	pc, err := model.NewPromotionCode(uuid.NewString(), in.Code, in.MaxUses, in.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if in.MaxUsesPerActor < 0 || (in.DurationDays != nil && *in.DurationDays <= 0) {
		return nil, fmt.Errorf("promotion code limits: %w", domain.ErrInvalidArgument)
	}
	if in.MaxUsesPerActor > 0 {
		pc.MaxUsesPerActor = in.MaxUsesPerActor
	}
	pc.DurationDays = in.DurationDays

	if err := u.codes.Save(ctx, repository.NoTX, pc); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("code", pc.Code).Msg("promotion code created")
	return pc, nil
}

// Deactivate switches a code off; its ledger and use count are kept.
func (u *promotionUC) Deactivate(ctx context.Context, code string) (*model.PromotionCode, error) {
	pc, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, codeLookupErr(err)
	}
	pc.Active = false
	if err := u.codes.Save(ctx, repository.NoTX, pc); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("code", pc.Code).Msg("promotion code deactivated")
	return pc, nil
}
