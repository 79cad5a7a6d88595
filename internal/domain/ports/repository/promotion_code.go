package repository

import (
	"context"

	"lineup-entitlements/internal/domain/model"
)

// PromotionCodeRepository is the port for the promotion code registry.
type PromotionCodeRepository interface {
	// Save creates or updates a code (administrative flow).
	Save(ctx context.Context, tx Tx, code *model.PromotionCode) error
	// FindByCode looks a code up by its normalized string.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.PromotionCode, error)
	// FindByIDForUpdate re-reads a code, locking the row when tx is set.
	FindByIDForUpdate(ctx context.Context, tx Tx, id string) (*model.PromotionCode, error)
	// IncrementUseCount bumps use_count and returns the new value. Must run in
	// the caller's transaction; the row stays locked until commit.
	IncrementUseCount(ctx context.Context, tx Tx, id string) (int, error)
}

// RedemptionRepository is the port for the append-only redemption ledger.
type RedemptionRepository interface {
	Insert(ctx context.Context, tx Tx, r *model.Redemption) error
	Count(ctx context.Context, tx Tx, f model.RedemptionFilter) (int, error)
}
