package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
)

var _ repository.RedemptionRepository = (*PostgresRedemptionRepo)(nil)

type PostgresRedemptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRedemptionRepo(pool *pgxpool.Pool) *PostgresRedemptionRepo {
	return &PostgresRedemptionRepo{pool: pool}
}

func (r *PostgresRedemptionRepo) Insert(ctx context.Context, tx repository.Tx, rd *model.Redemption) error {
	const q = `
INSERT INTO redemptions (id, user_id, promotion_code_id, target_kind, target_id, redeemed_at)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q,
		rd.ID, rd.UserID, rd.PromotionCodeID, string(rd.Target.Kind), rd.Target.ID, rd.RedeemedAt,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert redemption: %w", mapExecErr(err))
	}
	return nil
}

// Count returns the redemptions of a code by one actor or for one target.
func (r *PostgresRedemptionRepo) Count(ctx context.Context, tx repository.Tx, f model.RedemptionFilter) (int, error) {
	var (
		q    string
		args []interface{}
	)
	switch {
	case f.UserID != nil:
		q = `SELECT COUNT(*) FROM redemptions WHERE promotion_code_id=$1 AND user_id=$2`
		args = []interface{}{f.PromotionCodeID, *f.UserID}
	case f.Target != nil:
		q = `SELECT COUNT(*) FROM redemptions WHERE promotion_code_id=$1 AND target_kind=$2 AND target_id=$3`
		args = []interface{}{f.PromotionCodeID, string(f.Target.Kind), f.Target.ID}
	default:
		return 0, domain.ErrInvalidArgument
	}

	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return n, nil
}
