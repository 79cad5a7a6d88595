package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
)

var _ repository.PromotionCodeRepository = (*PostgresPromotionCodeRepo)(nil)

type PostgresPromotionCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPromotionCodeRepo(pool *pgxpool.Pool) *PostgresPromotionCodeRepo {
	return &PostgresPromotionCodeRepo{pool: pool}
}

const promotionCodeColumns = `id, code, active, expires_at, max_uses, use_count, max_uses_per_actor, duration_days, created_at`

// Save upserts the administrative fields. use_count is owned by IncrementUseCount.
func (r *PostgresPromotionCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.PromotionCode) error {
	const q = `
INSERT INTO promotion_codes (
  id, code, active, expires_at, max_uses, use_count, max_uses_per_actor, duration_days, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
) ON CONFLICT (id) DO UPDATE SET
  code=EXCLUDED.code, active=EXCLUDED.active, expires_at=EXCLUDED.expires_at,
  max_uses=EXCLUDED.max_uses, max_uses_per_actor=EXCLUDED.max_uses_per_actor,
  duration_days=EXCLUDED.duration_days;`

	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, model.NormalizeCode(c.Code), c.Active, c.ExpiresAt, c.MaxUses,
		c.UseCount, c.PerActorLimit(), c.DurationDays, c.CreatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.ErrAlreadyExists
		case pgCheckViolation:
			return domain.ErrInvalidArgument
		}
		return fmt.Errorf("save promotion code: %w", mapExecErr(err))
	}
	return nil
}

func (r *PostgresPromotionCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromotionCode, error) {
	q := `SELECT ` + promotionCodeColumns + ` FROM promotion_codes WHERE code=$1`
	return r.findOne(ctx, tx, q, model.NormalizeCode(code))
}

// FindByIDForUpdate locks the row when called inside a transaction.
func (r *PostgresPromotionCodeRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.PromotionCode, error) {
	q := `SELECT ` + promotionCodeColumns + ` FROM promotion_codes WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	return r.findOne(ctx, tx, q, id)
}

// IncrementUseCount bumps use_count and returns the new value. The
// use_count <= max_uses constraint turns an overshoot into ErrGlobalLimitReached.
func (r *PostgresPromotionCodeRepo) IncrementUseCount(ctx context.Context, tx repository.Tx, id string) (int, error) {
	const q = `
UPDATE promotion_codes
   SET use_count = use_count + 1
 WHERE id=$1
RETURNING use_count`

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows), pgCode(err) == pgInvalidText:
			return 0, domain.ErrCodeNotFound
		case pgCode(err) == pgCheckViolation:
			return 0, domain.ErrGlobalLimitReached
		}
		return 0, fmt.Errorf("increment use count: %w", domain.ErrOperationFailed)
	}
	return n, nil
}

func (r *PostgresPromotionCodeRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.PromotionCode, error) {
	row, err := pickRow(ctx, r.pool, tx, q, arg)
	if err != nil {
		return nil, err
	}
	var c model.PromotionCode
	if err := row.Scan(&c.ID, &c.Code, &c.Active, &c.ExpiresAt, &c.MaxUses, &c.UseCount, &c.MaxUsesPerActor, &c.DurationDays, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidText {
			return nil, domain.ErrCodeNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &c, nil
}
