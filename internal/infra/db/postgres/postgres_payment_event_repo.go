package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
)

var _ repository.PaymentEventRepository = (*PostgresPaymentEventRepo)(nil)

type PostgresPaymentEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPaymentEventRepo(pool *pgxpool.Pool) *PostgresPaymentEventRepo {
	return &PostgresPaymentEventRepo{pool: pool}
}

func (r *PostgresPaymentEventRepo) Exists(ctx context.Context, tx repository.Tx, gatewayEventID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM payment_events WHERE gateway_event_id=$1)`
	row, err := pickRow(ctx, r.pool, tx, q, gatewayEventID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return ok, nil
}

// Insert appends a ledger row. A second row for the same gateway event id
// returns domain.ErrAlreadyExists.
func (r *PostgresPaymentEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) error {
	const q = `
INSERT INTO payment_events (
  id, gateway_event_id, intent_id, user_id, target_kind, target_id,
  amount, currency, status, paid_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.GatewayEventID, e.IntentID, e.UserID, string(e.Target.Kind), e.Target.ID,
		e.Amount, strings.ToLower(e.Currency), string(e.Status), e.PaidAt, e.CreatedAt,
	)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return domain.ErrAlreadyExists
		case pgInvalidText:
			return domain.ErrTargetNotFound
		}
		return fmt.Errorf("insert payment event: %w", mapExecErr(err))
	}
	return nil
}

// SumSucceededSince totals captured amounts in one currency since a point in time.
func (r *PostgresPaymentEventRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, since time.Time, currency string) (int64, error) {
	const q = `
SELECT COALESCE(SUM(amount), 0)::bigint
  FROM payment_events
 WHERE status='succeeded' AND paid_at >= $1 AND currency=$2`

	row, err := pickRow(ctx, r.pool, tx, q, since, strings.ToLower(currency))
	if err != nil {
		return 0, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return total, nil
}
