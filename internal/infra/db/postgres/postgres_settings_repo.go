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

var _ repository.SettingsRepository = (*PostgresSettingsRepo)(nil)

// PostgresSettingsRepo owns the single app_settings row (id = 1).
type PostgresSettingsRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSettingsRepo(pool *pgxpool.Pool) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{pool: pool}
}

func (r *PostgresSettingsRepo) Load(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	const q = `
SELECT default_duration_days, unlock_price, unlock_currency,
       notify_admin_on_payment, notify_admin_on_promo, admin_email, updated_at
  FROM app_settings WHERE id=1`

	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	var s model.Settings
	if err := row.Scan(&s.DefaultDurationDays, &s.UnlockPrice, &s.UnlockCurrency,
		&s.NotifyAdminOnPayment, &s.NotifyAdminOnPromo, &s.AdminEmail, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrReadDatabaseRow, err)
	}
	return &s, nil
}

func (r *PostgresSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	const q = `
INSERT INTO app_settings (
  id, default_duration_days, unlock_price, unlock_currency,
  notify_admin_on_payment, notify_admin_on_promo, admin_email, updated_at
) VALUES (1,$1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (id) DO UPDATE SET
  default_duration_days=EXCLUDED.default_duration_days,
  unlock_price=EXCLUDED.unlock_price,
  unlock_currency=EXCLUDED.unlock_currency,
  notify_admin_on_payment=EXCLUDED.notify_admin_on_payment,
  notify_admin_on_promo=EXCLUDED.notify_admin_on_promo,
  admin_email=EXCLUDED.admin_email,
  updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.DefaultDurationDays, s.UnlockPrice, s.UnlockCurrency,
		s.NotifyAdminOnPayment, s.NotifyAdminOnPromo, s.AdminEmail,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", mapExecErr(err))
	}
	return nil
}
