package repository

import (
	"context"

	"lineup-entitlements/internal/domain/model"
)

// SettingsRepository persists the single administrative settings row.
type SettingsRepository interface {
	Load(ctx context.Context, tx Tx) (*model.Settings, error)
	Save(ctx context.Context, tx Tx, s *model.Settings) error
}
