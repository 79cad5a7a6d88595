package adapter

import (
	"context"

	"lineup-entitlements/internal/domain/model"
)

// SettingsProvider gives read-only access to the current settings snapshot.
// Implementations cache; Invalidate drops the cached snapshot after an
// administrative change.
type SettingsProvider interface {
	Current(ctx context.Context) (*model.Settings, error)
	Invalidate(ctx context.Context) error
}
