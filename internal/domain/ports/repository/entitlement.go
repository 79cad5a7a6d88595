package repository

import (
	"context"

	"lineup-entitlements/internal/domain/model"
)

// EntitlementRepository resolves a TargetRef to its team or organization row.
type EntitlementRepository interface {
	// FindByRef returns domain.ErrTargetNotFound when the row does not exist.
	// Inside a transaction the row is locked until commit.
	FindByRef(ctx context.Context, tx Tx, ref model.TargetRef) (*model.EntitlementTarget, error)
	// ApplyGrant writes status and expiry. It is the only mutation of these columns.
	ApplyGrant(ctx context.Context, tx Tx, g model.Grant) error
}
