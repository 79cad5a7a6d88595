package repository

import (
	"context"
	"time"

	"lineup-entitlements/internal/domain/model"
)

// PaymentEventRepository is the port for the append-only payment ledger.
type PaymentEventRepository interface {
	Exists(ctx context.Context, tx Tx, gatewayEventID string) (bool, error)
	// Insert returns domain.ErrAlreadyExists when the gateway event id is taken.
	Insert(ctx context.Context, tx Tx, p *model.PaymentEvent) error
	// SumSucceededSince totals captured amounts in currency paid at or after since.
	SumSucceededSince(ctx context.Context, tx Tx, since time.Time, currency string) (int64, error)
}
