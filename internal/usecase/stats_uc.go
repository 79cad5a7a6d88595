package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	// Revenue sums captured payments in currency since the given time.
	Revenue(ctx context.Context, since time.Time, currency string) (int64, error)
}

type statsUC struct {
	payments repository.PaymentEventRepository

	log *zerolog.Logger
}

func NewStatsUseCase(payments repository.PaymentEventRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{payments: payments, log: logger}
}

func (s *statsUC) Revenue(ctx context.Context, since time.Time, currency string) (int64, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" || since.IsZero() {
		return 0, fmt.Errorf("revenue window: %w", domain.ErrInvalidArgument)
	}
	return s.payments.SumSucceededSince(ctx, repository.NoTX, since, currency)
}
