package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/logging"
)

// Compile-time check
var _ SettingsUseCase = (*settingsUC)(nil)

// SettingsUseCase is the administrative side of the settings snapshot.
type SettingsUseCase interface {
	Get(ctx context.Context) (*model.Settings, error)
	Update(ctx context.Context, s *model.Settings) (*model.Settings, error)
	Invalidate(ctx context.Context) error
}

type settingsUC struct {
	repo     repository.SettingsRepository
	provider adapter.SettingsProvider
	log      *zerolog.Logger
}

func NewSettingsUseCase(repo repository.SettingsRepository, provider adapter.SettingsProvider, logger *zerolog.Logger) *settingsUC {
	return &settingsUC{repo: repo, provider: provider, log: logger}
}

func (u *settingsUC) Get(ctx context.Context) (*model.Settings, error) {
	return u.provider.Current(ctx)
}

// Update persists new settings and drops the cached snapshot so the engines
// see the change on their next read.
func (u *settingsUC) Update(ctx context.Context, s *model.Settings) (*model.Settings, error) {
	if s == nil || s.UnlockPrice < 0 || s.DefaultDurationDays < 0 {
		return nil, fmt.Errorf("settings: %w", domain.ErrInvalidArgument)
	}
	s.UnlockCurrency = strings.ToLower(strings.TrimSpace(s.UnlockCurrency))
	if err := u.repo.Save(ctx, repository.NoTX, s); err != nil {
		return nil, err
	}
	if err := u.Invalidate(ctx); err != nil {
		return nil, err
	}
	return u.provider.Current(ctx)
}

func (u *settingsUC) Invalidate(ctx context.Context) error {
	if err := u.provider.Invalidate(ctx); err != nil {
		logging.With(ctx, u.log).Error().Err(err).Msg("settings invalidation failed")
		return err
	}
	logging.With(ctx, u.log).Info().Msg("settings cache invalidated")
	return nil
}
