package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/logging"
)

// EntitlementView is what readers act on: the stored status next to the
// status after lazy expiry.
type EntitlementView struct {
	Target          model.TargetRef
	StoredStatus    model.AccessStatus
	EffectiveStatus model.AccessStatus
	ExpiresAt       *time.Time
	Entitled        bool
}

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

type EntitlementUseCase interface {
	Get(ctx context.Context, ref model.TargetRef) (*EntitlementView, error)
}

type entitlementUC struct {
	targets repository.EntitlementRepository
	now     func() time.Time
	log     *zerolog.Logger
}

func NewEntitlementUseCase(targets repository.EntitlementRepository, logger *zerolog.Logger) *entitlementUC {
	return &entitlementUC{targets: targets, now: time.Now, log: logger}
}

// WithClock replaces the time source.
func (u *entitlementUC) WithClock(now func() time.Time) *entitlementUC {
	u.now = now
	return u
}

func (u *entitlementUC) Get(ctx context.Context, ref model.TargetRef) (*EntitlementView, error) {
	defer logging.TraceDuration(u.log, "EntitlementUC.Get")()
	t, err := u.targets.FindByRef(ctx, repository.NoTX, ref)
	if err != nil {
		return nil, err
	}
	now := u.now()
	return &EntitlementView{
		Target:          t.Ref,
		StoredStatus:    t.AccessStatus,
		EffectiveStatus: t.EffectiveStatus(now),
		ExpiresAt:       t.AccessExpiresAt,
		Entitled:        t.IsEntitled(now),
	}, nil
}
