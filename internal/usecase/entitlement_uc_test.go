//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/usecase"
)

func TestEntitlementUseCase_Get(t *testing.T) {
	ctx := context.Background()
	deps := newRedemptionDeps()
	uc := usecase.NewEntitlementUseCase(memTargetRepo{deps.store}, newTestLogger()).WithClock(fixedClock)

	tests := []struct {
		name      string
		status    model.AccessStatus
		expiresAt *time.Time
		org       bool
		effective model.AccessStatus
		entitled  bool
	}{
		{"inactive team", model.AccessInactive, nil, false, model.AccessInactive, false},
		{"active promo", model.AccessPromoActive, ptr(testNow.Add(day)), false, model.AccessPromoActive, true},
		{"paid without expiry", model.AccessPaidActive, nil, false, model.AccessPaidActive, true},
		{"lapsed promo reads as inactive", model.AccessPromoActive, ptr(testNow.Add(-time.Minute)), false, model.AccessInactive, false},
		{"expiry exactly now is lapsed", model.AccessPaidActive, ptr(testNow), false, model.AccessInactive, false},
		{"active organization", model.AccessActive, ptr(testNow.Add(30 * day)), true, model.AccessActive, true},
		{"lapsed organization", model.AccessActive, ptr(testNow.Add(-day)), true, model.AccessInactive, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ref model.TargetRef
			if tc.org {
				ref = deps.addOrg(tc.status, tc.expiresAt, 0)
			} else {
				ref = deps.addTeam(tc.status, tc.expiresAt)
			}

			view, err := uc.Get(ctx, ref)
			require.NoError(t, err)
			assert.Equal(t, ref, view.Target)
			assert.Equal(t, tc.status, view.StoredStatus)
			assert.Equal(t, tc.effective, view.EffectiveStatus)
			assert.Equal(t, tc.entitled, view.Entitled)
			assert.Equal(t, tc.expiresAt, view.ExpiresAt)
		})
	}

	t.Run("unknown target", func(t *testing.T) {
		_, err := uc.Get(ctx, model.TargetRef{Kind: model.TargetTeam, ID: uuid.NewString()})
		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	})
}

func TestCheckoutUseCase_Quote(t *testing.T) {
	ctx := context.Background()

	newQuoter := func(deps *redemptionDeps) usecase.CheckoutUseCase {
		return usecase.NewCheckoutUseCase(memTargetRepo{deps.store}, deps.settings, newTestLogger()).WithClock(fixedClock)
	}

	t.Run("quote carries the metadata the webhook reads back", func(t *testing.T) {
		deps := newRedemptionDeps()
		team := deps.addTeam(model.AccessPromoActive, ptr(testNow.Add(10*day)))

		q, err := newQuoter(deps).Quote(ctx, "user-b", team)
		require.NoError(t, err)
		assert.Equal(t, int64(500), q.Amount)
		assert.Equal(t, "usd", q.Currency)
		assert.Equal(t, map[string]string{
			"user_id":     "user-b",
			"target_kind": "team",
			"target_id":   team.ID,
		}, q.Metadata)
	})

	t.Run("paid team has nothing to buy", func(t *testing.T) {
		deps := newRedemptionDeps()
		team := deps.addTeam(model.AccessPaidActive, ptr(testNow.Add(10*day)))

		_, err := newQuoter(deps).Quote(ctx, "user-b", team)
		assert.ErrorIs(t, err, domain.ErrAlreadyEntitled)
	})

	t.Run("lapsed paid team can buy again", func(t *testing.T) {
		deps := newRedemptionDeps()
		team := deps.addTeam(model.AccessPaidActive, ptr(testNow.Add(-day)))

		_, err := newQuoter(deps).Quote(ctx, "user-b", team)
		assert.NoError(t, err)
	})

	t.Run("organization renewal is always quotable", func(t *testing.T) {
		deps := newRedemptionDeps()
		org := deps.addOrg(model.AccessActive, ptr(testNow.Add(10*day)), 2)

		q, err := newQuoter(deps).Quote(ctx, "owner", org)
		require.NoError(t, err)
		assert.Equal(t, "organization", q.Metadata["target_kind"])
	})

	t.Run("missing price is a configuration error", func(t *testing.T) {
		deps := newRedemptionDeps()
		deps.settings.current.UnlockPrice = 0
		team := deps.addTeam(model.AccessInactive, nil)

		_, err := newQuoter(deps).Quote(ctx, "user-b", team)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
	})

	t.Run("missing currency is a configuration error", func(t *testing.T) {
		deps := newRedemptionDeps()
		deps.settings.current.UnlockCurrency = ""
		team := deps.addTeam(model.AccessInactive, nil)

		_, err := newQuoter(deps).Quote(ctx, "user-b", team)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("bad input", func(t *testing.T) {
		deps := newRedemptionDeps()
		team := deps.addTeam(model.AccessInactive, nil)
		uc := newQuoter(deps)

		_, err := uc.Quote(ctx, "", team)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = uc.Quote(ctx, "user-b", model.TargetRef{Kind: model.TargetTeam, ID: uuid.NewString()})
		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
	})

	t.Run("settings unavailable", func(t *testing.T) {
		deps := newRedemptionDeps()
		deps.settings.err = errors.New("db down")
		team := deps.addTeam(model.AccessInactive, nil)

		_, err := newQuoter(deps).Quote(ctx, "user-b", team)
		assert.Error(t, err)
	})
}
