//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/usecase"
)

type reconcileDeps struct {
	*redemptionDeps
	rcfg usecase.ReconciliationConfig
}

func newReconcileDeps() *reconcileDeps {
	return &reconcileDeps{
		redemptionDeps: newRedemptionDeps(),
		rcfg:           usecase.ReconciliationConfig{TeamPaymentMode: model.GrantFresh, RecordFailedPayments: true},
	}
}

func (d *reconcileDeps) reconciler() usecase.ReconciliationUseCase {
	logger := newTestLogger()
	notify := usecase.NewNotificationUseCase(d.notifier, nil, logger)
	return usecase.NewReconciliationUseCase(
		memEventRepo{d.store}, memTargetRepo{d.store}, d.settings, notify, d.store, d.rcfg, logger,
	).WithClock(fixedClock)
}

func confirmation(eventID string, target model.TargetRef, status string) usecase.PaymentConfirmation {
	return usecase.PaymentConfirmation{
		GatewayEventID: eventID,
		IntentID:       "pi_" + eventID,
		ActorID:        "user-b",
		PayerEmail:     "payer@example.com",
		Target:         target,
		Amount:         500,
		Currency:       "USD",
		Status:         status,
	}
}

func TestReconciliationUseCase_Evt123Scenario(t *testing.T) {
	ctx := context.Background()
	deps := newReconcileDeps()
	t2 := deps.addTeam(model.AccessInactive, nil)
	uc := deps.reconciler()

	res, err := uc.Reconcile(ctx, confirmation("evt_123", t2, "succeeded"))
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeApplied, res.Outcome)
	assert.Equal(t, model.AccessPaidActive, res.Status)
	require.NotNil(t, res.NewExpiry)
	assert.Equal(t, testNow.Add(365*day), *res.NewExpiry)
	assert.NotEmpty(t, res.PaymentEventID)

	assert.Equal(t, model.AccessPaidActive, deps.store.target(t2).AccessStatus)
	assert.Equal(t, 1, deps.store.eventCount())
	ev := deps.store.events["evt_123"]
	assert.Equal(t, "usd", ev.Currency)
	assert.Equal(t, int64(500), ev.Amount)
	assert.Equal(t, model.PaymentStatusSucceeded, ev.Status)
	assert.Equal(t, "pi_evt_123", ev.IntentID)
	require.NotNil(t, ev.PaidAt)

	again, err := uc.Reconcile(ctx, confirmation("evt_123", t2, "succeeded"))
	require.NoError(t, err)
	assert.Equal(t, usecase.OutcomeAlreadyProcessed, again.Outcome)
	assert.Equal(t, 1, deps.store.eventCount())
	assert.Equal(t, 1, deps.store.grantCount())
	assert.Len(t, deps.notifier.payments, 1, "redelivery does not notify again")
}

func TestReconciliationUseCase_TeamTransitions(t *testing.T) {
	ctx := context.Background()

	t.Run("promo_active upgrades to paid_active with a fresh window", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessPromoActive, ptr(testNow.Add(100*day)))

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "paid"))
		require.NoError(t, err)
		assert.Equal(t, model.AccessPaidActive, res.Status)
		assert.Equal(t, testNow.Add(365*day), *res.NewExpiry)
	})

	t.Run("fresh window never shortens a longer unexpired one", func(t *testing.T) {
		deps := newReconcileDeps()
		longer := testNow.Add(400 * day)
		team := deps.addTeam(model.AccessPromoActive, &longer)

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, longer, *res.NewExpiry)
	})

	t.Run("additive team mode stacks on the active window", func(t *testing.T) {
		deps := newReconcileDeps()
		deps.rcfg.TeamPaymentMode = model.GrantAdditive
		deps.settings.current.DefaultDurationDays = 30
		team := deps.addTeam(model.AccessPaidActive, ptr(testNow.Add(10*day)))

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, testNow.Add(40*day), *res.NewExpiry)
	})

	t.Run("additive team mode on an expired window starts at now", func(t *testing.T) {
		deps := newReconcileDeps()
		deps.rcfg.TeamPaymentMode = model.GrantAdditive
		deps.settings.current.DefaultDurationDays = 30
		team := deps.addTeam(model.AccessPaidActive, ptr(testNow.Add(-3*day)))

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, testNow.Add(30*day), *res.NewExpiry)
	})
}

func TestReconciliationUseCase_Organization(t *testing.T) {
	ctx := context.Background()
	deps := newReconcileDeps()
	org := deps.addOrg(model.AccessActive, ptr(testNow.Add(20*day)), 5)

	res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_org", org, "succeeded"))
	require.NoError(t, err)
	assert.Equal(t, model.AccessActive, res.Status)
	assert.Equal(t, testNow.Add(385*day), *res.NewExpiry)
	assert.Equal(t, 0, deps.store.target(org).TeamsCreatedThisPeriod)
}

func TestReconciliationUseCase_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("failed payment is recorded and never grants", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessInactive, nil)
		uc := deps.reconciler()

		res, err := uc.Reconcile(ctx, confirmation("evt_fail", team, "payment_failed"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeFailureRecorded, res.Outcome)
		assert.NotEmpty(t, res.PaymentEventID)
		assert.Equal(t, model.PaymentStatusFailed, deps.store.events["evt_fail"].Status)
		assert.Nil(t, deps.store.events["evt_fail"].PaidAt)
		assert.Equal(t, model.AccessInactive, deps.store.target(team).AccessStatus)
		require.Len(t, deps.notifier.failures, 1)
		assert.Equal(t, "payer@example.com", deps.notifier.failures[0].Recipient)

		// a later success for the same intent arrives under a new event id
		ok, err := uc.Reconcile(ctx, confirmation("evt_ok", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeApplied, ok.Outcome)
		assert.Equal(t, 2, deps.store.eventCount())

		dup, err := uc.Reconcile(ctx, confirmation("evt_fail", team, "payment_failed"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeAlreadyProcessed, dup.Outcome)
	})

	t.Run("failed payment is ignored when recording is off", func(t *testing.T) {
		deps := newReconcileDeps()
		deps.rcfg.RecordFailedPayments = false
		team := deps.addTeam(model.AccessInactive, nil)

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_fail", team, "canceled"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeFailureIgnored, res.Outcome)
		assert.Empty(t, res.PaymentEventID)
		assert.Zero(t, deps.store.eventCount())

		_, err = deps.reconciler().Reconcile(ctx, confirmation("evt_fail", team, "canceled"))
		require.NoError(t, err)
		assert.Empty(t, deps.notifier.failures)
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessInactive, nil)

		_, err := deps.reconciler().Reconcile(ctx, confirmation("evt_x", team, "processing"))
		assert.ErrorIs(t, err, domain.ErrUnsupportedStatus)
		assert.Zero(t, deps.store.eventCount())
	})

	t.Run("unknown target", func(t *testing.T) {
		deps := newReconcileDeps()
		ghost := model.TargetRef{Kind: model.TargetTeam, ID: uuid.NewString()}

		_, err := deps.reconciler().Reconcile(ctx, confirmation("evt_x", ghost, "succeeded"))
		assert.ErrorIs(t, err, domain.ErrTargetNotFound)
		assert.Zero(t, deps.store.eventCount())
	})

	t.Run("invalid confirmations", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessInactive, nil)
		uc := deps.reconciler()

		_, err := uc.Reconcile(ctx, confirmation("", team, "succeeded"))
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		neg := confirmation("evt_neg", team, "succeeded")
		neg.Amount = -1
		_, err = uc.Reconcile(ctx, neg)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("grant failure rolls back the ledger row", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessInactive, nil)
		deps.store.applyGrantErr = domain.ErrOperationFailed
		uc := deps.reconciler()

		_, err := uc.Reconcile(ctx, confirmation("evt_retry", team, "succeeded"))
		assert.ErrorIs(t, err, domain.ErrOperationFailed)
		assert.Zero(t, deps.store.eventCount())

		// the gateway redelivers and the event is applied exactly once
		deps.store.applyGrantErr = nil
		res, err := uc.Reconcile(ctx, confirmation("evt_retry", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeApplied, res.Outcome)
		assert.Equal(t, 1, deps.store.eventCount())
	})

	t.Run("settings unavailable", func(t *testing.T) {
		deps := newReconcileDeps()
		team := deps.addTeam(model.AccessInactive, nil)
		deps.settings.err = errors.New("redis down")

		_, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		assert.Error(t, err)
		assert.Zero(t, deps.store.eventCount())
	})
}

func TestReconciliationUseCase_Notifications(t *testing.T) {
	ctx := context.Background()

	t.Run("admin copy when enabled", func(t *testing.T) {
		deps := newReconcileDeps()
		deps.settings.current.NotifyAdminOnPayment = true
		deps.settings.current.AdminEmail = "ops@example.com"
		team := deps.addTeam(model.AccessInactive, nil)

		_, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		require.NoError(t, err)
		require.Len(t, deps.notifier.payments, 2)
		assert.Equal(t, "payer@example.com", deps.notifier.payments[0].Recipient)
		assert.Equal(t, "ops@example.com", deps.notifier.payments[1].Recipient)
		assert.Equal(t, "evt_1", deps.notifier.payments[1].GatewayEventID)
		require.NotNil(t, deps.notifier.payments[0].ExpiresAt)
	})

	t.Run("delivery failure does not undo the payment", func(t *testing.T) {
		deps := newReconcileDeps()
		deps.notifier.Err = errors.New("smtp down")
		team := deps.addTeam(model.AccessInactive, nil)

		res, err := deps.reconciler().Reconcile(ctx, confirmation("evt_1", team, "succeeded"))
		require.NoError(t, err)
		assert.Equal(t, usecase.OutcomeApplied, res.Outcome)
		assert.Equal(t, model.AccessPaidActive, deps.store.target(team).AccessStatus)
	})
}

func TestReconciliationUseCase_ConcurrentRedelivery(t *testing.T) {
	ctx := context.Background()
	deps := newReconcileDeps()
	team := deps.addTeam(model.AccessInactive, nil)
	uc := deps.reconciler()

	const deliveries = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[usecase.ReconcileOutcome]int{}
	)
	start := make(chan struct{})
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := uc.Reconcile(ctx, confirmation("evt_race", team, "succeeded"))
			mu.Lock()
			defer mu.Unlock()
			if assert.NoError(t, err) {
				outcomes[res.Outcome]++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, outcomes[usecase.OutcomeApplied])
	assert.Equal(t, deliveries-1, outcomes[usecase.OutcomeAlreadyProcessed])
	assert.Equal(t, 1, deps.store.eventCount())
	assert.Equal(t, 1, deps.store.grantCount())
}

func TestReconciliationUseCase_ExpiryNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		mode    model.GrantMode
		kind    model.TargetKind
		current *int // days from now
	}{
		{"fresh team, no expiry", model.GrantFresh, model.TargetTeam, nil},
		{"fresh team, short window", model.GrantFresh, model.TargetTeam, ptr(5)},
		{"fresh team, long window", model.GrantFresh, model.TargetTeam, ptr(900)},
		{"fresh team, lapsed", model.GrantFresh, model.TargetTeam, ptr(-30)},
		{"additive team, long window", model.GrantAdditive, model.TargetTeam, ptr(900)},
		{"organization, lapsed", model.GrantFresh, model.TargetOrganization, ptr(-1)},
		{"organization, active", model.GrantFresh, model.TargetOrganization, ptr(12)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := newReconcileDeps()
			deps.rcfg.TeamPaymentMode = tc.mode
			var before *time.Time
			if tc.current != nil {
				before = ptr(testNow.Add(time.Duration(*tc.current) * day))
			}
			var ref model.TargetRef
			if tc.kind == model.TargetTeam {
				ref = deps.addTeam(model.AccessPromoActive, before)
			} else {
				ref = deps.addOrg(model.AccessActive, before, 0)
			}

			res, err := deps.reconciler().Reconcile(ctx, confirmation("evt", ref, "succeeded"))
			require.NoError(t, err)
			after := *res.NewExpiry
			assert.False(t, after.Before(testNow))
			if before != nil {
				assert.False(t, after.Before(*before), "expiry moved from %s to %s", before, after)
			}
		})
	}
}
