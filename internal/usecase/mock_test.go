//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/worker"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

const day = 24 * time.Hour

// =============================
// In-memory transactional store
// =============================

// memStore backs every repository port with maps. WithTx holds txMu for the
// whole callback, so transactions are serialized like rows under FOR UPDATE,
// and restores a snapshot when the callback fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	codes       map[string]model.PromotionCode // by id
	redemptions []model.Redemption
	events      map[string]model.PaymentEvent // by gateway event id
	targets     map[model.TargetRef]model.EntitlementTarget

	// fault injection
	applyGrantErr error
	insertEvtErr  error
	grants        int
}

func newMemStore() *memStore {
	return &memStore{
		codes:   map[string]model.PromotionCode{},
		events:  map[string]model.PaymentEvent{},
		targets: map[model.TargetRef]model.EntitlementTarget{},
	}
}

type memSnapshot struct {
	codes       map[string]model.PromotionCode
	redemptions []model.Redemption
	events      map[string]model.PaymentEvent
	targets     map[model.TargetRef]model.EntitlementTarget
	grants      int
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		codes:       make(map[string]model.PromotionCode, len(s.codes)),
		redemptions: append([]model.Redemption(nil), s.redemptions...),
		events:      make(map[string]model.PaymentEvent, len(s.events)),
		targets:     make(map[model.TargetRef]model.EntitlementTarget, len(s.targets)),
		grants:      s.grants,
	}
	for k, v := range s.codes {
		snap.codes[k] = v
	}
	for k, v := range s.events {
		snap.events[k] = v
	}
	for k, v := range s.targets {
		snap.targets[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes, s.redemptions, s.events, s.targets, s.grants = snap.codes, snap.redemptions, snap.events, snap.targets, snap.grants
}

type memTx struct{}

var _ repository.TransactionManager = (*memStore)(nil)

func (s *memStore) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	snap := s.snapshot()
	if err := fn(ctx, memTx{}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) addCode(c *model.PromotionCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[c.ID] = *c
}

func (s *memStore) code(id string) model.PromotionCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[id]
}

func (s *memStore) addTarget(t model.EntitlementTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[t.Ref] = t
}

func (s *memStore) target(ref model.TargetRef) model.EntitlementTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targets[ref]
}

func (s *memStore) eventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *memStore) grantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants
}

// ---- PromotionCodeRepository ----

type memCodeRepo struct{ s *memStore }

var _ repository.PromotionCodeRepository = memCodeRepo{}

func (r memCodeRepo) Save(ctx context.Context, tx repository.Tx, c *model.PromotionCode) error {
	r.s.mu.Lock()
	for id, existing := range r.s.codes {
		if id != c.ID && existing.Code == model.NormalizeCode(c.Code) {
			r.s.mu.Unlock()
			return domain.ErrAlreadyExists
		}
	}
	r.s.mu.Unlock()
	r.s.addCode(c)
	return nil
}

func (r memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromotionCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.codes {
		if c.Code == model.NormalizeCode(code) {
			cp := c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memCodeRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.PromotionCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return &c, nil
}

func (r memCodeRepo) IncrementUseCount(ctx context.Context, tx repository.Tx, id string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.codes[id]
	if !ok {
		return 0, domain.ErrCodeNotFound
	}
	c.UseCount++
	r.s.codes[id] = c
	return c.UseCount, nil
}

// ---- RedemptionRepository ----

type memRedemptionRepo struct{ s *memStore }

var _ repository.RedemptionRepository = memRedemptionRepo{}

func (r memRedemptionRepo) Insert(ctx context.Context, tx repository.Tx, rd *model.Redemption) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.redemptions = append(r.s.redemptions, *rd)
	return nil
}

func (r memRedemptionRepo) Count(ctx context.Context, tx repository.Tx, f model.RedemptionFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, rd := range r.s.redemptions {
		if rd.PromotionCodeID != f.PromotionCodeID {
			continue
		}
		switch {
		case f.UserID != nil:
			if rd.UserID != nil && *rd.UserID == *f.UserID {
				n++
			}
		case f.Target != nil:
			if rd.Target == *f.Target {
				n++
			}
		default:
			return 0, domain.ErrInvalidArgument
		}
	}
	return n, nil
}

// ---- PaymentEventRepository ----

type memEventRepo struct{ s *memStore }

var _ repository.PaymentEventRepository = memEventRepo{}

func (r memEventRepo) Exists(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.events[id]
	return ok, nil
}

func (r memEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertEvtErr != nil {
		return r.s.insertEvtErr
	}
	if _, ok := r.s.events[e.GatewayEventID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.events[e.GatewayEventID] = *e
	return nil
}

func (r memEventRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, since time.Time, currency string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total int64
	for _, e := range r.s.events {
		if e.Status == model.PaymentStatusSucceeded && e.Currency == currency && e.PaidAt != nil && !e.PaidAt.Before(since) {
			total += e.Amount
		}
	}
	return total, nil
}

// ---- EntitlementRepository ----

type memTargetRepo struct{ s *memStore }

var _ repository.EntitlementRepository = memTargetRepo{}

func (r memTargetRepo) FindByRef(ctx context.Context, tx repository.Tx, ref model.TargetRef) (*model.EntitlementTarget, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.targets[ref]
	if !ok {
		return nil, domain.ErrTargetNotFound
	}
	if t.AccessExpiresAt != nil {
		exp := *t.AccessExpiresAt
		t.AccessExpiresAt = &exp
	}
	return &t, nil
}

func (r memTargetRepo) ApplyGrant(ctx context.Context, tx repository.Tx, g model.Grant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.applyGrantErr != nil {
		return r.s.applyGrantErr
	}
	t, ok := r.s.targets[g.Target]
	if !ok {
		return domain.ErrTargetNotFound
	}
	exp := g.ExpiresAt
	t.AccessStatus, t.AccessExpiresAt = g.Status, &exp
	if g.ResetCounter {
		t.TeamsCreatedThisPeriod = 0
	}
	r.s.targets[g.Target] = t
	r.s.grants++
	return nil
}

// ---- SettingsRepository / SettingsProvider ----

type memSettings struct {
	mu          sync.Mutex
	current     model.Settings
	err         error
	saveErr     error
	invalidated int
}

var (
	_ adapter.SettingsProvider      = (*memSettings)(nil)
	_ repository.SettingsRepository = (*memSettings)(nil)
)

func newMemSettings() *memSettings {
	return &memSettings{current: model.Settings{DefaultDurationDays: 365, UnlockPrice: 500, UnlockCurrency: "usd"}}
}

func (m *memSettings) Current(ctx context.Context) (*model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	cp := m.current
	return &cp, nil
}

func (m *memSettings) Invalidate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated++
	return nil
}

func (m *memSettings) Load(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	return m.Current(ctx)
}

func (m *memSettings) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.current = *s
	return nil
}

// ---- Notifier ----

type MockNotifier struct {
	mu       sync.Mutex
	payments []adapter.PaymentNotice
	failures []adapter.PaymentNotice
	promos   []adapter.PromoNotice
	Err      error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) PaymentSucceeded(ctx context.Context, n adapter.PaymentNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, n)
	return m.Err
}

func (m *MockNotifier) PaymentFailed(ctx context.Context, n adapter.PaymentNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, n)
	return m.Err
}

func (m *MockNotifier) PromoRedeemed(ctx context.Context, n adapter.PromoNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promos = append(m.promos, n)
	return m.Err
}

// ---- Submitter ----

type fakeSubmitter struct {
	tasks []worker.Task
	err   error
}

func (f *fakeSubmitter) Submit(task worker.Task) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}
