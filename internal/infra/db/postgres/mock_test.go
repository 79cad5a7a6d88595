//go:build !integration

package postgres

import (
	"context"
	"time"

	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/repository"
	red "lineup-entitlements/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerSettingsRepo mocks the database repository that the settings cache wraps.
type mockInnerSettingsRepo struct {
	LoadFunc func(ctx context.Context, tx repository.Tx) (*model.Settings, error)
	SaveFunc func(ctx context.Context, tx repository.Tx, s *model.Settings) error
}

func (m *mockInnerSettingsRepo) Load(ctx context.Context, tx repository.Tx) (*model.Settings, error) {
	return m.LoadFunc(ctx, tx)
}
func (m *mockInnerSettingsRepo) Save(ctx context.Context, tx repository.Tx, s *model.Settings) error {
	return m.SaveFunc(ctx, tx, s)
}

// mockRedisClient is the cache backend; unset hooks behave like an empty redis.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Close() error                   { return nil }
