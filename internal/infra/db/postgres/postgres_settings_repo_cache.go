package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lineup-entitlements/internal/domain"
	"lineup-entitlements/internal/domain/model"
	"lineup-entitlements/internal/domain/ports/adapter"
	"lineup-entitlements/internal/domain/ports/repository"
	"lineup-entitlements/internal/infra/metrics"
	red "lineup-entitlements/internal/infra/redis"
)

const settingsCacheKey = "settings:current"

var _ adapter.SettingsProvider = (*SettingsCache)(nil)

// SettingsCache serves the settings snapshot from Redis and falls back to the
// database. When no settings row exists the configured fallback is served.
type SettingsCache struct {
	inner    repository.SettingsRepository
	cache    red.RedisClient
	ttl      time.Duration
	fallback model.Settings
	log      *zerolog.Logger
}

func NewSettingsCache(inner repository.SettingsRepository, cache red.RedisClient, ttl time.Duration, fallback model.Settings, log *zerolog.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &SettingsCache{inner: inner, cache: cache, ttl: ttl, fallback: fallback, log: log}
}

func (d *SettingsCache) Current(ctx context.Context) (*model.Settings, error) {
	val, err := d.cache.Get(ctx, settingsCacheKey)
	if err == nil {
		var s model.Settings
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("settings", "hit")
			return &s, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Msg("settings cache read failed")
	}

	metrics.IncCacheRequest("settings", "miss")
	s, err := d.inner.Load(ctx, repository.NoTX)
	if errors.Is(err, domain.ErrNotFound) {
		fb := d.fallback
		s, err = &fb, nil
	}
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		if err := d.cache.Set(ctx, settingsCacheKey, b, d.ttl); err != nil {
			d.log.Warn().Err(err).Msg("settings cache write failed")
		}
	}
	return s, nil
}

// Invalidate drops the cached snapshot; the next Current reads the database.
func (d *SettingsCache) Invalidate(ctx context.Context) error {
	return d.cache.Del(ctx, settingsCacheKey)
}

