package redis

import (
	"context"
	"time"
)

const redeemKeyPrefix = "ratelimit:redeem:"

// RateLimiter admits at most limit calls per key in each fixed window.
type RateLimiter struct {
	counter WindowCounter
}

func NewRateLimiter(counter WindowCounter) *RateLimiter {
	return &RateLimiter{counter: counter}
}

// Allow reports whether the call fits the window. A non-positive limit
// disables limiting without touching redis.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	n, err := r.counter.IncrWindow(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

// RedeemKey scopes redemption attempts to one actor.
func RedeemKey(actorID string) string {
	return redeemKeyPrefix + actorID
}
