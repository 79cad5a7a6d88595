package model

import (
	"strings"
	"time"

	"lineup-entitlements/internal/domain"
)

// DefaultGrantDays is substituted when no positive duration is configured.
const DefaultGrantDays = 365

type GrantMode string

const (
	// GrantFresh starts a new window at now.
	GrantFresh GrantMode = "fresh"
	// GrantAdditive stacks on top of an unexpired window.
	GrantAdditive GrantMode = "additive"
)

func ParseGrantMode(s string) (GrantMode, error) {
	switch GrantMode(strings.ToLower(strings.TrimSpace(s))) {
	case GrantFresh:
		return GrantFresh, nil
	case GrantAdditive:
		return GrantAdditive, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

const day = 24 * time.Hour

// ComputeNewExpiry returns the expiry a grant of durationDays produces.
// It has no side effects; now is supplied by the caller.
func ComputeNewExpiry(currentExpiry *time.Time, durationDays int, mode GrantMode, now time.Time) (time.Time, error) {
	if durationDays <= 0 {
		return time.Time{}, domain.ErrConfiguration
	}
	span := time.Duration(durationDays) * day
	switch mode {
	case GrantFresh:
		return now.Add(span), nil
	case GrantAdditive:
		if currentExpiry != nil && currentExpiry.After(now) {
			return currentExpiry.Add(span), nil
		}
		return now.Add(span), nil
	default:
		return time.Time{}, domain.ErrInvalidArgument
	}
}

// ResolveDurationDays returns configured when positive, otherwise
// DefaultGrantDays. substituted is true when the default was used so the
// caller can log it.
func ResolveDurationDays(configured int) (days int, substituted bool) {
	if configured <= 0 {
		return DefaultGrantDays, true
	}
	return configured, false
}

// MonotonicExpiry never lets a grant move an unexpired expiry backwards.
func MonotonicExpiry(current *time.Time, computed, now time.Time) time.Time {
	if current != nil && current.After(now) && current.After(computed) {
		return *current
	}
	return computed
}
