package model

import (
	"strings"
	"time"

	"lineup-entitlements/internal/domain"
)

// PromotionCode can be redeemed for a limited entitlement window.
type PromotionCode struct {
	ID              string
	Code            string
	Active          bool
	ExpiresAt       *time.Time // nil never expires
	MaxUses         *int       // nil is unlimited
	UseCount        int
	MaxUsesPerActor int
	DurationDays    *int // nil uses the settings default
	CreatedAt       time.Time
}

// NormalizeCode trims and upper-cases a user supplied code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewPromotionCode validates and constructs a code with a per-actor limit of 1.
func NewPromotionCode(id, code string, maxUses *int, expiresAt *time.Time) (*PromotionCode, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	if maxUses != nil && *maxUses < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &PromotionCode{
		ID:              id,
		Code:            code,
		Active:          true,
		ExpiresAt:       expiresAt,
		MaxUses:         maxUses,
		MaxUsesPerActor: 1,
		CreatedAt:       time.Now(),
	}, nil
}

// CheckRedeemable evaluates the code-level preconditions in order:
// inactive, expired, global limit.
func (c *PromotionCode) CheckRedeemable(now time.Time) error {
	if err := c.CheckUsable(now); err != nil {
		return err
	}
	return c.CheckGlobalLimit()
}

// CheckUsable rejects inactive and expired codes.
func (c *PromotionCode) CheckUsable(now time.Time) error {
	if !c.Active {
		return domain.ErrInactiveCode
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return domain.ErrExpiredCode
	}
	return nil
}

// CheckGlobalLimit rejects a code whose uses are exhausted. nil MaxUses is unlimited.
func (c *PromotionCode) CheckGlobalLimit() error {
	if c.MaxUses != nil && c.UseCount >= *c.MaxUses {
		return domain.ErrGlobalLimitReached
	}
	return nil
}

// PerActorLimit returns the effective per-actor limit (at least 1).
func (c *PromotionCode) PerActorLimit() int {
	if c.MaxUsesPerActor <= 0 {
		return 1
	}
	return c.MaxUsesPerActor
}

// Redemption is an immutable ledger row.
type Redemption struct {
	ID              string
	UserID          *string // nil for organization-initiated renewals
	PromotionCodeID string
	Target          TargetRef
	RedeemedAt      time.Time
}

// RedemptionFilter selects the rows counted against the per-actor limit.
// Exactly one of UserID or Target is set.
type RedemptionFilter struct {
	PromotionCodeID string
	UserID          *string
	Target          *TargetRef
}
