package model

import (
	"strings"
	"time"

	"lineup-entitlements/internal/domain"
)

// TargetKind discriminates the two tables that can carry an entitlement.
type TargetKind string

const (
	TargetTeam         TargetKind = "team"
	TargetOrganization TargetKind = "organization"
)

// ParseTargetKind accepts the short aliases used by webhook metadata ("org").
func ParseTargetKind(s string) (TargetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "team", "teams":
		return TargetTeam, nil
	case "organization", "organizations", "org":
		return TargetOrganization, nil
	default:
		return "", domain.ErrInvalidArgument
	}
}

// TargetRef is a tagged reference to a team or an organization.
type TargetRef struct {
	Kind TargetKind
	ID   string
}

func (r TargetRef) Validate() error {
	if r.ID == "" {
		return domain.ErrInvalidArgument
	}
	if r.Kind != TargetTeam && r.Kind != TargetOrganization {
		return domain.ErrInvalidArgument
	}
	return nil
}

func (r TargetRef) String() string { return string(r.Kind) + ":" + r.ID }

type AccessStatus string

const (
	AccessInactive AccessStatus = "inactive"
	// team-only states
	AccessPromoActive AccessStatus = "promo_active"
	AccessPaidActive  AccessStatus = "paid_active"
	// organization state
	AccessActive AccessStatus = "active"
)

// EntitlementTarget is the access state stored on a team or organization row.
type EntitlementTarget struct {
	Ref             TargetRef
	OwnerID         string
	AccessStatus    AccessStatus
	AccessExpiresAt *time.Time

	// Organizations only.
	TeamsCreatedThisPeriod int
}

// IsEntitled reports whether the target has premium access at now. The stored
// status is never trusted alone: an elapsed expiry means not entitled.
func (t *EntitlementTarget) IsEntitled(now time.Time) bool {
	if t == nil {
		return false
	}
	switch t.AccessStatus {
	case AccessPromoActive, AccessPaidActive, AccessActive:
	default:
		return false
	}
	if t.AccessExpiresAt != nil && !t.AccessExpiresAt.After(now) {
		return false
	}
	return true
}

// EffectiveStatus is the status a reader must act on.
func (t *EntitlementTarget) EffectiveStatus(now time.Time) AccessStatus {
	if !t.IsEntitled(now) {
		return AccessInactive
	}
	return t.AccessStatus
}

// GrantSource identifies which engine produced a grant.
type GrantSource string

const (
	GrantSourcePromo   GrantSource = "promo"
	GrantSourcePayment GrantSource = "payment"
)

// StatusFor returns the status a grant from source moves a target of kind into.
func StatusFor(kind TargetKind, source GrantSource) AccessStatus {
	if kind == TargetOrganization {
		return AccessActive
	}
	if source == GrantSourcePayment {
		return AccessPaidActive
	}
	return AccessPromoActive
}

// Grant is the write applied to an entitlement row inside a transaction.
type Grant struct {
	Target       TargetRef
	Status       AccessStatus
	ExpiresAt    time.Time
	ResetCounter bool
}
