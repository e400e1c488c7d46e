// Package grant defines the resource-specific permission Grant entity.
package grant

import (
	"time"

	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/id"
)

// Grant is a narrow permission scoped to one user and one entity,
// independent of the user's lab role. Multiple grants may exist for the
// same (user, entity); any currently valid one matching the action suffices.
type Grant struct {
	ID         id.GrantID     `json:"id" db:"id"`
	LabID      string         `json:"lab_id" db:"lab_id"`
	UserID     string         `json:"user_id" db:"user_id"`
	EntityType entity.Type    `json:"entity_type" db:"entity_type"`
	EntityID   string         `json:"entity_id" db:"entity_id"`
	CanView    bool           `json:"can_view" db:"can_view"`
	CanEdit    bool           `json:"can_edit" db:"can_edit"`
	CanDelete  bool           `json:"can_delete" db:"can_delete"`
	CanShare   bool           `json:"can_share" db:"can_share"`
	CanAssign  bool           `json:"can_assign" db:"can_assign"`
	ValidFrom  time.Time      `json:"valid_from" db:"valid_from"`
	ValidUntil *time.Time     `json:"valid_until,omitempty" db:"valid_until"`
	RevokedAt  *time.Time     `json:"revoked_at,omitempty" db:"revoked_at"`
	GrantedBy  string         `json:"granted_by,omitempty" db:"granted_by"`
	Metadata   map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Validity describes where a point in time falls relative to a grant's
// validity window.
type Validity int

const (
	// ValidityActive means the grant is in force at the instant.
	ValidityActive Validity = iota

	// ValidityNotYetStarted means ValidFrom is in the future.
	ValidityNotYetStarted

	// ValidityExpired means ValidUntil has passed.
	ValidityExpired

	// ValidityRevoked means the grant was revoked.
	ValidityRevoked
)

// WindowAt evaluates the validity window at the given instant. A revoked
// grant is never active; an absent end bound is unbounded.
func (g *Grant) WindowAt(now time.Time) Validity {
	if g.RevokedAt != nil {
		return ValidityRevoked
	}
	if now.Before(g.ValidFrom) {
		return ValidityNotYetStarted
	}
	if g.ValidUntil != nil && now.After(*g.ValidUntil) {
		return ValidityExpired
	}
	return ValidityActive
}

// ValidAt reports whether the grant is in force at the given instant.
func (g *Grant) ValidAt(now time.Time) bool {
	return g.WindowAt(now) == ValidityActive
}

// ListFilter contains filters for listing grants.
type ListFilter struct {
	LabID      string      `json:"lab_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	EntityType entity.Type `json:"entity_type,omitempty"`
	EntityID   string      `json:"entity_id,omitempty"`
	Revoked    *bool       `json:"revoked,omitempty"`
	Limit      int         `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`
}
