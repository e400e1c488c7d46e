// Package crosslab defines the cross-lab access grant entity.
package crosslab

import (
	"time"

	"github.com/labfoundry/custodian/id"
)

// Status is the approval state of a cross-lab access grant.
// Only approved grants are ever evaluated.
type Status string

const (
	// StatusPending means the grant awaits approval.
	StatusPending Status = "pending"

	// StatusApproved means the grant is in force (subject to its window).
	StatusApproved Status = "approved"

	// StatusRejected means the grant was declined.
	StatusRejected Status = "rejected"

	// StatusRevoked means a previously approved grant was withdrawn.
	StatusRevoked Status = "revoked"
)

// Access lets a user whose home lab differs act within a target lab,
// with restricted capabilities and a validity window.
type Access struct {
	ID                    id.CrossLabID  `json:"id" db:"id"`
	UserID                string         `json:"user_id" db:"user_id"`
	HomeLabID             string         `json:"home_lab_id" db:"home_lab_id"`
	TargetLabID           string         `json:"target_lab_id" db:"target_lab_id"`
	Status                Status         `json:"status" db:"status"`
	CanViewProjects       bool           `json:"can_view_projects" db:"can_view_projects"`
	CanEditSharedProjects bool           `json:"can_edit_shared_projects" db:"can_edit_shared_projects"`
	CanJoinMeetings       bool           `json:"can_join_meetings" db:"can_join_meetings"`
	CanViewReports        bool           `json:"can_view_reports" db:"can_view_reports"`
	ValidFrom             time.Time      `json:"valid_from" db:"valid_from"`
	ValidUntil            *time.Time     `json:"valid_until,omitempty" db:"valid_until"`
	RevokedAt             *time.Time     `json:"revoked_at,omitempty" db:"revoked_at"`
	ApprovedBy            string         `json:"approved_by,omitempty" db:"approved_by"`
	Metadata              map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at" db:"updated_at"`
}

// Validity describes where a point in time falls relative to an access
// grant's validity window and approval state.
type Validity int

const (
	// ValidityActive means the grant is in force at the instant.
	ValidityActive Validity = iota

	// ValidityNotYetStarted means ValidFrom is in the future.
	ValidityNotYetStarted

	// ValidityExpired means ValidUntil has passed.
	ValidityExpired

	// ValidityRevoked means a previously approved grant was withdrawn.
	ValidityRevoked

	// ValidityNotApproved means the grant is pending or rejected.
	ValidityNotApproved
)

// WindowAt evaluates the grant at the given instant. Non-approved grants
// are never active; an absent end bound is unbounded.
func (a *Access) WindowAt(now time.Time) Validity {
	if a.Status != StatusApproved {
		return ValidityNotApproved
	}
	if a.RevokedAt != nil {
		return ValidityRevoked
	}
	if now.Before(a.ValidFrom) {
		return ValidityNotYetStarted
	}
	if a.ValidUntil != nil && now.After(*a.ValidUntil) {
		return ValidityExpired
	}
	return ValidityActive
}

// ValidAt reports whether an approved grant is in force at the instant.
func (a *Access) ValidAt(now time.Time) bool {
	return a.WindowAt(now) == ValidityActive
}

// Restrictions derives the caveat strings a decision carries when this
// grant authorizes a request, from the capabilities the grant lacks.
func (a *Access) Restrictions() []string {
	var r []string
	if !a.CanEditSharedProjects {
		r = append(r, "Read-only access")
	}
	if !a.CanJoinMeetings {
		r = append(r, "Cannot join meetings")
	}
	if !a.CanViewReports {
		r = append(r, "Cannot view reports")
	}
	return r
}

// ListFilter contains filters for listing cross-lab access grants.
type ListFilter struct {
	UserID      string `json:"user_id,omitempty"`
	HomeLabID   string `json:"home_lab_id,omitempty"`
	TargetLabID string `json:"target_lab_id,omitempty"`
	Status      Status `json:"status,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
}
