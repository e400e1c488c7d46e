// Package membership defines the LabMembership entity and its store interface.
package membership

import (
	"time"

	"github.com/labfoundry/custodian/id"
)

// Membership is a user's role and capability flags within one lab.
// The (UserID, LabID) pair is unique. Memberships are never hard-deleted;
// deactivation flips IsActive.
type Membership struct {
	ID              id.MembershipID `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	LabID           string          `json:"lab_id" db:"lab_id"`
	Role            string          `json:"role" db:"role"`
	IsActive        bool            `json:"is_active" db:"is_active"`
	IsAdmin         bool            `json:"is_admin" db:"is_admin"`
	IsSuperAdmin    bool            `json:"is_super_admin" db:"is_super_admin"`
	AccessStartDate *time.Time      `json:"access_start_date,omitempty" db:"access_start_date"`
	AccessEndDate   *time.Time      `json:"access_end_date,omitempty" db:"access_end_date"`
	Capabilities    Capabilities    `json:"capabilities" db:"-"`
	Metadata        map[string]any  `json:"metadata,omitempty" db:"metadata"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Capabilities is the fixed bundle of boolean capability flags a lab role
// carries. Applied wholesale by permission templates.
type Capabilities struct {
	CanCreateProjects  bool `json:"can_create_projects" db:"can_create_projects"`
	CanViewAllProjects bool `json:"can_view_all_projects" db:"can_view_all_projects"`
	CanEditAllProjects bool `json:"can_edit_all_projects" db:"can_edit_all_projects"`
	CanDeleteProjects  bool `json:"can_delete_projects" db:"can_delete_projects"`
	CanViewAllTasks    bool `json:"can_view_all_tasks" db:"can_view_all_tasks"`
	CanEditAllTasks    bool `json:"can_edit_all_tasks" db:"can_edit_all_tasks"`
	CanDeleteTasks     bool `json:"can_delete_tasks" db:"can_delete_tasks"`
	CanAssignTasks     bool `json:"can_assign_tasks" db:"can_assign_tasks"`
	CanEditAllIdeas    bool `json:"can_edit_all_ideas" db:"can_edit_all_ideas"`
	CanDeleteIdeas     bool `json:"can_delete_ideas" db:"can_delete_ideas"`
	CanManageDeadlines bool `json:"can_manage_deadlines" db:"can_manage_deadlines"`
}

// CountEnabled returns how many capability flags are set.
func (c Capabilities) CountEnabled() int {
	n := 0
	for _, b := range []bool{
		c.CanCreateProjects, c.CanViewAllProjects, c.CanEditAllProjects, c.CanDeleteProjects,
		c.CanViewAllTasks, c.CanEditAllTasks, c.CanDeleteTasks, c.CanAssignTasks,
		c.CanEditAllIdeas, c.CanDeleteIdeas, c.CanManageDeadlines,
	} {
		if b {
			n++
		}
	}
	return n
}

// Validity describes where a point in time falls relative to a membership's
// access window.
type Validity int

const (
	// ValidityActive means the window (if any) contains the instant.
	ValidityActive Validity = iota

	// ValidityNotYetStarted means the access start date is in the future.
	ValidityNotYetStarted

	// ValidityExpired means the access end date has passed.
	ValidityExpired
)

// WindowAt evaluates the access window at the given instant. An absent bound
// is unbounded on that side.
func (m *Membership) WindowAt(now time.Time) Validity {
	if m.AccessStartDate != nil && now.Before(*m.AccessStartDate) {
		return ValidityNotYetStarted
	}
	if m.AccessEndDate != nil && now.After(*m.AccessEndDate) {
		return ValidityExpired
	}
	return ValidityActive
}

// ListFilter contains filters for listing memberships.
type ListFilter struct {
	LabID    string `json:"lab_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	IsAdmin  *bool  `json:"is_admin,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
