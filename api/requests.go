package api

import (
	"github.com/labfoundry/custodian/membership"
)

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for a permission check.
type CheckRequest struct {
	UserID           string `json:"user_id" description:"User identifier"`
	LabID            string `json:"lab_id" description:"Lab (tenant) identifier"`
	EntityType       string `json:"entity_type" description:"Entity type (bucket, study, task, idea, deadline, lab, user)"`
	EntityID         string `json:"entity_id,omitempty" description:"Entity identifier (empty for create checks)"`
	Action           string `json:"action" description:"Action (view, create, edit, delete, assign, share, export)"`
	ResourceSpecific bool   `json:"resource_specific,omitempty" description:"Consult per-entity grants"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of permission checks"`
}

// ──────────────────────────────────────────────────
// Membership requests
// ──────────────────────────────────────────────────

// CreateMembershipRequest is the body for creating a lab membership.
type CreateMembershipRequest struct {
	UserID          string                  `json:"user_id" description:"User identifier"`
	LabID           string                  `json:"lab_id" description:"Lab identifier"`
	Role            string                  `json:"role" description:"Role name within the lab"`
	IsAdmin         bool                    `json:"is_admin,omitempty" description:"Lab admin flag"`
	IsSuperAdmin    bool                    `json:"is_super_admin,omitempty" description:"Super admin flag"`
	AccessStartDate string                  `json:"access_start_date,omitempty" description:"Access window start (RFC3339)"`
	AccessEndDate   string                  `json:"access_end_date,omitempty" description:"Access window end (RFC3339)"`
	Capabilities    membership.Capabilities `json:"capabilities" description:"Capability flags"`
	Metadata        map[string]any          `json:"metadata,omitempty" description:"Custom metadata"`
}

// UpdateMembershipRequest is the body for updating a membership.
type UpdateMembershipRequest struct {
	Role            string         `json:"role,omitempty" description:"Role name"`
	IsAdmin         *bool          `json:"is_admin,omitempty" description:"Lab admin flag"`
	IsSuperAdmin    *bool          `json:"is_super_admin,omitempty" description:"Super admin flag"`
	AccessStartDate *string        `json:"access_start_date,omitempty" description:"Access window start (RFC3339, empty string clears)"`
	AccessEndDate   *string        `json:"access_end_date,omitempty" description:"Access window end (RFC3339, empty string clears)"`
	Metadata        map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// SetCapabilitiesRequest is the body for overwriting membership capabilities.
type SetCapabilitiesRequest struct {
	Capabilities membership.Capabilities `json:"capabilities" description:"Capability flags (applied wholesale)"`
}

// GetMembershipRequest is the path parameter for getting a membership.
type GetMembershipRequest struct {
	MembershipID string `path:"membershipId" description:"Membership ID"`
}

// ListMembershipsRequest holds query parameters for listing memberships.
type ListMembershipsRequest struct {
	LabID  string `query:"lab_id" description:"Filter by lab"`
	UserID string `query:"user_id" description:"Filter by user"`
	Role   string `query:"role" description:"Filter by role"`
	Active string `query:"active" description:"Filter by active status (true/false)"`
	Admin  string `query:"admin" description:"Filter by admin flag (true/false)"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Grant requests
// ──────────────────────────────────────────────────

// CreateGrantRequest is the body for creating a resource grant.
type CreateGrantRequest struct {
	LabID      string         `json:"lab_id" description:"Lab identifier"`
	UserID     string         `json:"user_id" description:"User receiving the grant"`
	EntityType string         `json:"entity_type" description:"Entity type"`
	EntityID   string         `json:"entity_id" description:"Entity identifier"`
	CanView    bool           `json:"can_view,omitempty" description:"View permission"`
	CanEdit    bool           `json:"can_edit,omitempty" description:"Edit permission"`
	CanDelete  bool           `json:"can_delete,omitempty" description:"Delete permission"`
	CanShare   bool           `json:"can_share,omitempty" description:"Share permission"`
	CanAssign  bool           `json:"can_assign,omitempty" description:"Assign permission"`
	ValidFrom  string         `json:"valid_from,omitempty" description:"Validity start (RFC3339, default now)"`
	ValidUntil string         `json:"valid_until,omitempty" description:"Validity end (RFC3339)"`
	Metadata   map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// GetGrantRequest is the path parameter for getting a grant.
type GetGrantRequest struct {
	GrantID string `path:"grantId" description:"Grant ID"`
}

// ListGrantsRequest holds query parameters for listing grants.
type ListGrantsRequest struct {
	LabID      string `query:"lab_id" description:"Filter by lab"`
	UserID     string `query:"user_id" description:"Filter by user"`
	EntityType string `query:"entity_type" description:"Filter by entity type"`
	EntityID   string `query:"entity_id" description:"Filter by entity ID"`
	Revoked    string `query:"revoked" description:"Filter by revocation (true/false)"`
	Limit      int    `query:"limit" description:"Maximum results"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Cross-lab requests
// ──────────────────────────────────────────────────

// RequestAccessRequest is the body for requesting cross-lab access.
type RequestAccessRequest struct {
	UserID                string         `json:"user_id" description:"Visiting user"`
	HomeLabID             string         `json:"home_lab_id" description:"User's home lab"`
	TargetLabID           string         `json:"target_lab_id" description:"Lab the user wants access to"`
	CanViewProjects       bool           `json:"can_view_projects,omitempty" description:"View projects in target lab"`
	CanEditSharedProjects bool           `json:"can_edit_shared_projects,omitempty" description:"Edit shared projects"`
	CanJoinMeetings       bool           `json:"can_join_meetings,omitempty" description:"Join meetings"`
	CanViewReports        bool           `json:"can_view_reports,omitempty" description:"View reports"`
	ValidFrom             string         `json:"valid_from,omitempty" description:"Validity start (RFC3339, default now)"`
	ValidUntil            string         `json:"valid_until,omitempty" description:"Validity end (RFC3339)"`
	Metadata              map[string]any `json:"metadata,omitempty" description:"Custom metadata"`
}

// SetAccessStatusRequest is the body for moving a grant through approval.
type SetAccessStatusRequest struct {
	Status string `json:"status" description:"New status (approved or rejected)"`
}

// GetAccessRequest is the path parameter for getting a cross-lab grant.
type GetAccessRequest struct {
	AccessID string `path:"accessId" description:"Cross-lab access ID"`
}

// ListAccessRequest holds query parameters for listing cross-lab grants.
type ListAccessRequest struct {
	UserID      string `query:"user_id" description:"Filter by user"`
	HomeLabID   string `query:"home_lab_id" description:"Filter by home lab"`
	TargetLabID string `query:"target_lab_id" description:"Filter by target lab"`
	Status      string `query:"status" description:"Filter by status"`
	Limit       int    `query:"limit" description:"Maximum results"`
	Offset      int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Template requests
// ──────────────────────────────────────────────────

// CreateTemplateRequest is the body for creating a permission template.
type CreateTemplateRequest struct {
	LabID        string                  `json:"lab_id" description:"Lab the template belongs to"`
	Name         string                  `json:"name" description:"Template name (unique within the lab)"`
	Description  string                  `json:"description,omitempty" description:"Human-readable description"`
	Role         string                  `json:"role" description:"Role the template targets"`
	IsActive     bool                    `json:"is_active" description:"Whether the template can be applied"`
	IsDefault    bool                    `json:"is_default,omitempty" description:"Default template for the role"`
	Capabilities membership.Capabilities `json:"capabilities" description:"Capability bundle"`
}

// UpdateTemplateRequest is the body for updating a template.
type UpdateTemplateRequest struct {
	Name         string                   `json:"name,omitempty" description:"Template name"`
	Description  string                   `json:"description,omitempty" description:"Description"`
	Role         string                   `json:"role,omitempty" description:"Target role"`
	IsActive     *bool                    `json:"is_active,omitempty" description:"Active flag"`
	IsDefault    *bool                    `json:"is_default,omitempty" description:"Default flag"`
	Capabilities *membership.Capabilities `json:"capabilities,omitempty" description:"Capability bundle"`
}

// GetTemplateRequest is the path parameter for getting a template.
type GetTemplateRequest struct {
	TemplateID string `path:"templateId" description:"Template ID"`
}

// ListTemplatesRequest holds query parameters for listing templates.
type ListTemplatesRequest struct {
	LabID   string `query:"lab_id" description:"Filter by lab"`
	Role    string `query:"role" description:"Filter by role"`
	Active  string `query:"active" description:"Filter by active status (true/false)"`
	Default string `query:"default" description:"Filter by default flag (true/false)"`
	Limit   int    `query:"limit" description:"Maximum results"`
	Offset  int    `query:"offset" description:"Results to skip"`
}

// ApplyTemplateRequest is the body for applying a template to a membership.
type ApplyTemplateRequest struct {
	UserID string `json:"user_id" description:"User whose membership receives the template"`
	LabID  string `json:"lab_id" description:"Lab the membership belongs to"`
}

// UpgradeAllRequest is the body for re-applying default templates lab-wide.
type UpgradeAllRequest struct {
	LabID string `json:"lab_id" description:"Lab to upgrade"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListAuditRequest holds query parameters for querying the audit log.
type ListAuditRequest struct {
	LabID      string `query:"lab_id" description:"Filter by lab"`
	UserID     string `query:"user_id" description:"Filter by user"`
	Action     string `query:"action" description:"Filter by action"`
	EntityType string `query:"entity_type" description:"Filter by entity type"`
	EntityID   string `query:"entity_id" description:"Filter by entity ID"`
	Authorized string `query:"authorized" description:"Filter by decision (true/false)"`
	After      string `query:"after" description:"After timestamp (RFC3339)"`
	Before     string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit      int    `query:"limit" description:"Maximum results"`
	Offset     int    `query:"offset" description:"Results to skip"`
}

// PurgeAuditRequest is the body for purging old audit entries.
type PurgeAuditRequest struct {
	Before string `json:"before" description:"Delete entries created before this time (RFC3339)"`
}
