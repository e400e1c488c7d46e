// Package custodian provides layered permission resolution for multi-tenant
// research-lab management.
//
// Four independent grant sources can each authorize a request. The engine
// evaluates them in fixed priority order — entity ownership, lab role,
// resource-specific grant, cross-lab access — and stops at the first source
// that allows. Every decision is audited, and any internal failure denies
// rather than allows (fail closed).
//
//	eng, err := custodian.NewEngine(
//	    custodian.WithStore(memStore),
//	)
//	result := eng.Check(ctx, &custodian.PermissionContext{
//	    UserID:     "user_123",
//	    LabID:      "lab_456",
//	    EntityType: entity.TypeStudy,
//	    EntityID:   "study_789",
//	    Action:     custodian.ActionEdit,
//	})
package custodian

import "github.com/labfoundry/custodian/entity"

// Action is the operation a user wants to perform on an entity.
type Action string

const (
	// ActionView reads an entity.
	ActionView Action = "view"

	// ActionCreate creates a new entity (no entity ID yet).
	ActionCreate Action = "create"

	// ActionEdit modifies an entity.
	ActionEdit Action = "edit"

	// ActionDelete removes an entity.
	ActionDelete Action = "delete"

	// ActionAssign assigns an entity (e.g. a task) to a user.
	ActionAssign Action = "assign"

	// ActionShare shares an entity with other users.
	ActionShare Action = "share"

	// ActionExport exports an entity's data.
	ActionExport Action = "export"
)

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionCreate, ActionEdit, ActionDelete, ActionAssign, ActionShare, ActionExport:
		return true
	default:
		return false
	}
}

// Method identifies which authorization layer decided a request — the layer
// that allowed it, or the last layer attempted before a denial.
type Method string

const (
	// MethodOwnership is the entity-ownership layer.
	MethodOwnership Method = "ownership"

	// MethodLabRole is the lab-membership capability layer.
	MethodLabRole Method = "lab_role"

	// MethodResourcePermission is the resource-specific grant layer.
	MethodResourcePermission Method = "resource_permission"

	// MethodCrossLabAccess is the cross-lab access layer.
	MethodCrossLabAccess Method = "cross_lab_access"
)

// PermissionContext is the input to a permission check, built once per
// request by the boundary adapter.
type PermissionContext struct {
	UserID     string      `json:"user_id"`
	LabID      string      `json:"lab_id"`
	EntityType entity.Type `json:"entity_type"`

	// EntityID is empty for creation-type checks where no entity exists yet.
	EntityID string `json:"entity_id,omitempty"`

	Action Action `json:"action"`

	// ResourceSpecific enables the resource-grant layer. Left false, narrow
	// per-entity grants are not consulted.
	ResourceSpecific bool `json:"resource_specific,omitempty"`

	// Request carries transport metadata for the audit trail.
	Request RequestMeta `json:"request,omitempty"`
}

// RequestMeta is the transport metadata an audit entry records.
type RequestMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	Method    string `json:"method,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// PermissionResult is the outcome of a permission check.
type PermissionResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Method  Method `json:"method"`

	// Restrictions lists caveats on the authorization, populated only by
	// cross-lab grants (e.g. "Read-only access").
	Restrictions []string `json:"restrictions,omitempty"`

	EvalTimeNs int64 `json:"eval_time_ns"`
}

// Reason strings for the terminal and fail-closed outcomes. Layer-specific
// diagnostics (expired windows, missing capabilities) reach the audit trail,
// not the caller.
const (
	// ReasonInsufficient is returned when all four layers fail.
	ReasonInsufficient = "Insufficient permissions for this action"

	// ReasonCheckFailed is returned on the fail-closed path.
	ReasonCheckFailed = "Permission check failed"
)
