// Package audit defines the append-only authorization audit log.
package audit

import (
	"time"

	"github.com/labfoundry/custodian/id"
)

// Domain action labels. Broader than the engine's action verbs — the audit
// stream also carries security events the engine does not arbitrate.
const (
	ActionPermissionCheck  = "permission_check"
	ActionAccessDenied     = "access_denied"
	ActionPermissionChange = "permission_change"
	ActionTemplateApplied  = "template_applied"
	ActionLogin            = "login"
	ActionLogout           = "logout"
)

// Entry is a single audit record. Append-only: entries are never mutated
// or deleted individually, only purged by age or by lab teardown.
type Entry struct {
	ID                  id.AuditID     `json:"id" db:"id"`
	LabID               string         `json:"lab_id,omitempty" db:"lab_id"`
	UserID              string         `json:"user_id,omitempty" db:"user_id"`
	Action              string         `json:"action" db:"action"`
	EntityType          string         `json:"entity_type" db:"entity_type"`
	EntityID            string         `json:"entity_id,omitempty" db:"entity_id"`
	AuthorizationMethod string         `json:"authorization_method,omitempty" db:"authorization_method"`
	RequiredPermission  string         `json:"required_permission,omitempty" db:"required_permission"`
	WasAuthorized       bool           `json:"was_authorized" db:"was_authorized"`
	Details             map[string]any `json:"details,omitempty" db:"details"`
	ErrorMessage        string         `json:"error_message,omitempty" db:"error_message"`
	RequestIP           string         `json:"request_ip,omitempty" db:"request_ip"`
	UserAgent           string         `json:"user_agent,omitempty" db:"user_agent"`
	Endpoint            string         `json:"endpoint,omitempty" db:"endpoint"`
	HTTPMethod          string         `json:"http_method,omitempty" db:"http_method"`
	SessionID           string         `json:"session_id,omitempty" db:"session_id"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
}

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	LabID         string     `json:"lab_id,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
	Action        string     `json:"action,omitempty"`
	EntityType    string     `json:"entity_type,omitempty"`
	EntityID      string     `json:"entity_id,omitempty"`
	WasAuthorized *bool      `json:"was_authorized,omitempty"`
	After         *time.Time `json:"after,omitempty"`
	Before        *time.Time `json:"before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`
}
