package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/template"
)

// ──────────────────────────────────────────────────
// Membership model
// ──────────────────────────────────────────────────

type membershipModel struct {
	grove.BaseModel    `grove:"table:custodian_memberships"`
	ID                 string     `grove:"id,pk"`
	UserID             string     `grove:"user_id,notnull"`
	LabID              string     `grove:"lab_id,notnull"`
	Role               string     `grove:"role,notnull"`
	IsActive           bool       `grove:"is_active,notnull"`
	IsAdmin            bool       `grove:"is_admin,notnull"`
	IsSuperAdmin       bool       `grove:"is_super_admin,notnull"`
	AccessStartDate    *time.Time `grove:"access_start_date"`
	AccessEndDate      *time.Time `grove:"access_end_date"`
	CanCreateProjects  bool       `grove:"can_create_projects,notnull"`
	CanViewAllProjects bool       `grove:"can_view_all_projects,notnull"`
	CanEditAllProjects bool       `grove:"can_edit_all_projects,notnull"`
	CanDeleteProjects  bool       `grove:"can_delete_projects,notnull"`
	CanViewAllTasks    bool       `grove:"can_view_all_tasks,notnull"`
	CanEditAllTasks    bool       `grove:"can_edit_all_tasks,notnull"`
	CanDeleteTasks     bool       `grove:"can_delete_tasks,notnull"`
	CanAssignTasks     bool       `grove:"can_assign_tasks,notnull"`
	CanEditAllIdeas    bool       `grove:"can_edit_all_ideas,notnull"`
	CanDeleteIdeas     bool       `grove:"can_delete_ideas,notnull"`
	CanManageDeadlines bool       `grove:"can_manage_deadlines,notnull"`
	Metadata           string     `grove:"metadata"` // JSON text
	CreatedAt          time.Time  `grove:"created_at,notnull"`
	UpdatedAt          time.Time  `grove:"updated_at,notnull"`
}

func membershipToModel(m *membership.Membership) (*membershipModel, error) {
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal membership metadata: %w", err)
	}
	return &membershipModel{
		ID:                 m.ID.String(),
		UserID:             m.UserID,
		LabID:              m.LabID,
		Role:               m.Role,
		IsActive:           m.IsActive,
		IsAdmin:            m.IsAdmin,
		IsSuperAdmin:       m.IsSuperAdmin,
		AccessStartDate:    m.AccessStartDate,
		AccessEndDate:      m.AccessEndDate,
		CanCreateProjects:  m.Capabilities.CanCreateProjects,
		CanViewAllProjects: m.Capabilities.CanViewAllProjects,
		CanEditAllProjects: m.Capabilities.CanEditAllProjects,
		CanDeleteProjects:  m.Capabilities.CanDeleteProjects,
		CanViewAllTasks:    m.Capabilities.CanViewAllTasks,
		CanEditAllTasks:    m.Capabilities.CanEditAllTasks,
		CanDeleteTasks:     m.Capabilities.CanDeleteTasks,
		CanAssignTasks:     m.Capabilities.CanAssignTasks,
		CanEditAllIdeas:    m.Capabilities.CanEditAllIdeas,
		CanDeleteIdeas:     m.Capabilities.CanDeleteIdeas,
		CanManageDeadlines: m.Capabilities.CanManageDeadlines,
		Metadata:           string(metadata),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}, nil
}

func membershipFromModel(m *membershipModel) (*membership.Membership, error) {
	mid, _ := id.ParseMembershipID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal membership metadata: %w", err)
		}
	}
	return &membership.Membership{
		ID:              mid,
		UserID:          m.UserID,
		LabID:           m.LabID,
		Role:            m.Role,
		IsActive:        m.IsActive,
		IsAdmin:         m.IsAdmin,
		IsSuperAdmin:    m.IsSuperAdmin,
		AccessStartDate: m.AccessStartDate,
		AccessEndDate:   m.AccessEndDate,
		Capabilities: membership.Capabilities{
			CanCreateProjects:  m.CanCreateProjects,
			CanViewAllProjects: m.CanViewAllProjects,
			CanEditAllProjects: m.CanEditAllProjects,
			CanDeleteProjects:  m.CanDeleteProjects,
			CanViewAllTasks:    m.CanViewAllTasks,
			CanEditAllTasks:    m.CanEditAllTasks,
			CanDeleteTasks:     m.CanDeleteTasks,
			CanAssignTasks:     m.CanAssignTasks,
			CanEditAllIdeas:    m.CanEditAllIdeas,
			CanDeleteIdeas:     m.CanDeleteIdeas,
			CanManageDeadlines: m.CanManageDeadlines,
		},
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Grant model
// ──────────────────────────────────────────────────

type grantModel struct {
	grove.BaseModel `grove:"table:custodian_grants"`
	ID              string     `grove:"id,pk"`
	LabID           string     `grove:"lab_id,notnull"`
	UserID          string     `grove:"user_id,notnull"`
	EntityType      string     `grove:"entity_type,notnull"`
	EntityID        string     `grove:"entity_id,notnull"`
	CanView         bool       `grove:"can_view,notnull"`
	CanEdit         bool       `grove:"can_edit,notnull"`
	CanDelete       bool       `grove:"can_delete,notnull"`
	CanShare        bool       `grove:"can_share,notnull"`
	CanAssign       bool       `grove:"can_assign,notnull"`
	ValidFrom       time.Time  `grove:"valid_from,notnull"`
	ValidUntil      *time.Time `grove:"valid_until"`
	RevokedAt       *time.Time `grove:"revoked_at"`
	GrantedBy       string     `grove:"granted_by"`
	Metadata        string     `grove:"metadata"` // JSON text
	CreatedAt       time.Time  `grove:"created_at,notnull"`
}

func grantToModel(g *grant.Grant) (*grantModel, error) {
	metadata, err := json.Marshal(g.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal grant metadata: %w", err)
	}
	return &grantModel{
		ID:         g.ID.String(),
		LabID:      g.LabID,
		UserID:     g.UserID,
		EntityType: string(g.EntityType),
		EntityID:   g.EntityID,
		CanView:    g.CanView,
		CanEdit:    g.CanEdit,
		CanDelete:  g.CanDelete,
		CanShare:   g.CanShare,
		CanAssign:  g.CanAssign,
		ValidFrom:  g.ValidFrom,
		ValidUntil: g.ValidUntil,
		RevokedAt:  g.RevokedAt,
		GrantedBy:  g.GrantedBy,
		Metadata:   string(metadata),
		CreatedAt:  g.CreatedAt,
	}, nil
}

func grantFromModel(m *grantModel) (*grant.Grant, error) {
	gid, _ := id.ParseGrantID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal grant metadata: %w", err)
		}
	}
	return &grant.Grant{
		ID:         gid,
		LabID:      m.LabID,
		UserID:     m.UserID,
		EntityType: entity.Type(m.EntityType),
		EntityID:   m.EntityID,
		CanView:    m.CanView,
		CanEdit:    m.CanEdit,
		CanDelete:  m.CanDelete,
		CanShare:   m.CanShare,
		CanAssign:  m.CanAssign,
		ValidFrom:  m.ValidFrom,
		ValidUntil: m.ValidUntil,
		RevokedAt:  m.RevokedAt,
		GrantedBy:  m.GrantedBy,
		Metadata:   metadata,
		CreatedAt:  m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Cross-lab access model
// ──────────────────────────────────────────────────

type crossLabModel struct {
	grove.BaseModel       `grove:"table:custodian_cross_lab_access"`
	ID                    string     `grove:"id,pk"`
	UserID                string     `grove:"user_id,notnull"`
	HomeLabID             string     `grove:"home_lab_id,notnull"`
	TargetLabID           string     `grove:"target_lab_id,notnull"`
	Status                string     `grove:"status,notnull"`
	CanViewProjects       bool       `grove:"can_view_projects,notnull"`
	CanEditSharedProjects bool       `grove:"can_edit_shared_projects,notnull"`
	CanJoinMeetings       bool       `grove:"can_join_meetings,notnull"`
	CanViewReports        bool       `grove:"can_view_reports,notnull"`
	ValidFrom             time.Time  `grove:"valid_from,notnull"`
	ValidUntil            *time.Time `grove:"valid_until"`
	RevokedAt             *time.Time `grove:"revoked_at"`
	ApprovedBy            string     `grove:"approved_by"`
	Metadata              string     `grove:"metadata"` // JSON text
	CreatedAt             time.Time  `grove:"created_at,notnull"`
	UpdatedAt             time.Time  `grove:"updated_at,notnull"`
}

func accessToModel(a *crosslab.Access) (*crossLabModel, error) {
	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal cross-lab metadata: %w", err)
	}
	return &crossLabModel{
		ID:                    a.ID.String(),
		UserID:                a.UserID,
		HomeLabID:             a.HomeLabID,
		TargetLabID:           a.TargetLabID,
		Status:                string(a.Status),
		CanViewProjects:       a.CanViewProjects,
		CanEditSharedProjects: a.CanEditSharedProjects,
		CanJoinMeetings:       a.CanJoinMeetings,
		CanViewReports:        a.CanViewReports,
		ValidFrom:             a.ValidFrom,
		ValidUntil:            a.ValidUntil,
		RevokedAt:             a.RevokedAt,
		ApprovedBy:            a.ApprovedBy,
		Metadata:              string(metadata),
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}, nil
}

func accessFromModel(m *crossLabModel) (*crosslab.Access, error) {
	aid, _ := id.ParseCrossLabID(m.ID) //nolint:errcheck // stored IDs are always valid
	var metadata map[string]any
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("unmarshal cross-lab metadata: %w", err)
		}
	}
	return &crosslab.Access{
		ID:                    aid,
		UserID:                m.UserID,
		HomeLabID:             m.HomeLabID,
		TargetLabID:           m.TargetLabID,
		Status:                crosslab.Status(m.Status),
		CanViewProjects:       m.CanViewProjects,
		CanEditSharedProjects: m.CanEditSharedProjects,
		CanJoinMeetings:       m.CanJoinMeetings,
		CanViewReports:        m.CanViewReports,
		ValidFrom:             m.ValidFrom,
		ValidUntil:            m.ValidUntil,
		RevokedAt:             m.RevokedAt,
		ApprovedBy:            m.ApprovedBy,
		Metadata:              metadata,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Template model
// ──────────────────────────────────────────────────

type templateModel struct {
	grove.BaseModel    `grove:"table:custodian_templates"`
	ID                 string    `grove:"id,pk"`
	LabID              string    `grove:"lab_id,notnull"`
	Name               string    `grove:"name,notnull"`
	Description        string    `grove:"description"`
	Role               string    `grove:"role,notnull"`
	IsActive           bool      `grove:"is_active,notnull"`
	IsDefault          bool      `grove:"is_default,notnull"`
	CanCreateProjects  bool      `grove:"can_create_projects,notnull"`
	CanViewAllProjects bool      `grove:"can_view_all_projects,notnull"`
	CanEditAllProjects bool      `grove:"can_edit_all_projects,notnull"`
	CanDeleteProjects  bool      `grove:"can_delete_projects,notnull"`
	CanViewAllTasks    bool      `grove:"can_view_all_tasks,notnull"`
	CanEditAllTasks    bool      `grove:"can_edit_all_tasks,notnull"`
	CanDeleteTasks     bool      `grove:"can_delete_tasks,notnull"`
	CanAssignTasks     bool      `grove:"can_assign_tasks,notnull"`
	CanEditAllIdeas    bool      `grove:"can_edit_all_ideas,notnull"`
	CanDeleteIdeas     bool      `grove:"can_delete_ideas,notnull"`
	CanManageDeadlines bool      `grove:"can_manage_deadlines,notnull"`
	CreatedAt          time.Time `grove:"created_at,notnull"`
	UpdatedAt          time.Time `grove:"updated_at,notnull"`
}

func templateToModel(t *template.Template) *templateModel {
	return &templateModel{
		ID:                 t.ID.String(),
		LabID:              t.LabID,
		Name:               t.Name,
		Description:        t.Description,
		Role:               t.Role,
		IsActive:           t.IsActive,
		IsDefault:          t.IsDefault,
		CanCreateProjects:  t.Capabilities.CanCreateProjects,
		CanViewAllProjects: t.Capabilities.CanViewAllProjects,
		CanEditAllProjects: t.Capabilities.CanEditAllProjects,
		CanDeleteProjects:  t.Capabilities.CanDeleteProjects,
		CanViewAllTasks:    t.Capabilities.CanViewAllTasks,
		CanEditAllTasks:    t.Capabilities.CanEditAllTasks,
		CanDeleteTasks:     t.Capabilities.CanDeleteTasks,
		CanAssignTasks:     t.Capabilities.CanAssignTasks,
		CanEditAllIdeas:    t.Capabilities.CanEditAllIdeas,
		CanDeleteIdeas:     t.Capabilities.CanDeleteIdeas,
		CanManageDeadlines: t.Capabilities.CanManageDeadlines,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func templateFromModel(m *templateModel) *template.Template {
	tid, _ := id.ParseTemplateID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &template.Template{
		ID:          tid,
		LabID:       m.LabID,
		Name:        m.Name,
		Description: m.Description,
		Role:        m.Role,
		IsActive:    m.IsActive,
		IsDefault:   m.IsDefault,
		Capabilities: membership.Capabilities{
			CanCreateProjects:  m.CanCreateProjects,
			CanViewAllProjects: m.CanViewAllProjects,
			CanEditAllProjects: m.CanEditAllProjects,
			CanDeleteProjects:  m.CanDeleteProjects,
			CanViewAllTasks:    m.CanViewAllTasks,
			CanEditAllTasks:    m.CanEditAllTasks,
			CanDeleteTasks:     m.CanDeleteTasks,
			CanAssignTasks:     m.CanAssignTasks,
			CanEditAllIdeas:    m.CanEditAllIdeas,
			CanDeleteIdeas:     m.CanDeleteIdeas,
			CanManageDeadlines: m.CanManageDeadlines,
		},
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Audit model
// ──────────────────────────────────────────────────

type auditModel struct {
	grove.BaseModel     `grove:"table:custodian_audit_log"`
	ID                  string    `grove:"id,pk"`
	LabID               string    `grove:"lab_id"`
	UserID              string    `grove:"user_id"`
	Action              string    `grove:"action,notnull"`
	EntityType          string    `grove:"entity_type"`
	EntityID            string    `grove:"entity_id"`
	AuthorizationMethod string    `grove:"authorization_method"`
	RequiredPermission  string    `grove:"required_permission"`
	WasAuthorized       bool      `grove:"was_authorized,notnull"`
	Details             string    `grove:"details"` // JSON text
	ErrorMessage        string    `grove:"error_message"`
	RequestIP           string    `grove:"request_ip"`
	UserAgent           string    `grove:"user_agent"`
	Endpoint            string    `grove:"endpoint"`
	HTTPMethod          string    `grove:"http_method"`
	SessionID           string    `grove:"session_id"`
	CreatedAt           time.Time `grove:"created_at,notnull"`
}

func auditToModel(e *audit.Entry) (*auditModel, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal audit details: %w", err)
	}
	return &auditModel{
		ID:                  e.ID.String(),
		LabID:               e.LabID,
		UserID:              e.UserID,
		Action:              e.Action,
		EntityType:          e.EntityType,
		EntityID:            e.EntityID,
		AuthorizationMethod: e.AuthorizationMethod,
		RequiredPermission:  e.RequiredPermission,
		WasAuthorized:       e.WasAuthorized,
		Details:             string(details),
		ErrorMessage:        e.ErrorMessage,
		RequestIP:           e.RequestIP,
		UserAgent:           e.UserAgent,
		Endpoint:            e.Endpoint,
		HTTPMethod:          e.HTTPMethod,
		SessionID:           e.SessionID,
		CreatedAt:           e.CreatedAt,
	}, nil
}

func auditFromModel(m *auditModel) (*audit.Entry, error) {
	aid, _ := id.ParseAuditID(m.ID) //nolint:errcheck // stored IDs are always valid
	var details map[string]any
	if m.Details != "" {
		if err := json.Unmarshal([]byte(m.Details), &details); err != nil {
			return nil, fmt.Errorf("unmarshal audit details: %w", err)
		}
	}
	return &audit.Entry{
		ID:                  aid,
		LabID:               m.LabID,
		UserID:              m.UserID,
		Action:              m.Action,
		EntityType:          m.EntityType,
		EntityID:            m.EntityID,
		AuthorizationMethod: m.AuthorizationMethod,
		RequiredPermission:  m.RequiredPermission,
		WasAuthorized:       m.WasAuthorized,
		Details:             details,
		ErrorMessage:        m.ErrorMessage,
		RequestIP:           m.RequestIP,
		UserAgent:           m.UserAgent,
		Endpoint:            m.Endpoint,
		HTTPMethod:          m.HTTPMethod,
		SessionID:           m.SessionID,
		CreatedAt:           m.CreatedAt,
	}, nil
}

// ──────────────────────────────────────────────────
// Entity owner model
// ──────────────────────────────────────────────────

type entityOwnerModel struct {
	grove.BaseModel `grove:"table:custodian_entity_owners"`
	EntityType      string    `grove:"entity_type,pk"`
	EntityID        string    `grove:"entity_id,pk"`
	OwnerID         string    `grove:"owner_id,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}
