// Package sqlite provides a SQLite implementation of the Custodian
// composite store, built on grove.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/store"
	"github.com/labfoundry/custodian/template"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Custodian store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("custodian/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("custodian/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	model, err := membershipToModel(m)
	if err != nil {
		return fmt.Errorf("custodian: create membership: %w", err)
	}
	if _, err := s.sdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, labID string) (*membership.Membership, error) {
	model := new(membershipModel)
	err := s.sdb.NewSelect(model).
		Where("user_id = ?", userID).
		Where("lab_id = ?", labID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("custodian: get membership: %w", err)
	}
	return membershipFromModel(model)
}

func (s *Store) GetMembershipByID(ctx context.Context, membID id.MembershipID) (*membership.Membership, error) {
	model := new(membershipModel)
	err := s.sdb.NewSelect(model).Where("id = ?", membID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s: %w", membID, custodian.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("custodian: get membership: %w", err)
	}
	return membershipFromModel(model)
}

func (s *Store) UpdateMembership(ctx context.Context, m *membership.Membership) error {
	m.UpdatedAt = time.Now().UTC()
	model, err := membershipToModel(m)
	if err != nil {
		return fmt.Errorf("custodian: update membership: %w", err)
	}
	if _, err := s.sdb.NewUpdate(model).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("custodian: update membership: %w", err)
	}
	return nil
}

func (s *Store) SetMembershipCapabilities(ctx context.Context, userID, labID string, caps membership.Capabilities) error {
	m, err := s.GetMembership(ctx, userID, labID)
	if err != nil {
		return err
	}
	m.Capabilities = caps
	return s.UpdateMembership(ctx, m)
}

func (s *Store) DeactivateMembership(ctx context.Context, userID, labID string) error {
	m, err := s.GetMembership(ctx, userID, labID)
	if err != nil {
		return err
	}
	m.IsActive = false
	return s.UpdateMembership(ctx, m)
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.IsAdmin != nil {
			q = q.Where("is_admin = ?", *filter.IsAdmin)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		m, err := membershipFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list memberships: %w", err)
		}
		result[i] = m
	}
	return result, nil
}

func (s *Store) ListActiveMemberships(ctx context.Context, labID string) ([]*membership.Membership, error) {
	active := true
	return s.ListMemberships(ctx, &membership.ListFilter{LabID: labID, IsActive: &active})
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*membershipModel)(nil))
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.IsAdmin != nil {
			q = q.Where("is_admin = ?", *filter.IsAdmin)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count memberships: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	g.CreatedAt = time.Now().UTC()
	model, err := grantToModel(g)
	if err != nil {
		return fmt.Errorf("custodian: create grant: %w", err)
	}
	if _, err := s.sdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	model := new(grantModel)
	err := s.sdb.NewSelect(model).Where("id = ?", grantID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
		}
		return nil, fmt.Errorf("custodian: get grant: %w", err)
	}
	return grantFromModel(model)
}

func (s *Store) ListGrantsForEntity(ctx context.Context, userID string, ref entity.Ref) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("entity_type = ?", string(ref.Type)).
		Where("entity_id = ?", ref.ID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list grants for entity: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list grants for entity: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.EntityType != "" {
			q = q.Where("entity_type = ?", string(filter.EntityType))
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		if filter.Revoked != nil {
			if *filter.Revoked {
				q = q.Where("revoked_at IS NOT NULL")
			} else {
				q = q.Where("revoked_at IS NULL")
			}
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		g, err := grantFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list grants: %w", err)
		}
		result[i] = g
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*grantModel)(nil))
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.EntityType != "" {
			q = q.Where("entity_type = ?", string(filter.EntityType))
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		if filter.Revoked != nil {
			if *filter.Revoked {
				q = q.Where("revoked_at IS NOT NULL")
			} else {
				q = q.Where("revoked_at IS NULL")
			}
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID, at time.Time) error {
	res, err := s.sdb.NewUpdate((*grantModel)(nil)).
		Set("revoked_at = ?", at).
		Where("id = ?", grantID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: revoke grant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Cross-lab operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAccess(ctx context.Context, a *crosslab.Access) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	model, err := accessToModel(a)
	if err != nil {
		return fmt.Errorf("custodian: create cross-lab access: %w", err)
	}
	if _, err := s.sdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create cross-lab access: %w", err)
	}
	return nil
}

func (s *Store) GetAccess(ctx context.Context, accessID id.CrossLabID) (*crosslab.Access, error) {
	model := new(crossLabModel)
	err := s.sdb.NewSelect(model).Where("id = ?", accessID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
		}
		return nil, fmt.Errorf("custodian: get cross-lab access: %w", err)
	}
	return accessFromModel(model)
}

func (s *Store) ListAccessForLab(ctx context.Context, userID, targetLabID string) ([]*crosslab.Access, error) {
	var models []crossLabModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		Where("target_lab_id = ?", targetLabID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list cross-lab access for lab: %w", err)
	}
	result := make([]*crosslab.Access, len(models))
	for i := range models {
		a, err := accessFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list cross-lab access for lab: %w", err)
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) ListAccess(ctx context.Context, filter *crosslab.ListFilter) ([]*crosslab.Access, error) {
	var models []crossLabModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.HomeLabID != "" {
			q = q.Where("home_lab_id = ?", filter.HomeLabID)
		}
		if filter.TargetLabID != "" {
			q = q.Where("target_lab_id = ?", filter.TargetLabID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list cross-lab access: %w", err)
	}
	result := make([]*crosslab.Access, len(models))
	for i := range models {
		a, err := accessFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list cross-lab access: %w", err)
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) CountAccess(ctx context.Context, filter *crosslab.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*crossLabModel)(nil))
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.HomeLabID != "" {
			q = q.Where("home_lab_id = ?", filter.HomeLabID)
		}
		if filter.TargetLabID != "" {
			q = q.Where("target_lab_id = ?", filter.TargetLabID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", string(filter.Status))
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count cross-lab access: %w", err)
	}
	return count, nil
}

func (s *Store) SetAccessStatus(ctx context.Context, accessID id.CrossLabID, status crosslab.Status, changedBy string) error {
	q := s.sdb.NewUpdate((*crossLabModel)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", accessID.String())
	if status == crosslab.StatusApproved {
		q = q.Set("approved_by = ?", changedBy)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: set cross-lab status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	return nil
}

func (s *Store) RevokeAccess(ctx context.Context, accessID id.CrossLabID, at time.Time) error {
	res, err := s.sdb.NewUpdate((*crossLabModel)(nil)).
		Set("status = ?", string(crosslab.StatusRevoked)).
		Set("revoked_at = ?", at).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", accessID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: revoke cross-lab access: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Template operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTemplate(ctx context.Context, t *template.Template) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.sdb.NewInsert(templateToModel(t)).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create template: %w", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID id.TemplateID) (*template.Template, error) {
	model := new(templateModel)
	err := s.sdb.NewSelect(model).Where("id = ?", templateID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("template %s: %w", templateID, custodian.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("custodian: get template: %w", err)
	}
	return templateFromModel(model), nil
}

func (s *Store) GetDefaultTemplate(ctx context.Context, labID, role string) (*template.Template, error) {
	model := new(templateModel)
	err := s.sdb.NewSelect(model).
		Where("lab_id = ?", labID).
		Where("role = ?", role).
		Where("is_default = ?", true).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("default template for role %q: %w", role, custodian.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("custodian: get default template: %w", err)
	}
	return templateFromModel(model), nil
}

func (s *Store) ListTemplates(ctx context.Context, filter *template.ListFilter) ([]*template.Template, error) {
	var models []templateModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at ASC")
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.IsDefault != nil {
			q = q.Where("is_default = ?", *filter.IsDefault)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list templates: %w", err)
	}
	result := make([]*template.Template, len(models))
	for i := range models {
		result[i] = templateFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateTemplate(ctx context.Context, t *template.Template) error {
	t.UpdatedAt = time.Now().UTC()
	if _, err := s.sdb.NewUpdate(templateToModel(t)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("custodian: update template: %w", err)
	}
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, templateID id.TemplateID) error {
	_, err := s.sdb.NewDelete((*templateModel)(nil)).
		Where("id = ?", templateID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete template: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	model, err := auditToModel(e)
	if err != nil {
		return fmt.Errorf("custodian: create audit entry: %w", err)
	}
	if _, err := s.sdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, auditID id.AuditID) (*audit.Entry, error) {
	model := new(auditModel)
	err := s.sdb.NewSelect(model).Where("id = ?", auditID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("audit entry %s: %w", auditID, custodian.ErrAuditEntryNotFound)
		}
		return nil, fmt.Errorf("custodian: get audit entry: %w", err)
	}
	return auditFromModel(model)
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			q = q.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		if filter.WasAuthorized != nil {
			q = q.Where("was_authorized = ?", *filter.WasAuthorized)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		e, err := auditFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("custodian: list audit entries: %w", err)
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*auditModel)(nil))
	if filter != nil {
		if filter.LabID != "" {
			q = q.Where("lab_id = ?", filter.LabID)
		}
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			q = q.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		if filter.WasAuthorized != nil {
			q = q.Where("was_authorized = ?", *filter.WasAuthorized)
		}
		if filter.After != nil {
			q = q.Where("created_at >= ?", *filter.After)
		}
		if filter.Before != nil {
			q = q.Where("created_at <= ?", *filter.Before)
		}
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*auditModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAuditEntriesByLab(ctx context.Context, labID string) error {
	_, err := s.sdb.NewDelete((*auditModel)(nil)).
		Where("lab_id = ?", labID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete audit entries by lab: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Entity ownership operations
// ──────────────────────────────────────────────────

func (s *Store) GetEntityOwner(ctx context.Context, ref entity.Ref) (string, error) {
	model := new(entityOwnerModel)
	err := s.sdb.NewSelect(model).
		Where("entity_type = ?", string(ref.Type)).
		Where("entity_id = ?", ref.ID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("entity %s: %w", ref, custodian.ErrEntityNotFound)
		}
		return "", fmt.Errorf("custodian: get entity owner: %w", err)
	}
	return model.OwnerID, nil
}

func (s *Store) SetEntityOwner(ctx context.Context, ref entity.Ref, ownerID string) error {
	model := &entityOwnerModel{
		EntityType: string(ref.Type),
		EntityID:   ref.ID,
		OwnerID:    ownerID,
		UpdatedAt:  time.Now().UTC(),
	}
	_, err := s.sdb.NewInsert(model).
		OnConflict("(entity_type, entity_id) DO UPDATE SET owner_id = EXCLUDED.owner_id, updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: set entity owner: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntityOwner(ctx context.Context, ref entity.Ref) error {
	_, err := s.sdb.NewDelete((*entityOwnerModel)(nil)).
		Where("entity_type = ?", string(ref.Type)).
		Where("entity_id = ?", ref.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete entity owner: %w", err)
	}
	return nil
}
