package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

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

// Collection name constants.
const (
	colMemberships  = "custodian_memberships"
	colGrants       = "custodian_grants"
	colCrossLab     = "custodian_cross_lab_access"
	colTemplates    = "custodian_templates"
	colAuditLog     = "custodian_audit_log"
	colEntityOwners = "custodian_entity_owners"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Custodian store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all custodian collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("custodian/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all custodian collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colMemberships: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "lab_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "lab_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "lab_id", Value: 1}, {Key: "is_active", Value: 1}}},
		},
		colGrants: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}}},
			{Keys: bson.D{{Key: "lab_id", Value: 1}}},
		},
		colCrossLab: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "target_lab_id", Value: 1}}},
			{Keys: bson.D{{Key: "target_lab_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		colTemplates: {
			{
				Keys:    bson.D{{Key: "lab_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "lab_id", Value: 1}, {Key: "role", Value: 1}, {Key: "is_default", Value: 1}}},
		},
		colAuditLog: {
			{Keys: bson.D{{Key: "lab_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "action", Value: 1}}},
		},
		colEntityOwners: {
			{
				Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}

// ──────────────────────────────────────────────────
// Membership operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(ctx context.Context, m *membership.Membership) error {
	t := now()
	m.CreatedAt = t
	m.UpdatedAt = t
	model := membershipToModel(m)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("membership %s/%s: %w", m.UserID, m.LabID, custodian.ErrDuplicateMembership)
		}
		return fmt.Errorf("custodian: create membership: %w", err)
	}
	return nil
}

func (s *Store) GetMembership(ctx context.Context, userID, labID string) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"user_id": userID, "lab_id": labID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("custodian: get membership: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) GetMembershipByID(ctx context.Context, membID id.MembershipID) (*membership.Membership, error) {
	var m membershipModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": membID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("membership %s: %w", membID, custodian.ErrMembershipNotFound)
		}
		return nil, fmt.Errorf("custodian: get membership by id: %w", err)
	}
	return membershipFromModel(&m), nil
}

func (s *Store) UpdateMembership(ctx context.Context, m *membership.Membership) error {
	m.UpdatedAt = now()
	model := membershipToModel(m)
	res, err := s.mdb.NewUpdate(model).
		Filter(bson.M{"_id": model.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: update membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership %s: %w", m.ID, custodian.ErrMembershipNotFound)
	}
	return nil
}

func (s *Store) SetMembershipCapabilities(ctx context.Context, userID, labID string, caps membership.Capabilities) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"user_id": userID, "lab_id": labID}).
		Set("can_create_projects", caps.CanCreateProjects).
		Set("can_view_all_projects", caps.CanViewAllProjects).
		Set("can_edit_all_projects", caps.CanEditAllProjects).
		Set("can_delete_projects", caps.CanDeleteProjects).
		Set("can_view_all_tasks", caps.CanViewAllTasks).
		Set("can_edit_all_tasks", caps.CanEditAllTasks).
		Set("can_delete_tasks", caps.CanDeleteTasks).
		Set("can_assign_tasks", caps.CanAssignTasks).
		Set("can_edit_all_ideas", caps.CanEditAllIdeas).
		Set("can_delete_ideas", caps.CanDeleteIdeas).
		Set("can_manage_deadlines", caps.CanManageDeadlines).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: set membership capabilities: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
	}
	return nil
}

func (s *Store) DeactivateMembership(ctx context.Context, userID, labID string) error {
	res, err := s.mdb.NewUpdate((*membershipModel)(nil)).
		Filter(bson.M{"user_id": userID, "lab_id": labID}).
		Set("is_active", false).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: deactivate membership: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
	}
	return nil
}

func membershipFilterDoc(filter *membership.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.LabID != "" {
		f["lab_id"] = filter.LabID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Role != "" {
		f["role"] = filter.Role
	}
	if filter.IsActive != nil {
		f["is_active"] = *filter.IsActive
	}
	if filter.IsAdmin != nil {
		f["is_admin"] = *filter.IsAdmin
	}
	return f
}

func (s *Store) ListMemberships(ctx context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	var models []membershipModel
	q := s.mdb.NewFind(&models).
		Filter(membershipFilterDoc(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list memberships: %w", err)
	}
	result := make([]*membership.Membership, len(models))
	for i := range models {
		result[i] = membershipFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListActiveMemberships(ctx context.Context, labID string) ([]*membership.Membership, error) {
	active := true
	return s.ListMemberships(ctx, &membership.ListFilter{LabID: labID, IsActive: &active})
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*membershipModel)(nil)).
		Filter(membershipFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count memberships: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Grant operations
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(ctx context.Context, g *grant.Grant) error {
	g.CreatedAt = now()
	model := grantToModel(g)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create grant: %w", err)
	}
	return nil
}

func (s *Store) GetGrant(ctx context.Context, grantID id.GrantID) (*grant.Grant, error) {
	var m grantModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": grantID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
		}
		return nil, fmt.Errorf("custodian: get grant: %w", err)
	}
	return grantFromModel(&m), nil
}

func (s *Store) ListGrantsForEntity(ctx context.Context, userID string, ref entity.Ref) ([]*grant.Grant, error) {
	var models []grantModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{
			"user_id":     userID,
			"entity_type": string(ref.Type),
			"entity_id":   ref.ID,
		}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list grants for entity: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func grantFilterDoc(filter *grant.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.LabID != "" {
		f["lab_id"] = filter.LabID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.EntityType != "" {
		f["entity_type"] = string(filter.EntityType)
	}
	if filter.EntityID != "" {
		f["entity_id"] = filter.EntityID
	}
	if filter.Revoked != nil {
		if *filter.Revoked {
			f["revoked_at"] = bson.M{"$ne": nil}
		} else {
			f["revoked_at"] = nil
		}
	}
	return f
}

func (s *Store) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	var models []grantModel
	q := s.mdb.NewFind(&models).
		Filter(grantFilterDoc(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list grants: %w", err)
	}
	result := make([]*grant.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*grantModel)(nil)).
		Filter(grantFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count grants: %w", err)
	}
	return count, nil
}

func (s *Store) RevokeGrant(ctx context.Context, grantID id.GrantID, at time.Time) error {
	res, err := s.mdb.NewUpdate((*grantModel)(nil)).
		Filter(bson.M{"_id": grantID.String()}).
		Set("revoked_at", at).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: revoke grant: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Cross-lab operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAccess(ctx context.Context, a *crosslab.Access) error {
	t := now()
	a.CreatedAt = t
	a.UpdatedAt = t
	model := accessToModel(a)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create cross-lab access: %w", err)
	}
	return nil
}

func (s *Store) GetAccess(ctx context.Context, accessID id.CrossLabID) (*crosslab.Access, error) {
	var m crossLabModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accessID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
		}
		return nil, fmt.Errorf("custodian: get cross-lab access: %w", err)
	}
	return accessFromModel(&m), nil
}

func (s *Store) ListAccessForLab(ctx context.Context, userID, targetLabID string) ([]*crosslab.Access, error) {
	var models []crossLabModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID, "target_lab_id": targetLabID}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("custodian: list cross-lab access for lab: %w", err)
	}
	result := make([]*crosslab.Access, len(models))
	for i := range models {
		result[i] = accessFromModel(&models[i])
	}
	return result, nil
}

func accessFilterDoc(filter *crosslab.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.HomeLabID != "" {
		f["home_lab_id"] = filter.HomeLabID
	}
	if filter.TargetLabID != "" {
		f["target_lab_id"] = filter.TargetLabID
	}
	if filter.Status != "" {
		f["status"] = string(filter.Status)
	}
	return f
}

func (s *Store) ListAccess(ctx context.Context, filter *crosslab.ListFilter) ([]*crosslab.Access, error) {
	var models []crossLabModel
	q := s.mdb.NewFind(&models).
		Filter(accessFilterDoc(filter)).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list cross-lab access: %w", err)
	}
	result := make([]*crosslab.Access, len(models))
	for i := range models {
		result[i] = accessFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAccess(ctx context.Context, filter *crosslab.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*crossLabModel)(nil)).
		Filter(accessFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count cross-lab access: %w", err)
	}
	return count, nil
}

func (s *Store) SetAccessStatus(ctx context.Context, accessID id.CrossLabID, status crosslab.Status, changedBy string) error {
	q := s.mdb.NewUpdate((*crossLabModel)(nil)).
		Filter(bson.M{"_id": accessID.String()}).
		Set("status", string(status)).
		Set("updated_at", now())
	if status == crosslab.StatusApproved {
		q = q.Set("approved_by", changedBy)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: set cross-lab status: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	return nil
}

func (s *Store) RevokeAccess(ctx context.Context, accessID id.CrossLabID, at time.Time) error {
	res, err := s.mdb.NewUpdate((*crossLabModel)(nil)).
		Filter(bson.M{"_id": accessID.String()}).
		Set("status", string(crosslab.StatusRevoked)).
		Set("revoked_at", at).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: revoke cross-lab access: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Template operations
// ──────────────────────────────────────────────────

func (s *Store) CreateTemplate(ctx context.Context, t *template.Template) error {
	ts := now()
	t.CreatedAt = ts
	t.UpdatedAt = ts
	model := templateToModel(t)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create template: %w", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, templateID id.TemplateID) (*template.Template, error) {
	var m templateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": templateID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("template %s: %w", templateID, custodian.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("custodian: get template: %w", err)
	}
	return templateFromModel(&m), nil
}

func (s *Store) GetDefaultTemplate(ctx context.Context, labID, role string) (*template.Template, error) {
	var m templateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"lab_id":     labID,
			"role":       role,
			"is_default": true,
			"is_active":  true,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("default template for role %q: %w", role, custodian.ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("custodian: get default template: %w", err)
	}
	return templateFromModel(&m), nil
}

func (s *Store) ListTemplates(ctx context.Context, filter *template.ListFilter) ([]*template.Template, error) {
	var models []templateModel
	f := bson.M{}
	if filter != nil {
		if filter.LabID != "" {
			f["lab_id"] = filter.LabID
		}
		if filter.Role != "" {
			f["role"] = filter.Role
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
		if filter.IsDefault != nil {
			f["is_default"] = *filter.IsDefault
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	t.UpdatedAt = now()
	model := templateToModel(t)
	res, err := s.mdb.NewUpdate(model).
		Filter(bson.M{"_id": model.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: update template: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("template %s: %w", t.ID, custodian.ErrTemplateNotFound)
	}
	return nil
}

func (s *Store) DeleteTemplate(ctx context.Context, templateID id.TemplateID) error {
	_, err := s.mdb.NewDelete((*templateModel)(nil)).
		Filter(bson.M{"_id": templateID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete template: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	model := auditToModel(e)
	if _, err := s.mdb.NewInsert(model).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, auditID id.AuditID) (*audit.Entry, error) {
	var m auditModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": auditID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit entry %s: %w", auditID, custodian.ErrAuditEntryNotFound)
		}
		return nil, fmt.Errorf("custodian: get audit entry: %w", err)
	}
	return auditFromModel(&m), nil
}

func auditFilterDoc(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.LabID != "" {
		f["lab_id"] = filter.LabID
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.EntityType != "" {
		f["entity_type"] = filter.EntityType
	}
	if filter.EntityID != "" {
		f["entity_id"] = filter.EntityID
	}
	if filter.WasAuthorized != nil {
		f["was_authorized"] = *filter.WasAuthorized
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilterDoc(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("custodian: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*auditModel)(nil)).
		Filter(auditFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*auditModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("custodian: purge audit entries: %w", err)
	}
	return res.DeletedCount(), nil
}

func (s *Store) DeleteAuditEntriesByLab(ctx context.Context, labID string) error {
	_, err := s.mdb.NewDelete((*auditModel)(nil)).
		Many().
		Filter(bson.M{"lab_id": labID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete audit entries by lab: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Entity owner operations
// ──────────────────────────────────────────────────

func (s *Store) GetEntityOwner(ctx context.Context, ref entity.Ref) (string, error) {
	var m entityOwnerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"entity_type": string(ref.Type), "entity_id": ref.ID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", fmt.Errorf("entity %s: %w", ref, custodian.ErrEntityNotFound)
		}
		return "", fmt.Errorf("custodian: get entity owner: %w", err)
	}
	return m.OwnerID, nil
}

func (s *Store) SetEntityOwner(ctx context.Context, ref entity.Ref, ownerID string) error {
	res, err := s.mdb.NewUpdate((*entityOwnerModel)(nil)).
		Filter(bson.M{"entity_type": string(ref.Type), "entity_id": ref.ID}).
		Set("owner_id", ownerID).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: set entity owner: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	m := &entityOwnerModel{
		EntityType: string(ref.Type),
		EntityID:   ref.ID,
		OwnerID:    ownerID,
		UpdatedAt:  now(),
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("custodian: set entity owner: %w", err)
	}
	return nil
}

func (s *Store) DeleteEntityOwner(ctx context.Context, ref entity.Ref) error {
	_, err := s.mdb.NewDelete((*entityOwnerModel)(nil)).
		Filter(bson.M{"entity_type": string(ref.Type), "entity_id": ref.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("custodian: delete entity owner: %w", err)
	}
	return nil
}
