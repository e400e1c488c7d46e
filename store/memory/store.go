// Package memory provides an in-memory implementation of the Custodian
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/template"
)

// Compile-time interface checks.
var (
	_ membership.Store = (*Store)(nil)
	_ grant.Store      = (*Store)(nil)
	_ crosslab.Store   = (*Store)(nil)
	_ template.Store   = (*Store)(nil)
	_ audit.Store      = (*Store)(nil)
	_ entity.Store     = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Custodian entities.
type Store struct {
	mu sync.RWMutex

	memberships  map[string]*membership.Membership // keyed by membership ID
	grants       map[string]*grant.Grant
	accesses     map[string]*crosslab.Access
	templates    map[string]*template.Template
	auditEntries map[string]*audit.Entry
	owners       map[string]string // entity ref "type:id" -> owner user ID
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		memberships:  make(map[string]*membership.Membership),
		grants:       make(map[string]*grant.Grant),
		accesses:     make(map[string]*crosslab.Access),
		templates:    make(map[string]*template.Template),
		auditEntries: make(map[string]*audit.Entry),
		owners:       make(map[string]string),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Membership Store
// ──────────────────────────────────────────────────

func (s *Store) CreateMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.LabID == m.LabID {
			return fmt.Errorf("membership %s/%s: %w", m.UserID, m.LabID, custodian.ErrDuplicateMembership)
		}
	}
	s.memberships[m.ID.String()] = copyMembership(m)
	return nil
}

func (s *Store) GetMembership(_ context.Context, userID, labID string) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.LabID == labID {
			return copyMembership(m), nil
		}
	}
	return nil, fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
}

func (s *Store) GetMembershipByID(_ context.Context, membID id.MembershipID) (*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[membID.String()]
	if !ok {
		return nil, fmt.Errorf("membership %s: %w", membID, custodian.ErrMembershipNotFound)
	}
	return copyMembership(m), nil
}

func (s *Store) UpdateMembership(_ context.Context, m *membership.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[m.ID.String()]; !ok {
		return fmt.Errorf("membership %s: %w", m.ID, custodian.ErrMembershipNotFound)
	}
	c := copyMembership(m)
	c.UpdatedAt = time.Now()
	s.memberships[m.ID.String()] = c
	return nil
}

func (s *Store) SetMembershipCapabilities(_ context.Context, userID, labID string, caps membership.Capabilities) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.UserID == userID && m.LabID == labID {
			c := copyMembership(m)
			c.Capabilities = caps
			c.UpdatedAt = time.Now()
			s.memberships[k] = c
			return nil
		}
	}
	return fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
}

func (s *Store) DeactivateMembership(_ context.Context, userID, labID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.memberships {
		if m.UserID == userID && m.LabID == labID {
			c := copyMembership(m)
			c.IsActive = false
			c.UpdatedAt = time.Now()
			s.memberships[k] = c
			return nil
		}
	}
	return fmt.Errorf("membership %s/%s: %w", userID, labID, custodian.ErrMembershipNotFound)
}

func (s *Store) ListMemberships(_ context.Context, filter *membership.ListFilter) ([]*membership.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*membership.Membership, 0, len(s.memberships))
	for _, m := range s.memberships {
		if filter != nil {
			if filter.LabID != "" && m.LabID != filter.LabID {
				continue
			}
			if filter.UserID != "" && m.UserID != filter.UserID {
				continue
			}
			if filter.Role != "" && m.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && m.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsAdmin != nil && m.IsAdmin != *filter.IsAdmin {
				continue
			}
		}
		result = append(result, copyMembership(m))
	}
	return applyPagination(result, paginationOptsMemb(filter)), nil
}

func (s *Store) ListActiveMemberships(ctx context.Context, labID string) ([]*membership.Membership, error) {
	active := true
	return s.ListMemberships(ctx, &membership.ListFilter{LabID: labID, IsActive: &active})
}

func (s *Store) CountMemberships(ctx context.Context, filter *membership.ListFilter) (int64, error) {
	list, err := s.ListMemberships(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

// ──────────────────────────────────────────────────
// Grant Store
// ──────────────────────────────────────────────────

func (s *Store) CreateGrant(_ context.Context, g *grant.Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[g.ID.String()] = copyGrant(g)
	return nil
}

func (s *Store) GetGrant(_ context.Context, grantID id.GrantID) (*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return nil, fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
	}
	return copyGrant(g), nil
}

func (s *Store) ListGrantsForEntity(_ context.Context, userID string, ref entity.Ref) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*grant.Grant
	for _, g := range s.grants {
		if g.UserID == userID && g.EntityType == ref.Type && g.EntityID == ref.ID {
			result = append(result, copyGrant(g))
		}
	}
	return result, nil
}

func (s *Store) ListGrants(_ context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*grant.Grant, 0, len(s.grants))
	for _, g := range s.grants {
		if filter != nil {
			if filter.LabID != "" && g.LabID != filter.LabID {
				continue
			}
			if filter.UserID != "" && g.UserID != filter.UserID {
				continue
			}
			if filter.EntityType != "" && g.EntityType != filter.EntityType {
				continue
			}
			if filter.EntityID != "" && g.EntityID != filter.EntityID {
				continue
			}
			if filter.Revoked != nil && (g.RevokedAt != nil) != *filter.Revoked {
				continue
			}
		}
		result = append(result, copyGrant(g))
	}
	return applyPagination(result, paginationOptsGrant(filter)), nil
}

func (s *Store) CountGrants(ctx context.Context, filter *grant.ListFilter) (int64, error) {
	list, err := s.ListGrants(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) RevokeGrant(_ context.Context, grantID id.GrantID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[grantID.String()]
	if !ok {
		return fmt.Errorf("grant %s: %w", grantID, custodian.ErrGrantNotFound)
	}
	c := copyGrant(g)
	c.RevokedAt = &at
	s.grants[grantID.String()] = c
	return nil
}

// ──────────────────────────────────────────────────
// CrossLab Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAccess(_ context.Context, a *crosslab.Access) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses[a.ID.String()] = copyAccess(a)
	return nil
}

func (s *Store) GetAccess(_ context.Context, accessID id.CrossLabID) (*crosslab.Access, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accesses[accessID.String()]
	if !ok {
		return nil, fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	return copyAccess(a), nil
}

func (s *Store) ListAccessForLab(_ context.Context, userID, targetLabID string) ([]*crosslab.Access, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*crosslab.Access
	for _, a := range s.accesses {
		if a.UserID == userID && a.TargetLabID == targetLabID {
			result = append(result, copyAccess(a))
		}
	}
	return result, nil
}

func (s *Store) ListAccess(_ context.Context, filter *crosslab.ListFilter) ([]*crosslab.Access, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*crosslab.Access, 0, len(s.accesses))
	for _, a := range s.accesses {
		if filter != nil {
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
			if filter.HomeLabID != "" && a.HomeLabID != filter.HomeLabID {
				continue
			}
			if filter.TargetLabID != "" && a.TargetLabID != filter.TargetLabID {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
		}
		result = append(result, copyAccess(a))
	}
	return applyPagination(result, paginationOptsXL(filter)), nil
}

func (s *Store) CountAccess(ctx context.Context, filter *crosslab.ListFilter) (int64, error) {
	list, err := s.ListAccess(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) SetAccessStatus(_ context.Context, accessID id.CrossLabID, status crosslab.Status, changedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accesses[accessID.String()]
	if !ok {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	c := copyAccess(a)
	c.Status = status
	if status == crosslab.StatusApproved {
		c.ApprovedBy = changedBy
	}
	c.UpdatedAt = time.Now()
	s.accesses[accessID.String()] = c
	return nil
}

func (s *Store) RevokeAccess(_ context.Context, accessID id.CrossLabID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accesses[accessID.String()]
	if !ok {
		return fmt.Errorf("cross-lab access %s: %w", accessID, custodian.ErrCrossLabNotFound)
	}
	c := copyAccess(a)
	c.Status = crosslab.StatusRevoked
	c.RevokedAt = &at
	c.UpdatedAt = time.Now()
	s.accesses[accessID.String()] = c
	return nil
}

// ──────────────────────────────────────────────────
// Template Store
// ──────────────────────────────────────────────────

func (s *Store) CreateTemplate(_ context.Context, t *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID.String()] = copyTemplate(t)
	return nil
}

func (s *Store) GetTemplate(_ context.Context, templateID id.TemplateID) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[templateID.String()]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", templateID, custodian.ErrTemplateNotFound)
	}
	return copyTemplate(t), nil
}

func (s *Store) GetDefaultTemplate(_ context.Context, labID, role string) (*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.LabID == labID && t.Role == role && t.IsDefault && t.IsActive {
			return copyTemplate(t), nil
		}
	}
	return nil, fmt.Errorf("default template for role %q: %w", role, custodian.ErrTemplateNotFound)
}

func (s *Store) ListTemplates(_ context.Context, filter *template.ListFilter) ([]*template.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*template.Template, 0, len(s.templates))
	for _, t := range s.templates {
		if filter != nil {
			if filter.LabID != "" && t.LabID != filter.LabID {
				continue
			}
			if filter.Role != "" && t.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && t.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsDefault != nil && t.IsDefault != *filter.IsDefault {
				continue
			}
		}
		result = append(result, copyTemplate(t))
	}
	return applyPagination(result, paginationOptsTmpl(filter)), nil
}

func (s *Store) UpdateTemplate(_ context.Context, t *template.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[t.ID.String()]; !ok {
		return fmt.Errorf("template %s: %w", t.ID, custodian.ErrTemplateNotFound)
	}
	c := copyTemplate(t)
	c.UpdatedAt = time.Now()
	s.templates[t.ID.String()] = c
	return nil
}

func (s *Store) DeleteTemplate(_ context.Context, templateID id.TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.templates, templateID.String())
	return nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditEntries[e.ID.String()] = copyAuditEntry(e)
	return nil
}

func (s *Store) GetAuditEntry(_ context.Context, auditID id.AuditID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.auditEntries[auditID.String()]
	if !ok {
		return nil, fmt.Errorf("audit entry %s: %w", auditID, custodian.ErrAuditEntryNotFound)
	}
	return copyAuditEntry(e), nil
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*audit.Entry, 0, len(s.auditEntries))
	for _, e := range s.auditEntries {
		if filter != nil {
			if filter.LabID != "" && e.LabID != filter.LabID {
				continue
			}
			if filter.UserID != "" && e.UserID != filter.UserID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.EntityType != "" && e.EntityType != filter.EntityType {
				continue
			}
			if filter.EntityID != "" && e.EntityID != filter.EntityID {
				continue
			}
			if filter.WasAuthorized != nil && e.WasAuthorized != *filter.WasAuthorized {
				continue
			}
			if filter.After != nil && e.CreatedAt.Before(*filter.After) {
				continue
			}
			if filter.Before != nil && e.CreatedAt.After(*filter.Before) {
				continue
			}
		}
		result = append(result, copyAuditEntry(e))
	}
	return applyPagination(result, paginationOptsAudit(filter)), nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	list, err := s.ListAuditEntries(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (s *Store) PurgeAuditEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for k, e := range s.auditEntries {
		if e.CreatedAt.Before(before) {
			delete(s.auditEntries, k)
			count++
		}
	}
	return count, nil
}

func (s *Store) DeleteAuditEntriesByLab(_ context.Context, labID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.auditEntries {
		if e.LabID == labID {
			delete(s.auditEntries, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Entity ownership Store
// ──────────────────────────────────────────────────

func (s *Store) GetEntityOwner(_ context.Context, ref entity.Ref) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[ref.String()]
	if !ok {
		return "", fmt.Errorf("entity %s: %w", ref, custodian.ErrEntityNotFound)
	}
	return owner, nil
}

func (s *Store) SetEntityOwner(_ context.Context, ref entity.Ref, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[ref.String()] = ownerID
	return nil
}

func (s *Store) DeleteEntityOwner(_ context.Context, ref entity.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.owners, ref.String())
	return nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyMembership(m *membership.Membership) *membership.Membership {
	c := *m
	if m.Metadata != nil {
		c.Metadata = make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyGrant(g *grant.Grant) *grant.Grant {
	c := *g
	if g.Metadata != nil {
		c.Metadata = make(map[string]any, len(g.Metadata))
		for k, v := range g.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyAccess(a *crosslab.Access) *crosslab.Access {
	c := *a
	if a.Metadata != nil {
		c.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyTemplate(t *template.Template) *template.Template {
	c := *t
	return &c
}

func copyAuditEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 && p.offset < len(items) {
		items = items[p.offset:]
	} else if p.offset >= len(items) && p.offset > 0 {
		return nil
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}

func paginationOptsMemb(f *membership.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsGrant(f *grant.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsXL(f *crosslab.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsTmpl(f *template.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginationOptsAudit(f *audit.QueryFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}
