package memory

import (
	"context"
	"errors"
	"testing"
	"time"

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

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func TestMembershipCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := &membership.Membership{
		ID:       id.NewMembershipID(),
		UserID:   "u1",
		LabID:    "lab-1",
		Role:     "researcher",
		IsActive: true,
		Capabilities: membership.Capabilities{
			CanCreateProjects: true,
		},
	}

	// Create
	if err := s.CreateMembership(ctx, m); err != nil {
		t.Fatal(err)
	}

	// Duplicate (user, lab) rejected
	dup := &membership.Membership{ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1"}
	if err := s.CreateMembership(ctx, dup); !errors.Is(err, custodian.ErrDuplicateMembership) {
		t.Fatalf("expected ErrDuplicateMembership, got %v", err)
	}

	// Get by pair
	got, err := s.GetMembership(ctx, "u1", "lab-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != "researcher" {
		t.Fatalf("expected researcher, got %s", got.Role)
	}

	// Get by ID
	got, err = s.GetMembershipByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "u1" {
		t.Fatal("ID lookup mismatch")
	}

	// SetMembershipCapabilities overwrites wholesale
	err = s.SetMembershipCapabilities(ctx, "u1", "lab-1", membership.Capabilities{CanViewAllProjects: true})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetMembership(ctx, "u1", "lab-1")
	if got.Capabilities.CanCreateProjects {
		t.Fatal("expected CanCreateProjects cleared by wholesale overwrite")
	}
	if !got.Capabilities.CanViewAllProjects {
		t.Fatal("expected CanViewAllProjects set")
	}

	// Deactivate
	if err := s.DeactivateMembership(ctx, "u1", "lab-1"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetMembership(ctx, "u1", "lab-1")
	if got.IsActive {
		t.Fatal("expected membership deactivated")
	}

	// ListActiveMemberships excludes it
	active, _ := s.ListActiveMemberships(ctx, "lab-1")
	if len(active) != 0 {
		t.Fatalf("expected 0 active memberships, got %d", len(active))
	}

	// Count
	count, _ := s.CountMemberships(ctx, &membership.ListFilter{LabID: "lab-1"})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}

	// Unknown pair
	_, err = s.GetMembership(ctx, "u1", "lab-2")
	if !errors.Is(err, custodian.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
}

func TestGrantLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &grant.Grant{
		ID:         id.NewGrantID(),
		LabID:      "lab-1",
		UserID:     "u1",
		EntityType: entity.TypeTask,
		EntityID:   "task-9",
		CanView:    true,
		CanEdit:    true,
		ValidFrom:  time.Now().Add(-time.Hour),
	}

	if err := s.CreateGrant(ctx, g); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetGrant(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.CanEdit {
		t.Fatal("expected CanEdit")
	}

	list, err := s.ListGrantsForEntity(ctx, "u1", entity.Ref{Type: entity.TypeTask, ID: "task-9"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 grant, got %d", len(list))
	}

	// Revoke stamps RevokedAt, never deletes.
	at := time.Now()
	if err := s.RevokeGrant(ctx, g.ID, at); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetGrant(ctx, g.ID)
	if got.RevokedAt == nil {
		t.Fatal("expected RevokedAt set")
	}

	revoked := true
	list, _ = s.ListGrants(ctx, &grant.ListFilter{UserID: "u1", Revoked: &revoked})
	if len(list) != 1 {
		t.Fatalf("expected 1 revoked grant, got %d", len(list))
	}

	_, err = s.GetGrant(ctx, id.NewGrantID())
	if !errors.Is(err, custodian.ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestCrossLabWorkflow(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := &crosslab.Access{
		ID:              id.NewCrossLabID(),
		UserID:          "u1",
		HomeLabID:       "lab-1",
		TargetLabID:     "lab-2",
		Status:          crosslab.StatusPending,
		CanViewProjects: true,
		ValidFrom:       time.Now().Add(-time.Hour),
	}

	if err := s.CreateAccess(ctx, a); err != nil {
		t.Fatal(err)
	}

	// Approve
	if err := s.SetAccessStatus(ctx, a.ID, crosslab.StatusApproved, "pi-1"); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetAccess(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != crosslab.StatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
	if got.ApprovedBy != "pi-1" {
		t.Fatal("expected ApprovedBy stamped")
	}

	list, _ := s.ListAccessForLab(ctx, "u1", "lab-2")
	if len(list) != 1 {
		t.Fatalf("expected 1 access, got %d", len(list))
	}

	// Revoke
	if err := s.RevokeAccess(ctx, a.ID, time.Now()); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetAccess(ctx, a.ID)
	if got.Status != crosslab.StatusRevoked || got.RevokedAt == nil {
		t.Fatal("expected revoked status and RevokedAt")
	}

	count, _ := s.CountAccess(ctx, &crosslab.ListFilter{TargetLabID: "lab-2"})
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

func TestTemplateCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	tmpl := &template.Template{
		ID:        id.NewTemplateID(),
		LabID:     "lab-1",
		Name:      "Researcher defaults",
		Role:      "researcher",
		IsActive:  true,
		IsDefault: true,
		Capabilities: membership.Capabilities{
			CanCreateProjects: true,
			CanViewAllTasks:   true,
		},
	}

	if err := s.CreateTemplate(ctx, tmpl); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTemplate(ctx, tmpl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Researcher defaults" {
		t.Fatal("mismatch")
	}

	got, err = s.GetDefaultTemplate(ctx, "lab-1", "researcher")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != tmpl.ID {
		t.Fatal("default lookup mismatch")
	}

	// Inactive default no longer resolves.
	tmpl.IsActive = false
	if err := s.UpdateTemplate(ctx, tmpl); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetDefaultTemplate(ctx, "lab-1", "researcher")
	if !errors.Is(err, custodian.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	if err := s.DeleteTemplate(ctx, tmpl.ID); err != nil {
		t.Fatal(err)
	}
	_, err = s.GetTemplate(ctx, tmpl.ID)
	if !errors.Is(err, custodian.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestAuditEntries(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := &audit.Entry{
		ID:        id.NewAuditID(),
		LabID:     "lab-1",
		UserID:    "u1",
		Action:    audit.ActionPermissionCheck,
		CreatedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &audit.Entry{
		ID:            id.NewAuditID(),
		LabID:         "lab-1",
		UserID:        "u1",
		Action:        audit.ActionAccessDenied,
		WasAuthorized: false,
		CreatedAt:     time.Now(),
	}

	if err := s.CreateAuditEntry(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateAuditEntry(ctx, recent); err != nil {
		t.Fatal(err)
	}

	denied := false
	list, err := s.ListAuditEntries(ctx, &audit.QueryFilter{
		LabID:         "lab-1",
		Action:        audit.ActionAccessDenied,
		WasAuthorized: &denied,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}

	purged, err := s.PurgeAuditEntries(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}

	if err := s.DeleteAuditEntriesByLab(ctx, "lab-1"); err != nil {
		t.Fatal(err)
	}
	count, _ := s.CountAuditEntries(ctx, &audit.QueryFilter{LabID: "lab-1"})
	if count != 0 {
		t.Fatalf("expected 0 entries, got %d", count)
	}
}

func TestEntityOwnerIndex(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref := entity.Ref{Type: entity.TypeIdea, ID: "idea-3"}

	_, err := s.GetEntityOwner(ctx, ref)
	if !errors.Is(err, custodian.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}

	if err := s.SetEntityOwner(ctx, ref, "u1"); err != nil {
		t.Fatal(err)
	}
	owner, err := s.GetEntityOwner(ctx, ref)
	if err != nil {
		t.Fatal(err)
	}
	if owner != "u1" {
		t.Fatalf("expected u1, got %s", owner)
	}

	if err := s.DeleteEntityOwner(ctx, ref); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntityOwner(ctx, ref); !errors.Is(err, custodian.ErrEntityNotFound) {
		t.Fatal("expected owner record removed")
	}
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		m := &membership.Membership{
			ID:       id.NewMembershipID(),
			UserID:   "u" + string(rune('1'+i)),
			LabID:    "lab-1",
			IsActive: true,
		}
		if err := s.CreateMembership(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	page, _ := s.ListMemberships(ctx, &membership.ListFilter{LabID: "lab-1", Limit: 2})
	if len(page) != 2 {
		t.Fatalf("expected 2, got %d", len(page))
	}

	rest, _ := s.ListMemberships(ctx, &membership.ListFilter{LabID: "lab-1", Offset: 4})
	if len(rest) != 1 {
		t.Fatalf("expected 1, got %d", len(rest))
	}

	none, _ := s.ListMemberships(ctx, &membership.ListFilter{LabID: "lab-1", Offset: 10})
	if len(none) != 0 {
		t.Fatalf("expected 0, got %d", len(none))
	}
}
