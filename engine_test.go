package custodian_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/cache"
	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/store"
	"github.com/labfoundry/custodian/store/memory"
)

func newTestEngine(t *testing.T, opts ...custodian.Option) (*custodian.Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := custodian.NewEngine(append([]custodian.Option{custodian.WithStore(s)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })
	return eng, s
}

func checkReq(entityType entity.Type, entityID string, action custodian.Action) *custodian.PermissionContext {
	return &custodian.PermissionContext{
		UserID:     "u1",
		LabID:      "lab-1",
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := custodian.NewEngine()
	if err == nil {
		t.Fatal("expected error when store is nil")
	}
}

func TestDefaultDeny(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	// No ownership, no membership, no grants, no cross-lab access.
	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if result.Allowed {
		t.Fatal("expected default deny")
	}
	if result.Reason != custodian.ReasonInsufficient {
		t.Fatalf("expected reason %q, got %q", custodian.ReasonInsufficient, result.Reason)
	}
}

func TestOwnershipAllows(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	ref := entity.Ref{Type: entity.TypeStudy, ID: "study-1"}
	if err := s.SetEntityOwner(ctx, ref, "u1"); err != nil {
		t.Fatal(err)
	}

	// Owner gets every action, even ones no capability maps to.
	for _, action := range []custodian.Action{custodian.ActionView, custodian.ActionEdit, custodian.ActionDelete, custodian.ActionShare} {
		result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", action))
		if !result.Allowed {
			t.Fatalf("expected owner allowed for %s, got denied: %s", action, result.Reason)
		}
		if result.Method != custodian.MethodOwnership {
			t.Fatalf("expected ownership method, got %s", result.Method)
		}
	}
}

func TestOwnershipNonOwnerFallsThrough(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	ref := entity.Ref{Type: entity.TypeTask, ID: "task-1"}
	_ = s.SetEntityOwner(ctx, ref, "someone-else")

	// Non-owner with the matching capability is still allowed, via lab role.
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
		Capabilities: membership.Capabilities{CanEditAllTasks: true},
	})

	result := eng.Check(ctx, checkReq(entity.TypeTask, "task-1", custodian.ActionEdit))
	if !result.Allowed {
		t.Fatalf("expected allowed via lab role, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodLabRole {
		t.Fatalf("expected lab_role method, got %s", result.Method)
	}
}

func TestCreateCheckSkipsOwnership(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
		Capabilities: membership.Capabilities{CanCreateProjects: true},
	})

	// No entity ID: creation-type check, decided by the lab-role layer.
	result := eng.Check(ctx, checkReq(entity.TypeStudy, "", custodian.ActionCreate))
	if !result.Allowed {
		t.Fatalf("expected create allowed, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodLabRole {
		t.Fatalf("expected lab_role method, got %s", result.Method)
	}
}

func TestAdminOverride(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	// Admin with zero capability flags.
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "pi", IsActive: true, IsAdmin: true,
	})

	// Share on a study has no capability mapping at all; admin still passes.
	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionShare))
	if !result.Allowed {
		t.Fatalf("expected admin allowed, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodLabRole {
		t.Fatalf("expected lab_role method, got %s", result.Method)
	}
}

func TestUnmappedPairDeniedForNonAdmin(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	// Every flag set, but study:share maps to no flag.
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
		Capabilities: membership.Capabilities{
			CanCreateProjects: true, CanViewAllProjects: true, CanEditAllProjects: true, CanDeleteProjects: true,
			CanViewAllTasks: true, CanEditAllTasks: true, CanDeleteTasks: true, CanAssignTasks: true,
			CanEditAllIdeas: true, CanDeleteIdeas: true, CanManageDeadlines: true,
		},
	})

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionShare))
	if result.Allowed {
		t.Fatal("expected denied for unmapped entity/action pair")
	}
}

func TestInactiveMembershipDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "pi", IsActive: false, IsAdmin: true,
	})

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if result.Allowed {
		t.Fatal("expected denied for inactive membership")
	}
}

func TestMembershipAccessWindow(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	future := now.Add(48 * time.Hour)

	cases := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		allowed bool
	}{
		{"inside window", &past, &future, true},
		{"unbounded", nil, nil, true},
		{"not yet started", &future, nil, false},
		{"expired", nil, &past, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			eng, s := newTestEngine(t, custodian.WithClock(func() time.Time { return now }))

			_ = s.CreateMembership(ctx, &membership.Membership{
				ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
				AccessStartDate: tc.start,
				AccessEndDate:   tc.end,
				Capabilities:    membership.Capabilities{CanViewAllProjects: true},
			})

			result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
			if result.Allowed != tc.allowed {
				t.Fatalf("allowed = %v, want %v (%s)", result.Allowed, tc.allowed, result.Reason)
			}
		})
	}
}

func TestResourceGrant(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
		EntityType: entity.TypeTask, EntityID: "task-1",
		CanEdit:   true,
		ValidFrom: time.Now().Add(-time.Hour),
	})

	req := checkReq(entity.TypeTask, "task-1", custodian.ActionEdit)
	req.ResourceSpecific = true

	result := eng.Check(ctx, req)
	if !result.Allowed {
		t.Fatalf("expected allowed via resource grant, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodResourcePermission {
		t.Fatalf("expected resource_permission method, got %s", result.Method)
	}

	// The grant covers edit only.
	req = checkReq(entity.TypeTask, "task-1", custodian.ActionDelete)
	req.ResourceSpecific = true
	if result = eng.Check(ctx, req); result.Allowed {
		t.Fatal("expected denied for action outside the grant")
	}
}

func TestResourceGrantRequiresOptIn(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
		EntityType: entity.TypeTask, EntityID: "task-1",
		CanEdit:   true,
		ValidFrom: time.Now().Add(-time.Hour),
	})

	// ResourceSpecific left false: the grant layer is never consulted.
	result := eng.Check(ctx, checkReq(entity.TypeTask, "task-1", custodian.ActionEdit))
	if result.Allowed {
		t.Fatal("expected denied when resource layer is not opted in")
	}
}

func TestRevokedGrantDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	revoked := time.Now().Add(-time.Minute)
	_ = s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
		EntityType: entity.TypeTask, EntityID: "task-1",
		CanEdit:   true,
		ValidFrom: time.Now().Add(-time.Hour),
		RevokedAt: &revoked,
	})

	req := checkReq(entity.TypeTask, "task-1", custodian.ActionEdit)
	req.ResourceSpecific = true
	if result := eng.Check(ctx, req); result.Allowed {
		t.Fatal("expected denied for revoked grant")
	}
}

func TestExpiredGrantDenied(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	eng, s := newTestEngine(t, custodian.WithClock(func() time.Time { return now }))

	until := now.Add(-time.Hour)
	_ = s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
		EntityType: entity.TypeTask, EntityID: "task-1",
		CanView:    true,
		ValidFrom:  now.Add(-48 * time.Hour),
		ValidUntil: &until,
	})

	req := checkReq(entity.TypeTask, "task-1", custodian.ActionView)
	req.ResourceSpecific = true
	if result := eng.Check(ctx, req); result.Allowed {
		t.Fatal("expected denied for expired grant")
	}
}

func TestCachedAllowNotSharedAcrossOptIn(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t, custodian.WithCache(cache.NewMemory()))

	_ = s.CreateGrant(ctx, &grant.Grant{
		ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
		EntityType: entity.TypeTask, EntityID: "task-1",
		CanEdit:   true,
		ValidFrom: time.Now().Add(-time.Hour),
	})

	optedIn := checkReq(entity.TypeTask, "task-1", custodian.ActionEdit)
	optedIn.ResourceSpecific = true
	if result := eng.Check(ctx, optedIn); !result.Allowed {
		t.Fatalf("expected allowed via resource grant, got denied: %s", result.Reason)
	}

	// The same tuple without the opt-in never consults the grant layer, so
	// the cached allow must not be replayed for it.
	result := eng.Check(ctx, checkReq(entity.TypeTask, "task-1", custodian.ActionEdit))
	if result.Allowed {
		t.Fatalf("cached resource-grant allow replayed without opt-in: method=%s reason=%q", result.Method, result.Reason)
	}
}

func TestDenialDistinguishesWindowState(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	grantReq := checkReq(entity.TypeTask, "task-1", custodian.ActionEdit)
	grantReq.ResourceSpecific = true

	cases := []struct {
		name   string
		seed   func(ctx context.Context, s *memory.Store)
		req    *custodian.PermissionContext
		layer  custodian.Method
		reason string
	}{
		{
			name: "grant not yet valid",
			seed: func(ctx context.Context, s *memory.Store) {
				_ = s.CreateGrant(ctx, &grant.Grant{
					ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
					EntityType: entity.TypeTask, EntityID: "task-1",
					CanEdit: true, ValidFrom: future,
				})
			},
			req:    grantReq,
			layer:  custodian.MethodResourcePermission,
			reason: "resource grant is not yet valid",
		},
		{
			name: "grant expired",
			seed: func(ctx context.Context, s *memory.Store) {
				_ = s.CreateGrant(ctx, &grant.Grant{
					ID: id.NewGrantID(), LabID: "lab-1", UserID: "u1",
					EntityType: entity.TypeTask, EntityID: "task-1",
					CanEdit: true, ValidFrom: now.Add(-48 * time.Hour), ValidUntil: &past,
				})
			},
			req:    grantReq,
			layer:  custodian.MethodResourcePermission,
			reason: "resource grant has expired",
		},
		{
			name: "cross-lab not yet valid",
			seed: func(ctx context.Context, s *memory.Store) {
				_ = s.CreateAccess(ctx, &crosslab.Access{
					ID: id.NewCrossLabID(), UserID: "u1",
					HomeLabID: "lab-home", TargetLabID: "lab-1",
					Status: crosslab.StatusApproved, CanViewProjects: true,
					ValidFrom: future,
				})
			},
			req:    checkReq(entity.TypeStudy, "study-1", custodian.ActionView),
			layer:  custodian.MethodCrossLabAccess,
			reason: "cross-lab access is not yet valid",
		},
		{
			name: "cross-lab expired",
			seed: func(ctx context.Context, s *memory.Store) {
				_ = s.CreateAccess(ctx, &crosslab.Access{
					ID: id.NewCrossLabID(), UserID: "u1",
					HomeLabID: "lab-home", TargetLabID: "lab-1",
					Status: crosslab.StatusApproved, CanViewProjects: true,
					ValidFrom: now.Add(-48 * time.Hour), ValidUntil: &past,
				})
			},
			req:    checkReq(entity.TypeStudy, "study-1", custodian.ActionView),
			layer:  custodian.MethodCrossLabAccess,
			reason: "cross-lab access has expired",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			eng, s := newTestEngine(t, custodian.WithClock(func() time.Time { return now }))
			tc.seed(ctx, s)

			if result := eng.Check(ctx, tc.req); result.Allowed {
				t.Fatal("expected denied")
			}
			if err := eng.Stop(ctx); err != nil {
				t.Fatal(err)
			}

			entries, err := s.ListAuditEntries(ctx, &audit.QueryFilter{})
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected 1 audit entry, got %d", len(entries))
			}
			layers, ok := entries[0].Details["layers"].(map[string]any)
			if !ok {
				t.Fatalf("missing layer failures in audit details: %+v", entries[0].Details)
			}
			if got := layers[string(tc.layer)]; got != tc.reason {
				t.Fatalf("layer %s failure = %v, want %q", tc.layer, got, tc.reason)
			}
		})
	}
}

func TestCrossLabAccess(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateAccess(ctx, &crosslab.Access{
		ID: id.NewCrossLabID(), UserID: "u1",
		HomeLabID: "lab-home", TargetLabID: "lab-1",
		Status:          crosslab.StatusApproved,
		CanViewProjects: true,
		ValidFrom:       time.Now().Add(-time.Hour),
	})

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if !result.Allowed {
		t.Fatalf("expected allowed via cross-lab access, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodCrossLabAccess {
		t.Fatalf("expected cross_lab_access method, got %s", result.Method)
	}

	// Restrictions derive from the capabilities the grant lacks.
	want := []string{"Read-only access", "Cannot join meetings", "Cannot view reports"}
	if len(result.Restrictions) != len(want) {
		t.Fatalf("restrictions = %v, want %v", result.Restrictions, want)
	}
	for i := range want {
		if result.Restrictions[i] != want[i] {
			t.Fatalf("restrictions = %v, want %v", result.Restrictions, want)
		}
	}

	// Delete is never grantable across labs.
	if result = eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionDelete)); result.Allowed {
		t.Fatal("expected denied for delete via cross-lab access")
	}
}

func TestCrossLabPendingDenied(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateAccess(ctx, &crosslab.Access{
		ID: id.NewCrossLabID(), UserID: "u1",
		HomeLabID: "lab-home", TargetLabID: "lab-1",
		Status:          crosslab.StatusPending,
		CanViewProjects: true,
		ValidFrom:       time.Now().Add(-time.Hour),
	})

	if result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView)); result.Allowed {
		t.Fatal("expected denied for pending cross-lab access")
	}
}

func TestInvalidInputDenied(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	result := eng.Check(ctx, &custodian.PermissionContext{
		UserID: "u1", LabID: "lab-1", EntityType: "spaceship", Action: custodian.ActionView,
	})
	if result.Allowed {
		t.Fatal("expected denied for unknown entity type")
	}

	result = eng.Check(ctx, &custodian.PermissionContext{
		UserID: "u1", LabID: "lab-1", EntityType: entity.TypeStudy, Action: "teleport",
	})
	if result.Allowed {
		t.Fatal("expected denied for unknown action")
	}
}

func TestInvalidInputAuditedUnderInputKey(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = eng.Check(ctx, &custodian.PermissionContext{
		UserID: "u1", LabID: "lab-1", EntityType: "spaceship", Action: custodian.ActionView,
	})
	if err := eng.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListAuditEntries(ctx, &audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	details := entries[0].Details
	if _, ok := details["layers"]; ok {
		t.Fatalf("input diagnostic recorded among layer failures: %+v", details)
	}
	if details["input"] != "unknown entity type spaceship" {
		t.Fatalf("input diagnostic = %v", details["input"])
	}
}

func TestPanicFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := &panickingStore{Store: memory.New()}
	eng, err := custodian.NewEngine(custodian.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if result.Allowed {
		t.Fatal("expected denied when the check panics")
	}
	if result.Reason != custodian.ReasonCheckFailed {
		t.Fatalf("expected reason %q, got %q", custodian.ReasonCheckFailed, result.Reason)
	}
	if result.Method != custodian.MethodOwnership {
		t.Fatalf("expected ownership method, got %s", result.Method)
	}
}

func TestStoreErrorFailsClosed(t *testing.T) {
	ctx := context.Background()
	s := &erroringStore{Store: memory.New()}
	eng, err := custodian.NewEngine(custodian.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if result.Allowed {
		t.Fatal("expected denied when every layer errors")
	}
}

func TestLayerErrorDoesNotBlockLaterLayers(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := &erroringStore{Store: mem, passthroughCrossLab: true}
	eng, err := custodian.NewEngine(custodian.WithStore(s))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = eng.Stop(context.Background()) })

	_ = mem.CreateAccess(ctx, &crosslab.Access{
		ID: id.NewCrossLabID(), UserID: "u1",
		HomeLabID: "lab-home", TargetLabID: "lab-1",
		Status:          crosslab.StatusApproved,
		CanViewProjects: true,
		ValidFrom:       time.Now().Add(-time.Hour),
	})

	// Ownership and lab-role layers error; the cross-lab layer still runs.
	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if !result.Allowed {
		t.Fatalf("expected allowed via cross-lab layer, got denied: %s", result.Reason)
	}
	if result.Method != custodian.MethodCrossLabAccess {
		t.Fatalf("expected cross_lab_access method, got %s", result.Method)
	}
}

func TestEnforce(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "pi", IsActive: true, IsAdmin: true,
	})

	if err := eng.Enforce(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView)); err != nil {
		t.Fatalf("expected no error for allowed check, got %v", err)
	}

	err := eng.Enforce(ctx, &custodian.PermissionContext{
		UserID: "u2", LabID: "lab-1", EntityType: entity.TypeStudy, EntityID: "study-1", Action: custodian.ActionView,
	})
	if !errors.Is(err, custodian.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestCan(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.SetEntityOwner(ctx, entity.Ref{Type: entity.TypeIdea, ID: "idea-1"}, "u1")

	if !eng.Can(ctx, "u1", "lab-1", entity.TypeIdea, custodian.ActionEdit, "idea-1") {
		t.Fatal("expected owner can edit")
	}
	if eng.Can(ctx, "u2", "lab-1", entity.TypeIdea, custodian.ActionEdit, "idea-1") {
		t.Fatal("expected non-owner cannot edit")
	}
}

func TestCheckEvalTime(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	result := eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionView))
	if result.EvalTimeNs <= 0 {
		t.Fatal("expected positive eval time")
	}
}

func TestAuditTrail(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.SetEntityOwner(ctx, entity.Ref{Type: entity.TypeStudy, ID: "study-1"}, "u1")

	// One allowed, one denied: exactly one entry each.
	_ = eng.Check(ctx, checkReq(entity.TypeStudy, "study-1", custodian.ActionEdit))
	_ = eng.Check(ctx, &custodian.PermissionContext{
		UserID: "u2", LabID: "lab-1", EntityType: entity.TypeStudy, EntityID: "study-1", Action: custodian.ActionEdit,
	})

	// Stop drains the async audit buffer.
	if err := eng.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListAuditEntries(ctx, &audit.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	byUser := make(map[string]*audit.Entry, 2)
	for _, e := range entries {
		byUser[e.UserID] = e
	}
	if e := byUser["u1"]; e == nil || e.Action != audit.ActionPermissionCheck || !e.WasAuthorized {
		t.Fatalf("unexpected allowed entry: %+v", byUser["u1"])
	}
	if e := byUser["u2"]; e == nil || e.Action != audit.ActionAccessDenied || e.WasAuthorized {
		t.Fatalf("unexpected denied entry: %+v", byUser["u2"])
	}
	if byUser["u1"].RequiredPermission != "study_edit" {
		t.Fatalf("expected required permission study_edit, got %q", byUser["u1"].RequiredPermission)
	}
}

// erroringStore wraps a working store and fails the membership and
// entity-owner lookups the first two layers depend on.
type erroringStore struct {
	store.Store
	passthroughCrossLab bool
}

var errStoreDown = errors.New("store down")

// panickingStore wraps a working store and panics on the first lookup the
// evaluation chain performs.
type panickingStore struct {
	store.Store
}

func (s *panickingStore) GetEntityOwner(context.Context, entity.Ref) (string, error) {
	panic("owner index corrupted")
}

func (s *erroringStore) GetEntityOwner(context.Context, entity.Ref) (string, error) {
	return "", errStoreDown
}

func (s *erroringStore) GetMembership(context.Context, string, string) (*membership.Membership, error) {
	return nil, errStoreDown
}

func (s *erroringStore) ListAccessForLab(ctx context.Context, userID, labID string) ([]*crosslab.Access, error) {
	if s.passthroughCrossLab {
		return s.Store.ListAccessForLab(ctx, userID, labID)
	}
	return nil, errStoreDown
}
