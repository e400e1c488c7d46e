package custodian_test

import (
	"context"
	"testing"

	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/template"
)

func TestTemplateApply(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
		Capabilities: membership.Capabilities{CanViewAllProjects: true},
	})

	tmplID := id.NewTemplateID()
	_ = s.CreateTemplate(ctx, &template.Template{
		ID: tmplID, LabID: "lab-1", Name: "senior-researcher", Role: "researcher", IsActive: true,
		Capabilities: membership.Capabilities{
			CanCreateProjects: true,
			CanEditAllTasks:   true,
		},
	})

	applied, err := eng.Templates().Apply(ctx, tmplID, "u1", "lab-1", "admin-1")
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("expected template applied")
	}

	// Flags are overwritten wholesale: the old view flag is gone.
	m, err := s.GetMembership(ctx, "u1", "lab-1")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Capabilities.CanCreateProjects || !m.Capabilities.CanEditAllTasks {
		t.Fatalf("expected template capabilities, got %+v", m.Capabilities)
	}
	if m.Capabilities.CanViewAllProjects {
		t.Fatal("expected previous capabilities overwritten")
	}
}

func TestTemplateApplyMissingOrInactive(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
	})

	// Unknown template: not an error, just not applied.
	applied, err := eng.Templates().Apply(ctx, id.NewTemplateID(), "u1", "lab-1", "admin-1")
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("expected missing template not applied")
	}

	// Inactive template.
	inactiveID := id.NewTemplateID()
	_ = s.CreateTemplate(ctx, &template.Template{
		ID: inactiveID, LabID: "lab-1", Name: "retired", Role: "researcher", IsActive: false,
	})
	if applied, err = eng.Templates().Apply(ctx, inactiveID, "u1", "lab-1", "admin-1"); err != nil || applied {
		t.Fatalf("expected inactive template not applied, got applied=%v err=%v", applied, err)
	}

	// Template from another lab.
	foreignID := id.NewTemplateID()
	_ = s.CreateTemplate(ctx, &template.Template{
		ID: foreignID, LabID: "lab-other", Name: "foreign", Role: "researcher", IsActive: true,
	})
	if applied, err = eng.Templates().Apply(ctx, foreignID, "u1", "lab-1", "admin-1"); err != nil || applied {
		t.Fatalf("expected foreign template not applied, got applied=%v err=%v", applied, err)
	}
}

func TestTemplateUpgradeAll(t *testing.T) {
	ctx := context.Background()
	eng, s := newTestEngine(t)

	// Two researchers, one technician, one inactive researcher.
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u1", LabID: "lab-1", Role: "researcher", IsActive: true,
	})
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u2", LabID: "lab-1", Role: "researcher", IsActive: true,
	})
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u3", LabID: "lab-1", Role: "technician", IsActive: true,
	})
	_ = s.CreateMembership(ctx, &membership.Membership{
		ID: id.NewMembershipID(), UserID: "u4", LabID: "lab-1", Role: "researcher", IsActive: false,
	})

	// Default template exists for researchers only.
	_ = s.CreateTemplate(ctx, &template.Template{
		ID: id.NewTemplateID(), LabID: "lab-1", Name: "researcher-default", Role: "researcher",
		IsActive: true, IsDefault: true,
		Capabilities: membership.Capabilities{CanViewAllProjects: true, CanViewAllTasks: true},
	})

	updated, err := eng.Templates().UpgradeAll(ctx, "lab-1", "admin-1")
	if err != nil {
		t.Fatal(err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 memberships updated, got %d", updated)
	}

	m, err := s.GetMembership(ctx, "u2", "lab-1")
	if err != nil {
		t.Fatal(err)
	}
	if !m.Capabilities.CanViewAllProjects || !m.Capabilities.CanViewAllTasks {
		t.Fatalf("expected default capabilities applied, got %+v", m.Capabilities)
	}

	// Technician role has no default template: untouched.
	if m, err = s.GetMembership(ctx, "u3", "lab-1"); err != nil {
		t.Fatal(err)
	}
	if m.Capabilities.CountEnabled() != 0 {
		t.Fatalf("expected technician untouched, got %+v", m.Capabilities)
	}
}

func TestEngineCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)

	// Nil cache: invalidation is a no-op, not a panic.
	eng.InvalidateUser(ctx, "lab-1", "u1")
	eng.InvalidateLab(ctx, "lab-1")
}
