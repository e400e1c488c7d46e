package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
)

// testPlugin implements Plugin + MembershipCreated + AfterCheck.
type testPlugin struct {
	membershipCreatedCalled bool
	afterCheckCalled        bool
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnMembershipCreated(_ context.Context, _ *membership.Membership) error {
	t.membershipCreatedCalled = true
	return nil
}

func (t *testPlugin) OnAfterCheck(_ context.Context, _, _ any) error {
	t.afterCheckCalled = true
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch MembershipCreated to testPlugin only.
	reg.EmitMembershipCreated(ctx, &membership.Membership{ID: id.NewMembershipID(), UserID: "user-1"})
	if !tp.membershipCreatedCalled {
		t.Fatal("OnMembershipCreated was not called")
	}

	// Should dispatch AfterCheck.
	reg.EmitAfterCheck(ctx, nil, nil)
	if !tp.afterCheckCalled {
		t.Fatal("OnAfterCheck was not called")
	}

	// Should not panic on hooks with no listeners.
	reg.EmitBeforeCheck(ctx, nil)
	reg.EmitMembershipDeactivated(ctx, id.NewMembershipID())
	reg.EmitShutdown(ctx)
}
