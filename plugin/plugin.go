// Package plugin defines the plugin system for Custodian.
// Plugins are notified of lifecycle events (permission checked, membership
// updated, grant created, etc.) and can react — logging, metrics, tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"
	"time"

	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Check lifecycle hooks
// ──────────────────────────────────────────────────

// BeforeCheck is called before a permission check is evaluated.
// The req parameter is *custodian.PermissionContext (passed as any to
// avoid an import cycle).
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, req any) error
}

// AfterCheck is called after a permission check completes.
// The req parameter is *custodian.PermissionContext; result is
// *custodian.PermissionResult.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, req, result any) error
}

// ──────────────────────────────────────────────────
// Membership lifecycle hooks
// ──────────────────────────────────────────────────

// MembershipCreated is called after a lab membership is created.
type MembershipCreated interface {
	OnMembershipCreated(ctx context.Context, m *membership.Membership) error
}

// MembershipUpdated is called after a membership's role or capability
// flags change.
type MembershipUpdated interface {
	OnMembershipUpdated(ctx context.Context, m *membership.Membership) error
}

// MembershipDeactivated is called after a membership is deactivated.
type MembershipDeactivated interface {
	OnMembershipDeactivated(ctx context.Context, membershipID id.MembershipID) error
}

// ──────────────────────────────────────────────────
// Grant lifecycle hooks
// ──────────────────────────────────────────────────

// GrantCreated is called after a resource-specific grant is created.
type GrantCreated interface {
	OnGrantCreated(ctx context.Context, g *grant.Grant) error
}

// GrantRevoked is called after a resource-specific grant is revoked.
type GrantRevoked interface {
	OnGrantRevoked(ctx context.Context, grantID id.GrantID, at time.Time) error
}

// ──────────────────────────────────────────────────
// Cross-lab lifecycle hooks
// ──────────────────────────────────────────────────

// AccessRequested is called after a cross-lab access request is created.
type AccessRequested interface {
	OnAccessRequested(ctx context.Context, a *crosslab.Access) error
}

// AccessStatusChanged is called after a cross-lab access request moves
// through the approval workflow (approved, rejected, revoked).
type AccessStatusChanged interface {
	OnAccessStatusChanged(ctx context.Context, a *crosslab.Access) error
}

// ──────────────────────────────────────────────────
// Template lifecycle hooks
// ──────────────────────────────────────────────────

// TemplateApplied is called after a permission template is applied to
// a membership.
type TemplateApplied interface {
	OnTemplateApplied(ctx context.Context, templateID id.TemplateID, membershipID id.MembershipID) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
