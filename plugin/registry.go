package plugin

import (
	"context"
	"log/slog"
	"time"

	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeCheckEntry struct {
	name string
	hook BeforeCheck
}
type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type membershipCreatedEntry struct {
	name string
	hook MembershipCreated
}
type membershipUpdatedEntry struct {
	name string
	hook MembershipUpdated
}
type membershipDeactivatedEntry struct {
	name string
	hook MembershipDeactivated
}
type grantCreatedEntry struct {
	name string
	hook GrantCreated
}
type grantRevokedEntry struct {
	name string
	hook GrantRevoked
}
type accessRequestedEntry struct {
	name string
	hook AccessRequested
}
type accessStatusChangedEntry struct {
	name string
	hook AccessStatusChanged
}
type templateAppliedEntry struct {
	name string
	hook TemplateApplied
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck           []beforeCheckEntry
	afterCheck            []afterCheckEntry
	membershipCreated     []membershipCreatedEntry
	membershipUpdated     []membershipUpdatedEntry
	membershipDeactivated []membershipDeactivatedEntry
	grantCreated          []grantCreatedEntry
	grantRevoked          []grantRevokedEntry
	accessRequested       []accessRequestedEntry
	accessStatusChanged   []accessStatusChangedEntry
	templateApplied       []templateAppliedEntry
	shutdown              []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, beforeCheckEntry{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, h})
	}
	if h, ok := p.(MembershipCreated); ok {
		r.membershipCreated = append(r.membershipCreated, membershipCreatedEntry{name, h})
	}
	if h, ok := p.(MembershipUpdated); ok {
		r.membershipUpdated = append(r.membershipUpdated, membershipUpdatedEntry{name, h})
	}
	if h, ok := p.(MembershipDeactivated); ok {
		r.membershipDeactivated = append(r.membershipDeactivated, membershipDeactivatedEntry{name, h})
	}
	if h, ok := p.(GrantCreated); ok {
		r.grantCreated = append(r.grantCreated, grantCreatedEntry{name, h})
	}
	if h, ok := p.(GrantRevoked); ok {
		r.grantRevoked = append(r.grantRevoked, grantRevokedEntry{name, h})
	}
	if h, ok := p.(AccessRequested); ok {
		r.accessRequested = append(r.accessRequested, accessRequestedEntry{name, h})
	}
	if h, ok := p.(AccessStatusChanged); ok {
		r.accessStatusChanged = append(r.accessStatusChanged, accessStatusChangedEntry{name, h})
	}
	if h, ok := p.(TemplateApplied); ok {
		r.templateApplied = append(r.templateApplied, templateAppliedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// ──────────────────────────────────────────────────
// Check event emitters
// ──────────────────────────────────────────────────

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, req any) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, req); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, req, result any) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, req, result); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Membership event emitters
// ──────────────────────────────────────────────────

// EmitMembershipCreated notifies all plugins that implement MembershipCreated.
func (r *Registry) EmitMembershipCreated(ctx context.Context, m *membership.Membership) {
	for _, e := range r.membershipCreated {
		if err := e.hook.OnMembershipCreated(ctx, m); err != nil {
			r.logHookError("OnMembershipCreated", e.name, err)
		}
	}
}

// EmitMembershipUpdated notifies all plugins that implement MembershipUpdated.
func (r *Registry) EmitMembershipUpdated(ctx context.Context, m *membership.Membership) {
	for _, e := range r.membershipUpdated {
		if err := e.hook.OnMembershipUpdated(ctx, m); err != nil {
			r.logHookError("OnMembershipUpdated", e.name, err)
		}
	}
}

// EmitMembershipDeactivated notifies all plugins that implement MembershipDeactivated.
func (r *Registry) EmitMembershipDeactivated(ctx context.Context, membershipID id.MembershipID) {
	for _, e := range r.membershipDeactivated {
		if err := e.hook.OnMembershipDeactivated(ctx, membershipID); err != nil {
			r.logHookError("OnMembershipDeactivated", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Grant event emitters
// ──────────────────────────────────────────────────

// EmitGrantCreated notifies all plugins that implement GrantCreated.
func (r *Registry) EmitGrantCreated(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantCreated {
		if err := e.hook.OnGrantCreated(ctx, g); err != nil {
			r.logHookError("OnGrantCreated", e.name, err)
		}
	}
}

// EmitGrantRevoked notifies all plugins that implement GrantRevoked.
func (r *Registry) EmitGrantRevoked(ctx context.Context, grantID id.GrantID, at time.Time) {
	for _, e := range r.grantRevoked {
		if err := e.hook.OnGrantRevoked(ctx, grantID, at); err != nil {
			r.logHookError("OnGrantRevoked", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Cross-lab event emitters
// ──────────────────────────────────────────────────

// EmitAccessRequested notifies all plugins that implement AccessRequested.
func (r *Registry) EmitAccessRequested(ctx context.Context, a *crosslab.Access) {
	for _, e := range r.accessRequested {
		if err := e.hook.OnAccessRequested(ctx, a); err != nil {
			r.logHookError("OnAccessRequested", e.name, err)
		}
	}
}

// EmitAccessStatusChanged notifies all plugins that implement AccessStatusChanged.
func (r *Registry) EmitAccessStatusChanged(ctx context.Context, a *crosslab.Access) {
	for _, e := range r.accessStatusChanged {
		if err := e.hook.OnAccessStatusChanged(ctx, a); err != nil {
			r.logHookError("OnAccessStatusChanged", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Template event emitters
// ──────────────────────────────────────────────────

// EmitTemplateApplied notifies all plugins that implement TemplateApplied.
func (r *Registry) EmitTemplateApplied(ctx context.Context, templateID id.TemplateID, membershipID id.MembershipID) {
	for _, e := range r.templateApplied {
		if err := e.hook.OnTemplateApplied(ctx, templateID, membershipID); err != nil {
			r.logHookError("OnTemplateApplied", e.name, err)
		}
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block the pipeline.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
