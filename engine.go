package custodian

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/plugin"
	"github.com/labfoundry/custodian/store"
)

// Engine is the permission-resolution core. It evaluates the four grant
// layers in fixed priority order, records every decision to the audit
// stream, and fails closed on any internal error.
type Engine struct {
	store      store.Store
	audit      *audit.Recorder
	auditOwned bool
	cache      Cache
	plugins    *plugin.Registry
	logger     *slog.Logger
	config     Config
	clock      func() time.Time
	layers     []layer
}

// NewEngine creates a new Custodian engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("custodian: store is required")
	}
	if e.audit == nil {
		e.audit = audit.NewRecorder(e.store,
			audit.WithLogger(e.logger),
			audit.WithBuffer(e.config.AuditBuffer),
			audit.WithWriteTimeout(e.config.AuditWriteTimeout),
		)
		e.auditOwned = true
	}
	// Evaluation order is the authorization contract: ownership first,
	// then lab role, then narrow grants, then cross-lab access.
	e.layers = []layer{
		{MethodOwnership, e.evaluateOwnership},
		{MethodLabRole, e.evaluateLabRole},
		{MethodResourcePermission, e.evaluateResourceGrant},
		{MethodCrossLabAccess, e.evaluateCrossLab},
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Audit returns the audit recorder.
func (e *Engine) Audit() *audit.Recorder { return e.audit }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// InvalidateUser drops cached decisions for a user within a lab. Call after
// any permission mutation affecting that user.
func (e *Engine) InvalidateUser(ctx context.Context, labID, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, labID, userID)
	}
}

// InvalidateLab drops cached decisions for an entire lab.
func (e *Engine) InvalidateLab(ctx context.Context, labID string) {
	if e.cache != nil {
		e.cache.InvalidateLab(ctx, labID)
	}
}

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown: plugins are notified and the audit
// buffer is drained if the engine owns the recorder.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	if e.auditOwned {
		return e.audit.Close()
	}
	return nil
}

// Check resolves a permission request. This is the hot path.
//
// Check never fails: panics and store errors alike collapse into a denied
// result, so a caller can act on the decision unconditionally.
func (e *Engine) Check(ctx context.Context, req *PermissionContext) (result *PermissionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("permission check panicked",
				"panic", r,
				"user_id", req.UserID,
				"lab_id", req.LabID,
				"entity_type", req.EntityType,
				"action", req.Action,
			)
			result = e.failClosed(ctx, req, start, fmt.Sprintf("panic: %v", r))
		}
	}()

	if !req.EntityType.Valid() {
		return e.deniedInvalid(ctx, req, start, "unknown entity type "+string(req.EntityType))
	}
	if !req.Action.Valid() {
		return e.deniedInvalid(ctx, req, start, "unknown action "+string(req.Action))
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, req); ok {
			out := *cached
			out.EvalTimeNs = time.Since(start).Nanoseconds()
			return &out
		}
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	// Layers evaluated strictly in order, first allow wins. A layer that
	// errors counts as attempted and failed — never as fatal.
	lastAttempted := MethodOwnership
	failures := make(map[string]string, len(e.layers))
	for _, l := range e.layers {
		if err := ctx.Err(); err != nil {
			// Caller gave up; abandon remaining layers and deny.
			return e.denied(ctx, req, start, lastAttempted, failures)
		}

		out, err := l.eval(ctx, req)
		if err != nil {
			e.logger.Warn("authorization layer failed",
				"method", l.method,
				"error", err,
				"user_id", req.UserID,
				"lab_id", req.LabID,
			)
			lastAttempted = l.method
			failures[string(l.method)] = "layer error: " + err.Error()
			continue
		}
		if out == nil {
			// Layer not applicable to this request (e.g. ownership with
			// no entity ID). Does not count as attempted.
			continue
		}
		lastAttempted = l.method
		if !out.allowed {
			failures[string(l.method)] = out.reason
			continue
		}

		result = &PermissionResult{
			Allowed:      true,
			Reason:       out.reason,
			Method:       l.method,
			Restrictions: out.restrictions,
			EvalTimeNs:   time.Since(start).Nanoseconds(),
		}
		e.recordDecision(ctx, req, result, nil)
		if e.cache != nil {
			e.cache.Set(ctx, req, result)
		}
		if e.plugins != nil {
			e.plugins.EmitAfterCheck(ctx, req, result)
		}
		return result
	}

	result = e.denied(ctx, req, start, lastAttempted, failures)
	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result
}

// Enforce returns an error if the permission check is denied.
func (e *Engine) Enforce(ctx context.Context, req *PermissionContext) error {
	result := e.Check(ctx, req)
	if !result.Allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, result.Reason)
	}
	return nil
}

// Can is a shorthand for a simple permission check.
func (e *Engine) Can(ctx context.Context, userID, labID string, entityType entity.Type, action Action, entityID string) bool {
	return e.Check(ctx, &PermissionContext{
		UserID:     userID,
		LabID:      labID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}).Allowed
}

// denied builds the terminal denial, audits it, and never caches it.
func (e *Engine) denied(ctx context.Context, req *PermissionContext, start time.Time, last Method, failures map[string]string) *PermissionResult {
	result := &PermissionResult{
		Allowed:    false,
		Reason:     ReasonInsufficient,
		Method:     last,
		EvalTimeNs: time.Since(start).Nanoseconds(),
	}
	e.recordDecision(ctx, req, result, failures)
	return result
}

// deniedInvalid rejects a malformed request before any layer runs. The
// diagnostic goes under its own audit key, never among the layer failures.
func (e *Engine) deniedInvalid(ctx context.Context, req *PermissionContext, start time.Time, diag string) *PermissionResult {
	result := &PermissionResult{
		Allowed:    false,
		Reason:     ReasonInsufficient,
		Method:     MethodOwnership,
		EvalTimeNs: time.Since(start).Nanoseconds(),
	}
	entry := decisionEntry(req, result)
	entry.Details = map[string]any{"input": diag}
	e.audit.Record(ctx, entry)
	return result
}

// failClosed is the unexpected-failure path: deny, attribute to the first
// layer, and leave a diagnostic in the audit stream.
func (e *Engine) failClosed(ctx context.Context, req *PermissionContext, start time.Time, diag string) *PermissionResult {
	result := &PermissionResult{
		Allowed:    false,
		Reason:     ReasonCheckFailed,
		Method:     MethodOwnership,
		EvalTimeNs: time.Since(start).Nanoseconds(),
	}
	entry := decisionEntry(req, result)
	entry.ErrorMessage = diag
	e.audit.Record(ctx, entry)
	return result
}

// recordDecision writes exactly one audit entry per check: a permission
// check event when allowed, an access-denied event otherwise.
func (e *Engine) recordDecision(ctx context.Context, req *PermissionContext, result *PermissionResult, failures map[string]string) {
	entry := decisionEntry(req, result)
	if len(failures) > 0 {
		layerDetails := make(map[string]any, len(failures))
		for k, v := range failures {
			layerDetails[k] = v
		}
		entry.Details = map[string]any{"layers": layerDetails}
	}
	e.audit.Record(ctx, entry)
}

func decisionEntry(req *PermissionContext, result *PermissionResult) *audit.Entry {
	action := audit.ActionPermissionCheck
	if !result.Allowed {
		action = audit.ActionAccessDenied
	}
	entry := &audit.Entry{
		LabID:               req.LabID,
		UserID:              req.UserID,
		Action:              action,
		EntityType:          string(req.EntityType),
		EntityID:            req.EntityID,
		AuthorizationMethod: string(result.Method),
		RequiredPermission:  permissionKey(req.EntityType, req.Action),
		WasAuthorized:       result.Allowed,
		RequestIP:           req.Request.IP,
		UserAgent:           req.Request.UserAgent,
		Endpoint:            req.Request.Endpoint,
		HTTPMethod:          req.Request.Method,
		SessionID:           req.Request.SessionID,
	}
	if result.Allowed && len(result.Restrictions) > 0 {
		entry.Details = map[string]any{"restrictions": result.Restrictions}
	}
	return entry
}
