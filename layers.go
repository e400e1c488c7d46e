package custodian

import (
	"context"
	"errors"

	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/membership"
)

// layer is one ordered evaluator in the authorization chain.
type layer struct {
	method Method
	eval   func(ctx context.Context, req *PermissionContext) (*layerOutcome, error)
}

// layerOutcome is the result of one attempted layer. A nil outcome from an
// evaluator means the layer did not apply to the request at all.
type layerOutcome struct {
	allowed      bool
	reason       string
	restrictions []string
}

func allow(reason string) *layerOutcome        { return &layerOutcome{allowed: true, reason: reason} }
func denyLayer(reason string) (*layerOutcome, error) { return &layerOutcome{reason: reason}, nil }

// evaluateOwnership authorizes the creator (or proposer, for ideas) of an
// entity for any action on it. Ownership is a blanket grant: owners keep
// full control of their own records regardless of lab capability flags.
func (e *Engine) evaluateOwnership(ctx context.Context, req *PermissionContext) (*layerOutcome, error) {
	if req.EntityID == "" {
		return nil, nil // Nothing to own yet (creation-type check).
	}

	ref := entity.Ref{Type: req.EntityType, ID: req.EntityID}
	owner, err := e.store.GetEntityOwner(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return denyLayer("entity " + ref.String() + " not found")
		}
		return nil, err
	}
	if owner != req.UserID {
		return denyLayer("user is not the " + req.EntityType.OwnerField() + " of " + ref.String())
	}
	return allow("Owner access"), nil
}

// evaluateLabRole authorizes through the user's membership in the lab:
// admin override first, then the capability flag mapped to the
// (entity type, action) pair.
func (e *Engine) evaluateLabRole(ctx context.Context, req *PermissionContext) (*layerOutcome, error) {
	m, err := e.store.GetMembership(ctx, req.UserID, req.LabID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return denyLayer("no membership in lab")
		}
		return nil, err
	}
	if !m.IsActive {
		return denyLayer("lab membership is inactive")
	}
	switch m.WindowAt(e.clock()) {
	case membership.ValidityNotYetStarted:
		return denyLayer("lab membership is not yet valid")
	case membership.ValidityExpired:
		return denyLayer("lab membership has expired")
	}

	if m.IsAdmin || m.IsSuperAdmin {
		return allow("Administrator override"), nil
	}

	c, ok := lookupCapability(req.EntityType, req.Action)
	if !ok {
		return denyLayer("no lab-role capability maps to " + permissionKey(req.EntityType, req.Action))
	}
	if !c.enabled(m.Capabilities) {
		return denyLayer("lab role lacks " + c.name)
	}
	return allow("Lab role grants " + c.name), nil
}

// evaluateResourceGrant authorizes through a narrow per-entity grant. Only
// consulted when the request opted in and names an entity. Any one
// currently valid grant matching the action suffices.
func (e *Engine) evaluateResourceGrant(ctx context.Context, req *PermissionContext) (*layerOutcome, error) {
	if !req.ResourceSpecific || req.EntityID == "" {
		return nil, nil
	}

	grants, err := e.store.ListGrantsForEntity(ctx, req.UserID, entity.Ref{Type: req.EntityType, ID: req.EntityID})
	if err != nil {
		return nil, err
	}
	if len(grants) == 0 {
		return denyLayer("no resource grants for entity")
	}

	now := e.clock()
	valid, notYet, expired := 0, 0, 0
	for _, g := range grants {
		switch g.WindowAt(now) {
		case grant.ValidityNotYetStarted:
			notYet++
			continue
		case grant.ValidityExpired:
			expired++
			continue
		case grant.ValidityRevoked:
			continue
		}
		valid++
		matched := false
		switch req.Action {
		case ActionView:
			matched = g.CanView
		case ActionEdit:
			matched = g.CanEdit
		case ActionDelete:
			matched = g.CanDelete
		case ActionShare:
			matched = g.CanShare
		case ActionAssign:
			matched = g.CanAssign
		}
		if matched {
			return allow("Resource-specific grant"), nil
		}
	}
	if valid == 0 {
		switch {
		case notYet > 0:
			return denyLayer("resource grant is not yet valid")
		case expired > 0:
			return denyLayer("resource grant has expired")
		}
		return denyLayer("no currently valid resource grant")
	}
	return denyLayer("no valid resource grant covers " + string(req.Action))
}

// evaluateCrossLab authorizes through an approved cross-lab access grant on
// the target lab. Only view and edit are ever grantable across labs; a
// successful match carries the grant's restrictions into the result.
func (e *Engine) evaluateCrossLab(ctx context.Context, req *PermissionContext) (*layerOutcome, error) {
	accesses, err := e.store.ListAccessForLab(ctx, req.UserID, req.LabID)
	if err != nil {
		return nil, err
	}
	if len(accesses) == 0 {
		return denyLayer("no cross-lab access for lab")
	}

	now := e.clock()
	valid, notYet, expired := 0, 0, 0
	for _, a := range accesses {
		switch a.WindowAt(now) {
		case crosslab.ValidityNotYetStarted:
			notYet++
			continue
		case crosslab.ValidityExpired:
			expired++
			continue
		case crosslab.ValidityRevoked, crosslab.ValidityNotApproved:
			continue
		}
		valid++
		matched := false
		switch req.Action {
		case ActionView:
			matched = a.CanViewProjects
		case ActionEdit:
			matched = a.CanEditSharedProjects
		}
		if matched {
			out := allow("Approved cross-lab access")
			out.restrictions = a.Restrictions()
			return out, nil
		}
	}
	if valid == 0 {
		switch {
		case notYet > 0:
			return denyLayer("cross-lab access is not yet valid")
		case expired > 0:
			return denyLayer("cross-lab access has expired")
		}
		return denyLayer("no approved, currently valid cross-lab access")
	}
	return denyLayer("cross-lab access does not cover " + string(req.Action))
}
