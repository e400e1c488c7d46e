package entity

import "context"

// Store defines the ownership read model. Entity records themselves live in
// the host application's storage; backends maintain an owner index so each
// permission check reads the current owner, never a cached one.
type Store interface {
	// GetEntityOwner returns the user ID recorded in the entity's owner
	// field (created_by, or proposed_by for ideas).
	GetEntityOwner(ctx context.Context, ref Ref) (string, error)

	// SetEntityOwner records or replaces the owner of an entity. Called by
	// the host application when an entity is created or reassigned.
	SetEntityOwner(ctx context.Context, ref Ref, ownerID string) error

	// DeleteEntityOwner removes the owner record for a deleted entity.
	DeleteEntityOwner(ctx context.Context, ref Ref) error
}
