package custodian

import "context"

// Cache provides optional caching for permission decisions. The engine runs
// without one by default — grants are read fresh on every check — so a cache
// trades staleness for speed and must be invalidated by every mutation path
// (the template service does this for capability changes).
type Cache interface {
	// Get returns a cached decision, if available.
	Get(ctx context.Context, req *PermissionContext) (*PermissionResult, bool)

	// Set stores a decision in the cache.
	Set(ctx context.Context, req *PermissionContext, result *PermissionResult)

	// InvalidateLab removes all cached decisions for a lab.
	InvalidateLab(ctx context.Context, labID string)

	// InvalidateUser removes all cached decisions for a user within a lab.
	InvalidateUser(ctx context.Context, labID, userID string)
}
