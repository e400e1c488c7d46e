package grant

import (
	"context"
	"time"

	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/id"
)

// Store defines persistence operations for resource grants.
type Store interface {
	// CreateGrant persists a new grant.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves a grant by ID.
	GetGrant(ctx context.Context, grantID id.GrantID) (*Grant, error)

	// ListGrantsForEntity returns every grant (valid or not) held by the
	// user on the given entity. Validity filtering happens at the
	// evaluation layer so revocations and windows are judged against the
	// check's own clock.
	ListGrantsForEntity(ctx context.Context, userID string, ref entity.Ref) ([]*Grant, error)

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// RevokeGrant stamps RevokedAt on a grant. Grants are never deleted;
	// revocation is the terminal state.
	RevokeGrant(ctx context.Context, grantID id.GrantID, at time.Time) error
}
