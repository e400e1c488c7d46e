package crosslab

import (
	"context"
	"time"

	"github.com/labfoundry/custodian/id"
)

// Store defines persistence operations for cross-lab access grants.
type Store interface {
	// CreateAccess persists a new cross-lab access grant (normally Pending).
	CreateAccess(ctx context.Context, a *Access) error

	// GetAccess retrieves a grant by ID.
	GetAccess(ctx context.Context, accessID id.CrossLabID) (*Access, error)

	// ListAccessForLab returns every grant (any status) the user holds on
	// the target lab. Status and validity filtering happens at the
	// evaluation layer.
	ListAccessForLab(ctx context.Context, userID, targetLabID string) ([]*Access, error)

	// ListAccess returns grants matching the filter.
	ListAccess(ctx context.Context, filter *ListFilter) ([]*Access, error)

	// CountAccess returns the number of grants matching the filter.
	CountAccess(ctx context.Context, filter *ListFilter) (int64, error)

	// SetAccessStatus moves a grant through the approval workflow.
	SetAccessStatus(ctx context.Context, accessID id.CrossLabID, status Status, changedBy string) error

	// RevokeAccess stamps RevokedAt and sets the status to Revoked.
	RevokeAccess(ctx context.Context, accessID id.CrossLabID, at time.Time) error
}
