package membership

import (
	"context"

	"github.com/labfoundry/custodian/id"
)

// Store defines persistence operations for lab memberships.
type Store interface {
	// CreateMembership persists a new membership.
	CreateMembership(ctx context.Context, m *Membership) error

	// GetMembership retrieves the membership for a (user, lab) pair.
	GetMembership(ctx context.Context, userID, labID string) (*Membership, error)

	// GetMembershipByID retrieves a membership by ID.
	GetMembershipByID(ctx context.Context, membID id.MembershipID) (*Membership, error)

	// UpdateMembership persists changes to a membership.
	UpdateMembership(ctx context.Context, m *Membership) error

	// SetMembershipCapabilities overwrites the capability flags of the
	// (user, lab) membership in full.
	SetMembershipCapabilities(ctx context.Context, userID, labID string, caps Capabilities) error

	// DeactivateMembership flips IsActive off. Memberships are never
	// hard-deleted.
	DeactivateMembership(ctx context.Context, userID, labID string) error

	// ListMemberships returns memberships matching the filter.
	ListMemberships(ctx context.Context, filter *ListFilter) ([]*Membership, error)

	// ListActiveMemberships returns every active membership in a lab.
	ListActiveMemberships(ctx context.Context, labID string) ([]*Membership, error)

	// CountMemberships returns the number of memberships matching the filter.
	CountMemberships(ctx context.Context, filter *ListFilter) (int64, error)
}
