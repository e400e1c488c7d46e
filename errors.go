package custodian

import "errors"

var (
	// ErrAccessDenied is returned by Enforce when a check is denied.
	ErrAccessDenied = errors.New("custodian: access denied")

	// ErrMembershipNotFound is returned when a lab membership cannot be found.
	ErrMembershipNotFound = errors.New("custodian: membership not found")

	// ErrGrantNotFound is returned when a resource grant cannot be found.
	ErrGrantNotFound = errors.New("custodian: grant not found")

	// ErrCrossLabNotFound is returned when a cross-lab access grant cannot be found.
	ErrCrossLabNotFound = errors.New("custodian: cross-lab access not found")

	// ErrTemplateNotFound is returned when a permission template cannot be found.
	ErrTemplateNotFound = errors.New("custodian: template not found")

	// ErrEntityNotFound is returned when an entity has no recorded owner.
	ErrEntityNotFound = errors.New("custodian: entity not found")

	// ErrAuditEntryNotFound is returned when an audit entry cannot be found.
	ErrAuditEntryNotFound = errors.New("custodian: audit entry not found")

	// ErrDuplicateMembership is returned when a (user, lab) membership already exists.
	ErrDuplicateMembership = errors.New("custodian: membership already exists for user and lab")

	// ErrInvalidEntityType is returned for an entity type outside the closed set.
	ErrInvalidEntityType = errors.New("custodian: invalid entity type")

	// ErrInvalidAction is returned for an action outside the closed set.
	ErrInvalidAction = errors.New("custodian: invalid action")
)
