package api

import (
	"errors"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian"
)

// mapError maps domain errors to Forge HTTP errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return forge.NotFound(err.Error())
	}
	if errors.Is(err, custodian.ErrDuplicateMembership) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, custodian.ErrInvalidEntityType) || errors.Is(err, custodian.ErrInvalidAction) {
		return forge.BadRequest(err.Error())
	}
	if errors.Is(err, custodian.ErrAccessDenied) {
		return forge.Forbidden(err.Error())
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, custodian.ErrMembershipNotFound) ||
		errors.Is(err, custodian.ErrGrantNotFound) ||
		errors.Is(err, custodian.ErrCrossLabNotFound) ||
		errors.Is(err, custodian.ErrTemplateNotFound) ||
		errors.Is(err, custodian.ErrEntityNotFound) ||
		errors.Is(err, custodian.ErrAuditEntryNotFound)
}

func defaultLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}
