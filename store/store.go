// Package store defines the aggregate persistence interface. Each grant
// source (membership, grant, crosslab, template, audit, entity ownership)
// defines its own store interface. The composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"

	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/membership"
	"github.com/labfoundry/custodian/template"
)

// Store is the aggregate persistence interface. A single backend
// (postgres, sqlite, mongo, memory) implements all of the sub-stores.
type Store interface {
	membership.Store
	grant.Store
	crosslab.Store
	template.Store
	audit.Store
	entity.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
