// Package template defines reusable permission templates and the service
// that applies them to lab memberships.
package template

import (
	"time"

	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
)

// Template is a named, lab-scoped bundle of membership capability flags.
// Applying a template overwrites the target membership's flags wholesale.
type Template struct {
	ID           id.TemplateID           `json:"id" db:"id"`
	LabID        string                  `json:"lab_id" db:"lab_id"`
	Name         string                  `json:"name" db:"name"`
	Description  string                  `json:"description,omitempty" db:"description"`
	Role         string                  `json:"role" db:"role"`
	IsActive     bool                    `json:"is_active" db:"is_active"`
	IsDefault    bool                    `json:"is_default" db:"is_default"`
	Capabilities membership.Capabilities `json:"capabilities" db:"-"`
	CreatedAt    time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing templates.
type ListFilter struct {
	LabID     string `json:"lab_id,omitempty"`
	Role      string `json:"role,omitempty"`
	IsActive  *bool  `json:"is_active,omitempty"`
	IsDefault *bool  `json:"is_default,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}
