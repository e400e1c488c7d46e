package template

import (
	"context"

	"github.com/labfoundry/custodian/id"
)

// Store defines persistence operations for permission templates.
type Store interface {
	// CreateTemplate persists a new template.
	CreateTemplate(ctx context.Context, t *Template) error

	// GetTemplate retrieves a template by ID.
	GetTemplate(ctx context.Context, templateID id.TemplateID) (*Template, error)

	// GetDefaultTemplate returns the active default template for a role
	// within a lab.
	GetDefaultTemplate(ctx context.Context, labID, role string) (*Template, error)

	// ListTemplates returns templates matching the filter.
	ListTemplates(ctx context.Context, filter *ListFilter) ([]*Template, error)

	// UpdateTemplate persists changes to a template.
	UpdateTemplate(ctx context.Context, t *Template) error

	// DeleteTemplate removes a template by ID.
	DeleteTemplate(ctx context.Context, templateID id.TemplateID) error
}
