package custodian

import (
	"context"

	"github.com/xraph/forge"
)

// LabFromContext resolves the lab (tenant) the request is scoped to.
// Prefers forge.Scope when running inside a Forge app; falls back to the
// explicit lab set with WithLab (standalone mode).
func LabFromContext(ctx context.Context) string {
	if s, ok := forge.ScopeFrom(ctx); ok {
		return s.OrgID()
	}
	return labIDFromContext(ctx)
}
