package custodian

import (
	"context"
	"errors"
	"fmt"

	"github.com/labfoundry/custodian/audit"
	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/template"
)

// TemplateService applies permission templates to lab memberships.
// Templates overwrite a membership's capability flags wholesale; there is
// no merging with the flags already on the membership.
type TemplateService struct {
	e *Engine
}

// Templates returns the template service backed by this engine's store,
// audit stream, and cache.
func (e *Engine) Templates() *TemplateService {
	return &TemplateService{e: e}
}

// Apply overwrites the (userID, labID) membership's capability flags with
// the template's bundle. It returns false with a nil error when the
// template does not exist, is inactive, or belongs to another lab — those
// outcomes are not failures, the membership is simply left untouched.
func (s *TemplateService) Apply(ctx context.Context, templateID id.TemplateID, userID, labID, appliedBy string) (bool, error) {
	t, err := s.e.store.GetTemplate(ctx, templateID)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load template: %w", err)
	}
	if !t.IsActive || t.LabID != labID {
		return false, nil
	}

	m, err := s.e.store.GetMembership(ctx, userID, labID)
	if err != nil {
		return false, fmt.Errorf("load membership: %w", err)
	}

	if err := s.e.store.SetMembershipCapabilities(ctx, userID, labID, t.Capabilities); err != nil {
		return false, fmt.Errorf("apply template %s: %w", t.ID, err)
	}

	s.recordApplied(ctx, t, userID, labID, appliedBy)
	if s.e.cache != nil {
		s.e.cache.InvalidateUser(ctx, labID, userID)
	}
	if s.e.plugins != nil {
		s.e.plugins.EmitTemplateApplied(ctx, t.ID, m.ID)
	}
	return true, nil
}

// UpgradeAll re-applies each role's active default template to every
// active membership in the lab, sequentially. Memberships whose role has
// no default template are skipped. Per-membership failures are logged and
// skipped so one bad row cannot block the rest of the lab.
//
// Returns the number of memberships updated.
func (s *TemplateService) UpgradeAll(ctx context.Context, labID, appliedBy string) (int, error) {
	members, err := s.e.store.ListActiveMemberships(ctx, labID)
	if err != nil {
		return 0, fmt.Errorf("list memberships: %w", err)
	}

	updated := 0
	for _, m := range members {
		t, err := s.e.store.GetDefaultTemplate(ctx, labID, m.Role)
		if err != nil {
			if errors.Is(err, ErrTemplateNotFound) {
				continue
			}
			s.e.logger.Warn("default template lookup failed",
				"lab_id", labID,
				"role", m.Role,
				"error", err,
			)
			continue
		}
		if !t.IsActive {
			continue
		}

		if err := s.e.store.SetMembershipCapabilities(ctx, m.UserID, labID, t.Capabilities); err != nil {
			s.e.logger.Warn("template upgrade failed for membership",
				"membership_id", m.ID,
				"template_id", t.ID,
				"error", err,
			)
			continue
		}

		s.recordApplied(ctx, t, m.UserID, labID, appliedBy)
		if s.e.plugins != nil {
			s.e.plugins.EmitTemplateApplied(ctx, t.ID, m.ID)
		}
		updated++
	}

	if updated > 0 && s.e.cache != nil {
		s.e.cache.InvalidateLab(ctx, labID)
	}
	return updated, nil
}

func (s *TemplateService) recordApplied(ctx context.Context, t *template.Template, userID, labID, appliedBy string) {
	s.e.audit.Record(ctx, &audit.Entry{
		LabID:  labID,
		UserID: userID,
		Action: audit.ActionTemplateApplied,
		Details: map[string]any{
			"template_id":          t.ID.String(),
			"template_name":        t.Name,
			"role":                 t.Role,
			"capabilities_enabled": t.Capabilities.CountEnabled(),
			"applied_by":           appliedBy,
		},
	})
}
