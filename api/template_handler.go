package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/template"
)

func (a *API) registerTemplateRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("templates"))

	if err := g.POST("/templates", a.createTemplate,
		forge.WithSummary("Create template"),
		forge.WithDescription("Creates a lab-scoped permission template."),
		forge.WithOperationID("createTemplate"),
		forge.WithRequestSchema(CreateTemplateRequest{}),
		forge.WithCreatedResponse(&template.Template{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/templates/:templateId", a.getTemplate,
		forge.WithSummary("Get template"),
		forge.WithDescription("Returns a template by ID."),
		forge.WithOperationID("getTemplate"),
		forge.WithResponseSchema(http.StatusOK, "Template details", &template.Template{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/templates/:templateId", a.updateTemplate,
		forge.WithSummary("Update template"),
		forge.WithDescription("Updates an existing template."),
		forge.WithOperationID("updateTemplate"),
		forge.WithRequestSchema(UpdateTemplateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated template", &template.Template{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/templates/:templateId", a.deleteTemplate,
		forge.WithSummary("Delete template"),
		forge.WithDescription("Deletes a template. Memberships it was applied to keep their flags."),
		forge.WithOperationID("deleteTemplate"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/templates", a.listTemplates,
		forge.WithSummary("List templates"),
		forge.WithDescription("Lists templates with optional filters."),
		forge.WithOperationID("listTemplates"),
		forge.WithRequestSchema(ListTemplatesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Template list", []*template.Template{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/templates/:templateId/apply", a.applyTemplate,
		forge.WithSummary("Apply template"),
		forge.WithDescription("Overwrites a membership's capability flags with the template's bundle."),
		forge.WithOperationID("applyTemplate"),
		forge.WithRequestSchema(ApplyTemplateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Application result", ApplyTemplateResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/templates/upgrade-all", a.upgradeAll,
		forge.WithSummary("Upgrade lab to defaults"),
		forge.WithDescription("Re-applies each role's default template to every active membership in the lab."),
		forge.WithOperationID("upgradeAllTemplates"),
		forge.WithRequestSchema(UpgradeAllRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Upgrade result", UpgradeAllResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createTemplate(ctx forge.Context, req *CreateTemplateRequest) (*template.Template, error) {
	if req.LabID == "" {
		return nil, forge.BadRequest("lab_id is required")
	}
	if req.Name == "" {
		return nil, forge.BadRequest("name is required")
	}
	if req.Role == "" {
		return nil, forge.BadRequest("role is required")
	}

	t := &template.Template{
		ID:           id.NewTemplateID(),
		LabID:        req.LabID,
		Name:         req.Name,
		Description:  req.Description,
		Role:         req.Role,
		IsActive:     req.IsActive,
		IsDefault:    req.IsDefault,
		Capabilities: req.Capabilities,
	}

	if err := a.eng.Store().CreateTemplate(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusCreated, t)
}

func (a *API) getTemplate(ctx forge.Context, _ *GetTemplateRequest) (*template.Template, error) {
	templateID, err := id.ParseTemplateID(ctx.Param("templateId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid template ID: %v", err))
	}

	t, err := a.eng.Store().GetTemplate(ctx.Context(), templateID)
	if err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) updateTemplate(ctx forge.Context, req *UpdateTemplateRequest) (*template.Template, error) {
	templateID, err := id.ParseTemplateID(ctx.Param("templateId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid template ID: %v", err))
	}

	t, err := a.eng.Store().GetTemplate(ctx.Context(), templateID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Description != "" {
		t.Description = req.Description
	}
	if req.Role != "" {
		t.Role = req.Role
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	if req.IsDefault != nil {
		t.IsDefault = *req.IsDefault
	}
	if req.Capabilities != nil {
		t.Capabilities = *req.Capabilities
	}

	if err := a.eng.Store().UpdateTemplate(ctx.Context(), t); err != nil {
		return nil, mapError(err)
	}

	return t, ctx.JSON(http.StatusOK, t)
}

func (a *API) deleteTemplate(ctx forge.Context, _ *GetTemplateRequest) (*struct{}, error) {
	templateID, err := id.ParseTemplateID(ctx.Param("templateId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid template ID: %v", err))
	}

	if err := a.eng.Store().DeleteTemplate(ctx.Context(), templateID); err != nil {
		return nil, mapError(err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listTemplates(ctx forge.Context, req *ListTemplatesRequest) ([]*template.Template, error) {
	filter := &template.ListFilter{
		LabID:  req.LabID,
		Role:   req.Role,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	switch req.Active {
	case "true":
		t := true
		filter.IsActive = &t
	case "false":
		f := false
		filter.IsActive = &f
	}
	switch req.Default {
	case "true":
		t := true
		filter.IsDefault = &t
	case "false":
		f := false
		filter.IsDefault = &f
	}

	templates, err := a.eng.Store().ListTemplates(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return templates, ctx.JSON(http.StatusOK, templates)
}

func (a *API) applyTemplate(ctx forge.Context, req *ApplyTemplateRequest) (*ApplyTemplateResponse, error) {
	templateID, err := id.ParseTemplateID(ctx.Param("templateId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid template ID: %v", err))
	}
	if req.UserID == "" || req.LabID == "" {
		return nil, forge.BadRequest("user_id and lab_id are required")
	}

	applied, err := a.eng.Templates().Apply(ctx.Context(), templateID, req.UserID, req.LabID, actingUser(ctx))
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ApplyTemplateResponse{Applied: applied}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) upgradeAll(ctx forge.Context, req *UpgradeAllRequest) (*UpgradeAllResponse, error) {
	if req.LabID == "" {
		return nil, forge.BadRequest("lab_id is required")
	}

	updated, err := a.eng.Templates().UpgradeAll(ctx.Context(), req.LabID, actingUser(ctx))
	if err != nil {
		return nil, mapError(err)
	}

	resp := &UpgradeAllResponse{Updated: updated}
	return resp, ctx.JSON(http.StatusOK, resp)
}
