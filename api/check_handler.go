package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/entity"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Permission check"),
		forge.WithDescription("Evaluates whether the user can perform the action on the entity."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce permission"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", CheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch permission check"),
		forge.WithDescription("Evaluates multiple permission checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.UserID == "" || req.LabID == "" || req.EntityType == "" || req.Action == "" {
		return nil, forge.BadRequest("user_id, lab_id, entity_type, and action are required")
	}

	result := a.eng.Check(ctx.Context(), toPermissionContext(req))

	resp := toCheckResponse(result)
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*CheckResponse, error) {
	if req.UserID == "" || req.LabID == "" || req.EntityType == "" || req.Action == "" {
		return nil, forge.BadRequest("user_id, lab_id, entity_type, and action are required")
	}

	result := a.eng.Check(ctx.Context(), toPermissionContext(req))

	resp := toCheckResponse(result)
	if !result.Allowed {
		return resp, ctx.JSON(http.StatusForbidden, resp)
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]CheckResponse, len(req.Checks))
	for i, c := range req.Checks {
		result := a.eng.Check(ctx.Context(), toPermissionContext(&c))
		results[i] = *toCheckResponse(result)
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func toPermissionContext(r *CheckRequest) *custodian.PermissionContext {
	return &custodian.PermissionContext{
		UserID:           r.UserID,
		LabID:            r.LabID,
		EntityType:       entity.Type(r.EntityType),
		EntityID:         r.EntityID,
		Action:           custodian.Action(r.Action),
		ResourceSpecific: r.ResourceSpecific,
	}
}

func toCheckResponse(r *custodian.PermissionResult) *CheckResponse {
	return &CheckResponse{
		Allowed:      r.Allowed,
		Reason:       r.Reason,
		Method:       string(r.Method),
		Restrictions: r.Restrictions,
		EvalTimeNs:   r.EvalTimeNs,
	}
}
