package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian/crosslab"
	"github.com/labfoundry/custodian/id"
)

func (a *API) registerCrossLabRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("cross-lab"))

	if err := g.POST("/cross-lab", a.requestAccess,
		forge.WithSummary("Request cross-lab access"),
		forge.WithDescription("Creates a pending cross-lab access grant awaiting approval."),
		forge.WithOperationID("requestCrossLabAccess"),
		forge.WithRequestSchema(RequestAccessRequest{}),
		forge.WithCreatedResponse(&crosslab.Access{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/cross-lab/:accessId", a.getAccess,
		forge.WithSummary("Get cross-lab access"),
		forge.WithDescription("Returns a cross-lab access grant by ID."),
		forge.WithOperationID("getCrossLabAccess"),
		forge.WithResponseSchema(http.StatusOK, "Access details", &crosslab.Access{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/cross-lab", a.listAccess,
		forge.WithSummary("List cross-lab access"),
		forge.WithDescription("Lists cross-lab access grants with optional filters."),
		forge.WithOperationID("listCrossLabAccess"),
		forge.WithRequestSchema(ListAccessRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Access list", []*crosslab.Access{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/cross-lab/:accessId/status", a.setAccessStatus,
		forge.WithSummary("Approve or reject cross-lab access"),
		forge.WithDescription("Moves a pending grant to approved or rejected."),
		forge.WithOperationID("setCrossLabStatus"),
		forge.WithRequestSchema(SetAccessStatusRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated access", &crosslab.Access{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/cross-lab/:accessId", a.revokeAccess,
		forge.WithSummary("Revoke cross-lab access"),
		forge.WithDescription("Revokes an access grant. Revocation is terminal."),
		forge.WithOperationID("revokeCrossLabAccess"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) requestAccess(ctx forge.Context, req *RequestAccessRequest) (*crosslab.Access, error) {
	if req.UserID == "" || req.HomeLabID == "" || req.TargetLabID == "" {
		return nil, forge.BadRequest("user_id, home_lab_id, and target_lab_id are required")
	}
	if req.HomeLabID == req.TargetLabID {
		return nil, forge.BadRequest("home_lab_id and target_lab_id must differ")
	}

	acc := &crosslab.Access{
		ID:                    id.NewCrossLabID(),
		UserID:                req.UserID,
		HomeLabID:             req.HomeLabID,
		TargetLabID:           req.TargetLabID,
		Status:                crosslab.StatusPending,
		CanViewProjects:       req.CanViewProjects,
		CanEditSharedProjects: req.CanEditSharedProjects,
		CanJoinMeetings:       req.CanJoinMeetings,
		CanViewReports:        req.CanViewReports,
		ValidFrom:             time.Now().UTC(),
		Metadata:              req.Metadata,
	}

	if req.ValidFrom != "" {
		t, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid valid_from: %v", err))
		}
		acc.ValidFrom = t
	}
	if req.ValidUntil != "" {
		t, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid valid_until: %v", err))
		}
		acc.ValidUntil = &t
	}

	if err := a.eng.Store().CreateAccess(ctx.Context(), acc); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitAccessRequested(ctx.Context(), acc)
	}

	return acc, ctx.JSON(http.StatusCreated, acc)
}

func (a *API) getAccess(ctx forge.Context, _ *GetAccessRequest) (*crosslab.Access, error) {
	accessID, err := id.ParseCrossLabID(ctx.Param("accessId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid access ID: %v", err))
	}

	acc, err := a.eng.Store().GetAccess(ctx.Context(), accessID)
	if err != nil {
		return nil, mapError(err)
	}

	return acc, ctx.JSON(http.StatusOK, acc)
}

func (a *API) listAccess(ctx forge.Context, req *ListAccessRequest) ([]*crosslab.Access, error) {
	filter := &crosslab.ListFilter{
		UserID:      req.UserID,
		HomeLabID:   req.HomeLabID,
		TargetLabID: req.TargetLabID,
		Status:      crosslab.Status(req.Status),
		Limit:       defaultLimit(req.Limit),
		Offset:      req.Offset,
	}

	grants, err := a.eng.Store().ListAccess(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) setAccessStatus(ctx forge.Context, req *SetAccessStatusRequest) (*crosslab.Access, error) {
	accessID, err := id.ParseCrossLabID(ctx.Param("accessId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid access ID: %v", err))
	}

	status := crosslab.Status(req.Status)
	if status != crosslab.StatusApproved && status != crosslab.StatusRejected {
		return nil, forge.BadRequest("status must be approved or rejected")
	}

	if err := a.eng.Store().SetAccessStatus(ctx.Context(), accessID, status, actingUser(ctx)); err != nil {
		return nil, mapError(err)
	}

	acc, err := a.eng.Store().GetAccess(ctx.Context(), accessID)
	if err != nil {
		return nil, mapError(err)
	}

	a.eng.InvalidateUser(ctx.Context(), acc.TargetLabID, acc.UserID)
	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitAccessStatusChanged(ctx.Context(), acc)
	}

	return acc, ctx.JSON(http.StatusOK, acc)
}

func (a *API) revokeAccess(ctx forge.Context, _ *GetAccessRequest) (*struct{}, error) {
	accessID, err := id.ParseCrossLabID(ctx.Param("accessId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid access ID: %v", err))
	}

	// Get before revoke so invalidation and hooks see the grant.
	acc, getErr := a.eng.Store().GetAccess(ctx.Context(), accessID)

	if err := a.eng.Store().RevokeAccess(ctx.Context(), accessID, time.Now().UTC()); err != nil {
		return nil, mapError(err)
	}

	if getErr == nil {
		a.eng.InvalidateUser(ctx.Context(), acc.TargetLabID, acc.UserID)
		if a.eng.Plugins() != nil {
			acc.Status = crosslab.StatusRevoked
			a.eng.Plugins().EmitAccessStatusChanged(ctx.Context(), acc)
		}
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}
