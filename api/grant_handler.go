package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/grant"
	"github.com/labfoundry/custodian/id"
)

func (a *API) registerGrantRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("grants"))

	if err := g.POST("/grants", a.createGrant,
		forge.WithSummary("Create grant"),
		forge.WithDescription("Grants a user narrow permissions on one entity."),
		forge.WithOperationID("createGrant"),
		forge.WithRequestSchema(CreateGrantRequest{}),
		forge.WithCreatedResponse(&grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/grants/:grantId", a.getGrant,
		forge.WithSummary("Get grant"),
		forge.WithDescription("Returns a grant by ID."),
		forge.WithOperationID("getGrant"),
		forge.WithResponseSchema(http.StatusOK, "Grant details", &grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/grants", a.listGrants,
		forge.WithSummary("List grants"),
		forge.WithDescription("Lists grants with optional filters."),
		forge.WithOperationID("listGrants"),
		forge.WithRequestSchema(ListGrantsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Grant list", []*grant.Grant{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/grants/:grantId", a.revokeGrant,
		forge.WithSummary("Revoke grant"),
		forge.WithDescription("Stamps the grant revoked. Grants are never hard-deleted."),
		forge.WithOperationID("revokeGrant"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createGrant(ctx forge.Context, req *CreateGrantRequest) (*grant.Grant, error) {
	if req.LabID == "" || req.UserID == "" {
		return nil, forge.BadRequest("lab_id and user_id are required")
	}
	et, err := entity.Parse(req.EntityType)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid entity_type: %v", err))
	}
	if req.EntityID == "" {
		return nil, forge.BadRequest("entity_id is required")
	}

	g := &grant.Grant{
		ID:         id.NewGrantID(),
		LabID:      req.LabID,
		UserID:     req.UserID,
		EntityType: et,
		EntityID:   req.EntityID,
		CanView:    req.CanView,
		CanEdit:    req.CanEdit,
		CanDelete:  req.CanDelete,
		CanShare:   req.CanShare,
		CanAssign:  req.CanAssign,
		ValidFrom:  time.Now().UTC(),
		GrantedBy:  actingUser(ctx),
		Metadata:   req.Metadata,
	}

	if req.ValidFrom != "" {
		t, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid valid_from: %v", err))
		}
		g.ValidFrom = t
	}
	if req.ValidUntil != "" {
		t, err := time.Parse(time.RFC3339, req.ValidUntil)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid valid_until: %v", err))
		}
		g.ValidUntil = &t
	}

	if err := a.eng.Store().CreateGrant(ctx.Context(), g); err != nil {
		return nil, mapError(err)
	}

	a.eng.InvalidateUser(ctx.Context(), g.LabID, g.UserID)
	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGrantCreated(ctx.Context(), g)
	}

	return g, ctx.JSON(http.StatusCreated, g)
}

func (a *API) getGrant(ctx forge.Context, _ *GetGrantRequest) (*grant.Grant, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	g, err := a.eng.Store().GetGrant(ctx.Context(), grantID)
	if err != nil {
		return nil, mapError(err)
	}

	return g, ctx.JSON(http.StatusOK, g)
}

func (a *API) listGrants(ctx forge.Context, req *ListGrantsRequest) ([]*grant.Grant, error) {
	filter := &grant.ListFilter{
		LabID:      req.LabID,
		UserID:     req.UserID,
		EntityType: entity.Type(req.EntityType),
		EntityID:   req.EntityID,
		Limit:      defaultLimit(req.Limit),
		Offset:     req.Offset,
	}
	switch req.Revoked {
	case "true":
		t := true
		filter.Revoked = &t
	case "false":
		f := false
		filter.Revoked = &f
	}

	grants, err := a.eng.Store().ListGrants(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return grants, ctx.JSON(http.StatusOK, grants)
}

func (a *API) revokeGrant(ctx forge.Context, _ *GetGrantRequest) (*struct{}, error) {
	grantID, err := id.ParseGrantID(ctx.Param("grantId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid grant ID: %v", err))
	}

	// Get before revoke so the cache invalidation can target the holder.
	g, getErr := a.eng.Store().GetGrant(ctx.Context(), grantID)

	at := time.Now().UTC()
	if err := a.eng.Store().RevokeGrant(ctx.Context(), grantID, at); err != nil {
		return nil, mapError(err)
	}

	if getErr == nil {
		a.eng.InvalidateUser(ctx.Context(), g.LabID, g.UserID)
	}
	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitGrantRevoked(ctx.Context(), grantID, at)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

// actingUser resolves the authenticated user for attribution fields.
func actingUser(ctx forge.Context) string {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return userID
	}
	return "system"
}
