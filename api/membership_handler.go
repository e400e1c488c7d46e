package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian/id"
	"github.com/labfoundry/custodian/membership"
)

func (a *API) registerMembershipRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("memberships"))

	if err := g.POST("/memberships", a.createMembership,
		forge.WithSummary("Create membership"),
		forge.WithDescription("Adds a user to a lab with a role and capability flags."),
		forge.WithOperationID("createMembership"),
		forge.WithRequestSchema(CreateMembershipRequest{}),
		forge.WithCreatedResponse(&membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/memberships/:membershipId", a.getMembership,
		forge.WithSummary("Get membership"),
		forge.WithDescription("Returns a membership by ID."),
		forge.WithOperationID("getMembership"),
		forge.WithResponseSchema(http.StatusOK, "Membership details", &membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/memberships/:membershipId", a.updateMembership,
		forge.WithSummary("Update membership"),
		forge.WithDescription("Updates role, admin flags, access window, or metadata."),
		forge.WithOperationID("updateMembership"),
		forge.WithRequestSchema(UpdateMembershipRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated membership", &membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/memberships", a.listMemberships,
		forge.WithSummary("List memberships"),
		forge.WithDescription("Lists memberships with optional filters."),
		forge.WithOperationID("listMemberships"),
		forge.WithRequestSchema(ListMembershipsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Membership list", []*membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/labs/:labId/members/:userId", a.getLabMember,
		forge.WithSummary("Get lab member"),
		forge.WithDescription("Returns the membership for a (user, lab) pair."),
		forge.WithOperationID("getLabMember"),
		forge.WithResponseSchema(http.StatusOK, "Membership details", &membership.Membership{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/labs/:labId/members/:userId/capabilities", a.setCapabilities,
		forge.WithSummary("Set member capabilities"),
		forge.WithDescription("Overwrites the membership's capability flags wholesale."),
		forge.WithOperationID("setMemberCapabilities"),
		forge.WithRequestSchema(SetCapabilitiesRequest{}),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/labs/:labId/members/:userId", a.deactivateMembership,
		forge.WithSummary("Deactivate membership"),
		forge.WithDescription("Flips the membership inactive. Memberships are never hard-deleted."),
		forge.WithOperationID("deactivateMembership"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) createMembership(ctx forge.Context, req *CreateMembershipRequest) (*membership.Membership, error) {
	if req.UserID == "" || req.LabID == "" {
		return nil, forge.BadRequest("user_id and lab_id are required")
	}
	if req.Role == "" {
		return nil, forge.BadRequest("role is required")
	}

	m := &membership.Membership{
		ID:           id.NewMembershipID(),
		UserID:       req.UserID,
		LabID:        req.LabID,
		Role:         req.Role,
		IsActive:     true,
		IsAdmin:      req.IsAdmin,
		IsSuperAdmin: req.IsSuperAdmin,
		Capabilities: req.Capabilities,
		Metadata:     req.Metadata,
	}

	if req.AccessStartDate != "" {
		t, err := time.Parse(time.RFC3339, req.AccessStartDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid access_start_date: %v", err))
		}
		m.AccessStartDate = &t
	}
	if req.AccessEndDate != "" {
		t, err := time.Parse(time.RFC3339, req.AccessEndDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid access_end_date: %v", err))
		}
		m.AccessEndDate = &t
	}

	if err := a.eng.Store().CreateMembership(ctx.Context(), m); err != nil {
		return nil, mapError(err)
	}

	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitMembershipCreated(ctx.Context(), m)
	}

	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) getMembership(ctx forge.Context, _ *GetMembershipRequest) (*membership.Membership, error) {
	membID, err := id.ParseMembershipID(ctx.Param("membershipId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid membership ID: %v", err))
	}

	m, err := a.eng.Store().GetMembershipByID(ctx.Context(), membID)
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) getLabMember(ctx forge.Context, _ *struct{}) (*membership.Membership, error) {
	m, err := a.eng.Store().GetMembership(ctx.Context(), ctx.Param("userId"), ctx.Param("labId"))
	if err != nil {
		return nil, mapError(err)
	}

	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) updateMembership(ctx forge.Context, req *UpdateMembershipRequest) (*membership.Membership, error) {
	membID, err := id.ParseMembershipID(ctx.Param("membershipId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid membership ID: %v", err))
	}

	m, err := a.eng.Store().GetMembershipByID(ctx.Context(), membID)
	if err != nil {
		return nil, mapError(err)
	}

	if req.Role != "" {
		m.Role = req.Role
	}
	if req.IsAdmin != nil {
		m.IsAdmin = *req.IsAdmin
	}
	if req.IsSuperAdmin != nil {
		m.IsSuperAdmin = *req.IsSuperAdmin
	}
	if req.AccessStartDate != nil {
		start, err := parseOptionalTime(*req.AccessStartDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid access_start_date: %v", err))
		}
		m.AccessStartDate = start
	}
	if req.AccessEndDate != nil {
		end, err := parseOptionalTime(*req.AccessEndDate)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid access_end_date: %v", err))
		}
		m.AccessEndDate = end
	}
	if req.Metadata != nil {
		m.Metadata = req.Metadata
	}

	if err := a.eng.Store().UpdateMembership(ctx.Context(), m); err != nil {
		return nil, mapError(err)
	}

	a.eng.InvalidateUser(ctx.Context(), m.LabID, m.UserID)
	if a.eng.Plugins() != nil {
		a.eng.Plugins().EmitMembershipUpdated(ctx.Context(), m)
	}

	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) listMemberships(ctx forge.Context, req *ListMembershipsRequest) ([]*membership.Membership, error) {
	filter := &membership.ListFilter{
		LabID:  req.LabID,
		UserID: req.UserID,
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
	switch req.Admin {
	case "true":
		t := true
		filter.IsAdmin = &t
	case "false":
		f := false
		filter.IsAdmin = &f
	}

	members, err := a.eng.Store().ListMemberships(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return members, ctx.JSON(http.StatusOK, members)
}

func (a *API) setCapabilities(ctx forge.Context, req *SetCapabilitiesRequest) (*struct{}, error) {
	userID := ctx.Param("userId")
	labID := ctx.Param("labId")

	if err := a.eng.Store().SetMembershipCapabilities(ctx.Context(), userID, labID, req.Capabilities); err != nil {
		return nil, mapError(err)
	}

	a.eng.InvalidateUser(ctx.Context(), labID, userID)
	if a.eng.Plugins() != nil {
		if m, err := a.eng.Store().GetMembership(ctx.Context(), userID, labID); err == nil {
			a.eng.Plugins().EmitMembershipUpdated(ctx.Context(), m)
		}
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) deactivateMembership(ctx forge.Context, _ *struct{}) (*struct{}, error) {
	userID := ctx.Param("userId")
	labID := ctx.Param("labId")

	// Get before deactivate for hook.
	m, getErr := a.eng.Store().GetMembership(ctx.Context(), userID, labID)

	if err := a.eng.Store().DeactivateMembership(ctx.Context(), userID, labID); err != nil {
		return nil, mapError(err)
	}

	a.eng.InvalidateUser(ctx.Context(), labID, userID)
	if a.eng.Plugins() != nil && getErr == nil {
		a.eng.Plugins().EmitMembershipDeactivated(ctx.Context(), m.ID)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

// parseOptionalTime parses an RFC3339 timestamp; an empty string means the
// bound is cleared.
func parseOptionalTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
