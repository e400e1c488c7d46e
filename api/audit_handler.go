package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian/audit"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit", a.listAuditEntries,
		forge.WithSummary("Query audit log"),
		forge.WithDescription("Lists recorded permission-check decisions with optional filters."),
		forge.WithOperationID("listAuditEntries"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entries", []*audit.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/audit/count", a.countAuditEntries,
		forge.WithSummary("Count audit entries"),
		forge.WithDescription("Counts audit entries matching the same filters as the list endpoint."),
		forge.WithOperationID("countAuditEntries"),
		forge.WithRequestSchema(ListAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Entry count", CountResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/audit/purge", a.purgeAudit,
		forge.WithSummary("Purge audit entries"),
		forge.WithDescription("Deletes audit entries created before the given time."),
		forge.WithOperationID("purgeAuditEntries"),
		forge.WithRequestSchema(PurgeAuditRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge result", PurgeAuditResponse{}),
		forge.WithErrorResponses(),
	)
}

func auditFilter(req *ListAuditRequest) (*audit.QueryFilter, error) {
	filter := &audit.QueryFilter{
		LabID:      req.LabID,
		UserID:     req.UserID,
		Action:     req.Action,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Limit:      defaultLimit(req.Limit),
		Offset:     req.Offset,
	}
	switch req.Authorized {
	case "true":
		t := true
		filter.WasAuthorized = &t
	case "false":
		f := false
		filter.WasAuthorized = &f
	}
	if req.After != "" {
		after, err := time.Parse(time.RFC3339, req.After)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid after time: %v", err))
		}
		filter.After = &after
	}
	if req.Before != "" {
		before, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid before time: %v", err))
		}
		filter.Before = &before
	}
	return filter, nil
}

func (a *API) listAuditEntries(ctx forge.Context, req *ListAuditRequest) ([]*audit.Entry, error) {
	filter, err := auditFilter(req)
	if err != nil {
		return nil, err
	}

	entries, err := a.eng.Store().ListAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	return entries, ctx.JSON(http.StatusOK, entries)
}

func (a *API) countAuditEntries(ctx forge.Context, req *ListAuditRequest) (*CountResponse, error) {
	filter, err := auditFilter(req)
	if err != nil {
		return nil, err
	}

	n, err := a.eng.Store().CountAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &CountResponse{Count: n}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) purgeAudit(ctx forge.Context, req *PurgeAuditRequest) (*PurgeAuditResponse, error) {
	if req.Before == "" {
		return nil, forge.BadRequest("before is required")
	}
	before, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid before time: %v", err))
	}

	purged, err := a.eng.Store().PurgeAuditEntries(ctx.Context(), before)
	if err != nil {
		return nil, mapError(err)
	}

	resp := &PurgeAuditResponse{Purged: purged}
	return resp, ctx.JSON(http.StatusOK, resp)
}
