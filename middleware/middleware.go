// Package middleware provides HTTP authorization middleware for Custodian.
package middleware

import (
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/labfoundry/custodian"
	"github.com/labfoundry/custodian/entity"
)

// Require enforces authorization. It resolves the user from the request
// context (Authsome user > anonymous) and the lab from the request scope,
// then checks whether the user can perform the given action on the entity
// type. The entity ID is taken from the "id" route parameter.
func Require(eng *custodian.Engine, entityType entity.Type, action custodian.Action) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			result := eng.Check(ctx.Context(), &custodian.PermissionContext{
				UserID:     resolveUser(ctx),
				LabID:      custodian.LabFromContext(ctx.Context()),
				EntityType: entityType,
				EntityID:   ctx.Param("id"),
				Action:     action,
			})
			if !result.Allowed {
				return denyResponse(ctx, result)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request if ANY of the checks pass. The user and lab
// on each check are overwritten from the request context.
func RequireAny(eng *custodian.Engine, checks ...custodian.PermissionContext) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			var last *custodian.PermissionResult
			for i := range checks {
				c := checks[i]
				c.UserID = resolveUser(ctx)
				c.LabID = custodian.LabFromContext(ctx.Context())
				result := eng.Check(ctx.Context(), &c)
				if result.Allowed {
					return next(ctx)
				}
				last = result
			}
			return denyResponse(ctx, last)
		}
	}
}

// RequireAll allows the request only if ALL checks pass.
func RequireAll(eng *custodian.Engine, checks ...custodian.PermissionContext) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			for i := range checks {
				c := checks[i]
				c.UserID = resolveUser(ctx)
				c.LabID = custodian.LabFromContext(ctx.Context())
				result := eng.Check(ctx.Context(), &c)
				if !result.Allowed {
					return denyResponse(ctx, result)
				}
			}
			return next(ctx)
		}
	}
}

// resolveUser extracts the acting user from context.
// Priority: Forge user ID (from Authsome) → anonymous.
func resolveUser(ctx forge.Context) string {
	if userID := forge.UserIDFromContext(ctx.Context()); userID != "" {
		return userID
	}
	return "anonymous"
}

type denyBody struct {
	Error        string   `json:"error"`
	Reason       string   `json:"reason,omitempty"`
	Restrictions []string `json:"restrictions,omitempty"`
}

func denyResponse(ctx forge.Context, result *custodian.PermissionResult) error {
	body := denyBody{Error: "access denied"}
	if result != nil {
		body.Reason = result.Reason
		body.Restrictions = result.Restrictions
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(body)
}
