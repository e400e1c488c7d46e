package custodian

import (
	"github.com/labfoundry/custodian/entity"
	"github.com/labfoundry/custodian/membership"
)

// capabilityKey is the (entity type, action) product the lab-role layer
// dispatches on.
type capabilityKey struct {
	entityType entity.Type
	action     Action
}

// capability names a membership flag and carries its typed accessor, so a
// new entity/action pair cannot silently map to a missing field.
type capability struct {
	name    string
	enabled func(membership.Capabilities) bool
}

// labRoleCapabilities maps each supported (entity type, action) pair to the
// membership capability flag that authorizes it. Pairs absent from the table
// never authorize via the lab-role layer; they fall through to later layers
// or are denied.
var labRoleCapabilities = map[capabilityKey]capability{
	{entity.TypeStudy, ActionCreate}: {"can_create_projects", func(c membership.Capabilities) bool { return c.CanCreateProjects }},
	{entity.TypeStudy, ActionView}:   {"can_view_all_projects", func(c membership.Capabilities) bool { return c.CanViewAllProjects }},
	{entity.TypeStudy, ActionEdit}:   {"can_edit_all_projects", func(c membership.Capabilities) bool { return c.CanEditAllProjects }},
	{entity.TypeStudy, ActionDelete}: {"can_delete_projects", func(c membership.Capabilities) bool { return c.CanDeleteProjects }},

	{entity.TypeTask, ActionView}:   {"can_view_all_tasks", func(c membership.Capabilities) bool { return c.CanViewAllTasks }},
	{entity.TypeTask, ActionEdit}:   {"can_edit_all_tasks", func(c membership.Capabilities) bool { return c.CanEditAllTasks }},
	{entity.TypeTask, ActionDelete}: {"can_delete_tasks", func(c membership.Capabilities) bool { return c.CanDeleteTasks }},
	{entity.TypeTask, ActionAssign}: {"can_assign_tasks", func(c membership.Capabilities) bool { return c.CanAssignTasks }},

	{entity.TypeIdea, ActionEdit}:   {"can_edit_all_ideas", func(c membership.Capabilities) bool { return c.CanEditAllIdeas }},
	{entity.TypeIdea, ActionDelete}: {"can_delete_ideas", func(c membership.Capabilities) bool { return c.CanDeleteIdeas }},

	{entity.TypeDeadline, ActionEdit}:   {"can_manage_deadlines", func(c membership.Capabilities) bool { return c.CanManageDeadlines }},
	{entity.TypeDeadline, ActionDelete}: {"can_manage_deadlines", func(c membership.Capabilities) bool { return c.CanManageDeadlines }},
}

// lookupCapability returns the capability flag mapped to the pair, if any.
func lookupCapability(t entity.Type, a Action) (capability, bool) {
	c, ok := labRoleCapabilities[capabilityKey{t, a}]
	return c, ok
}

// permissionKey is the "<entity>_<action>" label audit entries record as
// the required permission.
func permissionKey(t entity.Type, a Action) string {
	return string(t) + "_" + string(a)
}
