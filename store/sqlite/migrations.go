package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Custodian store (SQLite).
var Migrations = migrate.NewGroup("custodian")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_memberships (
    id                    TEXT PRIMARY KEY,
    user_id               TEXT NOT NULL,
    lab_id                TEXT NOT NULL,
    role                  TEXT NOT NULL DEFAULT '',
    is_active             INTEGER NOT NULL DEFAULT 1,
    is_admin              INTEGER NOT NULL DEFAULT 0,
    is_super_admin        INTEGER NOT NULL DEFAULT 0,
    access_start_date     TEXT,
    access_end_date       TEXT,
    can_create_projects   INTEGER NOT NULL DEFAULT 0,
    can_view_all_projects INTEGER NOT NULL DEFAULT 0,
    can_edit_all_projects INTEGER NOT NULL DEFAULT 0,
    can_delete_projects   INTEGER NOT NULL DEFAULT 0,
    can_view_all_tasks    INTEGER NOT NULL DEFAULT 0,
    can_edit_all_tasks    INTEGER NOT NULL DEFAULT 0,
    can_delete_tasks      INTEGER NOT NULL DEFAULT 0,
    can_assign_tasks      INTEGER NOT NULL DEFAULT 0,
    can_edit_all_ideas    INTEGER NOT NULL DEFAULT 0,
    can_delete_ideas      INTEGER NOT NULL DEFAULT 0,
    can_manage_deadlines  INTEGER NOT NULL DEFAULT 0,
    metadata              TEXT NOT NULL DEFAULT '{}',
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(user_id, lab_id)
);

CREATE INDEX IF NOT EXISTS idx_custodian_memberships_lab ON custodian_memberships (lab_id);
CREATE INDEX IF NOT EXISTS idx_custodian_memberships_user ON custodian_memberships (user_id);
CREATE INDEX IF NOT EXISTS idx_custodian_memberships_active ON custodian_memberships (lab_id, is_active);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_grants",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_grants (
    id           TEXT PRIMARY KEY,
    lab_id       TEXT NOT NULL,
    user_id      TEXT NOT NULL,
    entity_type  TEXT NOT NULL,
    entity_id    TEXT NOT NULL,
    can_view     INTEGER NOT NULL DEFAULT 0,
    can_edit     INTEGER NOT NULL DEFAULT 0,
    can_delete   INTEGER NOT NULL DEFAULT 0,
    can_share    INTEGER NOT NULL DEFAULT 0,
    can_assign   INTEGER NOT NULL DEFAULT 0,
    valid_from   TEXT NOT NULL,
    valid_until  TEXT,
    revoked_at   TEXT,
    granted_by   TEXT NOT NULL DEFAULT '',
    metadata     TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custodian_grants_entity ON custodian_grants (user_id, entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_custodian_grants_lab ON custodian_grants (lab_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_grants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_cross_lab_access",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_cross_lab_access (
    id                       TEXT PRIMARY KEY,
    user_id                  TEXT NOT NULL,
    home_lab_id              TEXT NOT NULL,
    target_lab_id            TEXT NOT NULL,
    status                   TEXT NOT NULL DEFAULT 'pending',
    can_view_projects        INTEGER NOT NULL DEFAULT 0,
    can_edit_shared_projects INTEGER NOT NULL DEFAULT 0,
    can_join_meetings        INTEGER NOT NULL DEFAULT 0,
    can_view_reports         INTEGER NOT NULL DEFAULT 0,
    valid_from               TEXT NOT NULL,
    valid_until              TEXT,
    revoked_at               TEXT,
    approved_by              TEXT NOT NULL DEFAULT '',
    metadata                 TEXT NOT NULL DEFAULT '{}',
    created_at               TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at               TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custodian_xlab_target ON custodian_cross_lab_access (user_id, target_lab_id);
CREATE INDEX IF NOT EXISTS idx_custodian_xlab_status ON custodian_cross_lab_access (target_lab_id, status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_cross_lab_access`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_templates",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_templates (
    id                    TEXT PRIMARY KEY,
    lab_id                TEXT NOT NULL,
    name                  TEXT NOT NULL,
    description           TEXT NOT NULL DEFAULT '',
    role                  TEXT NOT NULL,
    is_active             INTEGER NOT NULL DEFAULT 1,
    is_default            INTEGER NOT NULL DEFAULT 0,
    can_create_projects   INTEGER NOT NULL DEFAULT 0,
    can_view_all_projects INTEGER NOT NULL DEFAULT 0,
    can_edit_all_projects INTEGER NOT NULL DEFAULT 0,
    can_delete_projects   INTEGER NOT NULL DEFAULT 0,
    can_view_all_tasks    INTEGER NOT NULL DEFAULT 0,
    can_edit_all_tasks    INTEGER NOT NULL DEFAULT 0,
    can_delete_tasks      INTEGER NOT NULL DEFAULT 0,
    can_assign_tasks      INTEGER NOT NULL DEFAULT 0,
    can_edit_all_ideas    INTEGER NOT NULL DEFAULT 0,
    can_delete_ideas      INTEGER NOT NULL DEFAULT 0,
    can_manage_deadlines  INTEGER NOT NULL DEFAULT 0,
    created_at            TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at            TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(lab_id, name)
);

CREATE INDEX IF NOT EXISTS idx_custodian_templates_role ON custodian_templates (lab_id, role, is_default);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_templates`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit_log",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_audit_log (
    id                   TEXT PRIMARY KEY,
    lab_id               TEXT NOT NULL DEFAULT '',
    user_id              TEXT NOT NULL DEFAULT '',
    action               TEXT NOT NULL,
    entity_type          TEXT NOT NULL DEFAULT '',
    entity_id            TEXT NOT NULL DEFAULT '',
    authorization_method TEXT NOT NULL DEFAULT '',
    required_permission  TEXT NOT NULL DEFAULT '',
    was_authorized       INTEGER NOT NULL DEFAULT 0,
    details              TEXT NOT NULL DEFAULT '{}',
    error_message        TEXT NOT NULL DEFAULT '',
    request_ip           TEXT NOT NULL DEFAULT '',
    user_agent           TEXT NOT NULL DEFAULT '',
    endpoint             TEXT NOT NULL DEFAULT '',
    http_method          TEXT NOT NULL DEFAULT '',
    session_id           TEXT NOT NULL DEFAULT '',
    created_at           TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_custodian_audit_lab ON custodian_audit_log (lab_id, created_at);
CREATE INDEX IF NOT EXISTS idx_custodian_audit_user ON custodian_audit_log (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_custodian_audit_action ON custodian_audit_log (action);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_audit_log`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_entity_owners",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS custodian_entity_owners (
    entity_type TEXT NOT NULL,
    entity_id   TEXT NOT NULL,
    owner_id    TEXT NOT NULL,
    updated_at  TEXT NOT NULL DEFAULT (datetime('now')),

    PRIMARY KEY (entity_type, entity_id)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS custodian_entity_owners`)
				return err
			},
		},
	)
}
