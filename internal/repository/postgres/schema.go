package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_snapshots (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	strict      BOOLEAN NOT NULL,
	registered  INTEGER NOT NULL,
	exported    INTEGER NOT NULL,
	excluded    INTEGER NOT NULL,
	errors      INTEGER NOT NULL,
	warnings    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS content_snapshot_entries (
	snapshot_id UUID NOT NULL REFERENCES content_snapshots (id) ON DELETE CASCADE,
	position    INTEGER NOT NULL,
	content_id  TEXT NOT NULL,
	content     JSONB NOT NULL,
	issues      JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (snapshot_id, position)
);

CREATE INDEX IF NOT EXISTS content_snapshot_entries_content_id_idx
	ON content_snapshot_entries (content_id);
`

// Migrate creates the snapshot tables if they do not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return nil
}
