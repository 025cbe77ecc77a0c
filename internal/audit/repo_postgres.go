package audit

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepo persists audit events.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id             TEXT PRIMARY KEY,
//	    type           TEXT NOT NULL,
//	    actor_user_id  TEXT NOT NULL DEFAULT '',
//	    actor_role     TEXT NOT NULL DEFAULT '',
//	    target_user_id TEXT NOT NULL DEFAULT '',
//	    agency_id      TEXT NOT NULL DEFAULT '',
//	    message        TEXT NOT NULL DEFAULT '',
//	    metadata       JSONB,
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	q, args, err := psql.Insert("audit_events").
		Columns("id", "type", "actor_user_id", "actor_role", "target_user_id", "agency_id", "message", "metadata", "created_at").
		Values(e.ID, string(e.Type), e.ActorUserID, e.ActorRole, e.TargetUserID, e.AgencyID, e.Message, nullString(e.Metadata), e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("audit: building insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("audit: appending event: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
