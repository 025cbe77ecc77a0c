package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"call-analytics/pkg/utils"

	sq "github.com/Masterminds/squirrel"
)

// PostgresRepo stores call records in the calls table.
//
// Schema (snake_case, fixed at the ingestion boundary):
//
//	calls(id TEXT PK, tenant_id TEXT NOT NULL, assistant_id TEXT,
//	      phone_number_id TEXT, type TEXT, started_at TIMESTAMPTZ,
//	      ended_at TIMESTAMPTZ, transcript TEXT, recording_url TEXT,
//	      summary TEXT, cost DOUBLE PRECISION, ended_reason TEXT,
//	      cost_breakdown JSONB, created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const callColumns = "id, tenant_id, assistant_id, phone_number_id, type, started_at, ended_at, " +
	"transcript, recording_url, summary, cost, ended_reason, cost_breakdown, created_at, updated_at"

func (r *PostgresRepo) Upsert(ctx context.Context, c Call) (UpsertOutcome, error) {
	if c.TenantID == "" {
		return UpsertSkipped, errors.New("tenant_id required")
	}

	outcome := UpsertSkipped
	err := utils.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		query, args, err := psql.Select("updated_at").
			From("calls").
			Where(sq.Eq{"id": c.ID, "tenant_id": c.TenantID}).
			Suffix("FOR UPDATE").
			ToSql()
		if err != nil {
			return err
		}

		var existing sql.NullTime
		scanErr := tx.QueryRowContext(ctx, query, args...).Scan(&existing)
		switch {
		case errors.Is(scanErr, sql.ErrNoRows):
			ins, args, err := psql.Insert("calls").
				Columns("id", "tenant_id", "assistant_id", "phone_number_id", "type",
					"started_at", "ended_at", "transcript", "recording_url", "summary",
					"cost", "ended_reason", "cost_breakdown", "created_at", "updated_at").
				Values(c.ID, c.TenantID, c.AssistantID, c.PhoneNumberID, c.Type,
					c.StartedAt, c.EndedAt, c.Transcript, c.RecordingURL, c.Summary,
					c.Cost, c.EndedReason, nullJSON(c.CostBreakdown), c.CreatedAt, c.UpdatedAt).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
				return fmt.Errorf("insert call %s: %w", c.ID, err)
			}
			outcome = UpsertInserted
			return nil
		case scanErr != nil:
			return scanErr
		}

		if existing.Valid && !existing.Time.Before(c.UpdatedAt) {
			return nil // stored row is as new or newer
		}

		upd, args, err := psql.Update("calls").
			Set("assistant_id", c.AssistantID).
			Set("phone_number_id", c.PhoneNumberID).
			Set("type", c.Type).
			Set("started_at", c.StartedAt).
			Set("ended_at", c.EndedAt).
			Set("transcript", c.Transcript).
			Set("recording_url", c.RecordingURL).
			Set("summary", c.Summary).
			Set("cost", c.Cost).
			Set("ended_reason", c.EndedReason).
			Set("cost_breakdown", nullJSON(c.CostBreakdown)).
			Set("updated_at", c.UpdatedAt).
			Where(sq.Eq{"id": c.ID, "tenant_id": c.TenantID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, upd, args...); err != nil {
			return fmt.Errorf("update call %s: %w", c.ID, err)
		}
		outcome = UpsertUpdated
		return nil
	})
	if err != nil {
		return UpsertSkipped, err
	}
	return outcome, nil
}

func (r *PostgresRepo) ListByTenant(ctx context.Context, tenantID string) ([]Call, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	query, args, err := psql.Select(callColumns).
		From("calls").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryCalls(ctx, query, args)
}

func (r *PostgresRepo) ListFiltered(ctx context.Context, tenantID string, f Filter) ([]Call, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	b := psql.Select(callColumns).
		From("calls").
		Where(sq.Eq{"tenant_id": tenantID})

	if f.StartDate != nil {
		b = b.Where(sq.GtOrEq{"started_at": *f.StartDate})
	}
	if f.EndDate != nil {
		b = b.Where(sq.LtOrEq{"started_at": *f.EndDate})
	}
	if f.Type != "" {
		b = b.Where(sq.Eq{"type": f.Type})
	}
	if f.EndedReason != "" {
		b = b.Where(sq.Eq{"ended_reason": f.EndedReason})
	}

	// Sort columns are allow-listed; user input never reaches the ORDER BY raw.
	col := "started_at"
	switch f.SortBy {
	case "cost":
		col = "cost"
	case "duration":
		col = "EXTRACT(EPOCH FROM (ended_at - started_at))"
	}
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}
	b = b.OrderBy(col + " " + dir)

	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryCalls(ctx, query, args)
}

func (r *PostgresRepo) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" || id == "" {
		return errors.New("tenant_id and id required")
	}
	query, args, err := psql.Delete("calls").
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New("call not found")
	}
	return nil
}

func (r *PostgresRepo) queryCalls(ctx context.Context, query string, args []any) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Call, 0)
	for rows.Next() {
		var (
			c         Call
			startedAt sql.NullTime
			endedAt   sql.NullTime
			breakdown sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.TenantID, &c.AssistantID, &c.PhoneNumberID, &c.Type,
			&startedAt, &endedAt, &c.Transcript, &c.RecordingURL, &c.Summary,
			&c.Cost, &c.EndedReason, &breakdown, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		if startedAt.Valid {
			t := startedAt.Time.UTC()
			c.StartedAt = &t
		}
		if endedAt.Valid {
			t := endedAt.Time.UTC()
			c.EndedAt = &t
		}
		if breakdown.Valid {
			c.CostBreakdown = breakdown.String
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func nullJSON(s string) any {
	if s == "" {
		return nil
	}
	return s
}
