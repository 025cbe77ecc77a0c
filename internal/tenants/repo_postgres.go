package tenants

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// PostgresRepo stores tenants and agencies.
//
// Schema:
//
//	users(id TEXT PK, email TEXT UNIQUE NOT NULL, full_name TEXT, role TEXT,
//	      agency_id TEXT REFERENCES agencies(id), source_token TEXT,
//	      usage_minutes DOUBLE PRECISION, usage_limit DOUBLE PRECISION,
//	      spent_amount DOUBLE PRECISION, budget DOUBLE PRECISION,
//	      alert_method TEXT, slack_channel TEXT, notification_prefs JSONB,
//	      last_ingested_at TIMESTAMPTZ, created_at TIMESTAMPTZ, updated_at TIMESTAMPTZ)
//	agencies(id TEXT PK, name TEXT NOT NULL, owner_id TEXT NOT NULL,
//	      created_at TIMESTAMPTZ)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const tenantColumns = "id, email, full_name, role, agency_id, source_token, usage_minutes, " +
	"usage_limit, spent_amount, budget, alert_method, slack_channel, notification_prefs, " +
	"last_ingested_at, created_at, updated_at"

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Tenant, error) {
	if id == "" {
		return Tenant{}, ErrInvalidArgument
	}
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (Tenant, error) {
	if email == "" {
		return Tenant{}, ErrInvalidArgument
	}
	return r.getOne(ctx, sq.Eq{"email": email})
}

func (r *PostgresRepo) getOne(ctx context.Context, pred any) (Tenant, error) {
	query, args, err := psql.Select(tenantColumns).From("users").Where(pred).ToSql()
	if err != nil {
		return Tenant{}, err
	}
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	return t, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Tenant, error) {
	query, args, err := psql.Select(tenantColumns).From("users").OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTenants(ctx, query, args)
}

func (r *PostgresRepo) Create(ctx context.Context, t Tenant) error {
	if t.ID == "" || t.Email == "" {
		return ErrInvalidArgument
	}
	prefs, err := prefsJSON(t.NotificationPrefs)
	if err != nil {
		return err
	}
	query, args, err := psql.Insert("users").
		Columns("id", "email", "full_name", "role", "agency_id", "source_token",
			"usage_minutes", "usage_limit", "spent_amount", "budget",
			"alert_method", "slack_channel", "notification_prefs",
			"last_ingested_at", "created_at", "updated_at").
		Values(t.ID, t.Email, t.FullName, t.Role, nullString(t.AgencyID), t.SourceToken,
			t.UsageMinutes, t.UsageLimit, t.SpentAmount, t.Budget,
			t.AlertMethod, t.SlackChannel, prefs,
			t.LastIngestedAt, t.CreatedAt, t.UpdatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *PostgresRepo) UpdateRole(ctx context.Context, id, role string) error {
	return r.execOne(ctx, psql.Update("users").
		Set("role", role).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}))
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, psql.Delete("users").Where(sq.Eq{"id": id}))
}

func (r *PostgresRepo) UpdateCheckpoint(ctx context.Context, tenantID string, prev *time.Time, next time.Time) (bool, error) {
	if tenantID == "" {
		return false, ErrInvalidArgument
	}
	b := psql.Update("users").
		Set("last_ingested_at", next.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": tenantID})
	// Conditional write: only move the mark if nobody moved it since we read it.
	if prev == nil {
		b = b.Where(sq.Eq{"last_ingested_at": nil})
	} else {
		b = b.Where(sq.Eq{"last_ingested_at": prev.UTC()})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepo) AddUsage(ctx context.Context, tenantID string, minutes, spent float64) error {
	if tenantID == "" {
		return ErrInvalidArgument
	}
	return r.execOne(ctx, psql.Update("users").
		Set("usage_minutes", sq.Expr("usage_minutes + ?", minutes)).
		Set("spent_amount", sq.Expr("spent_amount + ?", spent)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": tenantID}))
}

func (r *PostgresRepo) CreateAgency(ctx context.Context, a Agency) error {
	if a.ID == "" || a.Name == "" || a.OwnerID == "" {
		return ErrInvalidArgument
	}
	query, args, err := psql.Insert("agencies").
		Columns("id", "name", "owner_id", "created_at").
		Values(a.ID, a.Name, a.OwnerID, a.CreatedAt).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *PostgresRepo) GetAgency(ctx context.Context, id string) (Agency, error) {
	if id == "" {
		return Agency{}, ErrInvalidArgument
	}
	query, args, err := psql.Select("id, name, owner_id, created_at").
		From("agencies").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Agency{}, err
	}
	var a Agency
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Name, &a.OwnerID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Agency{}, ErrNotFound
	}
	return a, err
}

func (r *PostgresRepo) ListAgencyMembers(ctx context.Context, agencyID string) ([]Tenant, error) {
	if agencyID == "" {
		return nil, ErrInvalidArgument
	}
	query, args, err := psql.Select(tenantColumns).
		From("users").
		Where(sq.Eq{"agency_id": agencyID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryTenants(ctx, query, args)
}

func (r *PostgresRepo) AssignAgency(ctx context.Context, tenantID, agencyID string) error {
	return r.execOne(ctx, psql.Update("users").
		Set("agency_id", nullString(agencyID)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": tenantID}))
}

func (r *PostgresRepo) DeleteAgency(ctx context.Context, id string) error {
	// Membership FK is ON DELETE SET NULL; members survive agency removal.
	return r.execOne(ctx, psql.Delete("agencies").Where(sq.Eq{"id": id}))
}

func (r *PostgresRepo) execOne(ctx context.Context, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) queryTenants(ctx context.Context, query string, args []any) ([]Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (Tenant, error) {
	var (
		t        Tenant
		fullName sql.NullString
		agencyID sql.NullString
		token    sql.NullString
		method   sql.NullString
		channel  sql.NullString
		prefs    sql.NullString
		ingested sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Email, &fullName, &t.Role, &agencyID, &token,
		&t.UsageMinutes, &t.UsageLimit, &t.SpentAmount, &t.Budget,
		&method, &channel, &prefs, &ingested, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Tenant{}, err
	}
	t.FullName = fullName.String
	t.AgencyID = agencyID.String
	t.SourceToken = token.String
	t.AlertMethod = AlertMethod(method.String)
	t.SlackChannel = channel.String
	if prefs.Valid && prefs.String != "" {
		if err := json.Unmarshal([]byte(prefs.String), &t.NotificationPrefs); err != nil {
			return Tenant{}, fmt.Errorf("decoding notification_prefs for %s: %w", t.ID, err)
		}
	}
	if ingested.Valid {
		ts := ingested.Time.UTC()
		t.LastIngestedAt = &ts
	}
	return t, nil
}

func prefsJSON(m map[string]bool) (any, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
