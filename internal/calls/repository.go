package calls

import (
	"context"
	"time"
)

// UpsertOutcome reports what a single upsert did.
type UpsertOutcome int

const (
	UpsertSkipped UpsertOutcome = iota
	UpsertInserted
	UpsertUpdated
)

// Filter narrows call-log listings. Zero values mean "no constraint".
type Filter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Type        CallType
	EndedReason string

	// SortBy accepts started_at, cost or duration; default started_at.
	SortBy    string
	SortOrder string // asc | desc (default desc)
}

// Repository is the persistence contract for call records.
//
// All reads and writes are tenant-scoped. The pipeline never deletes calls;
// deletion is an admin-only operation exposed separately.
type Repository interface {
	// Upsert inserts a new call, or updates an existing one only when the
	// incoming UpdatedAt is strictly newer (last-writer-wins by source
	// timestamp, not arrival order).
	Upsert(ctx context.Context, c Call) (UpsertOutcome, error)

	// ListByTenant returns the tenant's full call set.
	ListByTenant(ctx context.Context, tenantID string) ([]Call, error)

	// ListFiltered returns the tenant's calls matching the filter, sorted.
	ListFiltered(ctx context.Context, tenantID string, f Filter) ([]Call, error)

	// Delete removes a single call. Admin surface only.
	Delete(ctx context.Context, tenantID, id string) error
}
