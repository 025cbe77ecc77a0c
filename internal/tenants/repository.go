package tenants

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("tenants: not found")
	ErrInvalidArgument = errors.New("tenants: invalid argument")
)

// Repository is the persistence contract for tenants and agencies.
type Repository interface {
	GetByID(ctx context.Context, id string) (Tenant, error)
	GetByEmail(ctx context.Context, email string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)

	Create(ctx context.Context, t Tenant) error
	UpdateRole(ctx context.Context, id, role string) error
	Delete(ctx context.Context, id string) error

	// UpdateCheckpoint moves the ingestion high-water mark with compare-and-swap
	// semantics: the write succeeds only when the stored mark still equals prev
	// (nil prev matches a NULL mark). Returns false when a concurrent run moved
	// the mark first.
	UpdateCheckpoint(ctx context.Context, tenantID string, prev *time.Time, next time.Time) (bool, error)

	// AddUsage accumulates ingested minutes and spend onto the tenant counters.
	AddUsage(ctx context.Context, tenantID string, minutes, spent float64) error

	CreateAgency(ctx context.Context, a Agency) error
	GetAgency(ctx context.Context, id string) (Agency, error)
	ListAgencyMembers(ctx context.Context, agencyID string) ([]Tenant, error)
	AssignAgency(ctx context.Context, tenantID, agencyID string) error
	DeleteAgency(ctx context.Context, id string) error
}
