package calls

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory call store for tests and early development.
// It enforces tenant isolation on every operation.
type MemoryRepo struct {
	mu    sync.Mutex
	rows  map[string]Call // keyed by call id
	order []string        // insertion order, for stable listings

	// FailWrites makes every write return an error; used to exercise the
	// batch-abort path in ingestion tests.
	FailWrites bool
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Call{}}
}

var errWriteFailed = errors.New("calls: memory repo write failure")

func (r *MemoryRepo) Upsert(ctx context.Context, c Call) (UpsertOutcome, error) {
	if c.TenantID == "" {
		return UpsertSkipped, errors.New("tenant_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWrites {
		return UpsertSkipped, errWriteFailed
	}
	existing, ok := r.rows[c.ID]
	if !ok {
		r.rows[c.ID] = c
		r.order = append(r.order, c.ID)
		return UpsertInserted, nil
	}
	if existing.TenantID != c.TenantID {
		return UpsertSkipped, errors.New("call belongs to another tenant")
	}
	if existing.UpdatedAt.Before(c.UpdatedAt) {
		// Preserve original creation time on updates.
		c.CreatedAt = existing.CreatedAt
		r.rows[c.ID] = c
		return UpsertUpdated, nil
	}
	return UpsertSkipped, nil
}

func (r *MemoryRepo) ListByTenant(ctx context.Context, tenantID string) ([]Call, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range r.order {
		c := r.rows[id]
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListFiltered(ctx context.Context, tenantID string, f Filter) ([]Call, error) {
	rows, err := r.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := rows[:0:0]
	for _, c := range rows {
		if f.StartDate != nil && (c.StartedAt == nil || c.StartedAt.Before(*f.StartDate)) {
			continue
		}
		if f.EndDate != nil && (c.StartedAt == nil || c.StartedAt.After(*f.EndDate)) {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.EndedReason != "" && c.EndedReason != f.EndedReason {
			continue
		}
		out = append(out, c)
	}
	sortCalls(out, f.SortBy, f.SortOrder)
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, tenantID, id string) error {
	if tenantID == "" || id == "" {
		return errors.New("tenant_id and id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok || c.TenantID != tenantID {
		return errors.New("call not found")
	}
	delete(r.rows, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func sortCalls(rows []Call, sortBy, sortOrder string) {
	asc := sortOrder == "asc"
	less := func(a, b Call) bool {
		switch sortBy {
		case "cost":
			return a.Cost < b.Cost
		case "duration":
			return a.DurationMinutes() < b.DurationMinutes()
		default:
			at, bt := int64(0), int64(0)
			if a.StartedAt != nil {
				at = a.StartedAt.UnixNano()
			}
			if b.StartedAt != nil {
				bt = b.StartedAt.UnixNano()
			}
			return at < bt
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if asc {
			return less(rows[i], rows[j])
		}
		return less(rows[j], rows[i])
	})
}
