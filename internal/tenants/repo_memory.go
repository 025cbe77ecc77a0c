package tenants

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory tenant store for tests and early development.
type MemoryRepo struct {
	mu       sync.Mutex
	tenants  map[string]Tenant
	agencies map[string]Agency

	// PrefsErr forces preference-bearing reads to fail; used to exercise the
	// fail-closed notification path.
	PrefsErr error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tenants: map[string]Tenant{}, agencies: map[string]Agency{}}
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Tenant, error) {
	if id == "" {
		return Tenant{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Tenant, error) {
	if email == "" {
		return Tenant{}, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PrefsErr != nil {
		return Tenant{}, r.PrefsErr
	}
	for _, t := range r.tenants {
		if t.Email == email {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context) ([]Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, t Tenant) error {
	if t.ID == "" || t.Email == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenants[t.ID] = t
	return nil
}

func (r *MemoryRepo) UpdateRole(ctx context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return ErrNotFound
	}
	t.Role = role
	t.UpdatedAt = time.Now().UTC()
	r.tenants[id] = t
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[id]; !ok {
		return ErrNotFound
	}
	delete(r.tenants, id)
	return nil
}

func (r *MemoryRepo) UpdateCheckpoint(ctx context.Context, tenantID string, prev *time.Time, next time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return false, ErrNotFound
	}
	switch {
	case prev == nil && t.LastIngestedAt != nil:
		return false, nil
	case prev != nil && (t.LastIngestedAt == nil || !t.LastIngestedAt.Equal(*prev)):
		return false, nil
	}
	n := next.UTC()
	t.LastIngestedAt = &n
	t.UpdatedAt = time.Now().UTC()
	r.tenants[tenantID] = t
	return true, nil
}

func (r *MemoryRepo) AddUsage(ctx context.Context, tenantID string, minutes, spent float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return ErrNotFound
	}
	t.UsageMinutes += minutes
	t.SpentAmount += spent
	r.tenants[tenantID] = t
	return nil
}

func (r *MemoryRepo) CreateAgency(ctx context.Context, a Agency) error {
	if a.ID == "" || a.Name == "" || a.OwnerID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agencies[a.ID] = a
	return nil
}

func (r *MemoryRepo) GetAgency(ctx context.Context, id string) (Agency, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agencies[id]
	if !ok {
		return Agency{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListAgencyMembers(ctx context.Context, agencyID string) ([]Tenant, error) {
	if agencyID == "" {
		return nil, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tenant, 0)
	for _, t := range r.tenants {
		if t.AgencyID == agencyID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *MemoryRepo) AssignAgency(ctx context.Context, tenantID, agencyID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[tenantID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := r.agencies[agencyID]; !ok && agencyID != "" {
		return ErrNotFound
	}
	t.AgencyID = agencyID
	r.tenants[tenantID] = t
	return nil
}

func (r *MemoryRepo) DeleteAgency(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agencies[id]; !ok {
		return ErrNotFound
	}
	delete(r.agencies, id)
	for tid, t := range r.tenants {
		if t.AgencyID == id {
			t.AgencyID = ""
			r.tenants[tid] = t
		}
	}
	return nil
}
