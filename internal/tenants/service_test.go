package tenants

import (
	"context"
	"errors"
	"testing"
	"time"

	"call-analytics/internal/audit"
	"call-analytics/internal/rbac"
)

func newTestService() (*Service, *MemoryRepo, *audit.MemoryRepo) {
	repo := NewMemoryRepo()
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(repo, audit.NewService(auditRepo))
	return svc, repo, auditRepo
}

func TestRegister_IsIdempotentPerEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, "a@example.com", "A")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.Role != string(rbac.RoleUser) {
		t.Fatalf("expected default user role, got %q", first.Role)
	}

	second, err := svc.Register(ctx, "a@example.com", "A")
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same tenant on repeat registration")
	}
}

func TestUpdateRole_ValidatesAndAudits(t *testing.T) {
	svc, repo, auditRepo := newTestService()
	ctx := context.Background()
	_ = repo.Create(ctx, Tenant{ID: "u1", Email: "u1@example.com", Role: "user"})

	if err := svc.UpdateRole(ctx, "admin-1", "admin", "u1", "not-a-role"); err == nil {
		t.Fatalf("expected error for unknown role")
	}

	if err := svc.UpdateRole(ctx, "admin-1", "admin", "u1", "agency_owner"); err != nil {
		t.Fatalf("update role: %v", err)
	}
	got, _ := repo.GetByID(ctx, "u1")
	if got.Role != "agency_owner" {
		t.Fatalf("expected role updated, got %q", got.Role)
	}
	if len(auditRepo.Events) != 1 || auditRepo.Events[0].Type != audit.EventTypeRoleUpdate {
		t.Fatalf("expected role update audited, got %+v", auditRepo.Events)
	}
}

func TestCreateAgency_AssignsOwner(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_ = repo.Create(ctx, Tenant{ID: "owner-1", Email: "o@example.com", Role: "agency_owner"})

	a, err := svc.CreateAgency(ctx, "admin-1", "admin", "Acme Agency", "owner-1")
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}
	owner, _ := repo.GetByID(ctx, "owner-1")
	if owner.AgencyID != a.ID {
		t.Fatalf("expected owner assigned to agency")
	}
}

func TestAddAgencyMember_OwnerScoping(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_ = repo.Create(ctx, Tenant{ID: "owner-1", Email: "o@example.com", Role: "agency_owner"})
	_ = repo.Create(ctx, Tenant{ID: "owner-2", Email: "o2@example.com", Role: "agency_owner"})
	_ = repo.Create(ctx, Tenant{ID: "member-1", Email: "m@example.com", Role: "user"})
	a, err := svc.CreateAgency(ctx, "admin-1", "admin", "Acme", "owner-1")
	if err != nil {
		t.Fatalf("create agency: %v", err)
	}

	// A different agency owner cannot add members to this agency.
	err = svc.AddAgencyMember(ctx, "owner-2", "agency_owner", a.ID, "member-1")
	if err == nil {
		t.Fatalf("expected scoping error for foreign agency owner")
	}

	if err := svc.AddAgencyMember(ctx, "owner-1", "agency_owner", a.ID, "member-1"); err != nil {
		t.Fatalf("add member: %v", err)
	}
	members, _ := svc.ListAgencyMembers(ctx, a.ID)
	if len(members) != 2 { // owner + member
		t.Fatalf("expected 2 members, got %d", len(members))
	}
}

func TestUpdateCheckpoint_CompareAndSwap(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, Tenant{ID: "t1", Email: "t@example.com"})

	mark1 := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	ok, err := repo.UpdateCheckpoint(ctx, "t1", nil, mark1)
	if err != nil || !ok {
		t.Fatalf("expected initial checkpoint to apply, ok=%v err=%v", ok, err)
	}

	// A writer still holding the old nil view must lose.
	ok, err = repo.UpdateCheckpoint(ctx, "t1", nil, mark1.Add(time.Hour))
	if err != nil || ok {
		t.Fatalf("expected stale writer to lose, ok=%v err=%v", ok, err)
	}

	mark2 := mark1.Add(24 * time.Hour)
	ok, err = repo.UpdateCheckpoint(ctx, "t1", &mark1, mark2)
	if err != nil || !ok {
		t.Fatalf("expected CAS from current mark to win, ok=%v err=%v", ok, err)
	}
	got, _ := repo.GetByID(ctx, "t1")
	if got.LastIngestedAt == nil || !got.LastIngestedAt.Equal(mark2) {
		t.Fatalf("expected mark advanced, got %v", got.LastIngestedAt)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if err := svc.Delete(context.Background(), "admin", "admin", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
