package tenants

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"call-analytics/internal/audit"
	"call-analytics/internal/rbac"

	"github.com/google/uuid"
)

// Service provides tenant and agency administration.
//
// Tenancy invariant: callers are responsible for authorization (rbac
// middleware on routes, agency scoping here); the service validates inputs
// and writes audit records for privileged mutations.
type Service struct {
	repo  Repository
	audit *audit.Service
	clock func() time.Time
}

func NewService(repo Repository, auditSvc *audit.Service) *Service {
	return &Service{repo: repo, audit: auditSvc, clock: time.Now}
}

func (s *Service) GetByID(ctx context.Context, id string) (Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (Tenant, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.List(ctx)
}

// Register creates a tenant on first login. The identity provider has already
// verified the email; a missing role defaults to plain user.
func (s *Service) Register(ctx context.Context, email, fullName string) (Tenant, error) {
	if email == "" {
		return Tenant{}, ErrInvalidArgument
	}
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		return existing, nil
	}
	now := s.clock().UTC()
	t := Tenant{
		ID:          uuid.NewString(),
		Email:       email,
		FullName:    fullName,
		Role:        string(rbac.RoleUser),
		AlertMethod: AlertMethodEmail,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Tenant{}, err
	}
	return t, nil
}

// UpdateRole sets a user's role. Admin surface only; audited.
func (s *Service) UpdateRole(ctx context.Context, actorID, actorRole, targetID, newRole string) error {
	if _, err := rbac.Parse(newRole); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := s.repo.UpdateRole(ctx, targetID, newRole); err != nil {
		return err
	}
	s.logAudit(ctx, func() error {
		return s.audit.LogRoleUpdate(ctx, actorID, actorRole, targetID, newRole)
	})
	return nil
}

// Delete removes a user. Admin surface only; audited.
func (s *Service) Delete(ctx context.Context, actorID, actorRole, targetID string) error {
	if targetID == "" {
		return ErrInvalidArgument
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.logAudit(ctx, func() error {
		return s.audit.LogUserDelete(ctx, actorID, actorRole, targetID)
	})
	return nil
}

// CreateAgency registers a new agency owned by ownerID.
func (s *Service) CreateAgency(ctx context.Context, actorID, actorRole, name, ownerID string) (Agency, error) {
	if name == "" || ownerID == "" {
		return Agency{}, ErrInvalidArgument
	}
	if _, err := s.repo.GetByID(ctx, ownerID); err != nil {
		return Agency{}, err
	}
	a := Agency{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.CreateAgency(ctx, a); err != nil {
		return Agency{}, err
	}
	if err := s.repo.AssignAgency(ctx, ownerID, a.ID); err != nil {
		return Agency{}, err
	}
	s.logAudit(ctx, func() error {
		return s.audit.LogAgencyChange(ctx, actorID, actorRole, a.ID, "agency created: "+name)
	})
	return a, nil
}

// AddAgencyMember attaches a tenant to an agency. Agency owners may only
// manage their own agency; admins may manage any.
func (s *Service) AddAgencyMember(ctx context.Context, actorID, actorRole, agencyID, tenantID string) error {
	a, err := s.repo.GetAgency(ctx, agencyID)
	if err != nil {
		return err
	}
	role, err := rbac.Parse(actorRole)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if role == rbac.RoleAgencyOwner && a.OwnerID != actorID {
		return fmt.Errorf("%w: not the agency owner", ErrInvalidArgument)
	}
	if err := s.repo.AssignAgency(ctx, tenantID, agencyID); err != nil {
		return err
	}
	s.logAudit(ctx, func() error {
		return s.audit.LogAgencyChange(ctx, actorID, actorRole, agencyID, "member added: "+tenantID)
	})
	return nil
}

func (s *Service) ListAgencyMembers(ctx context.Context, agencyID string) ([]Tenant, error) {
	return s.repo.ListAgencyMembers(ctx, agencyID)
}

func (s *Service) DeleteAgency(ctx context.Context, actorID, actorRole, agencyID string) error {
	if err := s.repo.DeleteAgency(ctx, agencyID); err != nil {
		return err
	}
	s.logAudit(ctx, func() error {
		return s.audit.LogAgencyChange(ctx, actorID, actorRole, agencyID, "agency deleted")
	})
	return nil
}

func (s *Service) logAudit(ctx context.Context, fn func() error) {
	if s.audit == nil {
		return
	}
	if err := fn(); err != nil {
		slog.Warn("audit append failed", "err", err)
	}
}
