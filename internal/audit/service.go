package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// Audit is internal-only; records are not exposed to tenant users.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogRoleUpdate records an admin changing another user's role.
func (s *Service) LogRoleUpdate(ctx context.Context, actorID, actorRole, targetID, newRole string) error {
	return s.Append(ctx, Event{
		Type:         EventTypeRoleUpdate,
		ActorUserID:  actorID,
		ActorRole:    actorRole,
		TargetUserID: targetID,
		Message:      "role set to " + newRole,
	})
}

// LogUserDelete records an admin removing a user.
func (s *Service) LogUserDelete(ctx context.Context, actorID, actorRole, targetID string) error {
	return s.Append(ctx, Event{
		Type:         EventTypeUserDelete,
		ActorUserID:  actorID,
		ActorRole:    actorRole,
		TargetUserID: targetID,
		Message:      "user deleted",
	})
}

// LogAgencyChange records agency create/assign/delete operations.
func (s *Service) LogAgencyChange(ctx context.Context, actorID, actorRole, agencyID, message string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeAgencyChange,
		ActorUserID: actorID,
		ActorRole:   actorRole,
		AgencyID:    agencyID,
		Message:     message,
	})
}

// LogBillingAction records manual billing operations against Stripe.
func (s *Service) LogBillingAction(ctx context.Context, actorID, actorRole, message, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypeBillingAction,
		ActorUserID: actorID,
		ActorRole:   actorRole,
		Message:     message,
		Metadata:    metadata,
	})
}
