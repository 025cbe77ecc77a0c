package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor capture is best-effort; critical flows must not block on audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// Target identifiers (optional, depending on the event type).
	TargetUserID string `json:"target_user_id,omitempty" db:"target_user_id"`
	AgencyID     string `json:"agency_id,omitempty" db:"agency_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRoleUpdate    EventType = "role_update"
	EventTypeUserDelete    EventType = "user_delete"
	EventTypeAgencyChange  EventType = "agency_change"
	EventTypeBillingAction EventType = "billing_action"
)
