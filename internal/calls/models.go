package calls

import "time"

// Call represents a tenant-scoped call record ingested from the external source.
//
// Multi-tenant invariant: TenantID is required on every row.
//
// Timestamps are stored in UTC. StartedAt/EndedAt are nullable because
// in-flight or dropped calls arrive without them; when both are present,
// EndedAt >= StartedAt is enforced at normalization time.
type Call struct {
	ID            string `json:"id" db:"id"`
	TenantID      string `json:"tenant_id" db:"tenant_id"`
	AssistantID   string `json:"assistant_id,omitempty" db:"assistant_id"`
	PhoneNumberID string `json:"phone_number_id,omitempty" db:"phone_number_id"`

	Type CallType `json:"type" db:"type"`

	StartedAt *time.Time `json:"started_at,omitempty" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	Transcript   string `json:"transcript,omitempty" db:"transcript"`
	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`
	Summary      string `json:"summary,omitempty" db:"summary"`

	// Cost is the source-reported cost in dollars.
	Cost float64 `json:"cost" db:"cost"`

	EndedReason string `json:"ended_reason,omitempty" db:"ended_reason"`

	// CostBreakdown is the source's structured cost detail, stored as JSONB.
	CostBreakdown string `json:"cost_breakdown,omitempty" db:"cost_breakdown"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type CallType string

const (
	CallTypeInbound  CallType = "inboundPhoneCall"
	CallTypeOutbound CallType = "outboundPhoneCall"
	CallTypeWeb      CallType = "webCall"
)

// DurationMinutes returns the call duration in minutes, or 0 when either
// timestamp is missing. Callers must not treat 0 as an error.
func (c Call) DurationMinutes() float64 {
	if c.StartedAt == nil || c.EndedAt == nil {
		return 0
	}
	return c.EndedAt.Sub(*c.StartedAt).Minutes()
}
