package tenants

import "time"

// Tenant is a user/organization scope owning its own calls, credentials and
// preferences. One row per user; agency membership is optional.
//
// SourceToken is the tenant's bearer token for the external call source. It is
// a secret: never log it and never include it in API responses.
type Tenant struct {
	ID       string `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	FullName string `json:"full_name,omitempty" db:"full_name"`

	// Role is validated against rbac.Parse at every trust boundary.
	Role string `json:"role" db:"role"`

	AgencyID string `json:"agency_id,omitempty" db:"agency_id"`

	SourceToken string `json:"-" db:"source_token"`

	// Usage counters, maintained by ingestion.
	UsageMinutes float64 `json:"usage_minutes" db:"usage_minutes"`
	UsageLimit   float64 `json:"usage_limit" db:"usage_limit"`

	// Budget counters in dollars.
	SpentAmount float64 `json:"spent_amount" db:"spent_amount"`
	Budget      float64 `json:"budget" db:"budget"`

	AlertMethod  AlertMethod `json:"alert_method" db:"alert_method"`
	SlackChannel string      `json:"slack_channel,omitempty" db:"slack_channel"`

	// NotificationPrefs maps event kind -> enabled. Stored as JSONB.
	NotificationPrefs map[string]bool `json:"notification_prefs,omitempty" db:"notification_prefs"`

	// LastIngestedAt is the ingestion high-water mark: the max ended_at of
	// calls already persisted. Mutated only by ingestion, via a conditional
	// update (see Repository.UpdateCheckpoint).
	LastIngestedAt *time.Time `json:"last_ingested_at,omitempty" db:"last_ingested_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AlertMethod string

const (
	AlertMethodEmail AlertMethod = "email"
	AlertMethodSlack AlertMethod = "slack"
)

// Agency groups tenants under one owner. Agencies aggregate members but do
// not own call records directly.
type Agency struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
