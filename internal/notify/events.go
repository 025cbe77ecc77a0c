package notify

// Event identifies an alert condition. The values double as preference keys
// on the tenant record.
type Event string

const (
	EventHighUsage      Event = "HIGH_USAGE"
	EventCriticalUsage  Event = "CRITICAL_USAGE"
	EventHighBudget     Event = "HIGH_BUDGET"
	EventCriticalBudget Event = "CRITICAL_BUDGET"
)

// Message is one queued notification delivery.
type Message struct {
	ID           string `json:"id"`
	Event        Event  `json:"event"`
	TenantID     string `json:"tenant_id"`
	Recipient    string `json:"recipient"`
	Method       string `json:"method"`
	SlackChannel string `json:"slack_channel,omitempty"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`

	// Attempts counts deliveries tried so far; the worker dead-letters the
	// message after the third failure.
	Attempts int `json:"attempts"`
}
