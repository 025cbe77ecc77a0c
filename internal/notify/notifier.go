package notify

import (
	"context"
	"fmt"
	"log/slog"

	"call-analytics/internal/tenants"

	"github.com/google/uuid"
)

// Notifier turns alert events into queued deliveries, honoring tenant
// notification preferences.
type Notifier struct {
	tenants tenants.Repository
	queue   Queue
}

func NewNotifier(tenantRepo tenants.Repository, queue Queue) *Notifier {
	return &Notifier{tenants: tenantRepo, queue: queue}
}

// Trigger enqueues an alert for the tenant unless their preferences disable
// the event. Preferences are re-read at trigger time; a failed preference
// read suppresses the alert. Sending against unknown preferences is worse
// than sending late.
func (n *Notifier) Trigger(ctx context.Context, tenantID string, event Event, data AlertData) error {
	t, err := n.tenants.GetByID(ctx, tenantID)
	if err != nil {
		slog.Warn("alert suppressed: preference lookup failed",
			"tenant_id", tenantID, "event", string(event), "err", err)
		return nil
	}
	if enabled, ok := t.NotificationPrefs[string(event)]; ok && !enabled {
		return nil
	}

	subject, body := render(event, t.FullName, data)
	m := Message{
		ID:        uuid.NewString(),
		Event:     event,
		TenantID:  t.ID,
		Recipient: t.Email,
		Method:    string(t.AlertMethod),
		Subject:   subject,
		Body:      body,
	}
	if t.AlertMethod == tenants.AlertMethodSlack {
		if t.SlackChannel == "" {
			slog.Warn("alert suppressed: slack method without channel", "tenant_id", t.ID)
			return nil
		}
		m.SlackChannel = t.SlackChannel
	}
	if m.Method == "" {
		m.Method = string(tenants.AlertMethodEmail)
	}

	if err := n.queue.Enqueue(ctx, m); err != nil {
		return fmt.Errorf("notify: enqueue %s for tenant %s: %w", event, t.ID, err)
	}
	return nil
}
