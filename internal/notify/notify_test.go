package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"call-analytics/internal/tenants"
)

func seedNotifyTenant(t *testing.T, repo *tenants.MemoryRepo, tenant tenants.Tenant) {
	t.Helper()
	if tenant.ID == "" {
		tenant.ID = "t1"
	}
	if tenant.Email == "" {
		tenant.Email = "t1@example.com"
	}
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
}

func TestTrigger_EnqueuesRenderedMessage(t *testing.T) {
	repo := tenants.NewMemoryRepo()
	queue := NewMemoryQueue()
	seedNotifyTenant(t, repo, tenants.Tenant{
		FullName:    "Ada",
		AlertMethod: tenants.AlertMethodEmail,
	})

	n := NewNotifier(repo, queue)
	err := n.Trigger(context.Background(), "t1", EventCriticalUsage, AlertData{Used: 95, Limit: 100})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(queue.Items) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(queue.Items))
	}
	m := queue.Items[0]
	if m.Subject != "Critical Usage Alert" {
		t.Fatalf("unexpected subject %q", m.Subject)
	}
	if m.Recipient != "t1@example.com" || m.Method != "email" {
		t.Fatalf("unexpected routing: %+v", m)
	}
	if !strings.Contains(m.Body, "95.0 of 100.0") {
		t.Fatalf("expected usage numbers in body, got %q", m.Body)
	}
}

func TestTrigger_HonorsDisabledPreference(t *testing.T) {
	repo := tenants.NewMemoryRepo()
	queue := NewMemoryQueue()
	seedNotifyTenant(t, repo, tenants.Tenant{
		NotificationPrefs: map[string]bool{string(EventHighUsage): false},
	})

	n := NewNotifier(repo, queue)
	if err := n.Trigger(context.Background(), "t1", EventHighUsage, AlertData{}); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(queue.Items) != 0 {
		t.Fatalf("expected no message for disabled event, got %d", len(queue.Items))
	}
}

func TestTrigger_FailsClosedOnPreferenceLookupError(t *testing.T) {
	repo := tenants.NewMemoryRepo()
	queue := NewMemoryQueue()

	// Missing tenant makes the lookup fail; no alert must go out.
	n := NewNotifier(repo, queue)
	if err := n.Trigger(context.Background(), "ghost", EventHighBudget, AlertData{}); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(queue.Items) != 0 {
		t.Fatalf("expected alert suppressed on lookup failure")
	}
}

func TestTrigger_SlackWithoutChannelIsSuppressed(t *testing.T) {
	repo := tenants.NewMemoryRepo()
	queue := NewMemoryQueue()
	seedNotifyTenant(t, repo, tenants.Tenant{AlertMethod: tenants.AlertMethodSlack})

	n := NewNotifier(repo, queue)
	if err := n.Trigger(context.Background(), "t1", EventHighUsage, AlertData{}); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(queue.Items) != 0 {
		t.Fatalf("expected suppression without a slack channel")
	}
}

type fakeSender struct {
	failures int
	sent     []Message
}

func (s *fakeSender) Send(ctx context.Context, m Message) error {
	if s.failures > 0 {
		s.failures--
		return errors.New("smtp: connection refused")
	}
	s.sent = append(s.sent, m)
	return nil
}

func TestWorker_RetriesThenDeadLetters(t *testing.T) {
	queue := NewMemoryQueue()
	sender := &fakeSender{failures: 10}
	w := NewWorker(queue, map[string]Sender{"email": sender})

	_ = queue.Enqueue(context.Background(), Message{ID: "m1", Method: "email"})
	w.Drain(context.Background())

	if len(sender.sent) != 0 {
		t.Fatalf("expected no successful delivery")
	}
	if len(queue.Failed) != 1 {
		t.Fatalf("expected 1 dead-lettered message, got %d", len(queue.Failed))
	}
	if queue.Failed[0].Attempts != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, queue.Failed[0].Attempts)
	}
}

func TestWorker_RecoversWithinAttemptBudget(t *testing.T) {
	queue := NewMemoryQueue()
	sender := &fakeSender{failures: 2}
	w := NewWorker(queue, map[string]Sender{"email": sender})

	_ = queue.Enqueue(context.Background(), Message{ID: "m1", Method: "email"})
	w.Drain(context.Background())

	if len(sender.sent) != 1 {
		t.Fatalf("expected delivery on third attempt, got %d", len(sender.sent))
	}
	if len(queue.Failed) != 0 {
		t.Fatalf("expected no dead letters, got %d", len(queue.Failed))
	}
}

func TestWorker_UnknownMethodDeadLetters(t *testing.T) {
	queue := NewMemoryQueue()
	w := NewWorker(queue, map[string]Sender{})

	_ = queue.Enqueue(context.Background(), Message{ID: "m1", Method: "pager"})
	w.Drain(context.Background())

	if len(queue.Failed) != 1 {
		t.Fatalf("expected unknown method dead-lettered")
	}
}
