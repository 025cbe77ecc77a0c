package monitoring

import (
	"context"
	"testing"

	"call-analytics/internal/config"
	"call-analytics/internal/notify"
	"call-analytics/internal/tenants"
)

type recordingSink struct {
	events []notify.Event
}

func (r *recordingSink) Trigger(ctx context.Context, tenantID string, event notify.Event, data notify.AlertData) error {
	r.events = append(r.events, event)
	return nil
}

func newTestMonitor() (*Service, *tenants.MemoryRepo, *recordingSink) {
	repo := tenants.NewMemoryRepo()
	sink := &recordingSink{}
	cfg := config.AlertConfig{UsageThresholdHigh: 0.8, UsageThresholdCritical: 0.9}
	return NewService(repo, sink, cfg), repo, sink
}

func TestEvaluateUsage_CriticalTakesPrecedence(t *testing.T) {
	svc, _, _ := newTestMonitor()

	event, ok := svc.EvaluateUsage(95, 100)
	if !ok || event != notify.EventCriticalUsage {
		t.Fatalf("expected critical at 95%%, got %v ok=%v", event, ok)
	}

	event, ok = svc.EvaluateUsage(85, 100)
	if !ok || event != notify.EventHighUsage {
		t.Fatalf("expected high at 85%%, got %v ok=%v", event, ok)
	}

	if _, ok := svc.EvaluateUsage(50, 100); ok {
		t.Fatalf("expected no event below high threshold")
	}
}

func TestEvaluateUsage_ThresholdBoundariesInclusive(t *testing.T) {
	svc, _, _ := newTestMonitor()

	if event, ok := svc.EvaluateUsage(80, 100); !ok || event != notify.EventHighUsage {
		t.Fatalf("expected high exactly at threshold, got %v ok=%v", event, ok)
	}
	if event, ok := svc.EvaluateUsage(90, 100); !ok || event != notify.EventCriticalUsage {
		t.Fatalf("expected critical exactly at threshold, got %v ok=%v", event, ok)
	}
}

func TestEvaluateUsage_UncappedTenantNeverAlerts(t *testing.T) {
	svc, _, _ := newTestMonitor()
	if _, ok := svc.EvaluateUsage(1000, 0); ok {
		t.Fatalf("expected no event for zero limit")
	}
	if _, ok := svc.EvaluateUsage(1000, -5); ok {
		t.Fatalf("expected no event for negative limit")
	}
}

func TestCheckTenant_EmitsAtMostOnePerCounter(t *testing.T) {
	svc, _, sink := newTestMonitor()

	err := svc.CheckTenant(context.Background(), tenants.Tenant{
		ID:           "t1",
		UsageMinutes: 95,
		UsageLimit:   100,
		SpentAmount:  85,
		Budget:       100,
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(sink.events) != 2 {
		t.Fatalf("expected one usage and one budget event, got %v", sink.events)
	}
	if sink.events[0] != notify.EventCriticalUsage || sink.events[1] != notify.EventHighBudget {
		t.Fatalf("unexpected events: %v", sink.events)
	}
}

func TestCheckByEmail_LooksUpTenant(t *testing.T) {
	svc, repo, sink := newTestMonitor()
	_ = repo.Create(context.Background(), tenants.Tenant{
		ID:          "t1",
		Email:       "t1@example.com",
		SpentAmount: 99,
		Budget:      100,
	})

	if err := svc.CheckByEmail(context.Background(), "t1@example.com"); err != nil {
		t.Fatalf("check by email: %v", err)
	}
	if len(sink.events) != 1 || sink.events[0] != notify.EventCriticalBudget {
		t.Fatalf("expected critical budget event, got %v", sink.events)
	}

	if err := svc.CheckByEmail(context.Background(), "missing@example.com"); err == nil {
		t.Fatalf("expected error for unknown email")
	}
}
