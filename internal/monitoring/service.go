package monitoring

import (
	"context"
	"fmt"

	"call-analytics/internal/config"
	"call-analytics/internal/notify"
	"call-analytics/internal/tenants"
)

// AlertSink receives evaluated alert events. Satisfied by notify.Notifier.
type AlertSink interface {
	Trigger(ctx context.Context, tenantID string, event notify.Event, data notify.AlertData) error
}

// Service evaluates tenant usage and budget counters against configured
// thresholds and emits at most one usage event and one budget event per check.
type Service struct {
	tenants tenants.Repository
	sink    AlertSink
	cfg     config.AlertConfig
}

func NewService(tenantRepo tenants.Repository, sink AlertSink, cfg config.AlertConfig) *Service {
	return &Service{tenants: tenantRepo, sink: sink, cfg: cfg}
}

// EvaluateUsage classifies the usage ratio. The critical threshold is checked
// first so a counter past both thresholds raises exactly one event. A zero or
// negative limit means the tenant is uncapped and never alerts.
func (s *Service) EvaluateUsage(used, limit float64) (notify.Event, bool) {
	return classify(used, limit, s.cfg, EventPairUsage)
}

// EvaluateBudget classifies the spend ratio with the same threshold pair.
func (s *Service) EvaluateBudget(spent, budget float64) (notify.Event, bool) {
	return classify(spent, budget, s.cfg, EventPairBudget)
}

// EventPair selects which event names a classification maps onto.
type EventPair struct {
	High     notify.Event
	Critical notify.Event
}

var (
	EventPairUsage  = EventPair{High: notify.EventHighUsage, Critical: notify.EventCriticalUsage}
	EventPairBudget = EventPair{High: notify.EventHighBudget, Critical: notify.EventCriticalBudget}
)

func classify(used, limit float64, cfg config.AlertConfig, pair EventPair) (notify.Event, bool) {
	if limit <= 0 {
		return "", false
	}
	ratio := used / limit
	switch {
	case ratio >= cfg.UsageThresholdCritical:
		return pair.Critical, true
	case ratio >= cfg.UsageThresholdHigh:
		return pair.High, true
	}
	return "", false
}

// CheckTenant evaluates both counters for one tenant and forwards any events
// to the alert sink.
func (s *Service) CheckTenant(ctx context.Context, t tenants.Tenant) error {
	if event, ok := s.EvaluateUsage(t.UsageMinutes, t.UsageLimit); ok {
		err := s.sink.Trigger(ctx, t.ID, event, notify.AlertData{Used: t.UsageMinutes, Limit: t.UsageLimit})
		if err != nil {
			return fmt.Errorf("monitoring: usage alert: %w", err)
		}
	}
	if event, ok := s.EvaluateBudget(t.SpentAmount, t.Budget); ok {
		err := s.sink.Trigger(ctx, t.ID, event, notify.AlertData{Used: t.SpentAmount, Limit: t.Budget})
		if err != nil {
			return fmt.Errorf("monitoring: budget alert: %w", err)
		}
	}
	return nil
}

// CheckByEmail runs a check for the tenant owning the given email.
func (s *Service) CheckByEmail(ctx context.Context, email string) error {
	t, err := s.tenants.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("monitoring: loading tenant %q: %w", email, err)
	}
	return s.CheckTenant(ctx, t)
}

// CheckAll sweeps every tenant. Per-tenant sink failures abort the sweep so
// the scheduler can retry the whole pass.
func (s *Service) CheckAll(ctx context.Context) error {
	list, err := s.tenants.List(ctx)
	if err != nil {
		return fmt.Errorf("monitoring: listing tenants: %w", err)
	}
	for _, t := range list {
		if err := s.CheckTenant(ctx, t); err != nil {
			return err
		}
	}
	return nil
}
