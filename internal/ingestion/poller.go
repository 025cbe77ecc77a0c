package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"call-analytics/internal/calls"
	"call-analytics/internal/tenants"

	"github.com/robfig/cron/v3"
)

// Poller runs scheduled ingestion sweeps over every tenant holding a source
// credential.
type Poller struct {
	svc     *Service
	tenants tenants.Repository
	cron    *cron.Cron
	timeout time.Duration
}

func NewPoller(svc *Service, tenantRepo tenants.Repository) *Poller {
	return &Poller{
		svc:     svc,
		tenants: tenantRepo,
		cron:    cron.New(),
		timeout: 5 * time.Minute,
	}
}

// Start registers the sweep on the given cron schedule and begins running it.
func (p *Poller) Start(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, p.sweep); err != nil {
		return err
	}
	p.cron.Start()
	slog.Info("ingestion poller started", "schedule", schedule)
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// sweep ingests every credentialed tenant sequentially. Per-tenant failures
// are logged and never stop the sweep; a tenant whose lease is already held
// is simply picked up on the next tick.
func (p *Poller) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	list, err := p.tenants.List(ctx)
	if err != nil {
		slog.Error("poll sweep: listing tenants", "err", err)
		return
	}

	for _, t := range list {
		if t.SourceToken == "" {
			continue
		}
		res, err := p.svc.Ingest(ctx, t.ID)
		switch {
		case errors.Is(err, calls.ErrIngestRunning):
			slog.Info("poll sweep: tenant already ingesting", "tenant_id", t.ID)
		case err != nil:
			slog.Error("poll sweep: ingest failed", "tenant_id", t.ID, "err", err)
		default:
			slog.Info("poll sweep: tenant done",
				"tenant_id", t.ID,
				"inserted", res.Inserted,
				"updated", res.Updated,
				"skipped", res.Skipped)
		}
	}
}
