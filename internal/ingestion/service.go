package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"call-analytics/internal/calls"
	"call-analytics/internal/telephony"
	"call-analytics/internal/tenants"
)

// Leaser serializes ingestion runs per tenant. Two overlapping runs for one
// tenant would read the same stale high-water mark and double-write.
type Leaser interface {
	// Acquire returns a release func when the tenant lease was taken, or
	// ok=false when another run holds it.
	Acquire(ctx context.Context, tenantID string) (release func(), ok bool, err error)
}

// Result summarizes one ingestion run.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Service pulls call records from the external source and persists them.
//
// Failure semantics: no internal retry. Upstream or datastore failures
// propagate to the caller/scheduler, which owns the retry policy.
type Service struct {
	tenants tenants.Repository
	calls   calls.Repository
	source  telephony.CallSource
	leaser  Leaser
	clock   func() time.Time
}

func NewService(tenantRepo tenants.Repository, callRepo calls.Repository, source telephony.CallSource, leaser Leaser) *Service {
	return &Service{
		tenants: tenantRepo,
		calls:   callRepo,
		source:  source,
		leaser:  leaser,
		clock:   time.Now,
	}
}

// Ingest fetches the tenant's current call list, filters it against the
// high-water mark, and upserts everything newer.
//
// Every record is filtered individually on ended_at > mark; the legacy
// first-record short-circuit mishandled out-of-order source pages and was
// dropped. The checkpoint only advances through a conditional update, so a
// run racing a faster one writes rows idempotently and leaves the mark alone.
func (s *Service) Ingest(ctx context.Context, tenantID string) (Result, error) {
	if tenantID == "" {
		return Result{}, errors.New("ingestion: tenant id required")
	}

	release, ok, err := s.leaser.Acquire(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: lease acquire: %w", err)
	}
	if !ok {
		return Result{}, calls.ErrIngestRunning
	}
	defer release()

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: loading tenant: %w", err)
	}
	if tenant.SourceToken == "" {
		return Result{}, calls.ErrNoCredential
	}

	mark, err := s.resolveMark(ctx, tenant)
	if err != nil {
		return Result{}, err
	}

	fetched, err := s.source.FetchCalls(ctx, tenant.SourceToken, 0)
	if err != nil {
		return Result{}, err
	}
	if len(fetched) == 0 {
		return Result{}, nil
	}

	var (
		res        Result
		newMark    = mark
		newMinutes float64
		newSpend   float64
	)
	for _, src := range fetched {
		// The mark is the max ended_at already stored; anything at or below
		// it was ingested by an earlier run.
		if src.EndedAt == nil || !src.EndedAt.After(mark) {
			res.Skipped++
			continue
		}

		row, err := calls.Normalize(src, tenantID)
		if err != nil {
			slog.Warn("skipping malformed source call", "tenant_id", tenantID, "call_id", src.ID, "err", err)
			res.Skipped++
			continue
		}

		outcome, err := s.calls.Upsert(ctx, row)
		if err != nil {
			// Abort the whole batch; the checkpoint stays put so the next run
			// re-fetches everything after the old mark.
			return Result{}, fmt.Errorf("%w: %v", calls.ErrIngestion, err)
		}
		switch outcome {
		case calls.UpsertInserted:
			res.Inserted++
			newMinutes += row.DurationMinutes()
			newSpend += row.Cost
		case calls.UpsertUpdated:
			res.Updated++
		default:
			res.Skipped++
		}
		if row.EndedAt.After(newMark) {
			newMark = *row.EndedAt
		}
	}

	if res.Inserted == 0 && res.Updated == 0 {
		return res, nil
	}

	// resolveMark persisted the mark we read from, so it is the CAS baseline
	// even when the tenant row originally carried none.
	moved, err := s.tenants.UpdateCheckpoint(ctx, tenantID, &mark, newMark)
	if err != nil {
		return res, fmt.Errorf("%w: checkpoint update: %v", calls.ErrIngestion, err)
	}
	if !moved {
		// Lost a checkpoint race despite the lease (e.g. expired TTL on a
		// long run). Rows are upserted idempotently, so this is safe to log
		// and move on.
		slog.Warn("ingestion checkpoint lost race", "tenant_id", tenantID)
	}

	if res.Inserted > 0 {
		if err := s.tenants.AddUsage(ctx, tenantID, newMinutes, newSpend); err != nil {
			slog.Warn("usage counter update failed", "tenant_id", tenantID, "err", err)
		}
	}
	return res, nil
}

// resolveMark returns the tenant's high-water mark, initializing an absent
// mark to the epoch and persisting that default exactly once.
func (s *Service) resolveMark(ctx context.Context, tenant tenants.Tenant) (time.Time, error) {
	if tenant.LastIngestedAt != nil {
		return tenant.LastIngestedAt.UTC(), nil
	}
	epoch := time.Unix(0, 0).UTC()
	ok, err := s.tenants.UpdateCheckpoint(ctx, tenant.ID, nil, epoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("ingestion: initializing checkpoint: %w", err)
	}
	if !ok {
		// A concurrent run initialized it first; use whatever it stored.
		fresh, err := s.tenants.GetByID(ctx, tenant.ID)
		if err != nil {
			return time.Time{}, fmt.Errorf("ingestion: reloading tenant: %w", err)
		}
		if fresh.LastIngestedAt != nil {
			return fresh.LastIngestedAt.UTC(), nil
		}
	}
	return epoch, nil
}
