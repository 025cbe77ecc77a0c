package analytics

import (
	"context"
	"fmt"
	"math"

	"call-analytics/internal/calls"
)

// Service computes aggregate reports over stored calls. All aggregation runs
// over a single repository read, so a report is internally consistent: every
// number describes the same snapshot.
type Service struct {
	calls calls.Repository
}

func NewService(callRepo calls.Repository) *Service {
	return &Service{calls: callRepo}
}

// Report aggregates the tenant's full call history. A failed read fails the
// whole report; partial aggregates are never returned.
func (s *Service) Report(ctx context.Context, tenantID string) (Report, error) {
	rows, err := s.calls.ListByTenant(ctx, tenantID)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", calls.ErrAnalytics, err)
	}

	r := Report{
		TotalCalls:       len(rows),
		CallVolumeTrends: map[string]int{},
		CallOutcomes:     map[string]int{},
	}
	var hourly [24]int
	for _, c := range rows {
		// Calls without both timestamps contribute zero minutes.
		r.TotalMinutes += c.DurationMinutes()
		r.TotalCallCost += c.Cost

		// Trends bucket on the creation date so in-flight calls still count;
		// peak hour needs a start time and skips calls without one.
		r.CallVolumeTrends[c.CreatedAt.UTC().Format("2006-01-02")]++
		if c.StartedAt != nil {
			hourly[c.StartedAt.Hour()]++
		}

		reason := c.EndedReason
		if reason == "" {
			reason = "unknown"
		}
		r.CallOutcomes[reason]++
	}

	// An empty history averages to zero, never NaN.
	if r.TotalCalls > 0 {
		r.AverageCallDuration = r.TotalMinutes / float64(r.TotalCalls)
	}
	r.PeakHour = peakHour(hourly)

	r.TotalMinutes = round2(r.TotalMinutes)
	r.TotalCallCost = round2(r.TotalCallCost)
	r.AverageCallDuration = round2(r.AverageCallDuration)
	return r, nil
}

// ListCalls returns the tenant's call log with the given filter applied.
func (s *Service) ListCalls(ctx context.Context, tenantID string, f calls.Filter) ([]calls.Call, error) {
	rows, err := s.calls.ListFiltered(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", calls.ErrAnalytics, err)
	}
	return rows, nil
}

// peakHour returns the hour of day with the most calls. Ties resolve to the
// earliest hour; strict comparison on an ascending scan guarantees that.
func peakHour(hourly [24]int) int {
	peak := 0
	for h := 1; h < 24; h++ {
		if hourly[h] > hourly[peak] {
			peak = h
		}
	}
	return peak
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
