package calls

import (
	"testing"
	"time"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(s string) *time.Time {
	t := ts(s)
	return &t
}

func TestNormalize_MapsSourceFields(t *testing.T) {
	cost := 1.25
	src := SourceCall{
		ID:            "call-1",
		AssistantID:   "asst-1",
		PhoneNumberID: "pn-1",
		Type:          "inboundPhoneCall",
		StartedAt:     tsp("2023-01-01T00:00:00Z"),
		EndedAt:       tsp("2023-01-01T00:10:00Z"),
		Transcript:    "hello",
		RecordingURL:  "https://example.com/rec.wav",
		Summary:       "short call",
		CreatedAt:     ts("2023-01-01T00:00:00Z"),
		UpdatedAt:     ts("2023-01-01T00:11:00Z"),
		Cost:          &cost,
		EndedReason:   "customer-ended-call",
	}

	c, err := Normalize(src, "tenant-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.TenantID != "tenant-1" {
		t.Fatalf("expected tenant attached, got %q", c.TenantID)
	}
	if c.Type != CallTypeInbound {
		t.Fatalf("unexpected type %q", c.Type)
	}
	if c.Cost != 1.25 {
		t.Fatalf("unexpected cost %v", c.Cost)
	}
	if got := c.DurationMinutes(); got != 10 {
		t.Fatalf("expected 10 minutes, got %v", got)
	}
}

func TestNormalize_MissingCostContributesZero(t *testing.T) {
	src := SourceCall{ID: "call-2", UpdatedAt: ts("2023-01-01T00:00:00Z")}
	c, err := Normalize(src, "tenant-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Cost != 0 {
		t.Fatalf("expected zero cost, got %v", c.Cost)
	}
}

func TestNormalize_RejectsInvertedTimestamps(t *testing.T) {
	src := SourceCall{
		ID:        "call-3",
		StartedAt: tsp("2023-01-01T01:00:00Z"),
		EndedAt:   tsp("2023-01-01T00:00:00Z"),
	}
	if _, err := Normalize(src, "tenant-1"); err == nil {
		t.Fatalf("expected error for ended_at before started_at")
	}
}

func TestNormalize_RequiresIDAndTenant(t *testing.T) {
	if _, err := Normalize(SourceCall{}, "tenant-1"); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := Normalize(SourceCall{ID: "x"}, ""); err == nil {
		t.Fatalf("expected error for missing tenant")
	}
}

func TestDurationMinutes_MissingTimestampsIsZero(t *testing.T) {
	c := Call{StartedAt: tsp("2023-01-01T00:00:00Z")}
	if got := c.DurationMinutes(); got != 0 {
		t.Fatalf("expected 0 for missing ended_at, got %v", got)
	}
}
