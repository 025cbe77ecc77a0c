package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"call-analytics/internal/calls"
)

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	started := time.Date(2023, 1, 10, 10, 0, 0, 0, time.UTC)
	ended := started.Add(6 * time.Minute)
	rows := []calls.Call{
		{
			ID:          "c1",
			AssistantID: "a1",
			Type:        "inboundPhoneCall",
			StartedAt:   &started,
			EndedAt:     &ended,
			Cost:        1.5,
			EndedReason: "customer-ended-call",
		},
		{ID: "c2", Type: "webCall"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(columns, ",") {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][5] != "6.00" || records[1][6] != "1.50" {
		t.Fatalf("unexpected duration/cost: %v", records[1])
	}
	// Missing timestamps render as empty cells with zero duration.
	if records[2][3] != "" || records[2][5] != "0.00" {
		t.Fatalf("unexpected empty-row rendering: %v", records[2])
	}
}

func TestWriteCSV_EmptyLogStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected only header, got %d records", len(records))
	}
}
