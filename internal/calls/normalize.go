package calls

import (
	"encoding/json"
	"fmt"
	"time"
)

// SourceCall is the wire shape returned by the external call source.
// Field names follow the source API (camelCase); they are normalized onto the
// snake_case storage schema exactly once, here, so the rest of the codebase
// never sees the source naming.
type SourceCall struct {
	ID            string          `json:"id"`
	AssistantID   string          `json:"assistantId"`
	PhoneNumberID string          `json:"phoneNumberId"`
	Type          string          `json:"type"`
	StartedAt     *time.Time      `json:"startedAt"`
	EndedAt       *time.Time      `json:"endedAt"`
	Transcript    string          `json:"transcript"`
	RecordingURL  string          `json:"recordingUrl"`
	Summary       string          `json:"summary"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Cost          *float64        `json:"cost"`
	EndedReason   string          `json:"endedReason"`
	CostBreakdown json.RawMessage `json:"costBreakdown"`
	AssistantCost json.RawMessage `json:"costs"`
}

// Normalize validates a source payload and maps it onto the storage model,
// attaching the owning tenant.
func Normalize(src SourceCall, tenantID string) (Call, error) {
	if src.ID == "" {
		return Call{}, fmt.Errorf("source call missing id")
	}
	if tenantID == "" {
		return Call{}, fmt.Errorf("tenant id required")
	}
	if src.StartedAt != nil && src.EndedAt != nil && src.EndedAt.Before(*src.StartedAt) {
		return Call{}, fmt.Errorf("source call %s: ended_at precedes started_at", src.ID)
	}

	out := Call{
		ID:            src.ID,
		TenantID:      tenantID,
		AssistantID:   src.AssistantID,
		PhoneNumberID: src.PhoneNumberID,
		Type:          CallType(src.Type),
		Transcript:    src.Transcript,
		RecordingURL:  src.RecordingURL,
		Summary:       src.Summary,
		EndedReason:   src.EndedReason,
		CreatedAt:     src.CreatedAt.UTC(),
		UpdatedAt:     src.UpdatedAt.UTC(),
	}
	if src.StartedAt != nil {
		t := src.StartedAt.UTC()
		out.StartedAt = &t
	}
	if src.EndedAt != nil {
		t := src.EndedAt.UTC()
		out.EndedAt = &t
	}
	// Missing cost contributes zero; it must not fail the record.
	if src.Cost != nil {
		out.Cost = *src.Cost
	}
	if len(src.CostBreakdown) > 0 {
		out.CostBreakdown = string(src.CostBreakdown)
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	return out, nil
}
