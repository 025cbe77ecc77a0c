// Package export renders call logs into downloadable CSV and Excel files.
package export

import (
	"fmt"
	"time"

	"call-analytics/internal/calls"
)

var columns = []string{
	"ID",
	"Assistant ID",
	"Type",
	"Started At",
	"Ended At",
	"Duration (min)",
	"Cost",
	"Ended Reason",
}

func row(c calls.Call) []string {
	return []string{
		c.ID,
		c.AssistantID,
		string(c.Type),
		formatTime(c.StartedAt),
		formatTime(c.EndedAt),
		fmt.Sprintf("%.2f", c.DurationMinutes()),
		fmt.Sprintf("%.2f", c.Cost),
		c.EndedReason,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
