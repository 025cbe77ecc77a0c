package analytics

// Report is the aggregate view computed over a tenant's stored calls.
// Field names match the dashboard payload.
type Report struct {
	TotalCalls          int            `json:"totalCalls"`
	TotalMinutes        float64        `json:"totalMinutes"`
	TotalCallCost       float64        `json:"totalCallCost"`
	AverageCallDuration float64        `json:"averageCallDuration"`
	CallVolumeTrends    map[string]int `json:"callVolumeTrends"`
	CallOutcomes        map[string]int `json:"callOutcomes"`
	PeakHour            int            `json:"peakHour"`
}
