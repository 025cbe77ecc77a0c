package notify

import "fmt"

// AlertData carries the numbers rendered into an alert message.
type AlertData struct {
	Used  float64
	Limit float64
}

func (d AlertData) percent() float64 {
	if d.Limit <= 0 {
		return 0
	}
	return d.Used / d.Limit * 100
}

// render returns the subject and body for an event. Unknown events render a
// generic alert rather than failing delivery.
func render(event Event, name string, d AlertData) (subject, body string) {
	if name == "" {
		name = "there"
	}
	switch event {
	case EventHighUsage:
		subject = "High Usage Alert"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account has used %.1f of %.1f minutes (%.0f%%). Consider raising your limit before service is interrupted.",
			name, d.Used, d.Limit, d.percent())
	case EventCriticalUsage:
		subject = "Critical Usage Alert"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account has used %.1f of %.1f minutes (%.0f%%). You are about to hit your usage limit.",
			name, d.Used, d.Limit, d.percent())
	case EventHighBudget:
		subject = "High Budget Alert"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account has spent $%.2f of its $%.2f budget (%.0f%%).",
			name, d.Used, d.Limit, d.percent())
	case EventCriticalBudget:
		subject = "Critical Budget Alert"
		body = fmt.Sprintf(
			"Hi %s,\n\nYour account has spent $%.2f of its $%.2f budget (%.0f%%). You are about to exhaust your budget.",
			name, d.Used, d.Limit, d.percent())
	default:
		subject = "Account Alert"
		body = fmt.Sprintf("Hi %s,\n\nThere is an update on your account that needs attention.", name)
	}
	return subject, body
}
