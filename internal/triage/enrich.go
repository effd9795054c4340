package triage

import (
	"strings"

	"github.com/tuannvm/dr-triage/internal/models"
)

// Labels applied to every ticket created through the triage tools.
const (
	LabelMCP            = "mcp"
	LabelPotentialIssue = "potential-issue"
)

// MandatoryLabels returns the labels every created ticket carries.
func MandatoryLabels() []string {
	return []string{LabelMCP, LabelPotentialIssue}
}

// EnrichDescription appends the reproduction evidence to the description:
// the curl command as a fenced block first, then the trace id line.
func EnrichDescription(ticket models.BugTicket) string {
	var sb strings.Builder
	sb.WriteString(ticket.Description)

	if curl := strings.TrimSpace(ticket.CurlCommand); curl != "" {
		sb.WriteString("\n\n*Curl Command:*\n```bash\n")
		sb.WriteString(curl)
		sb.WriteString("\n```")
	}
	if trace := strings.TrimSpace(ticket.TraceID); trace != "" {
		sb.WriteString("\n\n*Trace ID:* ")
		sb.WriteString(trace)
	}

	return sb.String()
}

// LabelSet merges caller labels with the mandatory labels. Caller order is
// kept, blanks and duplicates are dropped, missing mandatory labels are appended.
func LabelSet(additional []string) []string {
	seen := make(map[string]struct{}, len(additional)+2)
	labels := make([]string, 0, len(additional)+2)

	add := func(label string) {
		label = strings.TrimSpace(label)
		if label == "" {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}

	for _, l := range additional {
		add(l)
	}
	for _, l := range MandatoryLabels() {
		add(l)
	}
	return labels
}
