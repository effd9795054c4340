package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuannvm/dr-triage/internal/models"
)

func TestEnrichDescriptionWithoutEvidence(t *testing.T) {
	ticket := models.BugTicket{Description: "Plain description"}

	assert.Equal(t, "Plain description", EnrichDescription(ticket))
}

func TestEnrichDescriptionOrder(t *testing.T) {
	ticket := models.BugTicket{
		Description: "Original text",
		CurlCommand: "curl https://api.example.com/health",
		TraceID:     "trace-42",
	}

	enriched := EnrichDescription(ticket)

	assert.True(t, strings.HasPrefix(enriched, "Original text"))
	curlAt := strings.Index(enriched, "```bash\ncurl https://api.example.com/health\n```")
	traceAt := strings.Index(enriched, "*Trace ID:* trace-42")
	assert.Greater(t, curlAt, 0)
	assert.Greater(t, traceAt, curlAt)
	assert.Equal(t, "Original text", ticket.Description)
}

func TestEnrichDescriptionTraceOnly(t *testing.T) {
	enriched := EnrichDescription(models.BugTicket{Description: "Text", TraceID: "abc"})

	assert.Equal(t, "Text\n\n*Trace ID:* abc", enriched)
}

func TestLabelSet(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil", input: nil, want: []string{"mcp", "potential-issue"}},
		{name: "caller labels first", input: []string{"ui", "favorites"}, want: []string{"ui", "favorites", "mcp", "potential-issue"}},
		{name: "explicit mandatory label", input: []string{"mcp", "ui"}, want: []string{"mcp", "ui", "potential-issue"}},
		{name: "duplicates and blanks", input: []string{"api", " api ", "", "potential-issue", "mcp", "api"}, want: []string{"api", "potential-issue", "mcp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LabelSet(tt.input)

			assert.Equal(t, tt.want, got)
			assert.Contains(t, got, LabelMCP)
			assert.Contains(t, got, LabelPotentialIssue)
		})
	}
}
