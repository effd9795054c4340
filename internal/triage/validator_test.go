package triage

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/dr-triage/internal/models"
)

const completeDescription = "Checkout is broken for every user.\n" +
	"1. Add an item to the cart\n" +
	"2. Call POST /checkout\n" +
	"Expected: the order is created. Actual: 500 Internal Server Error."

func completeTicket() models.BugTicket {
	return models.BugTicket{
		Summary:     "Checkout API returns 500",
		Description: completeDescription,
		Priority:    "High",
		CurlCommand: "curl -X POST https://api.example.com/checkout -H 'Content-Type: application/json'",
	}
}

func TestValidateComplete(t *testing.T) {
	tests := map[string]func(*models.BugTicket){
		"curl evidence": func(*models.BugTicket) {},
		"trace evidence only": func(b *models.BugTicket) {
			b.CurlCommand = ""
			b.TraceID = "abc123-xyz-456"
		},
		"repro phrase instead of list": func(b *models.BugTicket) {
			b.Description = "Steps to reproduce: open the cart and pay. Expected a receipt but the actual response was a 500."
		},
		"reproduction steps phrase": func(b *models.BugTicket) {
			b.Description = "REPRODUCTION STEPS: open the cart, pay. EXPECTED a receipt, ACTUAL response is a 500 error."
		},
		"every priority": func(b *models.BugTicket) { b.Priority = "Lowest" },
		"curl with surrounding whitespace": func(b *models.BugTicket) {
			b.CurlCommand = "  curl -X GET https://api.example.com/checkout\n"
		},
		"multibyte summary long enough": func(b *models.BugTicket) { b.Summary = "チェックアウトが失敗する件" },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			ticket := completeTicket()
			mutate(&ticket)

			result := Validate(ticket)
			assert.True(t, result.IsComplete, "missing: %+v", result.MissingInformation)
			assert.Empty(t, result.MissingInformation)
			assert.NotNil(t, result.MissingInformation)
			assert.Empty(t, result.Recommendations)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	tests := []struct {
		name   string
		ticket models.BugTicket
		fields []string
	}{
		{
			name:   "empty ticket",
			ticket: models.BugTicket{},
			fields: []string{"summary", "description", "reproduction", "priority"},
		},
		{
			name: "missing summary and priority",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Summary = ""
				b.Priority = ""
				return b
			}(),
			fields: []string{"summary", "priority"},
		},
		{
			name: "whitespace summary is too short",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Summary = "   short    "
				return b
			}(),
			fields: []string{"summary"},
		},
		{
			name: "description without steps or outcomes",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Description = "The checkout endpoint has been failing intermittently since the deploy on Monday."
				return b
			}(),
			fields: []string{"description", "description"},
		},
		{
			name: "description missing actual only",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Description = "1. Open the cart\n2. Pay\nExpected the order to be created but it never shows up."
				return b
			}(),
			fields: []string{"description"},
		},
		{
			name: "inline numbers are not steps",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Description = "Open the cart and pay. See item 1.2 in the runbook. Expected 200, actual 500 response."
				return b
			}(),
			fields: []string{"description"},
		},
		{
			name: "curl without prefix",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.CurlCommand = "wget https://api.example.com/checkout"
				return b
			}(),
			fields: []string{"curlCommand"},
		},
		{
			name: "curl prefix is case sensitive",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.CurlCommand = "CURL https://api.example.com"
				b.TraceID = "trace-1"
				return b
			}(),
			fields: []string{"curlCommand"},
		},
		{
			name: "multibyte summary counts characters",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Summary = "ログイン失敗"
				b.TraceID = "abc"
				return b
			}(),
			fields: []string{"summary"},
		},
		{
			name: "multibyte description counts characters",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Description = "1. ログイン画面を開く\n2. 送信する\nExpected 成功, actual エラー"
				return b
			}(),
			fields: []string{"description"},
		},
		{
			name: "priority is not trimmed",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.Priority = " High "
				return b
			}(),
			fields: []string{"priority"},
		},
		{
			name: "no reproduction evidence",
			ticket: func() models.BugTicket {
				b := completeTicket()
				b.CurlCommand = "  "
				return b
			}(),
			fields: []string{"reproduction"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.ticket)

			assert.False(t, result.IsComplete)
			if diff := cmp.Diff(tt.fields, result.Fields()); diff != "" {
				t.Errorf("missing fields mismatch (-want +got):\n%s", diff)
			}
			assert.GreaterOrEqual(t, len(result.Recommendations), len(result.MissingInformation))
		})
	}
}

func TestValidateShortDescriptionScenario(t *testing.T) {
	result := Validate(models.BugTicket{
		Summary:     "API returns 500 error",
		Description: "When accessing the API, it returns a 500 error.",
		Priority:    "Medium",
	})

	assert.False(t, result.IsComplete)
	assert.Equal(t, []string{"description", "reproduction"}, result.Fields())
	assert.Equal(t, "Please provide a detailed description of at least 50 characters", result.MissingInformation[0].Message)
	assert.Equal(t,
		"Please provide either a curl command that reproduces the issue OR a trace ID/x-request-id",
		result.MissingInformation[1].Message)
}

func TestValidateInvalidPriority(t *testing.T) {
	ticket := completeTicket()
	ticket.Priority = "Super High"

	result := Validate(ticket)

	require.Len(t, result.MissingInformation, 1)
	entry := result.MissingInformation[0]
	assert.Equal(t, "priority", entry.Field)
	assert.Contains(t, entry.Message, `"Super High"`)
	assert.Contains(t, entry.Message, "Highest, High, Medium, Low, Lowest")
}

func TestValidatePriorityIsCaseSensitive(t *testing.T) {
	ticket := completeTicket()
	ticket.Priority = "medium"

	result := Validate(ticket)

	assert.Equal(t, []string{"priority"}, result.Fields())
}
