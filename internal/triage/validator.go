// Package triage holds the bug ticket workflows: validation, submission,
// duplicate marking, search and review of existing tickets.
package triage

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/tuannvm/dr-triage/internal/models"
)

const (
	minSummaryLength     = 10
	minDescriptionLength = 50
	curlPrefix           = "curl "
)

var (
	reproPhrase   = regexp.MustCompile(`(?i)steps to reproduce|reproduction steps`)
	numberedStep  = regexp.MustCompile(`(?m)^\d+\. `)
	expectedWord  = regexp.MustCompile(`(?i)\bexpected\b`)
	actualWord    = regexp.MustCompile(`(?i)\bactual\b`)
	priorityNames = joinPriorities()
)

func joinPriorities() string {
	names := make([]string, len(models.Priorities))
	for i, p := range models.Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

type resultBuilder struct {
	result models.ValidationResult
}

func (b *resultBuilder) miss(field, message string, recommendations ...string) {
	b.result.MissingInformation = append(b.result.MissingInformation, models.MissingInformation{
		Field:   field,
		Message: message,
	})
	b.result.Recommendations = append(b.result.Recommendations, recommendations...)
}

// Validate checks a bug ticket for completeness. Every rule is evaluated so
// the result lists all unmet requirements at once.
func Validate(ticket models.BugTicket) models.ValidationResult {
	b := &resultBuilder{result: models.ValidationResult{
		MissingInformation: []models.MissingInformation{},
		Recommendations:    []string{},
	}}

	if utf8.RuneCountInString(strings.TrimSpace(ticket.Summary)) < minSummaryLength {
		b.miss("summary",
			"Please provide a descriptive summary of at least 10 characters",
			"Add a clear and concise summary that describes the issue")
	}

	validateDescription(b, strings.TrimSpace(ticket.Description))
	validateReproduction(b, ticket)
	validatePriority(b, ticket.Priority)

	b.result.IsComplete = len(b.result.MissingInformation) == 0
	return b.result
}

func validateDescription(b *resultBuilder, description string) {
	if utf8.RuneCountInString(description) < minDescriptionLength {
		b.miss("description",
			"Please provide a detailed description of at least 50 characters",
			"Describe the issue in detail, including steps to reproduce and expected vs actual behavior")
		return
	}

	if !reproPhrase.MatchString(description) && !numberedStep.MatchString(description) {
		b.miss("description",
			"Please include steps to reproduce the issue in the description",
			"Add numbered steps to reproduce the issue")
	}

	if !expectedWord.MatchString(description) || !actualWord.MatchString(description) {
		b.miss("description",
			"Please include expected and actual behavior in the description",
			"Clearly state what was expected to happen and what actually happened")
	}
}

func validateReproduction(b *resultBuilder, ticket models.BugTicket) {
	curlCommand := strings.TrimSpace(ticket.CurlCommand)
	hasCurl := curlCommand != ""
	hasTrace := strings.TrimSpace(ticket.TraceID) != ""

	if !hasCurl && !hasTrace {
		b.miss("reproduction",
			"Please provide either a curl command that reproduces the issue OR a trace ID/x-request-id",
			"Add a curl command with proper headers and payload",
			"If curl is not possible, provide the trace ID from the logs")
	}

	if hasCurl && !strings.HasPrefix(curlCommand, curlPrefix) {
		b.miss("curlCommand",
			"The curl command must start with 'curl '",
			"Provide the complete curl command, for example: curl -X GET https://api.example.com/resource")
	}
}

// validatePriority requires an exact, case-sensitive match. Surrounding
// whitespace is not stripped.
func validatePriority(b *resultBuilder, priority string) {
	if strings.TrimSpace(priority) == "" {
		b.miss("priority",
			fmt.Sprintf("Please specify a priority (%s)", priorityNames),
			"Choose the priority that matches the impact of the issue")
		return
	}
	if !models.Priority(priority).Valid() {
		b.miss("priority",
			fmt.Sprintf("Invalid priority %q. Valid values are: %s", priority, priorityNames),
			fmt.Sprintf("Use one of: %s", priorityNames))
	}
}
