package triage

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

var reviewFields = []string{"summary", "description", "priority", "labels", "issuetype", "status"}

var (
	fencedCurl = regexp.MustCompile("(?s)```(?:bash|sh|shell)?[ \t]*\n(curl .*?)\n?```")
	wikiCurl   = regexp.MustCompile(`(?s)\{code(?::[a-z]+)?\}\s*(curl .*?)\s*\{code\}`)
	lineCurl   = regexp.MustCompile(`(?m)^[ \t]*(curl .+)$`)
	traceLine  = regexp.MustCompile(`(?i)(?:trace[ _-]?id|x-request-id)\**\s*:\**\s*([A-Za-z0-9._-]+)`)
)

// Reviewer checks existing tickets against the validation rules and asks the
// reporter for whatever is missing.
type Reviewer struct {
	tracker jira.JiraClientInterface
}

// NewReviewer creates a Reviewer.
func NewReviewer(tracker jira.JiraClientInterface) *Reviewer {
	return &Reviewer{tracker: tracker}
}

// Review validates the ticket with the given key. When the ticket is
// incomplete and postComment is set, a comment listing the gaps is added.
func (r *Reviewer) Review(ctx context.Context, key string, postComment bool) (*models.ReviewOutcome, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("issue key is required")
	}

	issue, err := r.tracker.GetIssue(ctx, key, reviewFields)
	if err != nil {
		return nil, err
	}

	outcome := &models.ReviewOutcome{
		Key:        issue.Key,
		Validation: Validate(TicketFromIssue(issue)),
	}
	if outcome.Key == "" {
		outcome.Key = key
	}

	if outcome.Validation.IsComplete || !postComment {
		return outcome, nil
	}

	comment, err := r.tracker.PostComment(ctx, outcome.Key, ReviewComment(outcome.Validation))
	if err != nil {
		return nil, err
	}
	log.Infof("Posted review comment on %s: %s", outcome.Key, comment.URL)
	outcome.Commented = true
	outcome.CommentURL = comment.URL
	return outcome, nil
}

// TicketFromIssue rebuilds a BugTicket from a Jira issue. Reproduction
// evidence is read back out of the description.
func TicketFromIssue(issue *models.JiraTicket) models.BugTicket {
	return models.BugTicket{
		Summary:     issue.Summary,
		Description: issue.Description,
		Priority:    issue.Priority,
		CurlCommand: extractCurl(issue.Description),
		TraceID:     extractTraceID(issue.Description),
	}
}

func extractCurl(description string) string {
	for _, re := range []*regexp.Regexp{fencedCurl, wikiCurl, lineCurl} {
		if m := re.FindStringSubmatch(description); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func extractTraceID(description string) string {
	if m := traceLine.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	return ""
}

// ReviewComment renders the Jira comment for an incomplete ticket.
func ReviewComment(result models.ValidationResult) string {
	var sb strings.Builder

	sb.WriteString("*Dr. Triage Review*\n\n")
	sb.WriteString("This bug report is missing information the team needs to investigate it:\n\n")

	sb.WriteString("*Missing Information:*\n")
	for _, m := range result.MissingInformation {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", m.Field, m.Message))
	}

	if len(result.Recommendations) > 0 {
		sb.WriteString("\n*Recommendations:*\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", rec))
		}
	}

	sb.WriteString("\nPlease update the ticket with the missing information.")
	return sb.String()
}
