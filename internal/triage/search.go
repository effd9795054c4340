package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

// SearchFields are the issue fields requested for bug search hits.
var SearchFields = []string{"summary", "description", "status", "priority", "assignee", "labels"}

// SearchQuery selects bugs. Empty fields fall back to the searcher defaults.
type SearchQuery struct {
	ProjectKey string
	Status     string
	Text       string
	MaxResults int
}

// SearchOptions configure a Searcher.
type SearchOptions struct {
	DefaultProject string
	DefaultStatus  string
	// MockFallback returns canned bugs when a search has no hits. Demo use only.
	MockFallback bool
}

// Searcher finds bug tickets with JQL.
type Searcher struct {
	tracker jira.JiraClientInterface
	opts    SearchOptions
}

// NewSearcher creates a Searcher.
func NewSearcher(tracker jira.JiraClientInterface, opts SearchOptions) *Searcher {
	return &Searcher{tracker: tracker, opts: opts}
}

// Search runs the query and converts the hits to bug summaries.
func (s *Searcher) Search(ctx context.Context, q SearchQuery) (*models.BugSearchResult, error) {
	project := strings.TrimSpace(q.ProjectKey)
	if project == "" {
		project = s.opts.DefaultProject
	}
	if project != "" {
		exists, err := s.tracker.ProjectExists(ctx, project)
		if err != nil {
			return nil, err
		}
		if !exists {
			log.Warnf("Project %s not found, searching all projects", project)
			project = ""
		}
	}

	status := strings.TrimSpace(q.Status)
	if status == "" {
		status = s.opts.DefaultStatus
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = defaultMaxResults
	}
	if limit > maxMaxResults {
		limit = maxMaxResults
	}

	jql := BuildJQL(project, status, strings.TrimSpace(q.Text))
	log.Debugf("Searching bugs: %s", jql)

	page, err := s.tracker.SearchIssues(ctx, jql, models.SearchOptions{
		Fields:     SearchFields,
		MaxResults: limit,
	})
	if err != nil {
		return nil, err
	}

	result := &models.BugSearchResult{
		JQL:    jql,
		Total:  page.Total,
		Issues: make([]models.BugSummary, 0, len(page.Issues)),
	}
	for _, issue := range page.Issues {
		result.Issues = append(result.Issues, models.BugSummary{
			Key:         issue.Key,
			Summary:     issue.Summary,
			Status:      issue.Status,
			Priority:    issue.Priority,
			Assignee:    issue.Assignee,
			Description: issue.Description,
			Labels:      issue.Labels,
			URL:         issue.URL,
		})
	}

	if len(result.Issues) == 0 && s.opts.MockFallback {
		log.Warnf("No bugs matched %q, returning mock data", jql)
		result.Issues = mockBugs(project, status)
		result.Total = len(result.Issues)
		result.Mock = true
		result.Message = "No matching bugs were found. These are MOCK tickets for demonstration only."
	}

	result.Returned = len(result.Issues)
	return result, nil
}

// BuildJQL composes the bug search query. Values are quoted.
func BuildJQL(project, status, text string) string {
	clauses := []string{"issuetype = Bug"}
	if project != "" {
		clauses = append(clauses, "project = "+quoteJQL(project))
	}
	if status != "" {
		clauses = append(clauses, "status = "+quoteJQL(status))
	}
	if text != "" {
		clauses = append(clauses, "text ~ "+quoteJQL(text))
	}
	return strings.Join(clauses, " AND ") + " ORDER BY created DESC"
}

func quoteJQL(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

var mockTemplates = []models.BugSummary{
	{
		Key:         "MOCK-1",
		Summary:     "Login fails with 500 after password reset",
		Status:      "Open",
		Priority:    "High",
		Description: "1. Reset the password\n2. Log in with the new password\nExpected: dashboard. Actual: 500 error.",
	},
	{
		Key:         "MOCK-2",
		Summary:     "Search results are not paginated",
		Status:      "In Progress",
		Priority:    "Medium",
		Description: "Searching for a common term returns every match on one page.",
	},
	{
		Key:         "MOCK-3",
		Summary:     "Profile image upload times out",
		Status:      "Open",
		Priority:    "Low",
		Description: "Uploading images larger than 2MB times out after 30 seconds.",
	},
}

func mockBugs(project, status string) []models.BugSummary {
	bugs := make([]models.BugSummary, 0, len(mockTemplates))
	for i, tmpl := range mockTemplates {
		if status != "" && !strings.EqualFold(tmpl.Status, status) {
			continue
		}
		bug := tmpl
		bug.Summary = "[MOCK] " + bug.Summary
		if project != "" {
			bug.Key = fmt.Sprintf("%s-%d", project, i+1)
		}
		bugs = append(bugs, bug)
	}
	return bugs
}
