package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

// IncompleteTicketMessage is returned when create_bug receives a ticket that
// fails validation.
const IncompleteTicketMessage = "Bug ticket information is incomplete. Please use prepare_bug_ticket to validate the information first."

// SubmitRequest is a ticket plus an optional target project.
type SubmitRequest struct {
	Ticket     models.BugTicket
	ProjectKey string
}

// Submitter validates bug tickets and creates the complete ones in Jira.
type Submitter struct {
	tracker        jira.JiraClientInterface
	defaultProject string
	issueType      string
}

// NewSubmitter creates a Submitter. defaultProject is used when a request
// names no project.
func NewSubmitter(tracker jira.JiraClientInterface, defaultProject, issueType string) *Submitter {
	return &Submitter{
		tracker:        tracker,
		defaultProject: defaultProject,
		issueType:      issueType,
	}
}

// Submit validates the ticket and creates it. A ticket that fails validation
// is returned as a rejected result without touching Jira. Tracker failures are
// reported in the result. The only error returned is *ConfigurationError.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*models.SubmissionResult, error) {
	validation := Validate(req.Ticket)
	if !validation.IsComplete {
		log.Infof("Rejected bug ticket %q: %d missing items", req.Ticket.Summary, len(validation.MissingInformation))
		return &models.SubmissionResult{
			Success:          false,
			Message:          IncompleteTicketMessage,
			ValidationResult: &validation,
		}, nil
	}

	projectKey := strings.TrimSpace(req.ProjectKey)
	if projectKey == "" {
		projectKey = s.defaultProject
	}
	if projectKey == "" {
		return nil, &ConfigurationError{
			Setting: "jira.project_key",
			Message: "no project key given and JIRA_PROJECT_KEY is not set",
		}
	}

	fields := models.IssueFields{
		Summary:     strings.TrimSpace(req.Ticket.Summary),
		Description: EnrichDescription(req.Ticket),
		IssueType:   s.issueType,
		Priority:    strings.TrimSpace(req.Ticket.Priority),
		Assignee:    strings.TrimSpace(req.Ticket.Assignee),
		Component:   strings.TrimSpace(req.Ticket.Component),
		Labels:      LabelSet(req.Ticket.AdditionalLabels),
	}

	created, err := s.tracker.CreateIssue(ctx, projectKey, fields)
	if err != nil {
		log.Errorf("Failed to create bug in %s: %v", projectKey, err)
		return &models.SubmissionResult{
			Success: false,
			Error:   err.Error(),
		}, nil
	}

	log.Infof("Created bug %s in project %s", created.Key, projectKey)
	return &models.SubmissionResult{
		Success: true,
		Key:     created.Key,
		ID:      created.ID,
		Self:    created.Self,
		URL:     created.URL,
		Message: fmt.Sprintf("Bug ticket created successfully with key: %s", created.Key),
	}, nil
}
