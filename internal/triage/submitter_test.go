package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/dr-triage/internal/jira"
	"github.com/tuannvm/dr-triage/internal/jira/jiratest"
	"github.com/tuannvm/dr-triage/internal/models"
)

func TestSubmitIncompleteNeverCreates(t *testing.T) {
	tracker := jiratest.NewTracker()
	submitter := NewSubmitter(tracker, "MAPI", "Bug")

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: models.BugTicket{
		Summary:     "API returns 500 error",
		Description: "When accessing the API, it returns a 500 error.",
		Priority:    "Medium",
	}})
	require.NoError(t, err)

	assert.True(t, result.Rejected())
	assert.False(t, result.Success)
	assert.Equal(t, IncompleteTicketMessage, result.Message)
	assert.Equal(t, []string{"description", "reproduction"}, result.ValidationResult.Fields())
	assert.Empty(t, tracker.Creates)
}

func TestSubmitIncompleteWithoutProjectIsStillRejected(t *testing.T) {
	tracker := jiratest.NewTracker()
	submitter := NewSubmitter(tracker, "", "Bug")

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: models.BugTicket{}})
	require.NoError(t, err)

	assert.True(t, result.Rejected())
	assert.Empty(t, tracker.Creates)
}

func TestSubmitCreatesEnrichedTicket(t *testing.T) {
	tracker := jiratest.NewTracker()
	submitter := NewSubmitter(tracker, "MAPI", "Bug")

	ticket := completeTicket()
	ticket.TraceID = "trace-1"
	ticket.Component = "web"
	ticket.Assignee = "5b10a2844c20165700ede21g"
	ticket.AdditionalLabels = []string{"checkout", "mcp"}

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: ticket})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Rejected())
	assert.Equal(t, "MAPI-1", result.Key)
	assert.Equal(t, "https://jira.example.com/browse/MAPI-1", result.URL)
	assert.Equal(t, "Bug ticket created successfully with key: MAPI-1", result.Message)

	require.Len(t, tracker.Creates, 1)
	call := tracker.Creates[0]
	assert.Equal(t, "MAPI", call.Project)
	assert.Equal(t, "Bug", call.Fields.IssueType)
	assert.Equal(t, "High", call.Fields.Priority)
	assert.Equal(t, "web", call.Fields.Component)
	assert.Equal(t, ticket.Assignee, call.Fields.Assignee)
	assert.Equal(t, []string{"checkout", "mcp", "potential-issue"}, call.Fields.Labels)
	assert.Equal(t, EnrichDescription(ticket), call.Fields.Description)
}

func TestSubmitExplicitProjectWins(t *testing.T) {
	tracker := jiratest.NewTracker()
	submitter := NewSubmitter(tracker, "MAPI", "Bug")

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: completeTicket(), ProjectKey: "WEB"})
	require.NoError(t, err)

	assert.Equal(t, "WEB-1", result.Key)
	assert.Equal(t, "WEB", tracker.Creates[0].Project)
}

func TestSubmitWithoutProjectKey(t *testing.T) {
	tracker := jiratest.NewTracker()
	submitter := NewSubmitter(tracker, "", "Bug")

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: completeTicket()})

	assert.Nil(t, result)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "jira.project_key", cfgErr.Setting)
	assert.Empty(t, tracker.Creates)
}

func TestSubmitTrackerFailure(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.CreateErr = &jira.TrackerError{Op: "create issue", Key: "MAPI", StatusCode: 401, Err: errors.New("unauthorized")}
	submitter := NewSubmitter(tracker, "MAPI", "Bug")

	result, err := submitter.Submit(context.Background(), SubmitRequest{Ticket: completeTicket()})
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.False(t, result.Rejected())
	assert.Equal(t, tracker.CreateErr.Error(), result.Error)
	assert.Len(t, tracker.Creates, 1, "tracker failures are not retried")
}
