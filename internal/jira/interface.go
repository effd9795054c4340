package jira

import (
	"context"
	"fmt"

	"github.com/tuannvm/dr-triage/internal/models"
)

// JiraClientInterface defines the operations the triage workflows need from Jira
type JiraClientInterface interface {
	CreateIssue(ctx context.Context, projectKey string, fields models.IssueFields) (*models.CreatedIssue, error)
	GetIssue(ctx context.Context, key string, fields []string) (*models.JiraTicket, error)
	UpdateIssue(ctx context.Context, key string, update models.IssueUpdate) error
	LinkIssues(ctx context.Context, linkType, fromKey, toKey string) error
	SearchIssues(ctx context.Context, jql string, opts models.SearchOptions) (*models.SearchResult, error)
	ProjectExists(ctx context.Context, key string) (bool, error)
	PostComment(ctx context.Context, key, body string) (*models.JiraComment, error)
}

// TrackerError wraps any failure returned by the Jira API.
type TrackerError struct {
	Op         string
	Key        string
	StatusCode int
	Err        error
}

func (e *TrackerError) Error() string {
	msg := "jira " + e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TrackerError) Unwrap() error { return e.Err }
