package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	v2 "github.com/ctreminiom/go-atlassian/v2/jira/v2"
	atlassian "github.com/ctreminiom/go-atlassian/v2/pkg/infra/models"

	"github.com/tuannvm/dr-triage/internal/config"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

// Client talks to the Jira REST API v2 through go-atlassian.
type Client struct {
	baseURL   string
	issueType string
	instance  *v2.Client
}

// NewClient creates a new Jira client from the Jira section of the configuration
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.JiraBaseURL == "" {
		return nil, errors.New("jira base URL is not configured (JIRA_BASE_URL or JIRA_HOST)")
	}
	if cfg.JiraUsername == "" || cfg.JiraAPIToken == "" {
		return nil, errors.New("jira credentials are not configured (JIRA_USERNAME and JIRA_API_TOKEN)")
	}

	instance, err := v2.New(&http.Client{Timeout: 30 * time.Second}, cfg.JiraBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}
	instance.Auth.SetBasicAuth(cfg.JiraUsername, cfg.JiraAPIToken)

	issueType := cfg.JiraIssueType
	if issueType == "" {
		issueType = "Bug"
	}

	return &Client{
		baseURL:   cfg.JiraBaseURL,
		issueType: issueType,
		instance:  instance,
	}, nil
}

// BrowseURL returns the human-facing URL of an issue.
func (c *Client) BrowseURL(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}

// CreateIssue creates an issue in the given project
func (c *Client) CreateIssue(ctx context.Context, projectKey string, fields models.IssueFields) (*models.CreatedIssue, error) {
	issueType := fields.IssueType
	if issueType == "" {
		issueType = c.issueType
	}

	payload := &atlassian.IssueSchemeV2{
		Fields: &atlassian.IssueFieldsSchemeV2{
			Summary:     fields.Summary,
			Description: fields.Description,
			Project:     &atlassian.ProjectScheme{Key: projectKey},
			IssueType:   &atlassian.IssueTypeScheme{Name: issueType},
			Labels:      fields.Labels,
		},
	}
	if fields.Priority != "" {
		payload.Fields.Priority = &atlassian.PriorityScheme{Name: fields.Priority}
	}
	if fields.Assignee != "" {
		payload.Fields.Assignee = &atlassian.UserScheme{AccountID: fields.Assignee}
	}
	if fields.Component != "" {
		payload.Fields.Components = []*atlassian.ComponentScheme{{Name: fields.Component}}
	}

	log.Debugf("Creating %s in project %s: %s", issueType, projectKey, fields.Summary)
	created, response, err := c.instance.Issue.Create(ctx, payload, nil)
	if err != nil {
		return nil, trackerError("create issue", projectKey, response, err)
	}

	return &models.CreatedIssue{
		ID:   created.ID,
		Key:  created.Key,
		Self: created.Self,
		URL:  c.BrowseURL(created.Key),
	}, nil
}

// GetIssue fetches an issue by key, limited to the requested fields
func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*models.JiraTicket, error) {
	issue, response, err := c.instance.Issue.Get(ctx, key, fields, nil)
	if err != nil {
		return nil, trackerError("get issue", key, response, err)
	}
	return c.toTicket(issue), nil
}

// UpdateIssue applies a partial update to an issue without notifying watchers
func (c *Client) UpdateIssue(ctx context.Context, key string, update models.IssueUpdate) error {
	payload := &atlassian.IssueSchemeV2{
		Fields: &atlassian.IssueFieldsSchemeV2{
			Summary:     update.Summary,
			Description: update.Description,
			Labels:      update.Labels,
		},
	}
	response, err := c.instance.Issue.Update(ctx, key, false, payload, nil, nil)
	if err != nil {
		return trackerError("update issue", key, response, err)
	}
	return nil
}

// LinkIssues links fromKey (inward) to toKey (outward) with the named link type
func (c *Client) LinkIssues(ctx context.Context, linkType, fromKey, toKey string) error {
	payload := &atlassian.LinkPayloadSchemeV2{
		Type:         &atlassian.LinkTypeScheme{Name: linkType},
		InwardIssue:  &atlassian.LinkedIssueScheme{Key: fromKey},
		OutwardIssue: &atlassian.LinkedIssueScheme{Key: toKey},
	}
	response, err := c.instance.Issue.Link.Create(ctx, payload)
	if err != nil {
		return trackerError("link issues", fromKey, response, err)
	}
	return nil
}

// SearchIssues runs a JQL query
func (c *Client) SearchIssues(ctx context.Context, jql string, opts models.SearchOptions) (*models.SearchResult, error) {
	page, response, err := c.instance.Issue.Search.Post(ctx, jql, opts.Fields, nil, opts.StartAt, opts.MaxResults, "")
	if err != nil {
		return nil, trackerError("search issues", "", response, err)
	}

	result := &models.SearchResult{Total: page.Total}
	for _, issue := range page.Issues {
		result.Issues = append(result.Issues, *c.toTicket(issue))
	}
	return result, nil
}

// ProjectExists reports whether a project with the key is visible to the caller
func (c *Client) ProjectExists(ctx context.Context, key string) (bool, error) {
	_, response, err := c.instance.Project.Get(ctx, key, nil)
	if err == nil {
		return true, nil
	}
	if response != nil && response.Code == http.StatusNotFound {
		return false, nil
	}
	return false, trackerError("get project", key, response, err)
}

// PostComment posts a comment to a Jira ticket
func (c *Client) PostComment(ctx context.Context, key, body string) (*models.JiraComment, error) {
	comment, response, err := c.instance.Issue.Comment.Add(ctx, key, &atlassian.CommentPayloadSchemeV2{Body: body}, nil)
	if err != nil {
		return nil, trackerError("add comment", key, response, err)
	}

	return &models.JiraComment{
		ID:   comment.ID,
		Body: comment.Body,
		URL:  fmt.Sprintf("%s?focusedCommentId=%s", c.BrowseURL(key), comment.ID),
	}, nil
}

func (c *Client) toTicket(issue *atlassian.IssueSchemeV2) *models.JiraTicket {
	ticket := &models.JiraTicket{
		ID:  issue.ID,
		Key: issue.Key,
		URL: c.BrowseURL(issue.Key),
	}
	f := issue.Fields
	if f == nil {
		return ticket
	}

	ticket.Summary = f.Summary
	ticket.Description = f.Description
	ticket.Labels = f.Labels
	if f.Status != nil {
		ticket.Status = f.Status.Name
	}
	if f.Priority != nil {
		ticket.Priority = f.Priority.Name
	}
	if f.Assignee != nil {
		ticket.Assignee = f.Assignee.DisplayName
	}
	if f.IssueType != nil {
		ticket.IssueType = f.IssueType.Name
	}
	if f.Project != nil {
		ticket.ProjectKey = f.Project.Key
	}
	for _, link := range f.IssueLinks {
		if link == nil {
			continue
		}
		var jl models.JiraLink
		if link.Type != nil {
			jl.Type = link.Type.Name
		}
		if link.InwardIssue != nil {
			jl.InwardIssue = link.InwardIssue.Key
		}
		if link.OutwardIssue != nil {
			jl.OutwardIssue = link.OutwardIssue.Key
		}
		ticket.Links = append(ticket.Links, jl)
	}
	return ticket
}

func trackerError(op, key string, response *atlassian.ResponseScheme, err error) error {
	te := &TrackerError{Op: op, Key: key, Err: err}
	if response != nil {
		te.StatusCode = response.Code
	}
	log.Debugf("%v", te)
	return te
}
