// Package jiratest provides an in-memory Jira tracker for tests.
package jiratest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tuannvm/dr-triage/internal/jira"
	"github.com/tuannvm/dr-triage/internal/models"
)

// BaseURL is the site used for the URLs the fake returns.
const BaseURL = "https://jira.example.com"

// CreateCall records one CreateIssue call.
type CreateCall struct {
	Project string
	Fields  models.IssueFields
}

// Link records one LinkIssues call.
type Link struct {
	Type, From, To string
}

// Tracker is an in-memory jira.JiraClientInterface. Error maps are keyed by
// issue key.
type Tracker struct {
	mu sync.Mutex

	Issues   map[string]*models.JiraTicket
	Projects map[string]bool

	Creates  []CreateCall
	Updates  map[string][]models.IssueUpdate
	Links    []Link
	Comments map[string][]string
	Searches []string

	CreateErr  error
	GetErr     map[string]error
	UpdateErr  map[string]error
	LinkErr    map[string]error
	SearchHits []models.JiraTicket
}

var _ jira.JiraClientInterface = (*Tracker)(nil)

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		Issues:    map[string]*models.JiraTicket{},
		Projects:  map[string]bool{},
		Updates:   map[string][]models.IssueUpdate{},
		Comments:  map[string][]string{},
		GetErr:    map[string]error{},
		UpdateErr: map[string]error{},
		LinkErr:   map[string]error{},
	}
}

// AddIssue stores an issue with the given summary.
func (f *Tracker) AddIssue(key, summary string) *models.JiraTicket {
	f.mu.Lock()
	defer f.mu.Unlock()
	issue := &models.JiraTicket{Key: key, Summary: summary, URL: BaseURL + "/browse/" + key}
	f.Issues[key] = issue
	return issue
}

// Summary returns the current summary of an issue.
func (f *Tracker) Summary(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if issue, ok := f.Issues[key]; ok {
		return issue.Summary
	}
	return ""
}

func (f *Tracker) CreateIssue(_ context.Context, projectKey string, fields models.IssueFields) (*models.CreatedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Creates = append(f.Creates, CreateCall{Project: projectKey, Fields: fields})
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	key := fmt.Sprintf("%s-%d", projectKey, len(f.Creates))
	f.Issues[key] = &models.JiraTicket{
		Key:         key,
		Summary:     fields.Summary,
		Description: fields.Description,
		Priority:    fields.Priority,
		Labels:      fields.Labels,
		URL:         BaseURL + "/browse/" + key,
	}
	return &models.CreatedIssue{
		ID:   fmt.Sprint(1000 + len(f.Creates)),
		Key:  key,
		Self: BaseURL + "/rest/api/2/issue/" + key,
		URL:  BaseURL + "/browse/" + key,
	}, nil
}

func (f *Tracker) GetIssue(_ context.Context, key string, _ []string) (*models.JiraTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.GetErr[key]; err != nil {
		return nil, err
	}
	issue, ok := f.Issues[key]
	if !ok {
		return nil, &jira.TrackerError{Op: "get issue", Key: key, StatusCode: 404, Err: fmt.Errorf("issue does not exist")}
	}
	cp := *issue
	return &cp, nil
}

func (f *Tracker) UpdateIssue(_ context.Context, key string, update models.IssueUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.UpdateErr[key]; err != nil {
		return err
	}
	issue, ok := f.Issues[key]
	if !ok {
		return &jira.TrackerError{Op: "update issue", Key: key, StatusCode: 404}
	}
	f.Updates[key] = append(f.Updates[key], update)
	if update.Summary != "" {
		issue.Summary = update.Summary
	}
	if update.Description != "" {
		issue.Description = update.Description
	}
	return nil
}

func (f *Tracker) LinkIssues(_ context.Context, linkType, fromKey, toKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.LinkErr[fromKey]; err != nil {
		return err
	}
	f.Links = append(f.Links, Link{Type: linkType, From: fromKey, To: toKey})
	return nil
}

func (f *Tracker) SearchIssues(_ context.Context, jql string, opts models.SearchOptions) (*models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Searches = append(f.Searches, jql)
	hits := f.SearchHits
	if opts.MaxResults > 0 && len(hits) > opts.MaxResults {
		hits = hits[:opts.MaxResults]
	}
	return &models.SearchResult{Total: len(f.SearchHits), Issues: hits}, nil
}

func (f *Tracker) ProjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Projects[strings.ToUpper(key)], nil
}

func (f *Tracker) PostComment(_ context.Context, key, body string) (*models.JiraComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Comments[key] = append(f.Comments[key], body)
	id := fmt.Sprint(len(f.Comments[key]))
	return &models.JiraComment{
		ID:   id,
		Body: body,
		URL:  BaseURL + "/browse/" + key + "?focusedCommentId=" + id,
	}, nil
}
