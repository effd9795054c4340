package models

import "encoding/json"

// ToolRequest is the payload an A2A client sends to the triage agent: the
// name of a tool and its JSON arguments.
type ToolRequest struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolResponse is the payload the triage agent returns for a ToolRequest.
type ToolResponse struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JiraTicket represents a Jira issue fetched from Jira API
type JiraTicket struct {
	ID          string     `json:"id"`
	Key         string     `json:"key"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	IssueType   string     `json:"issueType,omitempty"`
	ProjectKey  string     `json:"projectKey,omitempty"`
	Labels      []string   `json:"labels,omitempty"`
	Links       []JiraLink `json:"links,omitempty"`
	URL         string     `json:"url,omitempty"`
}

// JiraLink represents a Jira issue link
type JiraLink struct {
	Type         string `json:"type"`
	InwardIssue  string `json:"inwardIssue,omitempty"`
	OutwardIssue string `json:"outwardIssue,omitempty"`
}

// JiraComment represents a comment posted to Jira
type JiraComment struct {
	ID      string `json:"id"`
	Body    string `json:"body"`
	Created string `json:"created,omitempty"`
	Author  string `json:"author,omitempty"`
	URL     string `json:"url,omitempty"`
}

// IssueFields are the fields sent when creating an issue.
type IssueFields struct {
	Summary     string
	Description string
	IssueType   string
	Priority    string
	Assignee    string
	Component   string
	Labels      []string
}

// CreatedIssue identifies an issue the tracker has just created.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
	URL  string `json:"url"`
}

// IssueUpdate is a partial update. Empty fields are left untouched.
type IssueUpdate struct {
	Summary     string
	Description string
	Labels      []string
}

// SearchOptions bound a tracker search.
type SearchOptions struct {
	Fields     []string
	StartAt    int
	MaxResults int
}

// SearchResult is one page of tracker search hits.
type SearchResult struct {
	Total  int          `json:"total"`
	Issues []JiraTicket `json:"issues"`
}
