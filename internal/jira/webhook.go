package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Webhook event names sent by Jira.
const (
	EventIssueCreated = "jira:issue_created"
	EventIssueUpdated = "jira:issue_updated"
)

// WebhookPayload is the subset of a Jira webhook body the triage agent reads
type WebhookPayload struct {
	Timestamp    int64        `json:"timestamp"`
	WebhookEvent string       `json:"webhookEvent"`
	Issue        WebhookIssue `json:"issue"`
	User         WebhookUser  `json:"user"`
	Changelog    *Changelog   `json:"changelog,omitempty"`
}

// WebhookIssue represents a Jira issue in the webhook
type WebhookIssue struct {
	ID     string       `json:"id"`
	Self   string       `json:"self"`
	Key    string       `json:"key"`
	Fields IssueSnippet `json:"fields"`
}

// IssueSnippet holds the issue fields used to route a webhook.
type IssueSnippet struct {
	Summary   string   `json:"summary"`
	Labels    []string `json:"labels"`
	IssueType struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Project struct {
		Key string `json:"key"`
	} `json:"project"`
}

// WebhookUser represents the Jira user who triggered the event
type WebhookUser struct {
	AccountID    string `json:"accountId"`
	Name         string `json:"name"`
	EmailAddress string `json:"emailAddress"`
	DisplayName  string `json:"displayName"`
}

// Changelog represents changes made in a Jira issue update
type Changelog struct {
	ID    string          `json:"id"`
	Items []ChangelogItem `json:"items"`
}

// ChangelogItem represents a single change in a Jira changelog
type ChangelogItem struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// WebhookRequest is the normalized form of a Jira webhook.
type WebhookRequest struct {
	TicketID   string            `json:"ticketId"`
	Event      string            `json:"event"` // "created", "updated", "deleted", ...
	IssueType  string            `json:"issueType"`
	ProjectKey string            `json:"projectKey"`
	Summary    string            `json:"summary"`
	Labels     []string          `json:"labels,omitempty"`
	UserName   string            `json:"userName"`
	Changes    map[string]string `json:"changes,omitempty"`
	Timestamp  string            `json:"timestamp"`
}

// IsBug reports whether the webhook concerns an issue of type Bug.
func (w *WebhookRequest) IsBug() bool {
	return strings.EqualFold(w.IssueType, "Bug")
}

// TransformJiraWebhook converts a standard Jira webhook payload to a WebhookRequest
func TransformJiraWebhook(payload []byte) (*WebhookRequest, error) {
	var hook WebhookPayload
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	if hook.Issue.Key == "" {
		return nil, errors.New("webhook payload has no issue key")
	}

	req := &WebhookRequest{
		TicketID:   hook.Issue.Key,
		Event:      eventType(hook.WebhookEvent),
		IssueType:  hook.Issue.Fields.IssueType.Name,
		ProjectKey: hook.Issue.Fields.Project.Key,
		Summary:    hook.Issue.Fields.Summary,
		Labels:     hook.Issue.Fields.Labels,
		UserName:   firstNonEmpty(hook.User.DisplayName, hook.User.Name, hook.User.AccountID),
	}

	// Older payloads omit the project; derive it from the key ("JRA" from "JRA-20002").
	if req.ProjectKey == "" {
		if i := strings.LastIndex(req.TicketID, "-"); i > 0 {
			req.ProjectKey = req.TicketID[:i]
		}
	}

	if hook.Timestamp > 0 {
		req.Timestamp = time.UnixMilli(hook.Timestamp).UTC().Format(time.RFC3339)
	} else {
		req.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if hook.Changelog != nil && len(hook.Changelog.Items) > 0 {
		req.Changes = make(map[string]string, len(hook.Changelog.Items))
		for _, item := range hook.Changelog.Items {
			req.Changes[item.Field] = item.ToString
		}
	}

	return req, nil
}

// eventType extracts the simplified event type from the full webhook event
func eventType(webhookEvent string) string {
	switch webhookEvent {
	case EventIssueCreated:
		return "created"
	case EventIssueUpdated:
		return "updated"
	case "jira:issue_deleted":
		return "deleted"
	default:
		if _, after, ok := strings.Cut(webhookEvent, ":"); ok {
			return after
		}
		return webhookEvent
	}
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
