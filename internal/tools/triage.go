package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/tuannvm/dr-triage/internal/config"
	"github.com/tuannvm/dr-triage/internal/curl"
	"github.com/tuannvm/dr-triage/internal/jira"
	"github.com/tuannvm/dr-triage/internal/models"
	"github.com/tuannvm/dr-triage/internal/triage"
)

// Tool names.
const (
	PrepareBugTicket        = "prepare_bug_ticket"
	CreateBug               = "create_bug"
	MarkPotentialDuplicates = "mark_potential_duplicates"
	GetIssue                = "get_issue"
	GetBugTickets           = "get_bug_tickets"
	SearchSimilarDefects    = "search_similar_defects"
	ReviewBugTicket         = "review_bug_ticket"
	RunCurlCommand          = "run_curl_command"
)

// CreateBugArgs are the arguments of create_bug.
type CreateBugArgs struct {
	models.BugTicket
	ProjectKey string `json:"projectKey,omitempty" jsonschema:"description=Jira project key. Defaults to JIRA_PROJECT_KEY"`
}

// MarkDuplicatesArgs are the arguments of mark_potential_duplicates.
type MarkDuplicatesArgs struct {
	PrimaryTicket    string   `json:"primaryTicket" jsonschema:"required,description=Key of the ticket the others duplicate"`
	DuplicateTickets []string `json:"duplicateTickets" jsonschema:"required,minItems=1"`
}

// IssueArgs identify a single issue.
type IssueArgs struct {
	IssueKey string `json:"issueKey" jsonschema:"required,description=Jira issue key such as MAPI-89"`
}

// SearchArgs are the arguments of get_bug_tickets.
type SearchArgs struct {
	ProjectKey string `json:"projectKey,omitempty"`
	Status     string `json:"status,omitempty" jsonschema:"description=Workflow status such as Open or In Progress"`
	Text       string `json:"text,omitempty" jsonschema:"description=Free text matched against summary and description"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"minimum=1,maximum=50"`
}

// SimilarDefectsArgs are the arguments of search_similar_defects.
type SimilarDefectsArgs struct {
	Text       string `json:"text" jsonschema:"required,description=Symptoms or error message of the defect"`
	ProjectKey string `json:"projectKey,omitempty"`
}

// ReviewArgs are the arguments of review_bug_ticket.
type ReviewArgs struct {
	IssueKey string `json:"issueKey" jsonschema:"required"`
	Comment  bool   `json:"comment,omitempty" jsonschema:"description=Post a comment on the ticket when information is missing"`
}

// CurlArgs are the arguments of run_curl_command.
type CurlArgs struct {
	CurlCommand string `json:"curlCommand" jsonschema:"required,description=curl command that reproduces the defect"`
	Description string `json:"description,omitempty" jsonschema:"description=Short description of the defect for the report"`
}

// PrepareResult is the result of prepare_bug_ticket.
type PrepareResult struct {
	models.ValidationResult
	NextStep string `json:"nextStep"`
}

// CurlResult is the result of run_curl_command.
type CurlResult struct {
	*curl.Result
	Markdown string `json:"markdown"`
}

// Dependencies wire the triage tools. A nil Tracker leaves out the tools that
// need Jira; a nil Curl leaves out run_curl_command.
type Dependencies struct {
	Tracker        jira.JiraClientInterface
	DefaultProject string
	IssueType      string
	DefaultStatus  string
	MockFallback   bool
	Curl           *curl.Runner
}

// DependenciesFromConfig fills Dependencies from the triage and Jira settings.
func DependenciesFromConfig(cfg *config.Config, tracker jira.JiraClientInterface) Dependencies {
	return Dependencies{
		Tracker:        tracker,
		DefaultProject: cfg.JiraProjectKey,
		IssueType:      cfg.JiraIssueType,
		DefaultStatus:  cfg.DefaultStatus,
		MockFallback:   cfg.SearchMockFallback,
		Curl:           curl.NewRunner(cfg.CurlTimeout),
	}
}

// NewTriageRegistry returns a registry holding TriageTools(d).
func NewTriageRegistry(d Dependencies) (*Registry, error) {
	return NewRegistry(TriageTools(d)...)
}

// TriageTools builds the triage tool set.
func TriageTools(d Dependencies) []Tool {
	tools := []Tool{
		New(PrepareBugTicket,
			"Validate a bug ticket before creating it. Returns missing information and recommendations.",
			true, prepareBugTicket),
	}

	if d.Tracker != nil {
		submitter := triage.NewSubmitter(d.Tracker, d.DefaultProject, d.IssueType)
		marker := triage.NewDuplicateMarker(d.Tracker)
		searcher := triage.NewSearcher(d.Tracker, triage.SearchOptions{
			DefaultProject: d.DefaultProject,
			DefaultStatus:  d.DefaultStatus,
			MockFallback:   d.MockFallback,
		})
		reviewer := triage.NewReviewer(d.Tracker)

		tools = append(tools,
			New(CreateBug,
				"Create a bug ticket in Jira. The ticket is validated first and the labels mcp and potential-issue are always added.",
				false, func(ctx context.Context, args CreateBugArgs) (any, error) {
					return submitter.Submit(ctx, triage.SubmitRequest{Ticket: args.BugTicket, ProjectKey: args.ProjectKey})
				}),
			New(MarkPotentialDuplicates,
				"Mark tickets as potential duplicates of a primary ticket: prefix their titles and link them with 'relates to'.",
				false, func(ctx context.Context, args MarkDuplicatesArgs) (any, error) {
					if strings.TrimSpace(args.PrimaryTicket) == "" {
						return nil, &ArgumentError{Tool: MarkPotentialDuplicates, Err: errors.New("primaryTicket is required")}
					}
					return marker.MarkDuplicates(ctx, args.PrimaryTicket, args.DuplicateTickets), nil
				}),
			New(GetIssue,
				"Fetch a Jira issue by key.",
				true, func(ctx context.Context, args IssueArgs) (any, error) {
					if strings.TrimSpace(args.IssueKey) == "" {
						return nil, &ArgumentError{Tool: GetIssue, Err: errors.New("issueKey is required")}
					}
					return d.Tracker.GetIssue(ctx, strings.TrimSpace(args.IssueKey), nil)
				}),
			New(GetBugTickets,
				"List bug tickets, optionally filtered by project, status and text.",
				true, func(ctx context.Context, args SearchArgs) (any, error) {
					return searcher.Search(ctx, triage.SearchQuery{
						ProjectKey: args.ProjectKey,
						Status:     args.Status,
						Text:       args.Text,
						MaxResults: args.MaxResults,
					})
				}),
			New(SearchSimilarDefects,
				"Search open bugs that match the symptoms of a defect, to spot duplicates before filing.",
				true, func(ctx context.Context, args SimilarDefectsArgs) (any, error) {
					if strings.TrimSpace(args.Text) == "" {
						return nil, &ArgumentError{Tool: SearchSimilarDefects, Err: errors.New("text is required")}
					}
					return searcher.Search(ctx, triage.SearchQuery{
						ProjectKey: args.ProjectKey,
						Status:     "Open",
						Text:       args.Text,
					})
				}),
			New(ReviewBugTicket,
				"Validate an existing Jira bug and optionally comment with the missing information.",
				false, func(ctx context.Context, args ReviewArgs) (any, error) {
					return reviewer.Review(ctx, args.IssueKey, args.Comment)
				}),
		)
	}

	if d.Curl != nil {
		runner := d.Curl
		tools = append(tools, New(RunCurlCommand,
			"Run a curl command that reproduces an API defect and render a defect report. An x-request-id header is added when missing.",
			false, func(ctx context.Context, args CurlArgs) (any, error) {
				result, err := runner.Run(ctx, args.CurlCommand)
				if errors.Is(err, curl.ErrNotCurl) {
					return nil, &ArgumentError{Tool: RunCurlCommand, Err: err}
				}
				if err != nil {
					return nil, err
				}
				return &CurlResult{
					Result:   result,
					Markdown: curl.DefectMarkdown(args.Description, result.Command, result.Output, result.RequestID),
				}, nil
			}))
	}

	return tools
}

func prepareBugTicket(_ context.Context, ticket models.BugTicket) (any, error) {
	result := PrepareResult{ValidationResult: triage.Validate(ticket)}
	if result.IsComplete {
		result.NextStep = "The bug ticket is complete. Use create_bug to submit it."
	} else {
		result.NextStep = "Ask the reporter for the missing information, then validate again."
	}
	return result, nil
}
