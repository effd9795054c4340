package models

// Priority is the Jira priority of a bug ticket.
type Priority string

const (
	PriorityHighest Priority = "Highest"
	PriorityHigh    Priority = "High"
	PriorityMedium  Priority = "Medium"
	PriorityLow     Priority = "Low"
	PriorityLowest  Priority = "Lowest"
)

// Priorities lists the accepted priorities from highest to lowest.
var Priorities = []Priority{PriorityHighest, PriorityHigh, PriorityMedium, PriorityLow, PriorityLowest}

// Valid reports whether p is one of Priorities. Matching is case-sensitive.
func (p Priority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// BugTicket is a candidate bug report as supplied by a user or an LLM.
type BugTicket struct {
	Summary          string   `json:"summary,omitempty" jsonschema:"description=Short title of the bug (at least 10 characters)"`
	Description      string   `json:"description,omitempty" jsonschema:"description=Detailed description with steps to reproduce and expected vs actual behavior"`
	Priority         string   `json:"priority,omitempty" jsonschema:"enum=Highest,enum=High,enum=Medium,enum=Low,enum=Lowest"`
	CurlCommand      string   `json:"curlCommand,omitempty" jsonschema:"description=curl command that reproduces the issue"`
	TraceID          string   `json:"traceId,omitempty" jsonschema:"description=Trace ID or x-request-id from the logs"`
	Assignee         string   `json:"assignee,omitempty" jsonschema:"description=Account ID of the assignee"`
	Component        string   `json:"component,omitempty"`
	AdditionalLabels []string `json:"additionalLabels,omitempty" jsonschema:"description=Extra labels; mcp and potential-issue are always added"`
}

// MissingInformation describes one unmet requirement of a BugTicket.
type MissingInformation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating a BugTicket.
type ValidationResult struct {
	IsComplete         bool                 `json:"isComplete"`
	MissingInformation []MissingInformation `json:"missingInformation"`
	Recommendations    []string             `json:"recommendations"`
}

// Fields returns the field names of the missing information entries in order.
func (r ValidationResult) Fields() []string {
	fields := make([]string, 0, len(r.MissingInformation))
	for _, m := range r.MissingInformation {
		fields = append(fields, m.Field)
	}
	return fields
}

// SubmissionResult is returned by create_bug. A rejected ticket carries the
// validation result and no key.
type SubmissionResult struct {
	Success          bool              `json:"success"`
	Key              string            `json:"key,omitempty"`
	ID               string            `json:"id,omitempty"`
	Self             string            `json:"self,omitempty"`
	URL              string            `json:"url,omitempty"`
	Message          string            `json:"message,omitempty"`
	Error            string            `json:"error,omitempty"`
	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
}

// Rejected reports whether the ticket never reached the tracker because it
// failed validation.
func (r *SubmissionResult) Rejected() bool {
	return r != nil && !r.Success && r.ValidationResult != nil
}

// DuplicateOutcome is the per-ticket result of marking duplicates.
type DuplicateOutcome struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Renamed bool   `json:"renamed,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarkDuplicatesResult is the batch result of marking duplicates.
type MarkDuplicatesResult struct {
	PrimaryTicket string             `json:"primaryTicket"`
	Results       []DuplicateOutcome `json:"results"`
}

// Failed counts the unsuccessful outcomes.
func (r MarkDuplicatesResult) Failed() int {
	n := 0
	for _, o := range r.Results {
		if !o.Success {
			n++
		}
	}
	return n
}

// BugSummary is a search hit as returned to tool callers.
type BugSummary struct {
	Key         string   `json:"key"`
	Summary     string   `json:"summary"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Assignee    string   `json:"assignee,omitempty"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// BugSearchResult is the result of get_bug_tickets and search_similar_defects.
type BugSearchResult struct {
	JQL      string       `json:"jql"`
	Total    int          `json:"total"`
	Returned int          `json:"returned"`
	Issues   []BugSummary `json:"issues"`
	Mock     bool         `json:"mock,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// ReviewOutcome is the result of reviewing an existing ticket.
type ReviewOutcome struct {
	Key        string           `json:"key"`
	Validation ValidationResult `json:"validation"`
	Commented  bool             `json:"commented"`
	CommentURL string           `json:"commentUrl,omitempty"`
}
