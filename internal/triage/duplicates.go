package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

const (
	// DuplicatePrefix is prepended to the summary of a potential duplicate.
	DuplicatePrefix = "[potential duplicate] "
	// RelatesLinkType is the Jira link type whose inward name is "relates to".
	RelatesLinkType = "Relates"
)

// DuplicateMarker renames and links tickets that duplicate a primary ticket.
type DuplicateMarker struct {
	tracker jira.JiraClientInterface
}

// NewDuplicateMarker creates a DuplicateMarker.
func NewDuplicateMarker(tracker jira.JiraClientInterface) *DuplicateMarker {
	return &DuplicateMarker{tracker: tracker}
}

// MarkDuplicates processes each duplicate in order. A failure on one ticket is
// recorded in its outcome and does not stop the others.
func (m *DuplicateMarker) MarkDuplicates(ctx context.Context, primaryKey string, duplicateKeys []string) models.MarkDuplicatesResult {
	primaryKey = strings.TrimSpace(primaryKey)
	result := models.MarkDuplicatesResult{
		PrimaryTicket: primaryKey,
		Results:       make([]models.DuplicateOutcome, 0, len(duplicateKeys)),
	}

	for _, raw := range duplicateKeys {
		key := strings.TrimSpace(raw)
		outcome := models.DuplicateOutcome{Key: key}

		renamed, err := m.markOne(ctx, primaryKey, key)
		outcome.Renamed = renamed
		if err != nil {
			log.Warnf("Failed to mark %q as duplicate of %s: %v", key, primaryKey, err)
			outcome.Error = err.Error()
		} else {
			outcome.Success = true
		}
		result.Results = append(result.Results, outcome)
	}

	log.Infof("Marked duplicates of %s: %d processed, %d failed", primaryKey, len(result.Results), result.Failed())
	return result
}

func (m *DuplicateMarker) markOne(ctx context.Context, primaryKey, key string) (bool, error) {
	switch {
	case primaryKey == "":
		return false, errors.New("primary ticket key is empty")
	case key == "":
		return false, errors.New("duplicate ticket key is empty")
	case key == primaryKey:
		return false, fmt.Errorf("%s cannot be a duplicate of itself", key)
	}

	issue, err := m.tracker.GetIssue(ctx, key, []string{"summary"})
	if err != nil {
		return false, err
	}

	renamed := false
	if !strings.HasPrefix(issue.Summary, DuplicatePrefix) {
		if err := m.tracker.UpdateIssue(ctx, key, models.IssueUpdate{Summary: DuplicatePrefix + issue.Summary}); err != nil {
			return false, err
		}
		renamed = true
	}

	if err := m.tracker.LinkIssues(ctx, RelatesLinkType, key, primaryKey); err != nil {
		return renamed, err
	}
	return renamed, nil
}
