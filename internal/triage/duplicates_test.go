package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannvm/dr-triage/internal/jira/jiratest"
	"github.com/tuannvm/dr-triage/internal/models"
)

func TestMarkDuplicates(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.AddIssue("MAPI-93", "Favorites API times out")
	tracker.AddIssue("MAPI-96", DuplicatePrefix+"Favorites endpoint slow")

	marker := NewDuplicateMarker(tracker)
	result := marker.MarkDuplicates(context.Background(), "MAPI-89", []string{"MAPI-93", "MAPI-96"})

	assert.Equal(t, "MAPI-89", result.PrimaryTicket)
	assert.Equal(t, []models.DuplicateOutcome{
		{Key: "MAPI-93", Success: true, Renamed: true},
		{Key: "MAPI-96", Success: true},
	}, result.Results)

	assert.Equal(t, DuplicatePrefix+"Favorites API times out", tracker.Summary("MAPI-93"))
	assert.Empty(t, tracker.Updates["MAPI-96"])
	assert.Equal(t, []jiratest.Link{
		{Type: "Relates", From: "MAPI-93", To: "MAPI-89"},
		{Type: "Relates", From: "MAPI-96", To: "MAPI-89"},
	}, tracker.Links)
}

func TestMarkDuplicatesIsIdempotent(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.AddIssue("MAPI-93", "Favorites API times out")
	marker := NewDuplicateMarker(tracker)

	marker.MarkDuplicates(context.Background(), "MAPI-89", []string{"MAPI-93"})
	second := marker.MarkDuplicates(context.Background(), "MAPI-89", []string{"MAPI-93"})

	assert.Equal(t, DuplicatePrefix+"Favorites API times out", tracker.Summary("MAPI-93"))
	assert.Len(t, tracker.Updates["MAPI-93"], 1)
	assert.False(t, second.Results[0].Renamed)
	assert.Len(t, tracker.Links, 2, "links are created on every run")
}

func TestMarkDuplicatesPartialFailure(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.AddIssue("MAPI-93", "First duplicate")
	tracker.AddIssue("MAPI-96", "Second duplicate")
	tracker.AddIssue("MAPI-103", "Third duplicate")
	tracker.UpdateErr["MAPI-96"] = errors.New("field summary cannot be set")
	tracker.LinkErr["MAPI-103"] = errors.New("link type not found")

	marker := NewDuplicateMarker(tracker)
	result := marker.MarkDuplicates(context.Background(), "MAPI-89",
		[]string{"MAPI-93", "MAPI-404", "MAPI-96", "", "MAPI-103"})

	require.Len(t, result.Results, 5)
	assert.True(t, result.Results[0].Success)

	assert.False(t, result.Results[1].Success)
	assert.Contains(t, result.Results[1].Error, "MAPI-404")

	assert.False(t, result.Results[2].Success)
	assert.Equal(t, "field summary cannot be set", result.Results[2].Error)

	assert.False(t, result.Results[3].Success)
	assert.Equal(t, "duplicate ticket key is empty", result.Results[3].Error)

	assert.False(t, result.Results[4].Success)
	assert.True(t, result.Results[4].Renamed)
	assert.Equal(t, "link type not found", result.Results[4].Error)

	assert.Equal(t, 4, result.Failed())
	assert.Equal(t, []jiratest.Link{{Type: "Relates", From: "MAPI-93", To: "MAPI-89"}}, tracker.Links)
}

func TestMarkDuplicatesWithoutPrimary(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.AddIssue("MAPI-93", "First duplicate")

	result := NewDuplicateMarker(tracker).MarkDuplicates(context.Background(), " ", []string{"MAPI-93"})

	require.Len(t, result.Results, 1)
	assert.False(t, result.Results[0].Success)
	assert.Empty(t, tracker.Updates)
	assert.Empty(t, tracker.Links)
}

func TestMarkDuplicatesSelfReference(t *testing.T) {
	tracker := jiratest.NewTracker()
	tracker.AddIssue("MAPI-89", "Primary")
	tracker.AddIssue("MAPI-93", "Duplicate")

	result := NewDuplicateMarker(tracker).MarkDuplicates(context.Background(), "MAPI-89", []string{"MAPI-89", "MAPI-93"})

	require.Len(t, result.Results, 2)
	assert.False(t, result.Results[0].Success)
	assert.Equal(t, "MAPI-89 cannot be a duplicate of itself", result.Results[0].Error)
	assert.True(t, result.Results[1].Success)
	assert.Equal(t, "Primary", tracker.Summary("MAPI-89"))
	assert.Empty(t, tracker.Updates["MAPI-89"])
	assert.Equal(t, []jiratest.Link{{Type: "Relates", From: "MAPI-93", To: "MAPI-89"}}, tracker.Links)
}
