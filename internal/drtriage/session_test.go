package drtriage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/tuannvm/dr-triage/internal/jira/jiratest"
	"github.com/tuannvm/dr-triage/internal/llm"
	"github.com/tuannvm/dr-triage/internal/llm/llmtest"
	"github.com/tuannvm/dr-triage/internal/tools"
)

const createArgs = `{
	"summary": "Favorites API returns 500",
	"description": "Saving a favorite fails.\n1. Log in\n2. POST /favorites\nExpected: 201 Created. Actual: 500 Internal Server Error.",
	"priority": "High",
	"curlCommand": "curl -X POST https://api.example.com/favorites"
}`

func newSession(t *testing.T, model *llmtest.Model, tracker *jiratest.Tracker, maxSteps int) *Session {
	t.Helper()
	reg, err := tools.NewTriageRegistry(tools.Dependencies{
		Tracker:        tracker,
		DefaultProject: "MAPI",
		IssueType:      "Bug",
	})
	require.NoError(t, err)
	return NewSession(llm.NewClientWithModel(model, testConfig()), reg, maxSteps)
}

func toolResponse(t *testing.T, msg llms.MessageContent) llms.ToolCallResponse {
	t.Helper()
	require.Equal(t, llms.ChatMessageTypeTool, msg.Role)
	require.Len(t, msg.Parts, 1)
	resp, ok := msg.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	return resp
}

func TestSendRunsToolsUntilReply(t *testing.T) {
	tracker := jiratest.NewTracker()
	model := &llmtest.Model{Responses: []*llms.ContentChoice{
		llmtest.ToolCall("call-1", tools.CreateBug, createArgs),
		llmtest.Text("Created MAPI-1, baby!"),
	}}
	s := newSession(t, model, tracker, 0)

	reply, err := s.Send(context.Background(), "The favorites API is broken")
	require.NoError(t, err)
	assert.Equal(t, "Created MAPI-1, baby!", reply)
	require.Len(t, tracker.Creates, 1)

	history := s.History()
	require.Len(t, history, 5)
	assert.Equal(t, llms.ChatMessageTypeSystem, history[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, history[1].Role)
	assert.Equal(t, llms.ChatMessageTypeAI, history[2].Role)

	resp := toolResponse(t, history[3])
	assert.Equal(t, "call-1", resp.ToolCallID)
	assert.Equal(t, tools.CreateBug, resp.Name)
	var result struct {
		Success bool   `json:"success"`
		Key     string `json:"key"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "MAPI-1", result.Key)

	// The second round trip sees the tool output.
	require.Len(t, model.Calls, 2)
	assert.Len(t, model.Calls[1].Messages, 4)
	assert.NotEmpty(t, model.Calls[0].Options.Tools)
}

func TestSendReportsToolErrorsToModel(t *testing.T) {
	model := &llmtest.Model{Responses: []*llms.ContentChoice{
		llmtest.ToolCall("call-1", tools.GetIssue, `{"issueKey":"MAPI-404"}`),
		llmtest.ToolCall("call-2", "launch_rocket", `{}`),
		llmtest.Text("I could not find that ticket."),
	}}
	s := newSession(t, model, jiratest.NewTracker(), 0)

	reply, err := s.Send(context.Background(), "show me MAPI-404")
	require.NoError(t, err)
	assert.Equal(t, "I could not find that ticket.", reply)

	history := s.History()
	require.Len(t, history, 7)
	assert.Contains(t, toolResponse(t, history[3]).Content, `"error"`)
	assert.Contains(t, toolResponse(t, history[5]).Content, "unknown tool")
}

func TestSendStepLimit(t *testing.T) {
	model := &llmtest.Model{Responses: []*llms.ContentChoice{
		llmtest.ToolCall("call-1", tools.PrepareBugTicket, `{}`),
		llmtest.ToolCall("call-2", tools.PrepareBugTicket, `{}`),
		llmtest.Text("never reached"),
	}}
	s := newSession(t, model, jiratest.NewTracker(), 2)

	_, err := s.Send(context.Background(), "loop forever")
	assert.ErrorIs(t, err, ErrStepLimit)
	assert.Len(t, model.Calls, 2)
}

func TestSendGeneratorError(t *testing.T) {
	model := &llmtest.Model{Err: errors.New("rate limit exceeded")}
	s := newSession(t, model, jiratest.NewTracker(), 0)

	_, err := s.Send(context.Background(), "hello")
	assert.ErrorContains(t, err, "rate limit exceeded")
}

func TestGreeting(t *testing.T) {
	assert.Contains(t, greetings, Greeting())
}
