// Package llmtest provides a scripted llms.Model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// Call records one GenerateContent call.
type Call struct {
	Messages []llms.MessageContent
	Options  llms.CallOptions
}

// Model replies with Responses in order and records every call.
type Model struct {
	mu        sync.Mutex
	Responses []*llms.ContentChoice
	Err       error
	Calls     []Call
}

var _ llms.Model = (*Model)(nil)

// Text returns a choice holding only assistant text.
func Text(content string) *llms.ContentChoice {
	return &llms.ContentChoice{Content: content}
}

// ToolCall returns a choice asking for one tool invocation.
func ToolCall(id, name, arguments string) *llms.ContentChoice {
	return &llms.ContentChoice{
		ToolCalls: []llms.ToolCall{{
			ID:           id,
			Type:         "function",
			FunctionCall: &llms.FunctionCall{Name: name, Arguments: arguments},
		}},
	}
}

func (m *Model) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var opts llms.CallOptions
	for _, o := range options {
		o(&opts)
	}
	history := make([]llms.MessageContent, len(messages))
	copy(history, messages)
	m.Calls = append(m.Calls, Call{Messages: history, Options: opts})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, errors.New("llmtest: no scripted response left")
	}
	next := m.Responses[0]
	m.Responses = m.Responses[1:]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{next}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}
