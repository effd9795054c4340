// Package drtriage runs the Dr. Triage conversation: an LLM that files and
// triages bug tickets by calling the triage tools.
package drtriage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/tuannvm/dr-triage/internal/llm"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

// DefaultMaxSteps bounds the model round trips of a single Send.
const DefaultMaxSteps = 8

// ErrStepLimit is returned when the model keeps calling tools past the limit.
var ErrStepLimit = errors.New("dr. triage: too many tool steps without a reply")

// Generator is the part of llm.LLMClient a session needs.
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error)
}

// Session is one conversation. It is not safe for concurrent use.
type Session struct {
	gen      Generator
	reg      *tools.Registry
	defs     []llms.Tool
	history  []llms.MessageContent
	maxSteps int
}

// NewSession starts a conversation using the tools in reg. A maxSteps of zero
// or less selects DefaultMaxSteps.
func NewSession(gen Generator, reg *tools.Registry, maxSteps int) *Session {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Session{
		gen:      gen,
		reg:      reg,
		defs:     llm.ToolDefinitions(reg),
		history:  []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt)},
		maxSteps: maxSteps,
	}
}

// History returns the messages exchanged so far, system prompt first.
func (s *Session) History() []llms.MessageContent {
	out := make([]llms.MessageContent, len(s.history))
	copy(out, s.history)
	return out
}

// Send adds the developer's message and returns the assistant's reply,
// running any tools the model asks for along the way.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	s.history = append(s.history, llms.TextParts(llms.ChatMessageTypeHuman, text))

	for step := 0; step < s.maxSteps; step++ {
		choice, err := s.gen.Generate(ctx, s.history, s.defs)
		if err != nil {
			return "", err
		}

		if len(choice.ToolCalls) == 0 {
			s.history = append(s.history, llms.TextParts(llms.ChatMessageTypeAI, choice.Content))
			return choice.Content, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		s.history = append(s.history, assistant)

		for _, call := range choice.ToolCalls {
			s.history = append(s.history, llms.MessageContent{
				Role:  llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{s.invoke(ctx, call)},
			})
		}
	}
	return "", ErrStepLimit
}

// invoke runs one tool call. Failures are reported back to the model as an
// error object so it can recover.
func (s *Session) invoke(ctx context.Context, call llms.ToolCall) llms.ToolCallResponse {
	resp := llms.ToolCallResponse{ToolCallID: call.ID}
	if call.FunctionCall == nil {
		resp.Content = errorContent(errors.New("tool call has no function"))
		return resp
	}
	resp.Name = call.FunctionCall.Name

	log.Infof("Dr. Triage calls %s", call.FunctionCall.Name)
	result, err := s.reg.Call(ctx, call.FunctionCall.Name, json.RawMessage(call.FunctionCall.Arguments))
	if err != nil {
		log.Warnf("Tool %s failed: %v", call.FunctionCall.Name, err)
		resp.Content = errorContent(err)
		return resp
	}

	body, err := json.Marshal(result)
	if err != nil {
		resp.Content = errorContent(fmt.Errorf("encode result: %w", err))
		return resp
	}
	resp.Content = string(body)
	return resp
}

func errorContent(err error) string {
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(body)
}
