package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tuannvm/dr-triage/internal/config"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends a prompt to the LLM and returns the completion
	Complete(ctx context.Context, prompt string) (string, error)
	// Generate runs one chat turn with the given tools available
	Generate(ctx context.Context, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error)
}

// Client implements the LLMClient interface using langchain-go
type Client struct {
	llm         llms.Model
	maxTokens   int
	temperature float64
	timeout     time.Duration
}

// NewModel initializes the langchain-go model for the configured provider.
func NewModel(cfg *config.Config) (llms.Model, error) {
	var llmModel llms.Model
	var err error

	switch cfg.LLMProvider {
	case "openai":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
	case "azure":
		llmModel, err = openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
			openai.WithBaseURL(cfg.LLMServiceURL),
		)
	case "anthropic":
		opts := []anthropic.Option{
			anthropic.WithToken(cfg.LLMAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		}
		if cfg.LLMServiceURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.LLMServiceURL))
		}
		llmModel, err = anthropic.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}
	return llmModel, nil
}

// NewClient creates a new LLM client based on the provided configuration
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM API key is not configured (set LLM_API_KEY)")
	}
	llmModel, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	return NewClientWithModel(llmModel, cfg), nil
}

// NewClientWithModel wraps an already constructed model.
func NewClientWithModel(model llms.Model, cfg *config.Config) *Client {
	timeout := time.Duration(cfg.LLMTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		llm:         model,
		maxTokens:   cfg.LLMMaxTokens,
		temperature: cfg.LLMTemperature,
		timeout:     timeout,
	}
}

// Complete sends a prompt to the LLM and returns the completion
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.llm == nil {
		return "", errors.New("LLM client not initialized")
	}

	log.Infof("Sending prompt to LLM: %s", truncateForLogging(prompt))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, c.callOptions(nil)...)
	if err != nil {
		return "", fmt.Errorf("LLM generation failed: %w", err)
	}

	log.Infof("Received response from LLM: %s", truncateForLogging(completion))

	return completion, nil
}

// Generate sends the conversation to the LLM and returns the first choice.
func (c *Client) Generate(ctx context.Context, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error) {
	if c.llm == nil {
		return nil, errors.New("LLM client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Debugf("Sending %d messages to LLM with %d tools", len(messages), len(defs))
	resp, err := c.llm.GenerateContent(ctx, messages, c.callOptions(defs)...)
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("LLM returned no choices")
	}

	choice := resp.Choices[0]
	log.Debugf("Received response from LLM (%d tool calls): %s", len(choice.ToolCalls), truncateForLogging(choice.Content))
	return choice, nil
}

func (c *Client) callOptions(defs []llms.Tool) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	if len(defs) > 0 {
		opts = append(opts, llms.WithTools(defs))
	}
	return opts
}

// ToolDefinitions describes the registry's tools as LLM function tools.
func ToolDefinitions(reg *tools.Registry) []llms.Tool {
	var defs []llms.Tool
	for _, t := range reg.Tools() {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return defs
}

// truncateForLogging truncates a string to a reasonable length for logging
func truncateForLogging(s string) string {
	const maxLength = 500
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + "... [truncated]"
}
