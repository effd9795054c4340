package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/tuannvm/dr-triage/internal/config"
	"github.com/tuannvm/dr-triage/internal/llm/llmtest"
	"github.com/tuannvm/dr-triage/internal/tools"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMProvider:    "openai",
		LLMModel:       "gpt-4o",
		LLMMaxTokens:   512,
		LLMTemperature: 0.2,
		LLMTimeout:     5,
	}
}

func TestNewModelProviders(t *testing.T) {
	for _, provider := range []string{"openai", "azure", "anthropic"} {
		t.Run(provider, func(t *testing.T) {
			cfg := testConfig()
			cfg.LLMProvider = provider
			cfg.LLMAPIKey = "test-key"
			cfg.LLMServiceURL = "https://llm.example.com/v1"
			model, err := NewModel(cfg)
			require.NoError(t, err)
			assert.NotNil(t, model)
		})
	}

	cfg := testConfig()
	cfg.LLMProvider = "palm"
	_, err := NewModel(cfg)
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(testConfig())
	assert.ErrorContains(t, err, "LLM_API_KEY")
}

func TestGeneratePassesOptions(t *testing.T) {
	model := &llmtest.Model{Responses: []*llms.ContentChoice{llmtest.Text("hello")}}
	client := NewClientWithModel(model, testConfig())

	reg, err := tools.NewTriageRegistry(tools.Dependencies{})
	require.NoError(t, err)
	defs := ToolDefinitions(reg)

	choice, err := client.Generate(context.Background(),
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, "hi")}, defs)
	require.NoError(t, err)
	assert.Equal(t, "hello", choice.Content)

	require.Len(t, model.Calls, 1)
	opts := model.Calls[0].Options
	assert.Equal(t, 512, opts.MaxTokens)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)
	require.Len(t, opts.Tools, 1)
	assert.Equal(t, tools.PrepareBugTicket, opts.Tools[0].Function.Name)
}

func TestGenerateErrors(t *testing.T) {
	model := &llmtest.Model{Err: errors.New("rate limited")}
	client := NewClientWithModel(model, testConfig())
	_, err := client.Generate(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "rate limited")

	var empty Client
	_, err = empty.Generate(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestComplete(t *testing.T) {
	model := &llmtest.Model{Responses: []*llms.ContentChoice{llmtest.Text("done")}}
	client := NewClientWithModel(model, testConfig())
	got, err := client.Complete(context.Background(), "summarize")
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestTruncateForLogging(t *testing.T) {
	assert.Equal(t, "short", truncateForLogging("short"))
	long := strings.Repeat("x", 600)
	got := truncateForLogging(long)
	assert.True(t, strings.HasSuffix(got, "... [truncated]"))
	assert.Len(t, got, 500+len("... [truncated]"))
}
