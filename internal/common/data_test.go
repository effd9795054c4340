package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/dr-triage/internal/models"
)

func TestExtractToolRequest(t *testing.T) {
	tests := []struct {
		name     string
		parts    []protocol.Part
		wantTool string
		wantArgs string
	}{
		{
			name: "data part pointer",
			parts: []protocol.Part{&protocol.DataPart{Type: "data", Data: map[string]interface{}{
				"tool":      "get_issue",
				"arguments": map[string]interface{}{"issueKey": "MAPI-89"},
			}}},
			wantTool: "get_issue",
			wantArgs: `{"issueKey":"MAPI-89"}`,
		},
		{
			name: "data part value with struct",
			parts: []protocol.Part{protocol.DataPart{Type: "data", Data: models.ToolRequest{
				Tool:      "prepare_bug_ticket",
				Arguments: json.RawMessage(`{"summary":"Checkout fails"}`),
			}}},
			wantTool: "prepare_bug_ticket",
			wantArgs: `{"summary":"Checkout fails"}`,
		},
		{
			name:     "text part with aliases",
			parts:    []protocol.Part{protocol.NewTextPart(`{"name":"get_bug_tickets","args":{"status":"Open"}}`)},
			wantTool: "get_bug_tickets",
			wantArgs: `{"status":"Open"}`,
		},
		{
			name: "first usable part wins",
			parts: []protocol.Part{
				protocol.NewTextPart("please run a tool"),
				protocol.NewTextPart(`{"tool":"prepare_bug_ticket"}`),
			},
			wantTool: "prepare_bug_ticket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ExtractToolRequest(protocol.Message{Parts: tt.parts})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTool, req.Tool)
			if tt.wantArgs == "" {
				assert.Empty(t, req.Arguments)
			} else {
				assert.JSONEq(t, tt.wantArgs, string(req.Arguments))
			}
		})
	}
}

func TestExtractToolRequestErrors(t *testing.T) {
	_, err := ExtractToolRequest(protocol.Message{})
	assert.ErrorContains(t, err, "no parts")

	_, err = ExtractToolRequest(protocol.Message{Parts: []protocol.Part{protocol.NewTextPart("hello")}})
	assert.ErrorContains(t, err, "not a JSON object")

	_, err = ExtractToolRequest(protocol.Message{Parts: []protocol.Part{protocol.NewTextPart(`{"arguments":{}}`)}})
	assert.ErrorContains(t, err, "no tool name")
}

func TestToolResponseRoundTrip(t *testing.T) {
	msg, err := ToolResponseMessage(models.ToolResponse{
		Tool:   "create_bug",
		Result: map[string]interface{}{"key": "MAPI-1"},
	})
	require.NoError(t, err)
	require.Len(t, msg.Parts, 2)

	resp, err := ExtractToolResponse(msg.Parts)
	require.NoError(t, err)
	assert.Equal(t, "create_bug", resp.Tool)
	assert.Equal(t, map[string]interface{}{"key": "MAPI-1"}, resp.Result)

	// Text-only clients see the same payload.
	resp, err = ExtractToolResponse(msg.Parts[1:])
	require.NoError(t, err)
	assert.Equal(t, "create_bug", resp.Tool)

	_, err = ExtractToolResponse(nil)
	assert.Error(t, err)
}

func TestToolRequestMessage(t *testing.T) {
	msg, err := ToolRequestMessage("get_issue", map[string]string{"issueKey": "MAPI-7"})
	require.NoError(t, err)

	req, err := ExtractToolRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, "get_issue", req.Tool)
	assert.JSONEq(t, `{"issueKey":"MAPI-7"}`, string(req.Arguments))
}
