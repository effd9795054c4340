package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

// ExtractToolRequest finds the tool request in a message. It accepts a
// DataPart holding {"tool": ..., "arguments": {...}} or a TextPart with the
// same object as JSON text. "name" and "args" are accepted as aliases.
func ExtractToolRequest(message protocol.Message) (*models.ToolRequest, error) {
	if len(message.Parts) == 0 {
		return nil, errors.New("message has no parts")
	}

	var lastErr error
	for _, part := range message.Parts {
		raw, ok := partJSON(part)
		if !ok {
			continue
		}
		req, err := toolRequestFromJSON(raw)
		if err == nil {
			return req, nil
		}
		log.Debugf("Skipping message part: %v", err)
		lastErr = err
	}

	if lastErr != nil {
		return nil, fmt.Errorf("could not extract tool request from message: %w", lastErr)
	}
	return nil, errors.New("could not extract tool request from message")
}

// partJSON returns the JSON carried by a data or text part.
func partJSON(part protocol.Part) ([]byte, bool) {
	var dp *protocol.DataPart
	switch v := part.(type) {
	case protocol.DataPart:
		dp = &v
	case *protocol.DataPart:
		dp = v
	}
	if dp != nil && dp.Data != nil {
		raw, err := json.Marshal(dp.Data)
		if err != nil {
			log.Debugf("Failed to marshal DataPart.Data: %v", err)
			return nil, false
		}
		return raw, true
	}

	var text string
	switch v := part.(type) {
	case protocol.TextPart:
		text = v.Text
	case *protocol.TextPart:
		if v != nil {
			text = v.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	return []byte(text), true
}

func toolRequestFromJSON(raw []byte) (*models.ToolRequest, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("part is not a JSON object: %w", err)
	}

	name, ok := GetStringValue(data, "tool", "name")
	if !ok {
		return nil, errors.New("no tool name found in data")
	}

	req := &models.ToolRequest{Tool: name}
	for _, key := range []string{"arguments", "args"} {
		if args, ok := data[key]; ok && args != nil {
			encoded, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("encode arguments: %w", err)
			}
			req.Arguments = encoded
			break
		}
	}
	return req, nil
}

// ToolResponseMessage wraps a response as a message with a data part and a
// text part, so clients that only read text still see the JSON.
func ToolResponseMessage(resp models.ToolResponse) (*protocol.Message, error) {
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool response: %w", err)
	}
	dataPart := protocol.DataPart{
		Type: "data",
		Data: resp,
		Metadata: map[string]interface{}{
			"content-type": "application/json",
		},
	}
	textPart := protocol.NewTextPart(string(body))
	return &protocol.Message{
		Parts: []protocol.Part{&dataPart, textPart},
	}, nil
}

// ExtractToolResponse reads a ToolResponse back out of message parts.
func ExtractToolResponse(parts []protocol.Part) (*models.ToolResponse, error) {
	for _, part := range parts {
		raw, ok := partJSON(part)
		if !ok {
			continue
		}
		var resp models.ToolResponse
		if err := json.Unmarshal(raw, &resp); err == nil && (resp.Tool != "" || resp.Error != "") {
			return &resp, nil
		}
	}
	return nil, errors.New("no tool response found in message")
}
