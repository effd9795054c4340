package common

import (
	"context"
	"encoding/json"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/client"
	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/dr-triage/internal/config"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
)

// SetupA2AClient creates and configures an A2A client with appropriate authentication
func SetupA2AClient(cfg *config.Config, targetURL string) (*client.A2AClient, error) {
	var a2aClient *client.A2AClient
	var err error

	switch cfg.AuthType {
	case "apikey":
		log.Infof("Using API key authentication for A2A client (API key length: %d)", len(cfg.APIKey))
		a2aClient, err = client.NewA2AClient(targetURL, client.WithAPIKeyAuth(cfg.APIKey, "X-API-Key"))
	case "jwt":
		log.Warnf("JWT tokens are not issued by this client; sending unauthenticated requests")
		a2aClient, err = client.NewA2AClient(targetURL)
	default:
		a2aClient, err = client.NewA2AClient(targetURL)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create A2A client: %w", err)
	}

	return a2aClient, nil
}

// ToolRequestMessage builds the message that asks the triage agent to run a tool.
func ToolRequestMessage(tool string, args any) (protocol.Message, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	dataPart := protocol.DataPart{
		Type: "data",
		Data: models.ToolRequest{Tool: tool, Arguments: raw},
		Metadata: map[string]interface{}{
			"content-type": "application/json",
		},
	}
	return protocol.Message{
		Parts: []protocol.Part{&dataPart},
	}, nil
}

// SendTask synchronously sends a task via JSON-RPC and returns the consolidated Message.
func SendTask(ctx context.Context, a2aClient *client.A2AClient, params protocol.SendTaskParams) (protocol.Message, error) {
	task, err := a2aClient.SendTasks(ctx, params)
	if err != nil {
		return protocol.Message{}, fmt.Errorf("SendTasks RPC failed: %w", err)
	}
	var parts []protocol.Part
	if task.Status.Message != nil {
		parts = append(parts, task.Status.Message.Parts...)
	}
	for _, art := range task.Artifacts {
		parts = append(parts, art.Parts...)
	}
	return protocol.Message{Parts: parts}, nil
}
