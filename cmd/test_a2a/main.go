package main

import (
	"context"
	"encoding/json"
	"time"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"

	"github.com/tuannvm/dr-triage/internal/common"
	"github.com/tuannvm/dr-triage/internal/config"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
	"github.com/tuannvm/dr-triage/internal/tools"
)

// Smoke test for a running triage agent
func main() {
	defer log.Sync()

	cfg := config.NewConfig()

	a2aClient, err := common.SetupA2AClient(cfg, cfg.AgentURL)
	if err != nil {
		log.Fatalf("Failed to create A2A client: %v", err)
	}

	testCases := []struct {
		name     string
		tool     string
		args     any
		expectOK bool
	}{
		{
			name: "Complete ticket",
			tool: tools.PrepareBugTicket,
			args: models.BugTicket{
				Summary:     "Favorites API returns 500 on save",
				Description: "Saving a favorite fails.\n1. Log in\n2. POST /favorites\nExpected: 201 Created. Actual: 500 Internal Server Error.",
				Priority:    "High",
				CurlCommand: "curl -X POST https://api.example.com/favorites",
			},
			expectOK: true,
		},
		{
			name:     "Incomplete ticket",
			tool:     tools.PrepareBugTicket,
			args:     models.BugTicket{Summary: "API error", Priority: "Urgent"},
			expectOK: true,
		},
		{
			name:     "Unknown tool",
			tool:     "delete_project",
			args:     map[string]string{},
			expectOK: false,
		},
	}

	for _, tc := range testCases {
		log.Infof("Running test case: %s", tc.name)

		message, err := common.ToolRequestMessage(tc.tool, tc.args)
		if err != nil {
			log.Errorf("Failed to build request: %v", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		task, err := a2aClient.SendTasks(ctx, protocol.SendTaskParams{Message: message})
		if err != nil {
			log.Errorf("SendTasks failed: %v", err)
			cancel()
			continue
		}
		log.Infof("Task %s finished in state %s", task.ID, task.Status.State)

		var parts []protocol.Part
		if task.Status.Message != nil {
			parts = task.Status.Message.Parts
		}
		resp, err := common.ExtractToolResponse(parts)
		switch {
		case err != nil:
			log.Errorf("No tool response in task %s: %v", task.ID, err)
		case (resp.Error == "") != tc.expectOK:
			log.Errorf("Test failed: unexpected outcome, error=%q", resp.Error)
		default:
			body, _ := json.MarshalIndent(resp, "", "  ")
			log.Infof("Test passed:\n%s", body)
		}

		for i, artifact := range task.Artifacts {
			name := ""
			if artifact.Name != nil {
				name = *artifact.Name
			}
			log.Infof("Artifact %d: %s %v", i+1, name, artifact.Metadata)
		}
		cancel()
	}
}
