package agents

import (
	"context"
	"errors"
	"fmt"

	"trpc.group/trpc-go/trpc-a2a-go/protocol"
	"trpc.group/trpc-go/trpc-a2a-go/server"
	"trpc.group/trpc-go/trpc-a2a-go/taskmanager"

	"github.com/tuannvm/dr-triage/internal/common"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/models"
	"github.com/tuannvm/dr-triage/internal/tools"
)

// TriageAgent runs triage tools on behalf of A2A clients.
type TriageAgent struct {
	registry *tools.Registry
}

var _ taskmanager.TaskProcessor = (*TriageAgent)(nil)

// NewTriageAgent creates a TriageAgent serving the tools in reg.
func NewTriageAgent(reg *tools.Registry) *TriageAgent {
	return &TriageAgent{registry: reg}
}

// Skills describes one agent skill per tool for the agent card.
func (a *TriageAgent) Skills() []server.AgentSkill {
	var skills []server.AgentSkill
	for _, t := range a.registry.Tools() {
		tags := []string{"jira", "triage"}
		if t.ReadOnly {
			tags = append(tags, "read-only")
		}
		skills = append(skills, server.AgentSkill{
			ID:          t.Name,
			Name:        t.Name,
			Description: common.StringPtr(t.Description),
			Tags:        tags,
		})
	}
	return skills
}

// Process implements the TaskProcessor interface from trpc-a2a-go
func (a *TriageAgent) Process(ctx context.Context, taskID string, message protocol.Message, handle taskmanager.TaskHandle) error {
	log.Infof("Received task with ID: %s", taskID)

	if err := handle.UpdateStatus(protocol.TaskState("working"), nil); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	req, err := common.ExtractToolRequest(message)
	if err != nil {
		log.Warnf("Task %s: %v", taskID, err)
		return a.fail(taskID, handle, models.ToolResponse{Error: err.Error()})
	}
	log.Infof("Task %s runs tool %s", taskID, req.Tool)

	result, err := a.registry.Call(ctx, req.Tool, req.Arguments)
	if err != nil {
		var argErr *tools.ArgumentError
		if !errors.As(err, &argErr) {
			log.Errorf("Task %s: tool %s failed: %v", taskID, req.Tool, err)
		}
		return a.fail(taskID, handle, models.ToolResponse{Tool: req.Tool, Error: err.Error()})
	}

	resp := models.ToolResponse{Tool: req.Tool, Result: result}
	msg, err := common.ToolResponseMessage(resp)
	if err != nil {
		return err
	}

	artifact := protocol.Artifact{
		Name:        common.StringPtr("triage-result"),
		Description: common.StringPtr(fmt.Sprintf("Result of %s", req.Tool)),
		Parts:       msg.Parts,
		Metadata:    artifactMetadata(req.Tool, result),
	}
	if err := handle.AddArtifact(artifact); err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}

	if err := handle.UpdateStatus(protocol.TaskState("completed"), msg); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	log.Infof("Task %s completed successfully", taskID)
	return nil
}

// fail ends the task in the failed state with resp as the status message.
func (a *TriageAgent) fail(taskID string, handle taskmanager.TaskHandle, resp models.ToolResponse) error {
	msg, err := common.ToolResponseMessage(resp)
	if err != nil {
		return err
	}
	if err := handle.UpdateStatus(protocol.TaskState("failed"), msg); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	log.Infof("Task %s failed: %s", taskID, resp.Error)
	return nil
}

// artifactMetadata records the tool and, for results that point at a Jira
// issue or comment, its URL.
func artifactMetadata(tool string, result any) map[string]interface{} {
	meta := map[string]interface{}{"tool": tool}
	switch r := result.(type) {
	case *models.SubmissionResult:
		if r.URL != "" {
			meta["url"] = r.URL
		}
		if r.Key != "" {
			meta["key"] = r.Key
		}
	case *models.JiraTicket:
		meta["url"] = r.URL
		meta["key"] = r.Key
	case *models.ReviewOutcome:
		meta["key"] = r.Key
		if r.CommentURL != "" {
			meta["url"] = r.CommentURL
		}
	}
	return meta
}
