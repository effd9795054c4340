// Package mcpserver publishes the triage tool registry over the Model Context
// Protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tuannvm/dr-triage/internal/config"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

const instructions = `Tools for filing and triaging Jira bug tickets.
Validate a ticket with prepare_bug_ticket before calling create_bug.
Use search_similar_defects to look for duplicates and mark_potential_duplicates to flag them.`

// New builds an MCP server exposing every tool in reg.
func New(reg *tools.Registry, name, version string) *server.MCPServer {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(_ context.Context, id any, req *mcp.CallToolRequest) {
		log.Debugf("MCP call %v: %s", id, req.Params.Name)
	})
	hooks.AddAfterCallTool(func(_ context.Context, id any, req *mcp.CallToolRequest, result *mcp.CallToolResult) {
		if result != nil && result.IsError {
			log.Warnf("MCP call %v: %s returned an error", id, req.Params.Name)
		}
	})

	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
		server.WithHooks(hooks),
	)

	for _, t := range reg.Tools() {
		s.AddTool(toMCPTool(t), handlerFor(reg, t.Name))
	}
	log.Infof("Registered %d tools on MCP server %s", len(reg.Tools()), name)
	return s
}

func toMCPTool(t tools.Tool) mcp.Tool {
	tool := mcp.NewToolWithRawSchema(t.Name, t.Description, t.InputSchema)
	readOnly := t.ReadOnly
	tool.Annotations.ReadOnlyHint = &readOnly
	return tool
}

func handlerFor(reg *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetRawArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		result, err := reg.Call(ctx, name, args)
		if err != nil {
			var argErr *tools.ArgumentError
			if errors.As(err, &argErr) {
				return mcp.NewToolResultError(argErr.Error()), nil
			}
			log.Errorf("Tool %s failed: %v", name, err)
			return mcp.NewToolResultErrorFromErr(fmt.Sprintf("%s failed", name), err), nil
		}

		body, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return mcp.NewToolResultErrorFromErr("failed to encode result", err), nil
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}

// Serve runs s on the configured transport until ctx is cancelled or stdin
// closes.
func Serve(ctx context.Context, s *server.MCPServer, cfg *config.Config) error {
	switch cfg.MCPTransport {
	case "stdio":
		log.Infof("Serving MCP over stdio")
		return server.NewStdioServer(s).Listen(ctx, os.Stdin, os.Stdout)
	case "sse", "":
		return serveSSE(ctx, s, cfg)
	default:
		return fmt.Errorf("unsupported MCP transport: %s", cfg.MCPTransport)
	}
}

func serveSSE(ctx context.Context, s *server.MCPServer, cfg *config.Config) error {
	addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.MCPPort)
	baseURL := cfg.MCPBaseURL
	if baseURL == "" {
		baseURL = "http://" + addr
	}
	sse := server.NewSSEServer(s,
		server.WithBaseURL(baseURL),
		server.WithKeepAlive(true),
	)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Serving MCP over SSE on %s (base URL %s)", addr, baseURL)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("MCP SSE server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Infof("Shutting down MCP server...")
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown MCP server: %w", err)
	}
	return nil
}
