package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

// Remote is a connection to an MCP server whose tools are proxied through a
// local registry.
type Remote struct {
	client   *client.Client
	Registry *tools.Registry
}

// Close ends the session with the remote server.
func (r *Remote) Close() error {
	return r.client.Close()
}

// RemoteTools connects to the MCP SSE endpoint at url and exposes its tools as
// a registry. The caller must Close the returned Remote.
func RemoteTools(ctx context.Context, url string) (*Remote, error) {
	c, err := client.NewSSEMCPClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server %s: %w", url, err)
	}

	reg, err := Connect(ctx, c)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Remote{client: c, Registry: reg}, nil
}

// Connect initializes a started MCP client and wraps each tool it lists.
// The registry keeps the server's listing order, which for mcp-go servers is
// sorted by tool name rather than the order tools were registered in.
func Connect(ctx context.Context, c *client.Client) (*tools.Registry, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "drtriage", Version: "1.0.0"}
	info, err := c.Initialize(ctx, initReq)
	if err != nil {
		return nil, fmt.Errorf("MCP initialize failed: %w", err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("MCP list tools failed: %w", err)
	}
	log.Infof("Connected to MCP server %s with %d tools", info.ServerInfo.Name, len(listed.Tools))

	reg, err := tools.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, t := range listed.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("tool %s: bad input schema: %w", t.Name, err)
		}
		readOnly := t.Annotations.ReadOnlyHint != nil && *t.Annotations.ReadOnlyHint
		if err := reg.Register(tools.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
			ReadOnly:    readOnly,
			Handler:     remoteHandler(c, t.Name),
		}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func remoteHandler(c *client.Client, name string) tools.Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		if len(strings.TrimSpace(string(args))) > 0 {
			req.Params.Arguments = args
		} else {
			req.Params.Arguments = map[string]any{}
		}

		result, err := c.CallTool(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("remote tool %s: %w", name, err)
		}
		text := resultText(result)
		if result.IsError {
			return nil, errors.New(text)
		}
		if json.Valid([]byte(text)) {
			return json.RawMessage(text), nil
		}
		return text, nil
	}
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
