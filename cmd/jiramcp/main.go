// Command jiramcp serves the triage tools over the Model Context Protocol.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tuannvm/dr-triage/internal/config"
	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/mcpserver"
	"github.com/tuannvm/dr-triage/internal/tools"
)

var rootCmd = &cobra.Command{
	Use:   "jiramcp",
	Short: "Serve the Jira triage tools over MCP (SSE or stdio)",
	Long: `jiramcp exposes prepare_bug_ticket, create_bug, mark_potential_duplicates and
the search and review tools to MCP clients.

Jira is configured with JIRA_BASE_URL, JIRA_USERNAME, JIRA_API_TOKEN and
JIRA_PROJECT_KEY.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	v := config.GetViper()
	rootCmd.Flags().String("transport", "", "MCP transport: sse or stdio (default from MCP_TRANSPORT)")
	rootCmd.Flags().Int("port", 0, "Port of the SSE transport (default from MCP_PORT)")
	rootCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error")
	_ = v.BindPFlag("mcp.transport", rootCmd.Flags().Lookup("transport"))
	_ = v.BindPFlag("mcp.port", rootCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("log.level", rootCmd.Flags().Lookup("log-level"))
}

func main() {
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Errorf("jiramcp: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		return err
	}

	client, err := jira.NewClient(cfg)
	if err != nil {
		return err
	}
	log.Infof("Using Jira site %s (default project %q)", cfg.JiraBaseURL, cfg.JiraProjectKey)

	reg, err := tools.NewTriageRegistry(tools.DependenciesFromConfig(cfg, client))
	if err != nil {
		return err
	}

	s := mcpserver.New(reg, config.MCPServerName, cfg.AgentVersion)
	if err := mcpserver.Serve(cmd.Context(), s, cfg); err != nil {
		return err
	}
	log.Infof("MCP server shutdown complete")
	return nil
}
