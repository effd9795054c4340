// Command drtriage files and triages Jira bug tickets from the terminal,
// either through direct subcommands or a chat with Dr. Triage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tuannvm/dr-triage/internal/config"
	"github.com/tuannvm/dr-triage/internal/jira"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/tools"
)

var cfg *config.Config

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "drtriage",
	Short: "File and triage Jira bug tickets",
	Long: `Dr. Triage validates bug reports, files them in Jira with the mcp and
potential-issue labels, searches for similar defects and flags duplicates.

Run "drtriage chat" for a guided conversation, or use the subcommands directly.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.NewConfig()
		return log.SetLevel(cfg.LogLevel)
	},
}

func init() {
	v := config.GetViper()
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("project", "", "Jira project key (overrides JIRA_PROJECT_KEY)")
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("jira.project_key", rootCmd.PersistentFlags().Lookup("project"))
}

func main() {
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// localRegistry builds the triage tools against the configured Jira site. When
// requireJira is unset and Jira is not configured, only the offline tools are
// available.
func localRegistry(requireJira bool) (*tools.Registry, error) {
	var tracker jira.JiraClientInterface
	client, err := jira.NewClient(cfg)
	switch {
	case err == nil:
		tracker = client
	case requireJira:
		return nil, err
	default:
		log.Warnf("Jira is not configured, only offline tools are available: %v", err)
	}
	return tools.NewTriageRegistry(tools.DependenciesFromConfig(cfg, tracker))
}

// callTool runs one tool with args and prints its JSON result.
func callTool(cmd *cobra.Command, reg *tools.Registry, name string, args any) (any, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	result, err := reg.Call(cmd.Context(), name, raw)
	if err != nil {
		return nil, err
	}
	return result, printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to print result: %w", err)
	}
	return nil
}
