package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tuannvm/dr-triage/internal/curl"
	"github.com/tuannvm/dr-triage/internal/drtriage"
	"github.com/tuannvm/dr-triage/internal/llm"
	log "github.com/tuannvm/dr-triage/internal/logging"
	"github.com/tuannvm/dr-triage/internal/mcpserver"
	"github.com/tuannvm/dr-triage/internal/tools"
)

var chatFlags struct {
	mcpURL     string
	scriptsDir string
}

// chatCmd starts an interactive session with Dr. Triage
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with Dr. Triage to file a bug ticket",
	Long: `Start a conversation with Dr. Triage. Describe the defect, share a curl
command and Dr. Triage searches for similar tickets and files a new one.

Commands inside the chat:
  /scripts   list curl commands found in shell scripts
  /curl N    send the Nth listed curl command
  /exit      leave the chat`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatFlags.mcpURL, "mcp-url", "", "Use the tools of a remote MCP server (SSE endpoint URL)")
	chatCmd.Flags().StringVar(&chatFlags.scriptsDir, "scripts", ".", "Directory searched for shell scripts with curl commands")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, err := llm.NewClient(cfg)
	if err != nil {
		return err
	}

	var reg *tools.Registry
	if chatFlags.mcpURL != "" {
		remote, err := mcpserver.RemoteTools(ctx, chatFlags.mcpURL)
		if err != nil {
			return err
		}
		defer remote.Close()
		reg = remote.Registry
	} else {
		reg, err = localRegistry(false)
		if err != nil {
			return err
		}
	}
	log.Debugf("Chat started with %d tools", len(reg.Tools()))

	session := drtriage.NewSession(client, reg, cfg.LLMMaxSteps)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dr. Triage: %s\n", drtriage.Greeting())

	var listed []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit" || line == "/quit":
			return nil
		case line == "/scripts":
			listed, err = listScriptCommands(out, chatFlags.scriptsDir)
			if err != nil {
				fmt.Fprintf(out, "Could not list scripts: %v\n", err)
			}
			continue
		case strings.HasPrefix(line, "/curl"):
			command, err := pickCommand(listed, strings.TrimSpace(strings.TrimPrefix(line, "/curl")))
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			line = "Here is the curl command that reproduces the issue:\n" + command
		}

		reply, err := session.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(out, "Sorry, I encountered an error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Dr. Triage: %s\n", reply)
	}
	return scanner.Err()
}

func listScriptCommands(out io.Writer, dir string) ([]string, error) {
	scripts, err := curl.FindScripts(dir)
	if err != nil {
		return nil, err
	}
	var commands []string
	for _, path := range scripts {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}
		for _, c := range curl.CommandsFromScript(string(content)) {
			fmt.Fprintf(out, "%d. [%s] %s\n", len(commands)+1, path, c)
			commands = append(commands, c)
		}
	}
	if len(commands) == 0 {
		fmt.Fprintln(out, "No curl commands found.")
	}
	return commands, nil
}

func pickCommand(listed []string, arg string) (string, error) {
	if len(listed) == 0 {
		return "", errors.New("run /scripts first to list curl commands")
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(listed) {
		return "", fmt.Errorf("pick a number between 1 and %d", len(listed))
	}
	return listed[n-1], nil
}
