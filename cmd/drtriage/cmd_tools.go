package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tuannvm/dr-triage/internal/curl"
	"github.com/tuannvm/dr-triage/internal/models"
	"github.com/tuannvm/dr-triage/internal/tools"
)

var ticketFlags struct {
	file        string
	summary     string
	description string
	priority    string
	curl        string
	traceID     string
	assignee    string
	component   string
	labels      []string
}

// validateCmd checks a bug ticket without touching Jira
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a bug ticket for missing information",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticket, err := ticketFromFlags(cmd.InOrStdin())
		if err != nil {
			return err
		}
		reg, err := localRegistry(false)
		if err != nil {
			return err
		}
		result, err := callTool(cmd, reg, tools.PrepareBugTicket, ticket)
		if err != nil {
			return err
		}
		if r, ok := result.(tools.PrepareResult); ok && !r.IsComplete {
			return errors.New("bug ticket is incomplete")
		}
		return nil
	},
}

// createCmd files a validated bug ticket
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Validate and create a bug ticket in Jira",
	RunE: func(cmd *cobra.Command, args []string) error {
		ticket, err := ticketFromFlags(cmd.InOrStdin())
		if err != nil {
			return err
		}
		reg, err := localRegistry(true)
		if err != nil {
			return err
		}
		result, err := callTool(cmd, reg, tools.CreateBug, tools.CreateBugArgs{BugTicket: ticket})
		if err != nil {
			return err
		}
		if r, ok := result.(*models.SubmissionResult); ok && !r.Success {
			return errors.New("bug ticket was not created")
		}
		return nil
	},
}

// markDuplicatesCmd flags tickets as potential duplicates of a primary ticket
var markDuplicatesCmd = &cobra.Command{
	Use:   "mark-duplicates <primary> <duplicate>...",
	Short: "Flag tickets as potential duplicates of a primary ticket",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := localRegistry(true)
		if err != nil {
			return err
		}
		result, err := callTool(cmd, reg, tools.MarkPotentialDuplicates, tools.MarkDuplicatesArgs{
			PrimaryTicket:    args[0],
			DuplicateTickets: args[1:],
		})
		if err != nil {
			return err
		}
		if r, ok := result.(models.MarkDuplicatesResult); ok && r.Failed() > 0 {
			return fmt.Errorf("%d of %d tickets could not be marked", r.Failed(), len(r.Results))
		}
		return nil
	},
}

var searchFlags struct {
	status  string
	text    string
	max     int
	similar bool
}

// searchCmd lists bug tickets
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search bug tickets",
	Long: `Search bug tickets in the configured project.

With --similar the text is matched against open bugs, which is the check to run
before filing a new ticket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := localRegistry(true)
		if err != nil {
			return err
		}
		if searchFlags.similar {
			_, err = callTool(cmd, reg, tools.SearchSimilarDefects, tools.SimilarDefectsArgs{Text: searchFlags.text})
			return err
		}
		_, err = callTool(cmd, reg, tools.GetBugTickets, tools.SearchArgs{
			Status:     searchFlags.status,
			Text:       searchFlags.text,
			MaxResults: searchFlags.max,
		})
		return err
	},
}

// issueCmd prints one issue
var issueCmd = &cobra.Command{
	Use:   "issue <key>",
	Short: "Show a Jira issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := localRegistry(true)
		if err != nil {
			return err
		}
		_, err = callTool(cmd, reg, tools.GetIssue, tools.IssueArgs{IssueKey: args[0]})
		return err
	},
}

var reviewComment bool

// reviewCmd validates an existing ticket
var reviewCmd = &cobra.Command{
	Use:   "review <key>",
	Short: "Check an existing bug for missing information",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := localRegistry(true)
		if err != nil {
			return err
		}
		_, err = callTool(cmd, reg, tools.ReviewBugTicket, tools.ReviewArgs{IssueKey: args[0], Comment: reviewComment})
		return err
	},
}

var curlFlags struct {
	description string
	script      string
	index       int
	markdown    bool
}

// curlCmd runs a reproduction command and renders a defect report
var curlCmd = &cobra.Command{
	Use:   "curl [command]",
	Short: "Run a curl reproduction and render a defect report",
	Long: `Run a curl command that reproduces a defect. An x-request-id header is
added when the command does not set one, so the request can be traced.

The command is given as an argument or read from a shell script with --script.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		command, err := curlCommand(args)
		if err != nil {
			return err
		}
		reg, err := localRegistry(false)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(tools.CurlArgs{CurlCommand: command, Description: curlFlags.description})
		if err != nil {
			return err
		}
		result, err := reg.Call(cmd.Context(), tools.RunCurlCommand, raw)
		if err != nil {
			return err
		}
		if r, ok := result.(*tools.CurlResult); ok && curlFlags.markdown {
			_, err = fmt.Fprintln(cmd.OutOrStdout(), r.Markdown)
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	for _, c := range []*cobra.Command{validateCmd, createCmd} {
		f := c.Flags()
		f.StringVarP(&ticketFlags.file, "file", "f", "", "Read the ticket as JSON from a file (- for stdin)")
		f.StringVarP(&ticketFlags.summary, "summary", "s", "", "Short title of the bug")
		f.StringVarP(&ticketFlags.description, "description", "d", "", "Steps to reproduce, expected and actual behavior")
		f.StringVarP(&ticketFlags.priority, "priority", "p", "", "Highest, High, Medium, Low or Lowest")
		f.StringVar(&ticketFlags.curl, "curl", "", "curl command that reproduces the bug")
		f.StringVar(&ticketFlags.traceID, "trace-id", "", "Trace ID or x-request-id from the logs")
		f.StringVar(&ticketFlags.assignee, "assignee", "", "Account ID of the assignee")
		f.StringVar(&ticketFlags.component, "component", "", "Jira component")
		f.StringSliceVarP(&ticketFlags.labels, "label", "l", nil, "Additional label (repeatable)")
	}

	searchCmd.Flags().StringVar(&searchFlags.status, "status", "", "Workflow status such as Open")
	searchCmd.Flags().StringVarP(&searchFlags.text, "text", "t", "", "Free text to match")
	searchCmd.Flags().IntVar(&searchFlags.max, "max", 0, "Maximum number of results (up to 50)")
	searchCmd.Flags().BoolVar(&searchFlags.similar, "similar", false, "Search open bugs similar to --text")

	reviewCmd.Flags().BoolVar(&reviewComment, "comment", false, "Comment on the ticket when information is missing")

	curlCmd.Flags().StringVarP(&curlFlags.description, "description", "d", "", "Short description of the defect")
	curlCmd.Flags().StringVar(&curlFlags.script, "script", "", "Shell script to take the curl command from")
	curlCmd.Flags().IntVar(&curlFlags.index, "index", 0, "Which curl command of the script to run (0-based)")
	curlCmd.Flags().BoolVar(&curlFlags.markdown, "markdown", false, "Print only the markdown defect report")

	rootCmd.AddCommand(validateCmd, createCmd, markDuplicatesCmd, searchCmd, issueCmd, reviewCmd, curlCmd)
}

// ticketFromFlags reads the ticket from --file, then applies any field flags
// on top.
func ticketFromFlags(stdin io.Reader) (models.BugTicket, error) {
	var ticket models.BugTicket
	if ticketFlags.file != "" {
		var data []byte
		var err error
		if ticketFlags.file == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(ticketFlags.file)
		}
		if err != nil {
			return ticket, fmt.Errorf("failed to read ticket: %w", err)
		}
		if err := json.Unmarshal(data, &ticket); err != nil {
			return ticket, fmt.Errorf("failed to parse ticket: %w", err)
		}
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{ticketFlags.summary, &ticket.Summary},
		{ticketFlags.description, &ticket.Description},
		{ticketFlags.priority, &ticket.Priority},
		{ticketFlags.curl, &ticket.CurlCommand},
		{ticketFlags.traceID, &ticket.TraceID},
		{ticketFlags.assignee, &ticket.Assignee},
		{ticketFlags.component, &ticket.Component},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}
	if len(ticketFlags.labels) > 0 {
		ticket.AdditionalLabels = append(ticket.AdditionalLabels, ticketFlags.labels...)
	}
	return ticket, nil
}

func curlCommand(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if curlFlags.script == "" {
		return "", errors.New("give a curl command or --script")
	}
	content, err := os.ReadFile(curlFlags.script)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}
	commands := curl.CommandsFromScript(string(content))
	if curlFlags.index < 0 || curlFlags.index >= len(commands) {
		return "", fmt.Errorf("%s has %d curl commands, --index %d is out of range", curlFlags.script, len(commands), curlFlags.index)
	}
	return commands[curlFlags.index], nil
}
