// Package curl runs curl reproductions of API defects and renders them as
// defect reports.
package curl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	log "github.com/tuannvm/dr-triage/internal/logging"
)

const (
	defaultTimeout = 30 * time.Second
	maxOutputSize  = 64 * 1024
	commandPrefix  = "curl "
)

// ErrNotCurl is returned for commands that do not start with "curl ".
var ErrNotCurl = errors.New("command must start with 'curl '")

var (
	requestIDHeader = regexp.MustCompile(`(?i)(?:--header|-H)\s+['"]x-request-id\s*:\s*([^'"]+)['"]?`)
	graphQLBody     = regexp.MustCompile(`(?s)(?:--data(?:-raw|-binary)?|-d)\s+['"]?\{.*?"query"\s*:`)
)

// ExecFunc executes a shell command and returns its stdout and stderr.
type ExecFunc func(ctx context.Context, command string) (stdout, stderr []byte, err error)

// Result is the outcome of running a curl command.
type Result struct {
	Command   string `json:"command"`
	RequestID string `json:"requestId"`
	Injected  bool   `json:"requestIdInjected"`
	GraphQL   bool   `json:"graphql"`
	Output    string `json:"output"`
	Stderr    string `json:"stderr,omitempty"`
	ExitError string `json:"exitError,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// Runner executes curl commands under a timeout.
type Runner struct {
	timeout time.Duration
	exec    ExecFunc
	newID   func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithExec replaces the shell used to run commands.
func WithExec(fn ExecFunc) Option {
	return func(r *Runner) { r.exec = fn }
}

// WithRequestIDFunc replaces the generator for injected x-request-id values.
func WithRequestIDFunc(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// NewRunner creates a Runner. A zero timeout means 30 seconds.
func NewRunner(timeout time.Duration, opts ...Option) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	r := &Runner{
		timeout: timeout,
		exec:    shellExec,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare validates the command and makes sure it carries an x-request-id
// header, injecting a fresh one when missing.
func (r *Runner) Prepare(command string) (prepared, requestID string, injected bool, err error) {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(command, commandPrefix) {
		return "", "", false, ErrNotCurl
	}

	if m := requestIDHeader.FindStringSubmatch(command); m != nil {
		return command, strings.TrimSpace(m[1]), false, nil
	}

	requestID = r.newID()
	prepared = fmt.Sprintf("curl --header 'x-request-id: %s' %s", requestID, strings.TrimPrefix(command, commandPrefix))
	return prepared, requestID, true, nil
}

// IsGraphQL reports whether the command posts a GraphQL query body.
func IsGraphQL(command string) bool {
	return graphQLBody.MatchString(command)
}

// Run prepares and executes the command. A non-zero exit is reported in the
// result; only invalid commands and timeouts are errors.
func (r *Runner) Run(ctx context.Context, command string) (*Result, error) {
	prepared, requestID, injected, err := r.Prepare(command)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Command:   prepared,
		RequestID: requestID,
		Injected:  injected,
		GraphQL:   IsGraphQL(prepared),
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Infof("Running curl command with x-request-id %s", requestID)
	stdout, stderr, err := r.exec(ctx, prepared)
	result.Output, result.Truncated = capOutput(stdout)
	result.Stderr, _ = capOutput(stderr)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("curl command timed out after %s", r.timeout)
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.ExitError = err.Error()
		log.Warnf("curl command %s exited with error: %v", requestID, err)
	}
	return result, nil
}

func capOutput(b []byte) (string, bool) {
	if len(b) <= maxOutputSize {
		return string(b), false
	}
	return string(b[:maxOutputSize]) + "\n... [truncated]", true
}

func shellExec(ctx context.Context, command string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
