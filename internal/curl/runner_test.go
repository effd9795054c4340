package curl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordedExec struct {
	commands []string
	stdout   string
	err      error
}

func (r *recordedExec) exec(_ context.Context, command string) ([]byte, []byte, error) {
	r.commands = append(r.commands, command)
	return []byte(r.stdout), nil, r.err
}

func fixedID() string { return "11111111-2222-3333-4444-555555555555" }

func TestPrepare(t *testing.T) {
	r := NewRunner(0, WithRequestIDFunc(fixedID))

	tests := []struct {
		name     string
		command  string
		want     string
		id       string
		injected bool
	}{
		{
			name:     "injects header",
			command:  "curl https://api.example.com/users",
			want:     "curl --header 'x-request-id: 11111111-2222-3333-4444-555555555555' https://api.example.com/users",
			id:       fixedID(),
			injected: true,
		},
		{
			name:    "keeps existing long header",
			command: `curl --header "X-Request-ID: req-42" https://api.example.com`,
			want:    `curl --header "X-Request-ID: req-42" https://api.example.com`,
			id:      "req-42",
		},
		{
			name:    "keeps existing short header",
			command: "  curl -H 'x-request-id:abc' https://api.example.com  ",
			want:    "curl -H 'x-request-id:abc' https://api.example.com",
			id:      "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, id, injected, err := r.Prepare(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prepared)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.injected, injected)
		})
	}
}

func TestPrepareRejectsNonCurl(t *testing.T) {
	r := NewRunner(0)
	for _, cmd := range []string{"", "wget https://x", "curly https://x", "rm -rf /; curl x"} {
		_, _, _, err := r.Prepare(cmd)
		assert.ErrorIs(t, err, ErrNotCurl, cmd)
	}
}

func TestIsGraphQL(t *testing.T) {
	assert.True(t, IsGraphQL(`curl -X POST https://api.example.com/graphql --data-raw '{"query":"{ me { id } }"}'`))
	assert.True(t, IsGraphQL(`curl https://api.example.com/graphql -d '{"variables":{}, "query": "query Q { a }"}'`))
	assert.False(t, IsGraphQL(`curl -X POST https://api.example.com/users --data '{"name":"x"}'`))
	assert.False(t, IsGraphQL(`curl https://api.example.com/search?query=x`))
}

func TestRun(t *testing.T) {
	fake := &recordedExec{stdout: `{"errors":[{"message":"boom"}]}`}
	r := NewRunner(time.Second, WithExec(fake.exec), WithRequestIDFunc(fixedID))

	result, err := r.Run(context.Background(), `curl https://api.example.com/graphql --data '{"query":"{ a }"}'`)
	require.NoError(t, err)

	require.Len(t, fake.commands, 1)
	assert.Equal(t, result.Command, fake.commands[0])
	assert.True(t, result.Injected)
	assert.True(t, result.GraphQL)
	assert.Equal(t, fixedID(), result.RequestID)
	assert.Equal(t, `{"errors":[{"message":"boom"}]}`, result.Output)
	assert.Empty(t, result.ExitError)
}

func TestRunNonZeroExit(t *testing.T) {
	fake := &recordedExec{err: errors.New("exit status 6")}
	r := NewRunner(time.Second, WithExec(fake.exec))

	result, err := r.Run(context.Background(), "curl https://unresolvable.invalid")
	require.NoError(t, err)
	assert.Equal(t, "exit status 6", result.ExitError)
}

func TestRunTimeout(t *testing.T) {
	slow := func(ctx context.Context, _ string) ([]byte, []byte, error) {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	r := NewRunner(20*time.Millisecond, WithExec(slow))

	_, err := r.Run(context.Background(), "curl https://api.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunTruncatesOutput(t *testing.T) {
	fake := &recordedExec{stdout: strings.Repeat("x", maxOutputSize+10)}
	r := NewRunner(time.Second, WithExec(fake.exec))

	result, err := r.Run(context.Background(), "curl https://api.example.com")
	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.True(t, strings.HasSuffix(result.Output, "[truncated]"))
}

func TestDefectMarkdown(t *testing.T) {
	md := DefectMarkdown("Users endpoint fails", "curl https://api.example.com/users", `{"error":"internal"}`, "req-1")

	assert.True(t, strings.HasPrefix(md, "## 🐛 Defect\n\nUsers endpoint fails"))
	assert.Contains(t, md, "```bash\ncurl https://api.example.com/users\n```")
	assert.Contains(t, md, "```json\n{\n  \"error\": \"internal\"\n}\n```")
	assert.Contains(t, md, "> 📎 Request ID: `req-1`")
}

func TestDefectMarkdownPlainOutput(t *testing.T) {
	md := DefectMarkdown("", "curl https://api.example.com", "<html>502 Bad Gateway</html>", "")

	assert.Contains(t, md, "Unexpected response from the API.")
	assert.Contains(t, md, "```text\n<html>502 Bad Gateway</html>\n```")
	assert.NotContains(t, md, "Request ID")
}

func TestFindScripts(t *testing.T) {
	root := t.TempDir()
	files := []string{
		"a.sh",
		"nested/b.bash",
		"nested/readme.md",
		".git/hooks/pre-commit.sh",
		"node_modules/pkg/install.sh",
	}
	for _, f := range files {
		path := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("curl https://x\n"), 0o644))
	}

	scripts, err := FindScripts(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.sh"), filepath.Join(root, "nested/b.bash")}, scripts)
}

func TestCommandsFromScript(t *testing.T) {
	script := `#!/bin/bash
# list users
curl https://api.example.com/users

echo done
curl -X POST https://api.example.com/users \
  -H 'Content-Type: application/json' \
  --data '{"name":"x"}'
`
	assert.Equal(t, []string{
		"curl https://api.example.com/users",
		`curl -X POST https://api.example.com/users -H 'Content-Type: application/json' --data '{"name":"x"}'`,
	}, CommandsFromScript(script))
}
