package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv is an isolated config file and ledger database.
type testEnv struct {
	dir    string
	db     string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		dir:    dir,
		db:     filepath.Join(dir, "ledger.db"),
		config: filepath.Join(dir, "config.yaml"),
	}
}

// cliResult is the outcome of one CLI invocation.
type cliResult struct {
	stdout string
	stderr string
	code   int
}

// run executes the CLI against the env's config and database.
func (e *testEnv) run(t *testing.T, args ...string) cliResult {
	t.Helper()
	return e.runWithInput(t, nil, args...)
}

func (e *testEnv) runWithInput(t *testing.T, stdin io.Reader, args ...string) cliResult {
	t.Helper()
	full := append([]string{"--config", e.config, "--db", e.db}, args...)
	return runCLI(t, stdin, full...)
}

// runCLI executes the CLI with exactly args.
func runCLI(t *testing.T, stdin io.Reader, args ...string) cliResult {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)

	code := Execute(context.Background(), cmd, errOut)
	return cliResult{stdout: out.String(), stderr: errOut.String(), code: code}
}

// mustRun runs args and fails the test on a non-zero exit.
func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	res := e.run(t, args...)
	require.Equal(t, ExitSuccess, res.code, "%v failed:\nstdout: %s\nstderr: %s", args, res.stdout, res.stderr)
	return res.stdout
}

// decodeResponses parses one JSON CLIResponse per line.
func decodeResponses(t *testing.T, out string) []CLIResponse {
	t.Helper()
	var resps []CLIResponse
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var resp CLIResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp), "line: %s", line)
		resps = append(resps, resp)
	}
	return resps
}
