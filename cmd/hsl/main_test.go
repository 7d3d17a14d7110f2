package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/opal-lang/hsl/runtime/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeScript(t *testing.T, dir, source string) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	path := filepath.Join(dir, "main.hsl")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestRunText(t *testing.T) {
	path := writeScript(t, "", "print(1 + 2);\ntest(\"sums\") { return 1 + 1 == 2; }\n")
	r := execute(t, "", "run", path)
	require.NoError(t, r.err)
	assert.Equal(t, "3\n", r.stdout)
	assert.Equal(t, "PASS sums\n", r.stderr)
}

func TestRunReportsDiagnostics(t *testing.T) {
	path := writeScript(t, "", "print(1 / 0);\nprint(2);\n")
	r := execute(t, "", "run", path)

	var failed *scriptFailure
	require.ErrorAs(t, r.err, &failed)
	assert.Equal(t, 1, failed.diagnostics)
	assert.Equal(t, "2\n", r.stdout)
	assert.Contains(t, r.stderr, "interpreting error at 1:9: Division by zero")
}

func TestRunFailedTest(t *testing.T) {
	path := writeScript(t, "", "test(\"never\") { return false; }\n")
	r := execute(t, "", "run", path)

	var failed *scriptFailure
	require.ErrorAs(t, r.err, &failed)
	assert.Equal(t, 1, failed.failedTests)
	assert.Contains(t, r.stderr, "FAIL never (line 1)")
}

func TestRunStdin(t *testing.T) {
	r := execute(t, "var x = 4;\nprint(x * x);", "run", "-")
	require.NoError(t, r.err)
	assert.Equal(t, "16\n", r.stdout)
}

func TestRunFlags(t *testing.T) {
	loop := writeScript(t, "", "while (true) {}\n")
	r := execute(t, "", "run", "--budget", "100", loop)
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "execution budget of 100 steps exceeded")

	strict := writeScript(t, "", "print(1 / 0);\nprint(2);\n")
	r = execute(t, "", "run", "--mode", "strict", strict)
	require.Error(t, r.err)
	assert.Empty(t, r.stdout, "strict mode stops at the first error")

	r = execute(t, "", "run", "--mode", "loud", strict)
	var cliErr *CLIError
	require.ErrorAs(t, r.err, &cliErr)
	assert.Equal(t, `unknown mode "loud"`, cliErr.Message)

	r = execute(t, "", "run", "--output", "xml", strict)
	require.ErrorAs(t, r.err, &cliErr)

	r = execute(t, "", "run", "--watch", "-")
	require.ErrorAs(t, r.err, &cliErr)
}

func TestRunTelemetry(t *testing.T) {
	path := writeScript(t, "", "var x = 1; # one\n")
	r := execute(t, "", "run", "--telemetry", path)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "comments=1 statements=1")
	assert.Contains(t, r.stderr, "interpreting")
}

func TestRunCBOR(t *testing.T) {
	path := writeScript(t, "", "var xs = [1, 2];\nprint(\"side\");\n")
	r := execute(t, "", "run", "--output", "cbor", path)
	require.NoError(t, r.err)
	assert.Equal(t, "side\n", r.stderr, "print output moves to stderr")

	s, err := snapshot.Read(strings.NewReader(r.stdout))
	require.NoError(t, err)
	assert.Equal(t, path, s.SourceName)
	assert.Equal(t, snapshot.FingerprintOf("var xs = [1, 2];\nprint(\"side\");\n"), s.Fingerprint)
	assert.Equal(t, snapshot.KindArray, s.Globals["xs"].Kind)
	assert.Positive(t, s.Steps)
}

func TestRunUsesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hsl.yaml"), []byte("version: 1.0.0\nlexer:\n  keywords:\n    fun: fn\n"), 0o644))
	path := writeScript(t, dir, "fn twice(x) { return x * 2; }\nprint(twice(21));\n")

	r := execute(t, "", "run", path)
	require.NoError(t, r.err)
	assert.Equal(t, "42\n", r.stdout)

	bad := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: 1.0.0\nextra: true\n"), 0o644))
	r = execute(t, "", "run", "--config", bad, path)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "invalid config")
}

func TestRunMissingFile(t *testing.T) {
	r := execute(t, "", "run", filepath.Join(t.TempDir(), "nope.hsl"))
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "error opening file")
}

func TestCheck(t *testing.T) {
	path := writeScript(t, "", "using math;\nprint(abs(-1));\n")
	r := execute(t, "", "check", path)
	require.NoError(t, r.err)
	assert.Equal(t, path+": ok\n", r.stdout, "print output is discarded")

	path = writeScript(t, "", "var = 1;\n")
	r = execute(t, "", "check", path)
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "parsing error at 1:5")
}

func TestTokens(t *testing.T) {
	r := execute(t, "var x = 1; # note", "tokens", "--comments", "-")
	require.NoError(t, r.err)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"1:1", "VAR", `"var"`}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1:12", "COMMENT", `"`, `note"`}, strings.Fields(lines[6]))

	r = execute(t, "\"open", "tokens", "-")
	require.Error(t, r.err)
	assert.Contains(t, r.stderr, "Unterminated string")
}

func TestFormatError(t *testing.T) {
	var buf bytes.Buffer
	FormatError(&buf, &CLIError{Message: "bad", Hint: "try again"}, false)
	assert.Equal(t, "Error: bad\nHint: try again\n", buf.String())

	buf.Reset()
	FormatError(&buf, io.ErrUnexpectedEOF, false)
	assert.Equal(t, "Error: unexpected EOF\n", buf.String())

	buf.Reset()
	_, err := executor.New(executor.WithMode(executor.ModeStrict), executor.WithOutput(io.Discard)).
		Run(context.Background(), "var = 1;")
	FormatError(&buf, err, false)
	assert.True(t, strings.HasPrefix(buf.String(), "parsing error at 1:5: "), buf.String())
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "x", Colorize("x", ColorRed, false))
	assert.Equal(t, ColorRed+"x"+ColorReset, Colorize("x", ColorRed, true))
	assert.False(t, ShouldUseColor(true))
}
