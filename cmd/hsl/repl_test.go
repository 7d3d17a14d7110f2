package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted feeds prepared lines to the loop.
type scripted struct {
	lines   []string
	prompts []string
	history []string
}

func (s *scripted) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (s *scripted) AppendHistory(item string) { s.history = append(s.history, item) }

func runRepl(t *testing.T, lines ...string) (string, *scripted) {
	t.Helper()
	var out bytes.Buffer
	e := executor.New(executor.WithOutput(&out))
	p := &scripted{lines: lines}
	replLoop(context.Background(), e, p, &out, false)
	return out.String(), p
}

func TestReplSession(t *testing.T) {
	out, p := runRepl(t,
		"var x = 2;",
		"fun f() {",
		"  return x * 3;",
		"}",
		"f()",
		"print(\"hi\");",
		"",
		":globals",
	)
	assert.Equal(t, "6\nhi\nf\nx\n\n", out)
	assert.Equal(t, []string{promptMain, promptMain, promptCont, promptCont, promptMain, promptMain, promptMain, promptMain, promptMain}, p.prompts)
	require.Len(t, p.history, 5)
	assert.Equal(t, "fun f() {   return x * 3; }", p.history[1])
}

func TestReplReportsErrors(t *testing.T) {
	out, _ := runRepl(t, "1 / 0", "missing", ":what")
	assert.Contains(t, out, "interpreting error at 1:3: Division by zero")
	assert.Contains(t, out, "Undefined variable 'missing'.")
	assert.Contains(t, out, "unknown command :what")
}

func TestReplQuitAndAbort(t *testing.T) {
	out, p := runRepl(t, "fun g() {", "^C", "null", ":quit", "1")
	assert.Equal(t, "null\n", out)
	assert.Len(t, p.lines, 1, "input after :quit is not read")
}

func TestReplTests(t *testing.T) {
	out, _ := runRepl(t, `test("ok") { return true; }`)
	assert.Equal(t, "PASS ok\n\n", out)
}

func TestIncomplete(t *testing.T) {
	e := executor.New()
	tests := []struct {
		src  string
		want bool
	}{
		{"var x = 1;", false},
		{"fun f() {", true},
		{"fun f() { return [1,", true},
		{"fun f() { return [1, 2]; }", false},
		{"/* still", true},
		{"}", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, incomplete(e, tt.src), tt.src)
	}
}
