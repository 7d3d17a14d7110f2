package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/opal-lang/hsl/runtime/interpreter"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	historyFile = ".hsl_history"
	promptMain  = "hsl> "
	promptCont  = "...  "
)

// prompter is the part of *liner.State the loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func newReplCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Declarations persist between inputs and
a bare expression without a trailing ';' prints its value.

Commands: :globals lists bound names, :help shows this text, :quit exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := g.executorOptions(cmd, ".")
			if err != nil {
				return err
			}
			e := executor.New(opts...)

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			histPath := ""
			if home, err := os.UserHomeDir(); err == nil {
				histPath = filepath.Join(home, historyFile)
				if f, err := os.Open(histPath); err == nil {
					_, _ = ln.ReadHistory(f)
					_ = f.Close()
				}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			replLoop(ctx, e, ln, cmd.OutOrStdout(), g.useColor(cmd.OutOrStdout()))

			if histPath != "" {
				if f, err := os.Create(histPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}
			return nil
		},
	}
}

// replLoop reads inputs until EOF or :quit and runs each in one session.
func replLoop(ctx context.Context, e *executor.Executor, p prompter, out io.Writer, useColor bool) {
	session := e.NewSession()
	for {
		input, ok := readInput(e, p)
		if !ok {
			_, _ = fmt.Fprintln(out)
			return
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		p.AppendHistory(strings.ReplaceAll(input, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(session, trimmed, out); quit {
				return
			}
			continue
		}

		result, _ := session.Run(ctx, input)
		for _, d := range result.Diagnostics {
			FormatDiagnostic(out, d, useColor)
		}
		for _, t := range result.Tests {
			status := Colorize("PASS", ColorGreen, useColor)
			if !t.Passed {
				status = Colorize("FAIL", ColorRed, useColor)
			}
			_, _ = fmt.Fprintf(out, "%s %s\n", status, t.Name)
		}
		if result.HasValue {
			_, _ = fmt.Fprintln(out, Colorize(interpreter.Stringify(result.Value), ColorBlue, useColor))
		}
	}
}

// replCommand handles a ':' command and reports whether to quit.
func replCommand(s *executor.Session, command string, out io.Writer) bool {
	switch strings.Fields(command)[0] {
	case ":quit", ":q":
		return true
	case ":globals":
		for _, name := range s.Globals() {
			_, _ = fmt.Fprintln(out, name)
		}
	case ":help":
		_, _ = fmt.Fprintln(out, ":globals  list bound names\n:help     show this text\n:quit     leave the session")
	default:
		_, _ = fmt.Fprintf(out, "unknown command %s (try :help)\n", command)
	}
	return false
}

// readInput accumulates lines until brackets balance. ok is false at EOF.
func readInput(e *executor.Executor, p prompter) (input string, ok bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input.
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(e, b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src has unclosed brackets or an unterminated
// block comment.
func incomplete(e *executor.Executor, src string) bool {
	tokens, _, diags := e.Tokens(src)
	for _, d := range diags {
		if d.Message == "Unterminated block comment" {
			return true
		}
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case lexer.LBRACE, lexer.LPAREN, lexer.LSQUARE:
			depth++
		case lexer.RBRACE, lexer.RPAREN, lexer.RSQUARE:
			depth--
		}
	}
	return depth > 0
}
