package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/executor"
)

// CLIError represents a formatted CLI error with context
type CLIError struct {
	Message string
	Details string // Additional context
	Hint    string // How to fix it
}

// Error implements the error interface
func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString("\n")
		b.WriteString(e.Details)
	}
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// FormatError formats an error for CLI output with colors
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}

	var cliErr *CLIError
	var scriptErr *diagnostic.ScriptError
	var runtimeErr *diagnostic.RuntimeError
	switch {
	case errors.As(err, &cliErr):
		formatCLIError(w, cliErr, useColor)
	case errors.As(err, &scriptErr):
		FormatDiagnostic(w, scriptErr.Diagnostic(), useColor)
	case errors.As(err, &runtimeErr):
		FormatDiagnostic(w, runtimeErr.Diagnostic(), useColor)
	default:
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Error())
	}
}

// FormatDiagnostic prints one diagnostic with its excerpt.
func FormatDiagnostic(w io.Writer, d diagnostic.Diagnostic, useColor bool) {
	head := fmt.Sprintf("%s error at %d:%d:", d.Phase, d.Line, d.Column)
	_, _ = fmt.Fprintf(w, "%s %s\n", Colorize(head, ColorRed, useColor), d.Message)
	if d.Excerpt != "" {
		_, _ = fmt.Fprintf(w, "%s\n", Colorize(d.Excerpt, ColorGray, useColor))
	}
}

// FormatResult prints diagnostics and test outcomes of a run and returns
// a *scriptFailure if there was anything wrong.
func FormatResult(w io.Writer, result *executor.Result, useColor bool) error {
	for _, d := range result.Diagnostics {
		FormatDiagnostic(w, d, useColor)
	}
	for _, t := range result.Tests {
		if t.Passed {
			_, _ = fmt.Fprintf(w, "%s %s\n", Colorize("PASS", ColorGreen, useColor), t.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s %s (line %d)", Colorize("FAIL", ColorRed, useColor), t.Name, t.Position.Line)
		if t.Message != "" {
			_, _ = fmt.Fprintf(w, ": %s", t.Message)
		}
		_, _ = fmt.Fprintln(w)
	}
	if result.OK() && result.FailedTests() == 0 {
		return nil
	}
	return &scriptFailure{diagnostics: len(result.Diagnostics), failedTests: result.FailedTests()}
}

// formatCLIError formats CLI errors
func formatCLIError(w io.Writer, err *CLIError, useColor bool) {
	_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Error: ", ColorRed, useColor), err.Message)

	if err.Details != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", err.Details)
	}

	if err.Hint != "" {
		_, _ = fmt.Fprintf(w, "%s%s\n", Colorize("Hint: ", ColorYellow, useColor), err.Hint)
	}
}
