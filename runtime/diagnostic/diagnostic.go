// Package diagnostic holds the error model shared by every HSL phase.
//
// Lexing, parsing and resolving failures are ScriptErrors and stop the run
// before interpretation. Failures during evaluation are RuntimeErrors. Both
// flatten into a Diagnostic for embedders and tooling.
package diagnostic

import (
	"fmt"
	"strings"
)

// Phase identifies the toolchain stage that produced a diagnostic.
type Phase int

const (
	Lexing Phase = iota
	Parsing
	Resolving
	Interpreting
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case Lexing:
		return "lexing"
	case Parsing:
		return "parsing"
	case Resolving:
		return "resolving"
	case Interpreting:
		return "interpreting"
	default:
		return "unknown"
	}
}

// Position is a location in source text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number (rune index within the line)
	Offset int // 0-based byte offset
}

// IsValid reports whether the position points into a source.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// String renders "line:column".
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic is the flat, embedder-facing form of any script failure.
type Diagnostic struct {
	Phase   Phase
	Message string
	Line    int
	Column  int
	Excerpt string // Source line plus caret, empty when the source is unknown
}

// String renders the diagnostic the same way the originating error does.
func (d Diagnostic) String() string {
	head := fmt.Sprintf("%s error at %d:%d: %s", d.Phase, d.Line, d.Column, d.Message)
	if d.Excerpt == "" {
		return head
	}
	return head + "\n" + d.Excerpt
}

// Diagnosable is implemented by every error the toolchain reports.
type Diagnosable interface {
	error
	Diagnostic() Diagnostic
}

// ScriptError is a lexing, parsing or resolution failure. It is fatal for the run.
type ScriptError struct {
	Phase    Phase
	Message  string
	Position Position
	Source   *Source // Optional, enables the caret excerpt
	Cause    error
}

// NewScriptError creates a script error at the given position.
func NewScriptError(phase Phase, pos Position, format string, args ...interface{}) *ScriptError {
	return &ScriptError{
		Phase:    phase,
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	}
}

// WithSource attaches the source used to render the excerpt.
func (e *ScriptError) WithSource(src *Source) *ScriptError {
	e.Source = src
	return e
}

func (e *ScriptError) Error() string { return e.Diagnostic().String() }
func (e *ScriptError) Unwrap() error { return e.Cause }

// Diagnostic flattens the error.
func (e *ScriptError) Diagnostic() Diagnostic {
	return Diagnostic{
		Phase:   e.Phase,
		Message: e.Message,
		Line:    e.Position.Line,
		Column:  e.Position.Column,
		Excerpt: Excerpt(e.Source, e.Position),
	}
}

// RuntimeError is raised while evaluating a script. It carries the lexeme of
// the token that triggered it.
type RuntimeError struct {
	Message  string
	Lexeme   string
	Position Position
	Source   *Source
	Cause    error

	// Fatal errors end the whole run instead of the current statement.
	Fatal bool
}

// NewRuntimeError creates a runtime error for the token at pos.
func NewRuntimeError(lexeme string, pos Position, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Message:  fmt.Sprintf(format, args...),
		Lexeme:   lexeme,
		Position: pos,
	}
}

// CausedBy records the underlying error, typically a host failure.
func (e *RuntimeError) CausedBy(cause error) *RuntimeError {
	e.Cause = cause
	return e
}

// WithSource attaches the source used to render the excerpt.
func (e *RuntimeError) WithSource(src *Source) *RuntimeError {
	e.Source = src
	return e
}

func (e *RuntimeError) Error() string { return e.Diagnostic().String() }
func (e *RuntimeError) Unwrap() error { return e.Cause }

// Diagnostic flattens the error.
func (e *RuntimeError) Diagnostic() Diagnostic {
	return Diagnostic{
		Phase:   Interpreting,
		Message: e.Message,
		Line:    e.Position.Line,
		Column:  e.Position.Column,
		Excerpt: Excerpt(e.Source, e.Position),
	}
}

// Join renders several diagnostics separated by blank lines.
func Join(diags []Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "\n\n")
}
