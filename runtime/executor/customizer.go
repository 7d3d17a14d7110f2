package executor

import (
	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/resolver"
)

// Hook says which side of a phase a customizer runs on.
type Hook int

const (
	Before Hook = iota
	After
)

func (h Hook) String() string {
	if h == Before {
		return "before"
	}
	return "after"
}

// PhaseView is the state of a run as seen by a customizer. Fields are nil
// until the phase producing them has finished. Customizers must not modify
// what the view points to.
type PhaseView struct {
	RunID      string
	Phase      diagnostic.Phase
	Hook       Hook
	Source     *diagnostic.Source
	Tokens     []lexer.Token
	Comments   []lexer.Comment
	Program    *ast.Program
	Resolution *resolver.Resolution
	// Diagnostics collected so far
	Diagnostics []diagnostic.Diagnostic
}

// Customizer observes a run around one phase.
type Customizer func(PhaseView)
