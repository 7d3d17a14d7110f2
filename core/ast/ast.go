// Package ast defines the HSL syntax tree.
//
// Expression and Statement are closed sum types: only this package can add
// variants, and consumers type-switch over them with one case per variant.
// Nodes are immutable after parsing. Passes that need per-node data (the
// resolver's scope distances) key side tables by node pointer.
package ast

import (
	"strings"

	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// Node represents any node in the AST
type Node interface {
	String() string
	Position() lexer.Position
}

// Expression is any node that produces a value
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node executed for its effect
type Statement interface {
	Node
	statementNode()
}

// Program is the root of a parsed script
type Program struct {
	Statements []Statement
	Source     *diagnostic.Source
}

func (p *Program) String() string {
	parts := make([]string, 0, len(p.Statements))
	for _, s := range p.Statements {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "\n")
}

func (p *Program) Position() lexer.Position {
	if len(p.Statements) == 0 {
		return lexer.Position{Line: 1, Column: 1}
	}
	return p.Statements[0].Position()
}

func joinNodes[T Node](nodes []T, sep string) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, sep)
}

func joinTokens(tokens []lexer.Token, sep string) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Lexeme)
	}
	return strings.Join(parts, sep)
}
