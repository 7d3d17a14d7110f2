package parser

import (
	"testing"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/stretchr/testify/require"
)

// parse lexes and parses input, failing the test on lexing errors
func parse(t *testing.T, input string, opts ...ParserOpt) (*ast.Program, *diagnostic.Collector, *Parser) {
	t.Helper()

	var lexErrs diagnostic.Collector
	src := diagnostic.NewSource("test.hsl", input)
	tokens, _ := lexer.New(lexer.Default(), &lexErrs).ScanSource(src)
	require.False(t, lexErrs.HasErrors(), "lexing errors: %s", diagnostic.Join(lexErrs.Diagnostics()))

	var errs diagnostic.Collector
	p := New(lexer.Default(), &errs, src, tokens, opts...)
	return p.Parse(), &errs, p
}

// parseOK parses input that must be valid
func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, errs, _ := parse(t, input)
	require.False(t, errs.HasErrors(), "parse errors:\n%s", diagnostic.Join(errs.Diagnostics()))
	return program
}

func parseExpression(t *testing.T, input string) (ast.Expression, *diagnostic.Collector) {
	t.Helper()
	var errs diagnostic.Collector
	tokens, _ := lexer.New(lexer.Default(), &errs).Scan(input)
	require.False(t, errs.HasErrors())
	return New(lexer.Default(), &errs, diagnostic.NewEvalSource(input), tokens).ParseExpression(), &errs
}
