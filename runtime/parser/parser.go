// Package parser builds core/ast programs from lexer tokens.
//
// The parser is recursive descent with one method per grammar rule. Errors are
// reported through a diagnostic.Reporter; after an error the parser skips to
// the next statement boundary so one run surfaces every syntax problem.
package parser

import (
	"time"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// Parser holds the state of one parse. Create a new Parser per source.
type Parser struct {
	registry *lexer.Registry
	reporter diagnostic.Reporter
	config   *ParserConfig
	source   *diagnostic.Source

	tokens  []lexer.Token
	current int

	// Names declared with prefix/infix/postfix fun so far
	prefixOps  map[string]bool
	infixOps   map[string]bool
	postfixOps map[string]bool

	errorCount  int
	telemetry   *ParseTelemetry
	debugEvents []DebugEvent
}

// New creates a parser for tokens scanned from src.
func New(registry *lexer.Registry, reporter diagnostic.Reporter, src *diagnostic.Source, tokens []lexer.Token, opts ...ParserOpt) *Parser {
	invariant.NotNil(registry, "registry")
	invariant.NotNil(reporter, "reporter")
	invariant.Precondition(len(tokens) > 0 && tokens[len(tokens)-1].Type == lexer.EOF,
		"token stream must end with EOF")

	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}

	ops := config.operators
	if ops == nil {
		ops = NewOperators()
	}

	p := &Parser{
		registry:   registry,
		reporter:   reporter,
		config:     config,
		source:     src,
		tokens:     tokens,
		prefixOps:  ops.Prefix,
		infixOps:   ops.Infix,
		postfixOps: ops.Postfix,
	}
	if config.telemetry >= TelemetryBasic {
		p.telemetry = &ParseTelemetry{}
	}
	if config.debug > DebugOff {
		p.debugEvents = make([]DebugEvent, 0, 64)
	}
	return p
}

// Parse parses a whole program. The program is returned even when errors
// were reported; callers check their reporter before using it.
func (p *Parser) Parse() *ast.Program {
	var start time.Time
	if p.config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	program := &ast.Program{Source: p.source}
	for !p.atEnd() {
		if stmt := p.declaration(); stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
	}

	if p.telemetry != nil {
		p.telemetry.TokenCount = p.current
		p.telemetry.StatementCount = len(program.Statements)
		p.telemetry.ErrorCount = p.errorCount
		if p.config.telemetry >= TelemetryTiming {
			p.telemetry.ParseTime = time.Since(start)
		}
	}
	return program
}

// ParseExpression parses a single expression spanning all tokens.
// Returns nil when an error was reported.
func (p *Parser) ParseExpression() (expr ast.Expression) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			expr = nil
		}
	}()

	expr = p.expression()
	if !p.atEnd() {
		p.fail(p.peek(), "Expect end of expression")
	}
	if p.errorCount > 0 {
		return nil
	}
	return expr
}

// Telemetry returns collected metrics, or nil when telemetry is off.
func (p *Parser) Telemetry() *ParseTelemetry {
	return p.telemetry
}

// DebugEvents returns the rule trace recorded with WithDebugPaths.
func (p *Parser) DebugEvents() []DebugEvent {
	return p.debugEvents
}

// ErrorCount returns how many errors were reported.
func (p *Parser) ErrorCount() int {
	return p.errorCount
}

func (p *Parser) trace(event string) {
	if p.config.debug == DebugOff {
		return
	}
	p.debugEvents = append(p.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		TokenPos:  p.current,
		Context:   p.peek().Lexeme,
	})
}

// Token helpers

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(offset int) lexer.Token {
	i := p.current + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) previous() lexer.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == lexer.EOF
}

func (p *Parser) advance() lexer.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

// consume advances past a token of type t or fails with message.
func (p *Parser) consume(t lexer.TokenType, message string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	p.fail(p.peek(), "%s", message)
	return lexer.Token{}
}

// describe renders a token type for messages ("';'", "identifier").
func (p *Parser) describe(t lexer.TokenType) string {
	switch t {
	case lexer.IDENTIFIER:
		return "identifier"
	case lexer.STRING:
		return "string"
	default:
		return "'" + p.registry.Representation(t) + "'"
	}
}

// expect consumes t or fails with "Expect <t> <context>".
func (p *Parser) expect(t lexer.TokenType, context string) lexer.Token {
	return p.consume(t, "Expect "+p.describe(t)+" "+context)
}
