package parser

import (
	"fmt"

	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// bailout unwinds the parser to the nearest declaration boundary after an
// error has been reported.
type bailout struct{}

// errorAt reports a parse error at tok without unwinding.
func (p *Parser) errorAt(tok lexer.Token, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if tok.Type == lexer.EOF {
		msg += " at end"
	} else {
		msg += fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	err := diagnostic.NewScriptError(diagnostic.Parsing, tok.Position, "%s", msg).WithSource(p.source)
	p.errorCount++
	p.reporter.Report(err)
}

// fail reports an error at tok and unwinds.
func (p *Parser) fail(tok lexer.Token, format string, args ...interface{}) {
	p.errorAt(tok, format, args...)
	panic(bailout{})
}

// recoverTo catches a bailout and skips to the next statement boundary.
// Any other panic is re-raised.
func (p *Parser) recoverTo() {
	if r := recover(); r != nil {
		if _, ok := r.(bailout); !ok {
			panic(r)
		}
		p.synchronize()
	}
}

// synchronize discards tokens until a likely statement start. A statement
// ends after ';' and starts at any standalone token or a simple-statement
// keyword.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Type == lexer.SEMICOLON {
			return
		}
		next := p.peek().Type
		if p.registry.IsStandalone(next) {
			return
		}
		switch next {
		case lexer.VAR, lexer.FINAL, lexer.RETURN, lexer.PRINT, lexer.NATIVE, lexer.USING,
			lexer.BREAK, lexer.CONTINUE, lexer.RBRACE:
			return
		}
		p.advance()
	}
}
