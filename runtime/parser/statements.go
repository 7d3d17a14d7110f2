package parser

import (
	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// declaration parses one top-level or block-level statement, recovering from
// errors. Returns nil after an error.
func (p *Parser) declaration() (stmt ast.Statement) {
	defer p.recoverTo()
	p.trace("enter_declaration")

	switch {
	case p.match(lexer.FINAL):
		return p.finalDeclaration()
	case p.match(lexer.VAR):
		return p.varDeclaration(false)
	case p.check(lexer.FUN), p.check(lexer.PREFIX), p.check(lexer.INFIX), p.check(lexer.POSTFIX):
		return p.function(false)
	case p.match(lexer.CLASS):
		return p.classDeclaration(false)
	case p.match(lexer.NATIVE):
		return p.nativeDeclaration()
	case p.match(lexer.USING):
		return p.usingStatement()
	default:
		return p.statement()
	}
}

func (p *Parser) finalDeclaration() ast.Statement {
	switch {
	case p.match(lexer.VAR):
		return p.varDeclaration(true)
	case p.check(lexer.FUN), p.check(lexer.PREFIX), p.check(lexer.INFIX), p.check(lexer.POSTFIX):
		return p.function(true)
	case p.match(lexer.CLASS):
		return p.classDeclaration(true)
	default:
		p.fail(p.peek(), "Expect 'var', 'fun' or 'class' after 'final'")
		return nil
	}
}

func (p *Parser) varDeclaration(final bool) *ast.Var {
	name := p.expect(lexer.IDENTIFIER, "for variable name")

	var initializer ast.Expression
	if p.match(lexer.EQUAL) {
		initializer = p.expression()
	}
	p.expect(lexer.SEMICOLON, "after variable declaration")
	return &ast.Var{Name: name, Initializer: initializer, Final: final}
}

// function parses 'fun', 'prefix fun', 'infix fun' and 'postfix fun'
// declarations, including extension functions 'fun Class:name()'.
func (p *Parser) function(final bool) *ast.Function {
	p.trace("enter_function")

	kind := ast.PlainFunction
	switch {
	case p.match(lexer.PREFIX):
		kind = ast.PrefixOperator
	case p.match(lexer.INFIX):
		kind = ast.InfixOperator
	case p.match(lexer.POSTFIX):
		kind = ast.PostfixOperator
	}
	p.expect(lexer.FUN, "to declare a function")

	name := p.expect(lexer.IDENTIFIER, "for function name")
	var receiver *ast.Variable
	if kind == ast.PlainFunction && p.match(lexer.COLON) {
		receiver = &ast.Variable{Name: name}
		name = p.expect(lexer.IDENTIFIER, "for extension function name")
	}

	// Register operators before the body so recursive use parses
	switch kind {
	case ast.PrefixOperator:
		p.prefixOps[name.Lexeme] = true
	case ast.InfixOperator:
		p.infixOps[name.Lexeme] = true
	case ast.PostfixOperator:
		p.postfixOps[name.Lexeme] = true
	}

	params := p.parameters()
	switch {
	case kind == ast.PrefixOperator && len(params) != 1:
		p.errorAt(name, "Prefix operator '%s' must take exactly one parameter", name.Lexeme)
	case kind == ast.PostfixOperator && len(params) != 1:
		p.errorAt(name, "Postfix operator '%s' must take exactly one parameter", name.Lexeme)
	case kind == ast.InfixOperator && len(params) != 2:
		p.errorAt(name, "Infix operator '%s' must take exactly two parameters", name.Lexeme)
	}

	body := p.blockBody("function body")
	return &ast.Function{
		Name:     name,
		Params:   params,
		Body:     body,
		Kind:     kind,
		Final:    final,
		Receiver: receiver,
	}
}

// parameters parses '(' (IDENT (',' IDENT)*)? ')'
func (p *Parser) parameters() []lexer.Token {
	p.expect(lexer.LPAREN, "before parameters")
	var params []lexer.Token
	if !p.check(lexer.RPAREN) {
		for {
			if len(params) >= 255 {
				p.errorAt(p.peek(), "Can't have more than 255 parameters")
			}
			params = append(params, p.expect(lexer.IDENTIFIER, "for parameter name"))
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	p.expect(lexer.RPAREN, "after parameters")
	return params
}

func (p *Parser) classDeclaration(final bool) *ast.Class {
	p.trace("enter_class")

	class := &ast.Class{Final: final}
	class.Name = p.expect(lexer.IDENTIFIER, "for class name")
	if p.match(lexer.EXTENDS) {
		class.Superclass = &ast.Variable{Name: p.expect(lexer.IDENTIFIER, "for superclass name")}
	}

	p.expect(lexer.LBRACE, "before class body")
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		p.member(class)
	}
	p.expect(lexer.RBRACE, "after class body")
	return class
}

func (p *Parser) member(class *ast.Class) {
	if p.match(lexer.CONSTRUCTOR) {
		keyword := p.previous()
		params := p.parameters()
		body := p.blockBody("constructor body")
		if class.Constructor != nil {
			p.errorAt(keyword, "A class can only have one constructor")
			return
		}
		class.Constructor = &ast.Function{Name: keyword, Params: params, Body: body, Kind: ast.Constructor}
		return
	}

	private := false
	if p.match(lexer.PRIVATE) {
		private = true
	} else {
		p.match(lexer.PUBLIC)
	}

	if p.match(lexer.FUN) {
		name := p.expect(lexer.IDENTIFIER, "for method name")
		params := p.parameters()
		body := p.blockBody("method body")
		class.Methods = append(class.Methods, &ast.Function{
			Name: name, Params: params, Body: body, Kind: ast.Method, Private: private,
		})
		return
	}

	final := p.match(lexer.FINAL)
	name := p.expect(lexer.IDENTIFIER, "for field name")
	var initializer ast.Expression
	if p.match(lexer.EQUAL) {
		initializer = p.expression()
	}
	p.expect(lexer.SEMICOLON, "after field declaration")
	class.Fields = append(class.Fields, &ast.Field{Name: name, Initializer: initializer, Private: private, Final: final})
}

func (p *Parser) nativeDeclaration() *ast.Native {
	keyword := p.previous()
	p.expect(lexer.FUN, "after 'native'")
	module := p.expect(lexer.IDENTIFIER, "for module name")
	p.expect(lexer.DOT, "after module name")
	name := p.expect(lexer.IDENTIFIER, "for native function name")
	params := p.parameters()
	p.expect(lexer.SEMICOLON, "after native declaration")
	return &ast.Native{Keyword: keyword, Module: module, Name: name, Params: params}
}

func (p *Parser) usingStatement() *ast.Using {
	keyword := p.previous()
	module := p.expect(lexer.IDENTIFIER, "for module name")
	p.expect(lexer.SEMICOLON, "after module name")
	return &ast.Using{Keyword: keyword, Module: module}
}

func (p *Parser) statement() ast.Statement {
	switch {
	case p.match(lexer.IF):
		return p.ifStatement()
	case p.match(lexer.WHILE):
		return p.whileStatement()
	case p.match(lexer.DO):
		return p.doWhileStatement()
	case p.match(lexer.FOR):
		return p.forStatement()
	case p.match(lexer.REPEAT):
		return p.repeatStatement()
	case p.match(lexer.SWITCH):
		return p.switchStatement()
	case p.match(lexer.TEST):
		return p.testStatement()
	case p.match(lexer.PRINT):
		return p.printStatement()
	case p.match(lexer.RETURN):
		return p.returnStatement()
	case p.match(lexer.BREAK):
		keyword := p.previous()
		p.expect(lexer.SEMICOLON, "after 'break'")
		return &ast.Break{Keyword: keyword}
	case p.match(lexer.CONTINUE):
		keyword := p.previous()
		p.expect(lexer.SEMICOLON, "after 'continue'")
		return &ast.Continue{Keyword: keyword}
	case p.match(lexer.LBRACE):
		brace := p.previous()
		return &ast.Block{Brace: brace, Statements: p.block()}
	default:
		return p.expressionStatement()
	}
}

// block parses declarations up to and including the closing '}'.
// The opening brace has been consumed.
func (p *Parser) block() []ast.Statement {
	var statements []ast.Statement
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		if stmt := p.declaration(); stmt != nil {
			statements = append(statements, stmt)
		}
	}
	p.expect(lexer.RBRACE, "after block")
	return statements
}

// blockBody consumes '{' and parses a block.
func (p *Parser) blockBody(context string) []ast.Statement {
	p.expect(lexer.LBRACE, "before "+context)
	return p.block()
}

func (p *Parser) ifStatement() *ast.If {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'if'")
	condition := p.expression()
	p.expect(lexer.RPAREN, "after if condition")

	then := p.statement()
	var elseBranch ast.Statement
	if p.match(lexer.ELSE) {
		elseBranch = p.statement()
	}
	return &ast.If{Keyword: keyword, Condition: condition, Then: then, Else: elseBranch}
}

func (p *Parser) whileStatement() *ast.While {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'while'")
	condition := p.expression()
	p.expect(lexer.RPAREN, "after condition")
	return &ast.While{Keyword: keyword, Condition: condition, Body: p.statement()}
}

func (p *Parser) doWhileStatement() *ast.DoWhile {
	keyword := p.previous()
	brace := p.expect(lexer.LBRACE, "after 'do'")
	body := &ast.Block{Brace: brace, Statements: p.block()}
	p.expect(lexer.WHILE, "after do body")
	p.expect(lexer.LPAREN, "after 'while'")
	condition := p.expression()
	p.expect(lexer.RPAREN, "after condition")
	p.expect(lexer.SEMICOLON, "after do-while")
	return &ast.DoWhile{Keyword: keyword, Body: body, Condition: condition}
}

func (p *Parser) forStatement() ast.Statement {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'for'")

	// for (x in xs) or for (var x in xs)
	if p.check(lexer.IDENTIFIER) && p.peekAt(1).Type == lexer.IN ||
		p.check(lexer.VAR) && p.peekAt(1).Type == lexer.IDENTIFIER && p.peekAt(2).Type == lexer.IN {
		p.match(lexer.VAR)
		name := p.advance()
		p.advance() // in
		iterable := p.expression()
		p.expect(lexer.RPAREN, "after for-in clause")
		return &ast.ForEach{Keyword: keyword, Name: name, Iterable: iterable, Body: p.statement()}
	}

	var initializer ast.Statement
	switch {
	case p.match(lexer.SEMICOLON):
	case p.match(lexer.VAR):
		initializer = p.varDeclaration(false)
	default:
		initializer = p.expressionStatement()
	}

	var condition ast.Expression
	if !p.check(lexer.SEMICOLON) {
		condition = p.expression()
	}
	p.expect(lexer.SEMICOLON, "after loop condition")

	var increment ast.Expression
	if !p.check(lexer.RPAREN) {
		increment = p.expression()
	}
	p.expect(lexer.RPAREN, "after for clauses")

	return &ast.For{
		Keyword:     keyword,
		Initializer: initializer,
		Condition:   condition,
		Increment:   increment,
		Body:        p.statement(),
	}
}

func (p *Parser) repeatStatement() *ast.Repeat {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'repeat'")
	count := p.expression()
	p.expect(lexer.RPAREN, "after repeat count")
	return &ast.Repeat{Keyword: keyword, Count: count, Body: p.statement()}
}

func (p *Parser) switchStatement() *ast.Switch {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'switch'")
	subject := p.expression()
	p.expect(lexer.RPAREN, "after switch subject")
	p.expect(lexer.LBRACE, "before switch body")

	sw := &ast.Switch{Keyword: keyword, Subject: subject}
	for !p.check(lexer.RBRACE) && !p.atEnd() {
		switch {
		case p.match(lexer.CASE):
			caseKeyword := p.previous()
			if sw.Default != nil {
				p.errorAt(caseKeyword, "A case cannot follow the default case")
			}
			value := p.expression()
			p.expect(lexer.COLON, "after case value")
			sw.Cases = append(sw.Cases, ast.SwitchCase{Keyword: caseKeyword, Value: value, Body: p.statement()})
		case p.match(lexer.DEFAULT):
			if sw.Default != nil {
				p.errorAt(p.previous(), "A switch can only have one default case")
			}
			p.expect(lexer.COLON, "after 'default'")
			sw.Default = p.statement()
		default:
			p.fail(p.peek(), "Expect 'case' or 'default' in switch body")
		}
	}
	p.expect(lexer.RBRACE, "after switch body")
	return sw
}

func (p *Parser) testStatement() *ast.Test {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'test'")
	name := p.expect(lexer.STRING, "for test name")
	p.expect(lexer.RPAREN, "after test name")
	return &ast.Test{Keyword: keyword, Name: name, Body: p.blockBody("test body")}
}

func (p *Parser) printStatement() *ast.Print {
	keyword := p.previous()
	p.expect(lexer.LPAREN, "after 'print'")
	value := p.expression()
	p.expect(lexer.RPAREN, "after value")
	p.expect(lexer.SEMICOLON, "after print statement")
	return &ast.Print{Keyword: keyword, Expression: value}
}

func (p *Parser) returnStatement() *ast.Return {
	keyword := p.previous()
	var value ast.Expression
	if !p.check(lexer.SEMICOLON) {
		value = p.expression()
	}
	p.expect(lexer.SEMICOLON, "after return value")
	return &ast.Return{Keyword: keyword, Value: value}
}

func (p *Parser) expressionStatement() *ast.ExpressionStmt {
	expr := p.expression()
	p.expect(lexer.SEMICOLON, "after expression")
	return &ast.ExpressionStmt{Expression: expr}
}
