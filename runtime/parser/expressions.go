package parser

import (
	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/lexer"
)

func (p *Parser) expression() ast.Expression {
	return p.assignment()
}

func isAssignmentOperator(t lexer.TokenType) bool {
	switch t {
	case lexer.EQUAL, lexer.PLUS_EQUAL, lexer.MINUS_EQUAL, lexer.STAR_EQUAL, lexer.SLASH_EQUAL, lexer.PERCENT_EQUAL:
		return true
	default:
		return false
	}
}

func (p *Parser) assignment() ast.Expression {
	expr := p.ternary()

	if !isAssignmentOperator(p.peek().Type) {
		return expr
	}
	operator := p.advance()
	value := p.assignment()

	switch target := expr.(type) {
	case *ast.Variable:
		return &ast.Assign{Name: target.Name, Operator: operator, Value: value}
	case *ast.Get:
		return &ast.Set{Object: target.Object, Name: target.Name, Operator: operator, Value: value}
	case *ast.Index:
		return &ast.IndexSet{Object: target.Object, Bracket: target.Bracket, Index: target.Index, Operator: operator, Value: value}
	default:
		// Reported without unwinding: the parser is not confused
		p.errorAt(operator, "Invalid assignment target")
		return expr
	}
}

func (p *Parser) ternary() ast.Expression {
	expr := p.elvis()
	if p.match(lexer.QUESTION) {
		question := p.previous()
		then := p.expression()
		p.expect(lexer.COLON, "in ternary expression")
		return &ast.Ternary{Condition: expr, Question: question, Then: then, Else: p.ternary()}
	}
	return expr
}

func (p *Parser) elvis() ast.Expression {
	expr := p.logicOr()
	if p.match(lexer.ELVIS) {
		operator := p.previous()
		return &ast.Elvis{Left: expr, Operator: operator, Right: p.elvis()}
	}
	return expr
}

func (p *Parser) logicOr() ast.Expression {
	expr := p.logicXor()
	for p.match(lexer.OR_OR) {
		operator := p.previous()
		expr = &ast.Logical{Left: expr, Operator: operator, Right: p.logicXor()}
	}
	return expr
}

func (p *Parser) logicXor() ast.Expression {
	expr := p.logicAnd()
	for p.match(lexer.CARET_CARET) {
		operator := p.previous()
		expr = &ast.Logical{Left: expr, Operator: operator, Right: p.logicAnd()}
	}
	return expr
}

func (p *Parser) logicAnd() ast.Expression {
	expr := p.bitOr()
	for p.match(lexer.AND_AND) {
		operator := p.previous()
		expr = &ast.Logical{Left: expr, Operator: operator, Right: p.bitOr()}
	}
	return expr
}

// binaryLevel parses a left-associative chain of operators over next.
func (p *Parser) binaryLevel(next func() ast.Expression, operators ...lexer.TokenType) ast.Expression {
	expr := next()
	for p.match(operators...) {
		operator := p.previous()
		expr = &ast.Binary{Left: expr, Operator: operator, Right: next()}
	}
	return expr
}

func (p *Parser) bitOr() ast.Expression {
	return p.binaryLevel(p.bitXor, lexer.PIPE)
}

func (p *Parser) bitXor() ast.Expression {
	return p.binaryLevel(p.bitAnd, lexer.CARET)
}

func (p *Parser) bitAnd() ast.Expression {
	return p.binaryLevel(p.equality, lexer.AMPERSAND)
}

func (p *Parser) equality() ast.Expression {
	return p.binaryLevel(p.infix, lexer.EQUAL_EQUAL, lexer.BANG_EQUAL)
}

// infix parses user operators declared with 'infix fun'
func (p *Parser) infix() ast.Expression {
	expr := p.comparison()
	for p.check(lexer.IDENTIFIER) && p.infixOps[p.peek().Lexeme] {
		operator := p.advance()
		expr = &ast.CustomInfix{Left: expr, Operator: operator, Right: p.comparison()}
	}
	return expr
}

func (p *Parser) comparison() ast.Expression {
	return p.binaryLevel(p.shift, lexer.GREATER, lexer.GREATER_EQUAL, lexer.LESS, lexer.LESS_EQUAL)
}

func (p *Parser) shift() ast.Expression {
	return p.binaryLevel(p.rangeExpr, lexer.SHIFT_LEFT, lexer.SHIFT_RIGHT, lexer.SHIFT_RIGHT_UNSIGNED)
}

func (p *Parser) rangeExpr() ast.Expression {
	expr := p.term()
	if p.match(lexer.DOT_DOT) {
		operator := p.previous()
		return &ast.Range{Left: expr, Operator: operator, Right: p.term()}
	}
	return expr
}

func (p *Parser) term() ast.Expression {
	return p.binaryLevel(p.factor, lexer.PLUS, lexer.MINUS)
}

func (p *Parser) factor() ast.Expression {
	return p.binaryLevel(p.unary, lexer.STAR, lexer.SLASH, lexer.PERCENT)
}

func (p *Parser) unary() ast.Expression {
	if p.match(lexer.BANG, lexer.MINUS, lexer.TILDE, lexer.PLUS_PLUS, lexer.MINUS_MINUS) {
		operator := p.previous()
		return &ast.Unary{Operator: operator, Right: p.unary()}
	}
	if p.check(lexer.IDENTIFIER) && p.prefixOps[p.peek().Lexeme] {
		operator := p.advance()
		return &ast.CustomPrefix{Operator: operator, Right: p.unary()}
	}
	return p.postfix()
}

func (p *Parser) postfix() ast.Expression {
	expr := p.call()
	for {
		switch {
		case p.match(lexer.PLUS_PLUS, lexer.MINUS_MINUS):
			expr = &ast.Postfix{Left: expr, Operator: p.previous()}
		case p.check(lexer.IDENTIFIER) && p.postfixOps[p.peek().Lexeme]:
			expr = &ast.CustomPostfix{Left: expr, Operator: p.advance()}
		default:
			return expr
		}
	}
}

func (p *Parser) call() ast.Expression {
	expr := p.primary()
	for {
		switch {
		case p.match(lexer.LPAREN):
			expr = p.finishCall(expr)
		case p.match(lexer.DOT):
			name := p.expect(lexer.IDENTIFIER, "for property name after '.'")
			expr = &ast.Get{Object: expr, Name: name}
		case p.match(lexer.LSQUARE):
			bracket := p.previous()
			index := p.expression()
			p.expect(lexer.RSQUARE, "after index")
			expr = &ast.Index{Object: expr, Bracket: bracket, Index: index}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expression) ast.Expression {
	var args []ast.Expression
	if !p.check(lexer.RPAREN) {
		for {
			if len(args) >= 255 {
				p.errorAt(p.peek(), "Can't have more than 255 arguments")
			}
			args = append(args, p.expression())
			if !p.match(lexer.COMMA) {
				break
			}
		}
	}
	paren := p.expect(lexer.RPAREN, "after arguments")
	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expression {
	tok := p.peek()
	switch tok.Type {
	case lexer.NUMBER, lexer.STRING, lexer.CHAR, lexer.TRUE, lexer.FALSE:
		p.advance()
		return &ast.Literal{Token: tok, Value: tok.Literal}
	case lexer.NULL:
		p.advance()
		return &ast.Literal{Token: tok, Value: nil}
	case lexer.THIS:
		p.advance()
		return &ast.This{Keyword: tok}
	case lexer.SUPER:
		p.advance()
		p.expect(lexer.DOT, "after 'super'")
		method := p.expect(lexer.IDENTIFIER, "for superclass method name")
		return &ast.Super{Keyword: tok, Method: method}
	case lexer.IDENTIFIER:
		p.advance()
		return &ast.Variable{Name: tok}
	case lexer.LPAREN:
		p.advance()
		expr := p.expression()
		p.expect(lexer.RPAREN, "after expression")
		return &ast.Grouping{Expression: expr}
	case lexer.LSQUARE:
		p.advance()
		return p.array(tok)
	default:
		p.fail(tok, "Expect expression")
		return nil
	}
}

// array parses an array literal or comprehension after '['.
func (p *Parser) array(bracket lexer.Token) ast.Expression {
	if p.match(lexer.RSQUARE) {
		return &ast.ArrayLiteral{Bracket: bracket}
	}

	first := p.expression()
	if p.match(lexer.FOR) {
		return p.comprehension(bracket, first)
	}

	elements := []ast.Expression{first}
	for p.match(lexer.COMMA) {
		if p.check(lexer.RSQUARE) {
			break // trailing comma
		}
		elements = append(elements, p.expression())
	}
	p.expect(lexer.RSQUARE, "after array elements")
	return &ast.ArrayLiteral{Bracket: bracket, Elements: elements}
}

func (p *Parser) comprehension(bracket lexer.Token, element ast.Expression) ast.Expression {
	name := p.expect(lexer.IDENTIFIER, "for comprehension variable")
	p.expect(lexer.IN, "after comprehension variable")
	iterable := p.ternary()

	c := &ast.Comprehension{Bracket: bracket, Element: element, Name: name, Iterable: iterable}
	if p.match(lexer.IF) {
		c.Cond = p.ternary()
		if p.match(lexer.ELSE) {
			c.Else = p.expression()
		}
	}
	p.expect(lexer.RSQUARE, "after comprehension")
	return c
}
