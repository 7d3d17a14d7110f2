package ast

import (
	"fmt"
	"strconv"

	"github.com/opal-lang/hsl/runtime/lexer"
)

// Literal is a number, string, character, boolean or null.
// Value holds float64, string, rune, bool or nil.
type Literal struct {
	Token lexer.Token
	Value interface{}
}

func (l *Literal) String() string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return strconv.Quote(v)
	case rune:
		return strconv.QuoteRune(v)
	default:
		return fmt.Sprint(v)
	}
}

func (l *Literal) Position() lexer.Position { return l.Token.Position }

// Variable is a reference to a named binding
type Variable struct {
	Name lexer.Token
}

func (v *Variable) String() string            { return v.Name.Lexeme }
func (v *Variable) Position() lexer.Position { return v.Name.Position }

// Assign writes to a named binding. Operator is '=' or a compound assignment.
type Assign struct {
	Name     lexer.Token
	Operator lexer.Token
	Value    Expression
}

func (a *Assign) String() string {
	return fmt.Sprintf("(%s %s %s)", a.Operator.Lexeme, a.Name.Lexeme, a.Value)
}
func (a *Assign) Position() lexer.Position { return a.Name.Position }

// Binary is an arithmetic, comparison, equality or bitwise operation
type Binary struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Operator.Lexeme, b.Left, b.Right)
}
func (b *Binary) Position() lexer.Position { return b.Left.Position() }

// Logical is '&&', '||' or '^^'
type Logical struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (l *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", l.Operator.Lexeme, l.Left, l.Right)
}
func (l *Logical) Position() lexer.Position { return l.Left.Position() }

// Unary is a built-in prefix operator: '!', '-', '~', '++' or '--'
type Unary struct {
	Operator lexer.Token
	Right    Expression
}

func (u *Unary) String() string {
	return fmt.Sprintf("(%s %s)", u.Operator.Lexeme, u.Right)
}
func (u *Unary) Position() lexer.Position { return u.Operator.Position }

// Postfix is a built-in postfix '++' or '--'
type Postfix struct {
	Left     Expression
	Operator lexer.Token
}

func (p *Postfix) String() string {
	return fmt.Sprintf("(%s post%s)", p.Left, p.Operator.Lexeme)
}
func (p *Postfix) Position() lexer.Position { return p.Left.Position() }

// CustomPrefix applies a user operator declared with 'prefix fun'
type CustomPrefix struct {
	Operator lexer.Token
	Right    Expression
}

func (c *CustomPrefix) String() string {
	return fmt.Sprintf("(%s %s)", c.Operator.Lexeme, c.Right)
}
func (c *CustomPrefix) Position() lexer.Position { return c.Operator.Position }

// CustomInfix applies a user operator declared with 'infix fun'
type CustomInfix struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (c *CustomInfix) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Operator.Lexeme, c.Left, c.Right)
}
func (c *CustomInfix) Position() lexer.Position { return c.Left.Position() }

// CustomPostfix applies a user operator declared with 'postfix fun'
type CustomPostfix struct {
	Left     Expression
	Operator lexer.Token
}

func (c *CustomPostfix) String() string {
	return fmt.Sprintf("(%s post %s)", c.Left, c.Operator.Lexeme)
}
func (c *CustomPostfix) Position() lexer.Position { return c.Left.Position() }

// Ternary is 'cond ? then : else'
type Ternary struct {
	Condition Expression
	Question  lexer.Token
	Then      Expression
	Else      Expression
}

func (t *Ternary) String() string {
	return fmt.Sprintf("(? %s %s %s)", t.Condition, t.Then, t.Else)
}
func (t *Ternary) Position() lexer.Position { return t.Condition.Position() }

// Elvis is 'left ?: right'
type Elvis struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (e *Elvis) String() string {
	return fmt.Sprintf("(?: %s %s)", e.Left, e.Right)
}
func (e *Elvis) Position() lexer.Position { return e.Left.Position() }

// Range is 'left..right'
type Range struct {
	Left     Expression
	Operator lexer.Token
	Right    Expression
}

func (r *Range) String() string {
	return fmt.Sprintf("(.. %s %s)", r.Left, r.Right)
}
func (r *Range) Position() lexer.Position { return r.Left.Position() }

// Grouping is a parenthesized expression
type Grouping struct {
	Expression Expression
}

func (g *Grouping) String() string            { return fmt.Sprintf("(group %s)", g.Expression) }
func (g *Grouping) Position() lexer.Position { return g.Expression.Position() }

// Call invokes a callee. Paren is the closing parenthesis, used for errors.
type Call struct {
	Callee    Expression
	Paren     lexer.Token
	Arguments []Expression
}

func (c *Call) String() string {
	if len(c.Arguments) == 0 {
		return fmt.Sprintf("(call %s)", c.Callee)
	}
	return fmt.Sprintf("(call %s %s)", c.Callee, joinNodes(c.Arguments, " "))
}
func (c *Call) Position() lexer.Position { return c.Callee.Position() }

// Get reads a property
type Get struct {
	Object Expression
	Name   lexer.Token
}

func (g *Get) String() string            { return fmt.Sprintf("(. %s %s)", g.Object, g.Name.Lexeme) }
func (g *Get) Position() lexer.Position { return g.Object.Position() }

// Set writes a property. Operator is '=' or a compound assignment.
type Set struct {
	Object   Expression
	Name     lexer.Token
	Operator lexer.Token
	Value    Expression
}

func (s *Set) String() string {
	return fmt.Sprintf("(%s (. %s %s) %s)", s.Operator.Lexeme, s.Object, s.Name.Lexeme, s.Value)
}
func (s *Set) Position() lexer.Position { return s.Object.Position() }

// Index reads an array element
type Index struct {
	Object  Expression
	Bracket lexer.Token
	Index   Expression
}

func (i *Index) String() string            { return fmt.Sprintf("([] %s %s)", i.Object, i.Index) }
func (i *Index) Position() lexer.Position { return i.Object.Position() }

// IndexSet writes an array element. Operator is '=' or a compound assignment.
type IndexSet struct {
	Object   Expression
	Bracket  lexer.Token
	Index    Expression
	Operator lexer.Token
	Value    Expression
}

func (i *IndexSet) String() string {
	return fmt.Sprintf("(%s ([] %s %s) %s)", i.Operator.Lexeme, i.Object, i.Index, i.Value)
}
func (i *IndexSet) Position() lexer.Position { return i.Object.Position() }

// ArrayLiteral is '[a, b, c]'
type ArrayLiteral struct {
	Bracket  lexer.Token
	Elements []Expression
}

func (a *ArrayLiteral) String() string {
	return fmt.Sprintf("[%s]", joinNodes(a.Elements, ", "))
}
func (a *ArrayLiteral) Position() lexer.Position { return a.Bracket.Position }

// Comprehension is '[element for name in iterable if condition else alternative]'.
// Condition and Else may be nil.
type Comprehension struct {
	Bracket  lexer.Token
	Element  Expression
	Name     lexer.Token
	Iterable Expression
	Cond     Expression
	Else     Expression
}

func (c *Comprehension) String() string {
	s := fmt.Sprintf("[%s for %s in %s", c.Element, c.Name.Lexeme, c.Iterable)
	if c.Cond != nil {
		s += fmt.Sprintf(" if %s", c.Cond)
	}
	if c.Else != nil {
		s += fmt.Sprintf(" else %s", c.Else)
	}
	return s + "]"
}
func (c *Comprehension) Position() lexer.Position { return c.Bracket.Position }

// This is the 'this' keyword inside a method
type This struct {
	Keyword lexer.Token
}

func (t *This) String() string            { return "this" }
func (t *This) Position() lexer.Position { return t.Keyword.Position }

// Super is 'super.method'
type Super struct {
	Keyword lexer.Token
	Method  lexer.Token
}

func (s *Super) String() string            { return fmt.Sprintf("(super %s)", s.Method.Lexeme) }
func (s *Super) Position() lexer.Position { return s.Keyword.Position }

func (*Literal) expressionNode()       {}
func (*Variable) expressionNode()      {}
func (*Assign) expressionNode()        {}
func (*Binary) expressionNode()        {}
func (*Logical) expressionNode()       {}
func (*Unary) expressionNode()         {}
func (*Postfix) expressionNode()       {}
func (*CustomPrefix) expressionNode()  {}
func (*CustomInfix) expressionNode()   {}
func (*CustomPostfix) expressionNode() {}
func (*Ternary) expressionNode()       {}
func (*Elvis) expressionNode()         {}
func (*Range) expressionNode()         {}
func (*Grouping) expressionNode()      {}
func (*Call) expressionNode()          {}
func (*Get) expressionNode()           {}
func (*Set) expressionNode()           {}
func (*Index) expressionNode()         {}
func (*IndexSet) expressionNode()      {}
func (*ArrayLiteral) expressionNode()  {}
func (*Comprehension) expressionNode() {}
func (*This) expressionNode()          {}
func (*Super) expressionNode()         {}
