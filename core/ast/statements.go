package ast

import (
	"fmt"
	"strings"

	"github.com/opal-lang/hsl/runtime/lexer"
)

// ExpressionStmt evaluates an expression and discards the result
type ExpressionStmt struct {
	Expression Expression
}

func (e *ExpressionStmt) String() string            { return e.Expression.String() + ";" }
func (e *ExpressionStmt) Position() lexer.Position { return e.Expression.Position() }

// Print writes a value to the run's output
type Print struct {
	Keyword    lexer.Token
	Expression Expression
}

func (p *Print) String() string            { return fmt.Sprintf("print(%s);", p.Expression) }
func (p *Print) Position() lexer.Position { return p.Keyword.Position }

// Var declares a variable. Initializer may be nil.
type Var struct {
	Name        lexer.Token
	Initializer Expression
	Final       bool
}

func (v *Var) String() string {
	s := "var " + v.Name.Lexeme
	if v.Final {
		s = "final " + s
	}
	if v.Initializer != nil {
		s += " = " + v.Initializer.String()
	}
	return s + ";"
}
func (v *Var) Position() lexer.Position { return v.Name.Position }

// Block is a braced statement list with its own scope
type Block struct {
	Brace      lexer.Token
	Statements []Statement
}

func (b *Block) String() string {
	if len(b.Statements) == 0 {
		return "{}"
	}
	return "{ " + joinNodes(b.Statements, " ") + " }"
}
func (b *Block) Position() lexer.Position { return b.Brace.Position }

// If is a conditional. Else may be nil.
type If struct {
	Keyword   lexer.Token
	Condition Expression
	Then      Statement
	Else      Statement
}

func (i *If) String() string {
	s := fmt.Sprintf("if (%s) %s", i.Condition, i.Then)
	if i.Else != nil {
		s += " else " + i.Else.String()
	}
	return s
}
func (i *If) Position() lexer.Position { return i.Keyword.Position }

// While loops while Condition is truthy
type While struct {
	Keyword   lexer.Token
	Condition Expression
	Body      Statement
}

func (w *While) String() string            { return fmt.Sprintf("while (%s) %s", w.Condition, w.Body) }
func (w *While) Position() lexer.Position { return w.Keyword.Position }

// DoWhile runs Body once before testing Condition
type DoWhile struct {
	Keyword   lexer.Token
	Body      Statement
	Condition Expression
}

func (d *DoWhile) String() string            { return fmt.Sprintf("do %s while (%s);", d.Body, d.Condition) }
func (d *DoWhile) Position() lexer.Position { return d.Keyword.Position }

// For is a C-style loop. Any clause may be nil.
type For struct {
	Keyword     lexer.Token
	Initializer Statement
	Condition   Expression
	Increment   Expression
	Body        Statement
}

func (f *For) String() string {
	var init, cond, inc string
	if f.Initializer != nil {
		init = strings.TrimSuffix(f.Initializer.String(), ";")
	}
	if f.Condition != nil {
		cond = f.Condition.String()
	}
	if f.Increment != nil {
		inc = f.Increment.String()
	}
	return fmt.Sprintf("for (%s; %s; %s) %s", init, cond, inc, f.Body)
}

func (f *For) Position() lexer.Position { return f.Keyword.Position }

// ForEach iterates the elements of an array (or the characters of a string)
type ForEach struct {
	Keyword  lexer.Token
	Name     lexer.Token
	Iterable Expression
	Body     Statement
}

func (f *ForEach) String() string {
	return fmt.Sprintf("for (%s in %s) %s", f.Name.Lexeme, f.Iterable, f.Body)
}
func (f *ForEach) Position() lexer.Position { return f.Keyword.Position }

// Repeat runs Body Count times
type Repeat struct {
	Keyword lexer.Token
	Count   Expression
	Body    Statement
}

func (r *Repeat) String() string            { return fmt.Sprintf("repeat (%s) %s", r.Count, r.Body) }
func (r *Repeat) Position() lexer.Position { return r.Keyword.Position }

// SwitchCase is one 'case value: body' arm
type SwitchCase struct {
	Keyword lexer.Token
	Value   Expression
	Body    Statement
}

// Switch runs the first case equal to Subject, or Default. There is no fall-through.
type Switch struct {
	Keyword lexer.Token
	Subject Expression
	Cases   []SwitchCase
	Default Statement
}

func (s *Switch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "switch (%s) {", s.Subject)
	for _, c := range s.Cases {
		fmt.Fprintf(&sb, " case %s: %s", c.Value, c.Body)
	}
	if s.Default != nil {
		fmt.Fprintf(&sb, " default: %s", s.Default)
	}
	sb.WriteString(" }")
	return sb.String()
}
func (s *Switch) Position() lexer.Position { return s.Keyword.Position }

// Break leaves the innermost loop
type Break struct {
	Keyword lexer.Token
}

func (b *Break) String() string            { return "break;" }
func (b *Break) Position() lexer.Position { return b.Keyword.Position }

// Continue skips to the next iteration of the innermost loop
type Continue struct {
	Keyword lexer.Token
}

func (c *Continue) String() string            { return "continue;" }
func (c *Continue) Position() lexer.Position { return c.Keyword.Position }

// Return leaves the current function. Value may be nil.
type Return struct {
	Keyword lexer.Token
	Value   Expression
}

func (r *Return) String() string {
	if r.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", r.Value)
}
func (r *Return) Position() lexer.Position { return r.Keyword.Position }

// FunctionKind distinguishes how a function was declared
type FunctionKind int

const (
	PlainFunction FunctionKind = iota
	PrefixOperator
	InfixOperator
	PostfixOperator
	Method
	Constructor
)

var functionKindNames = [...]string{
	PlainFunction:   "fun",
	PrefixOperator:  "prefix fun",
	InfixOperator:   "infix fun",
	PostfixOperator: "postfix fun",
	Method:          "fun",
	Constructor:     "constructor",
}

func (k FunctionKind) String() string {
	if int(k) < len(functionKindNames) {
		return functionKindNames[k]
	}
	return "unknown"
}

// Function declares a function, operator, method or constructor.
// Receiver is set for extension functions ('fun User:greet()').
type Function struct {
	Name     lexer.Token
	Params   []lexer.Token
	Body     []Statement
	Kind     FunctionKind
	Final    bool
	Private  bool
	Receiver *Variable
}

func (f *Function) String() string {
	name := f.Name.Lexeme
	if f.Receiver != nil {
		name = f.Receiver.Name.Lexeme + ":" + name
	}
	prefix := f.Kind.String()
	if f.Final {
		prefix = "final " + prefix
	}
	if f.Private {
		prefix = "private " + prefix
	}
	body := "{}"
	if len(f.Body) > 0 {
		body = "{ " + joinNodes(f.Body, " ") + " }"
	}
	if f.Kind == Constructor {
		return fmt.Sprintf("constructor(%s) %s", joinTokens(f.Params, ", "), body)
	}
	return fmt.Sprintf("%s %s(%s) %s", prefix, name, joinTokens(f.Params, ", "), body)
}
func (f *Function) Position() lexer.Position { return f.Name.Position }

// Field is a class field declaration. Initializer may be nil.
type Field struct {
	Name        lexer.Token
	Initializer Expression
	Private     bool
	Final       bool
}

func (f *Field) String() string {
	s := f.Name.Lexeme
	if f.Final {
		s = "final " + s
	}
	if f.Private {
		s = "private " + s
	}
	if f.Initializer != nil {
		s += " = " + f.Initializer.String()
	}
	return s + ";"
}
func (f *Field) Position() lexer.Position { return f.Name.Position }

// Class declares a class. Superclass and Constructor may be nil.
type Class struct {
	Name        lexer.Token
	Superclass  *Variable
	Fields      []*Field
	Constructor *Function
	Methods     []*Function
	Final       bool
}

func (c *Class) String() string {
	var sb strings.Builder
	if c.Final {
		sb.WriteString("final ")
	}
	sb.WriteString("class " + c.Name.Lexeme)
	if c.Superclass != nil {
		sb.WriteString(" extends " + c.Superclass.Name.Lexeme)
	}
	sb.WriteString(" {")
	for _, f := range c.Fields {
		sb.WriteString(" " + f.String())
	}
	if c.Constructor != nil {
		sb.WriteString(" " + c.Constructor.String())
	}
	for _, m := range c.Methods {
		sb.WriteString(" " + m.String())
	}
	sb.WriteString(" }")
	return sb.String()
}
func (c *Class) Position() lexer.Position { return c.Name.Position }

// Native binds one export of a host module: 'native fun math.abs(x);'
type Native struct {
	Keyword lexer.Token
	Module  lexer.Token
	Name    lexer.Token
	Params  []lexer.Token
}

func (n *Native) String() string {
	return fmt.Sprintf("native fun %s.%s(%s);", n.Module.Lexeme, n.Name.Lexeme, joinTokens(n.Params, ", "))
}
func (n *Native) Position() lexer.Position { return n.Keyword.Position }

// Using binds every export of a host module: 'using math;'
type Using struct {
	Keyword lexer.Token
	Module  lexer.Token
}

func (u *Using) String() string            { return fmt.Sprintf("using %s;", u.Module.Lexeme) }
func (u *Using) Position() lexer.Position { return u.Keyword.Position }

// Test is a named, isolated block: 'test("name") { ... }'
type Test struct {
	Keyword lexer.Token
	Name    lexer.Token // STRING token
	Body    []Statement
}

func (t *Test) String() string {
	return fmt.Sprintf("test(%s) { %s }", t.Name.Lexeme, joinNodes(t.Body, " "))
}
func (t *Test) Position() lexer.Position { return t.Keyword.Position }

// Title returns the test's name without quotes.
func (t *Test) Title() string {
	if s, ok := t.Name.Literal.(string); ok {
		return s
	}
	return t.Name.Lexeme
}

func (*ExpressionStmt) statementNode() {}
func (*Print) statementNode()          {}
func (*Var) statementNode()            {}
func (*Block) statementNode()          {}
func (*If) statementNode()             {}
func (*While) statementNode()          {}
func (*DoWhile) statementNode()        {}
func (*For) statementNode()            {}
func (*ForEach) statementNode()        {}
func (*Repeat) statementNode()         {}
func (*Switch) statementNode()         {}
func (*Break) statementNode()          {}
func (*Continue) statementNode()       {}
func (*Return) statementNode()         {}
func (*Function) statementNode()       {}
func (*Class) statementNode()          {}
func (*Native) statementNode()         {}
func (*Using) statementNode()          {}
func (*Test) statementNode()           {}
