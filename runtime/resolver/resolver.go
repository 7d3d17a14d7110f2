// Package resolver computes lexical scope distances for an HSL program and
// enforces finality before anything runs.
//
// # Distances
//
// The resolver keeps a static chain of scopes that mirrors the environments
// the interpreter creates at runtime: one per block, function call, class
// receiver layer ('super' then 'this'), for loop, for-in body, comprehension
// element and test block. Each Variable, Assign, This, Super and custom
// operator node that names a local binding gets the number of parent links
// between the use site and the declaring scope. Names not found locally are
// globals and get no entry; the interpreter looks them up by name.
//
// # Finality
//
// Finality violations are reported here, never at runtime:
//
//	final var x = 1;
//	x = 2;              // Cannot reassign final variable 'x'
//	final class User {}
//	class Admin extends User {} // Cannot extend final class 'User'
//
// A final name also cannot be redeclared in the same or any nested scope.
// Host functions a Catalog marks final are protected the same way once a
// 'using' or 'native fun' brings them into scope.
//
// # Reuse
//
// Globals persist across Resolve calls on one Resolver, so a REPL can resolve
// input line by line and still catch 'x = 2;' after an earlier 'final var x'.
package resolver

import (
	"sort"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// Catalog describes host modules so that final exports can be protected.
type Catalog interface {
	// Exports returns every export name of module mapped to whether it is
	// final. ok is false for unknown modules.
	Exports(module string) (exports map[string]bool, ok bool)
}

// Resolution maps resolved expression nodes to their scope distance.
type Resolution struct {
	locals map[ast.Expression]int
}

// Distance returns the distance recorded for expr. ok is false for globals.
func (r *Resolution) Distance(expr ast.Expression) (distance int, ok bool) {
	if r == nil {
		return 0, false
	}
	distance, ok = r.locals[expr]
	return distance, ok
}

// Len returns the number of resolved local references.
func (r *Resolution) Len() int {
	if r == nil {
		return 0
	}
	return len(r.locals)
}

type functionType int

const (
	noFunction functionType = iota
	plainFunction
	methodFunction
	constructorFunction
	testBlock
)

type classType int

const (
	noClass classType = iota
	inClass
	inSubclass
	inExtension
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithCatalog lets the resolver see which host exports are final.
func WithCatalog(c Catalog) Option {
	return func(r *Resolver) {
		r.catalog = c
	}
}

// WithGlobals declares host-provided globals. They are never final.
func WithGlobals(names ...string) Option {
	return func(r *Resolver) {
		for _, name := range names {
			r.scopes.root.names[name] = &Binding{Kind: VariableBinding, Defined: true}
		}
	}
}

// Resolver walks programs and reports resolution errors.
type Resolver struct {
	reporter diagnostic.Reporter
	catalog  Catalog
	scopes   *scopeChain

	// Per Resolve call
	source     *diagnostic.Source
	locals     map[ast.Expression]int
	function   functionType
	class      classType
	loopDepth  int
	errorCount int
}

// New creates a resolver that reports to reporter.
func New(reporter diagnostic.Reporter, opts ...Option) *Resolver {
	invariant.NotNil(reporter, "reporter")

	r := &Resolver{
		reporter: reporter,
		scopes:   newScopeChain(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks program and returns its distances. The resolution is
// complete even when errors were reported; ErrorCount tells them apart.
func (r *Resolver) Resolve(program *ast.Program) *Resolution {
	invariant.NotNil(program, "program")

	r.source = program.Source
	r.locals = make(map[ast.Expression]int)
	r.function, r.class, r.loopDepth, r.errorCount = noFunction, noClass, 0, 0

	r.statements(program.Statements)

	invariant.Postcondition(r.scopes.atGlobal(), "scope chain must be balanced after resolve:\n%s", r.scopes.debugString())
	return &Resolution{locals: r.locals}
}

// ErrorCount returns the number of errors reported by the last Resolve.
func (r *Resolver) ErrorCount() int {
	return r.errorCount
}

// IsFinalGlobal reports whether name is a final global.
func (r *Resolver) IsFinalGlobal(name string) bool {
	b, ok := r.scopes.global(name)
	return ok && b.Final
}

func (r *Resolver) errorAt(tok lexer.Token, format string, args ...interface{}) {
	err := diagnostic.NewScriptError(diagnostic.Resolving, tok.Position, format, args...).WithSource(r.source)
	r.reporter.Report(err)
	r.errorCount++
}

func (r *Resolver) statements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		r.statement(stmt)
	}
}

func (r *Resolver) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		r.expression(s.Expression)
	case *ast.Print:
		r.expression(s.Expression)
	case *ast.Var:
		b := r.declare(s.Name, VariableBinding, s.Final)
		if s.Initializer != nil {
			r.expression(s.Initializer)
		}
		b.Defined = true
	case *ast.Block:
		r.scopes.enter()
		r.statements(s.Statements)
		r.scopes.exit()
	case *ast.If:
		r.expression(s.Condition)
		r.statement(s.Then)
		if s.Else != nil {
			r.statement(s.Else)
		}
	case *ast.While:
		r.expression(s.Condition)
		r.loopBody(s.Body)
	case *ast.DoWhile:
		r.loopBody(s.Body)
		r.expression(s.Condition)
	case *ast.For:
		r.scopes.enter()
		if s.Initializer != nil {
			r.statement(s.Initializer)
		}
		if s.Condition != nil {
			r.expression(s.Condition)
		}
		if s.Increment != nil {
			r.expression(s.Increment)
		}
		r.loopBody(s.Body)
		r.scopes.exit()
	case *ast.ForEach:
		r.expression(s.Iterable)
		r.scopes.enter()
		r.declare(s.Name, LoopBinding, false).Defined = true
		r.loopBody(s.Body)
		r.scopes.exit()
	case *ast.Repeat:
		r.expression(s.Count)
		r.loopBody(s.Body)
	case *ast.Switch:
		r.expression(s.Subject)
		for _, c := range s.Cases {
			r.expression(c.Value)
			r.statement(c.Body)
		}
		if s.Default != nil {
			r.statement(s.Default)
		}
	case *ast.Break:
		if r.loopDepth == 0 {
			r.errorAt(s.Keyword, "Can't use 'break' outside of a loop")
		}
	case *ast.Continue:
		if r.loopDepth == 0 {
			r.errorAt(s.Keyword, "Can't use 'continue' outside of a loop")
		}
	case *ast.Return:
		if r.function == noFunction {
			r.errorAt(s.Keyword, "Can't return from top-level code")
		}
		if s.Value != nil {
			if r.function == constructorFunction {
				r.errorAt(s.Keyword, "Can't return a value from a constructor")
			}
			r.expression(s.Value)
		}
	case *ast.Function:
		r.functionDeclaration(s)
	case *ast.Class:
		r.classDeclaration(s)
	case *ast.Native:
		r.nativeDeclaration(s)
	case *ast.Using:
		r.usingStatement(s)
	case *ast.Test:
		enclosing, loops := r.function, r.loopDepth
		r.function, r.loopDepth = testBlock, 0
		r.scopes.enter()
		r.statements(s.Body)
		r.scopes.exit()
		r.function, r.loopDepth = enclosing, loops
	default:
		invariant.Invariant(false, "resolver has no case for statement %T", stmt)
	}
}

func (r *Resolver) loopBody(body ast.Statement) {
	r.loopDepth++
	r.statement(body)
	r.loopDepth--
}

// declare binds name in the current scope after checking it does not
// shadow a final binding or repeat a local one.
func (r *Resolver) declare(name lexer.Token, kind BindingKind, final bool) *Binding {
	if prior, ok := r.scopes.finalAbove(name.Lexeme); ok {
		r.errorAt(name, "Cannot redeclare final %s '%s'", prior.Kind, name.Lexeme)
	} else if prior, ok := r.scopes.local(name.Lexeme); ok && !r.scopes.atGlobal() {
		r.errorAt(name, "Already a %s named '%s' in this scope", prior.Kind, name.Lexeme)
	}
	b := &Binding{Kind: kind, Final: final}
	r.scopes.store(name.Lexeme, b)
	return b
}

// resolveLocal records the distance of name for expr when it is local and
// returns the binding it found, if any.
func (r *Resolver) resolveLocal(expr ast.Expression, name string) *Binding {
	b, distance, global, found := r.scopes.lookup(name)
	if !found {
		return nil
	}
	if !global {
		r.locals[expr] = distance
	}
	return b
}

func (r *Resolver) checkAssignable(name lexer.Token) {
	if b, _, _, found := r.scopes.lookup(name.Lexeme); found && b.Final {
		r.errorAt(name, "Cannot reassign final %s '%s'", b.Kind, name.Lexeme)
	}
}

func (r *Resolver) variable(v *ast.Variable) *Binding {
	if !r.scopes.atGlobal() {
		if b, ok := r.scopes.local(v.Name.Lexeme); ok && !b.Defined {
			r.errorAt(v.Name, "Can't read local variable '%s' in its own initializer", v.Name.Lexeme)
		}
	}
	return r.resolveLocal(v, v.Name.Lexeme)
}

func (r *Resolver) functionDeclaration(fn *ast.Function) {
	if fn.Receiver != nil {
		// Extensions bind 'this' like methods but stay outside the class.
		r.variable(fn.Receiver)
		enclosing := r.class
		r.class = inExtension
		r.scopes.enter()
		r.scopes.store("this", &Binding{Kind: ReceiverBinding, Defined: true})
		r.resolveFunction(fn, methodFunction)
		r.scopes.exit()
		r.class = enclosing
		return
	}

	kind := FunctionBinding
	switch fn.Kind {
	case ast.PrefixOperator, ast.InfixOperator, ast.PostfixOperator:
		kind = OperatorBinding
	}
	// Defined before the body so functions can recurse.
	r.declare(fn.Name, kind, fn.Final).Defined = true
	r.resolveFunction(fn, plainFunction)
}

func (r *Resolver) resolveFunction(fn *ast.Function, ftype functionType) {
	enclosing, loops := r.function, r.loopDepth
	r.function, r.loopDepth = ftype, 0

	r.scopes.enter()
	for _, param := range fn.Params {
		r.declare(param, ParameterBinding, false).Defined = true
	}
	r.statements(fn.Body)
	r.scopes.exit()

	r.function, r.loopDepth = enclosing, loops
}

func (r *Resolver) classDeclaration(c *ast.Class) {
	enclosing := r.class
	r.class = inClass
	r.declare(c.Name, ClassBinding, c.Final).Defined = true

	if c.Superclass != nil {
		if c.Superclass.Name.Lexeme == c.Name.Lexeme {
			r.errorAt(c.Superclass.Name, "A class can't extend itself")
		} else if b := r.variable(c.Superclass); b != nil && b.Kind == ClassBinding && b.Final {
			r.errorAt(c.Superclass.Name, "Cannot extend final class '%s'", c.Superclass.Name.Lexeme)
		}
		r.class = inSubclass
		r.scopes.enter()
		r.scopes.store("super", &Binding{Kind: ReceiverBinding, Defined: true})
	}

	r.scopes.enter()
	r.scopes.store("this", &Binding{Kind: ReceiverBinding, Defined: true})

	fields := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if fields[f.Name.Lexeme] {
			r.errorAt(f.Name, "Duplicate field '%s' in class '%s'", f.Name.Lexeme, c.Name.Lexeme)
		}
		fields[f.Name.Lexeme] = true
		if f.Initializer != nil {
			r.expression(f.Initializer)
		}
	}
	if c.Constructor != nil {
		r.resolveFunction(c.Constructor, constructorFunction)
	}
	methods := make(map[string]bool, len(c.Methods))
	for _, m := range c.Methods {
		if methods[m.Name.Lexeme] {
			r.errorAt(m.Name, "Duplicate method '%s' in class '%s'", m.Name.Lexeme, c.Name.Lexeme)
		}
		methods[m.Name.Lexeme] = true
		r.resolveFunction(m, methodFunction)
	}

	r.scopes.exit()
	if c.Superclass != nil {
		r.scopes.exit()
	}
	r.class = enclosing
}

func (r *Resolver) nativeDeclaration(n *ast.Native) {
	if !r.scopes.atGlobal() {
		r.errorAt(n.Keyword, "Native functions can only be declared at top level")
		return
	}
	final := false
	if r.catalog != nil {
		if exports, ok := r.catalog.Exports(n.Module.Lexeme); ok {
			final = exports[n.Name.Lexeme]
		}
	}
	if prior, ok := r.scopes.global(n.Name.Lexeme); ok && prior.Kind == NativeBinding {
		// Binding the same host function twice is harmless.
		prior.Final = prior.Final || final
		return
	}
	r.declare(n.Name, NativeBinding, final).Defined = true
}

func (r *Resolver) usingStatement(u *ast.Using) {
	if !r.scopes.atGlobal() {
		r.errorAt(u.Keyword, "'using' is only allowed at top level")
		return
	}
	if r.catalog == nil {
		return
	}
	exports, ok := r.catalog.Exports(u.Module.Lexeme)
	if !ok {
		// Unknown modules fail at runtime with a suggestion.
		return
	}

	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prior, ok := r.scopes.global(name)
		switch {
		case ok && prior.Kind == NativeBinding:
			prior.Final = prior.Final || exports[name]
		case ok && prior.Final:
			r.errorAt(u.Module, "Cannot redeclare final %s '%s'", prior.Kind, name)
		default:
			r.scopes.store(name, &Binding{Kind: NativeBinding, Final: exports[name], Defined: true})
		}
	}
}

func (r *Resolver) expression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Literal:
	case *ast.Variable:
		r.variable(e)
	case *ast.Assign:
		r.expression(e.Value)
		r.checkAssignable(e.Name)
		r.resolveLocal(e, e.Name.Lexeme)
	case *ast.Binary:
		r.expression(e.Left)
		r.expression(e.Right)
	case *ast.Logical:
		r.expression(e.Left)
		r.expression(e.Right)
	case *ast.Unary:
		r.expression(e.Right)
		r.checkIncrement(e.Operator, e.Right)
	case *ast.Postfix:
		r.expression(e.Left)
		r.checkIncrement(e.Operator, e.Left)
	case *ast.CustomPrefix:
		r.resolveLocal(e, e.Operator.Lexeme)
		r.expression(e.Right)
	case *ast.CustomInfix:
		r.expression(e.Left)
		r.resolveLocal(e, e.Operator.Lexeme)
		r.expression(e.Right)
	case *ast.CustomPostfix:
		r.expression(e.Left)
		r.resolveLocal(e, e.Operator.Lexeme)
	case *ast.Ternary:
		r.expression(e.Condition)
		r.expression(e.Then)
		r.expression(e.Else)
	case *ast.Elvis:
		r.expression(e.Left)
		r.expression(e.Right)
	case *ast.Range:
		r.expression(e.Left)
		r.expression(e.Right)
	case *ast.Grouping:
		r.expression(e.Expression)
	case *ast.Call:
		r.expression(e.Callee)
		for _, arg := range e.Arguments {
			r.expression(arg)
		}
	case *ast.Get:
		r.expression(e.Object)
	case *ast.Set:
		r.expression(e.Object)
		r.expression(e.Value)
	case *ast.Index:
		r.expression(e.Object)
		r.expression(e.Index)
	case *ast.IndexSet:
		r.expression(e.Object)
		r.expression(e.Index)
		r.expression(e.Value)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			r.expression(el)
		}
	case *ast.Comprehension:
		r.expression(e.Iterable)
		r.scopes.enter()
		r.declare(e.Name, LoopBinding, false).Defined = true
		r.expression(e.Element)
		if e.Cond != nil {
			r.expression(e.Cond)
		}
		if e.Else != nil {
			r.expression(e.Else)
		}
		r.scopes.exit()
	case *ast.This:
		if r.class == noClass {
			r.errorAt(e.Keyword, "Can't use 'this' outside of a class")
			return
		}
		r.resolveLocal(e, "this")
	case *ast.Super:
		switch r.class {
		case noClass:
			r.errorAt(e.Keyword, "Can't use 'super' outside of a class")
			return
		case inClass, inExtension:
			r.errorAt(e.Keyword, "Can't use 'super' in a class with no superclass")
			return
		}
		r.resolveLocal(e, "super")
	default:
		invariant.Invariant(false, "resolver has no case for expression %T", expr)
	}
}

// checkIncrement rejects ++ and -- on final variables.
func (r *Resolver) checkIncrement(op lexer.Token, target ast.Expression) {
	if op.Type != lexer.PLUS_PLUS && op.Type != lexer.MINUS_MINUS {
		return
	}
	if v, ok := target.(*ast.Variable); ok {
		r.checkAssignable(v.Name)
	}
}
