package resolver

import (
	"strings"
	"testing"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCatalog map[string]map[string]bool

func (c mapCatalog) Exports(module string) (map[string]bool, bool) {
	exports, ok := c[module]
	return exports, ok
}

var testCatalog = mapCatalog{
	"math": {"abs": true, "floor": false, "PI": true},
}

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	var errs diagnostic.Collector
	src := diagnostic.NewSource("test.hsl", input)
	tokens, _ := lexer.New(lexer.Default(), &errs).ScanSource(src)
	program := parser.New(lexer.Default(), &errs, src, tokens).Parse()
	require.False(t, errs.HasErrors(), "parse errors:\n%s", diagnostic.Join(errs.Diagnostics()))
	return program
}

func resolve(t *testing.T, input string, opts ...Option) (*ast.Program, *Resolution, *diagnostic.Collector) {
	t.Helper()
	program := parseProgram(t, input)
	var errs diagnostic.Collector
	res := New(&errs, opts...).Resolve(program)
	return program, res, &errs
}

func resolveOK(t *testing.T, input string) (*ast.Program, *Resolution) {
	t.Helper()
	program, res, errs := resolve(t, input)
	require.False(t, errs.HasErrors(), "resolve errors:\n%s", diagnostic.Join(errs.Diagnostics()))
	return program, res
}

func TestClosureDistances(t *testing.T) {
	program, res := resolveOK(t, `var a = 1;
fun outer() {
  var b = 2;
  fun inner() {
    return a + b;
  }
  return inner;
}`)

	outer := program.Statements[1].(*ast.Function)
	inner := outer.Body[1].(*ast.Function)
	sum := inner.Body[0].(*ast.Return).Value.(*ast.Binary)

	_, ok := res.Distance(sum.Left)
	assert.False(t, ok, "a is global")

	d, ok := res.Distance(sum.Right)
	require.True(t, ok)
	assert.Equal(t, 1, d, "b lives in outer's call environment")

	d, ok = res.Distance(outer.Body[2].(*ast.Return).Value)
	require.True(t, ok)
	assert.Equal(t, 0, d)
}

func TestBlockShadowing(t *testing.T) {
	program, res := resolveOK(t, `{ var x = 1; { var x = 2; var y = x; } var z = x; }`)

	outer := program.Statements[0].(*ast.Block)
	inner := outer.Statements[1].(*ast.Block)

	d, ok := res.Distance(inner.Statements[1].(*ast.Var).Initializer)
	require.True(t, ok)
	assert.Equal(t, 0, d, "inner x shadows outer x")

	d, ok = res.Distance(outer.Statements[2].(*ast.Var).Initializer)
	require.True(t, ok)
	assert.Equal(t, 0, d)
}

func TestReceiverDistances(t *testing.T) {
	program, res := resolveOK(t, `class A {
  fun m() { return this; }
}
class B extends A {
  fun m() { return super.m(); }
}`)

	a := program.Statements[0].(*ast.Class)
	d, ok := res.Distance(a.Methods[0].Body[0].(*ast.Return).Value)
	require.True(t, ok)
	assert.Equal(t, 1, d, "this sits just outside the call environment")

	b := program.Statements[1].(*ast.Class)
	call := b.Methods[0].Body[0].(*ast.Return).Value.(*ast.Call)
	d, ok = res.Distance(call.Callee)
	require.True(t, ok)
	assert.Equal(t, 2, d, "super sits outside this")
}

func TestLoopAndComprehensionScopes(t *testing.T) {
	program, res := resolveOK(t, `{
  var xs = [i * 2 for i in [1, 2] if i > 1 else 0];
  for (var j = 0; j < 2; j++) { print(j); }
  for (k in xs) print(k);
}`)

	block := program.Statements[0].(*ast.Block)
	comp := block.Statements[0].(*ast.Var).Initializer.(*ast.Comprehension)
	d, ok := res.Distance(comp.Element.(*ast.Binary).Left)
	require.True(t, ok)
	assert.Equal(t, 0, d)

	loop := block.Statements[1].(*ast.For)
	d, ok = res.Distance(loop.Body.(*ast.Block).Statements[0].(*ast.Print).Expression)
	require.True(t, ok)
	assert.Equal(t, 1, d, "the body block is nested in the loop environment")

	each := block.Statements[2].(*ast.ForEach)
	d, ok = res.Distance(each.Iterable)
	require.True(t, ok)
	assert.Equal(t, 0, d, "the iterable is evaluated outside the loop scope")
	d, ok = res.Distance(each.Body.(*ast.Print).Expression)
	require.True(t, ok)
	assert.Equal(t, 0, d)
}

func TestCustomOperatorDistance(t *testing.T) {
	program, res := resolveOK(t, `fun f() {
  infix fun plus(a, b) { return a + b; }
  return 1 plus 2;
}`)
	fn := program.Statements[0].(*ast.Function)
	d, ok := res.Distance(fn.Body[1].(*ast.Return).Value)
	require.True(t, ok)
	assert.Equal(t, 0, d)
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
		column  int
	}{
		{"reassign final", "final var x = 1;\nx = 2;", "Cannot reassign final variable 'x'", 2, 1},
		{"compound assign final", "final var x = 1;\nfun f() { x += 1; }", "Cannot reassign final variable 'x'", 2, 11},
		{"postfix final", "final var n = 1;\nn++;", "Cannot reassign final variable 'n'", 2, 1},
		{"prefix final", "final var n = 1;\n--n;", "Cannot reassign final variable 'n'", 2, 3},
		{"redeclare final", "final var x = 1;\nvar x = 2;", "Cannot redeclare final variable 'x'", 2, 5},
		{"shadow final parameter", "final var x = 1;\nfun f(x) {}", "Cannot redeclare final variable 'x'", 2, 7},
		{"redeclare final function", "final fun f() {}\nfun f() {}", "Cannot redeclare final function 'f'", 2, 5},
		{"reassign final class", "final class User {}\nUser = 1;", "Cannot reassign final class 'User'", 2, 1},
		{"extend final class", "final class User {}\nclass Admin extends User {}", "Cannot extend final class 'User'", 2, 21},
		{"extend itself", "class A extends A {}", "A class can't extend itself", 1, 17},
		{"top-level return", "return 1;", "Can't return from top-level code", 1, 1},
		{"break outside loop", "break;", "Can't use 'break' outside of a loop", 1, 1},
		{"continue in function in loop", "while (true) { fun f() { continue; } }", "Can't use 'continue' outside of a loop", 1, 26},
		{"this outside class", "print(this);", "Can't use 'this' outside of a class", 1, 7},
		{"super without superclass", "class A { fun m() { return super.m(); } }", "Can't use 'super' in a class with no superclass", 1, 28},
		{"super outside class", "print(super.m);", "Can't use 'super' outside of a class", 1, 7},
		{"own initializer", "{ var a = a; }", "Can't read local variable 'a' in its own initializer", 1, 11},
		{"duplicate parameter", "fun f(a, a) {}", "Already a parameter named 'a' in this scope", 1, 10},
		{"duplicate local", "{ var a; var a; }", "Already a variable named 'a' in this scope", 1, 14},
		{"constructor value", "class A { constructor() { return 1; } }", "Can't return a value from a constructor", 1, 27},
		{"nested using", "fun f() { using math; }", "'using' is only allowed at top level", 1, 11},
		{"duplicate field", "class A { x; x; }", "Duplicate field 'x' in class 'A'", 1, 14},
		{"duplicate method", "class A { fun m() {} fun m() {} }", "Duplicate method 'm' in class 'A'", 1, 26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := resolve(t, tt.input)
			require.Len(t, errs.Errors(), 1, "errors:\n%s", diagnostic.Join(errs.Diagnostics()))

			err := errs.Errors()[0]
			assert.Equal(t, diagnostic.Resolving, err.Phase)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.line, err.Position.Line, "line")
			assert.Equal(t, tt.column, err.Position.Column, "column")
		})
	}
}

func TestFinalClassRendering(t *testing.T) {
	_, _, errs := resolve(t, "final class User {}\nclass Admin extends User {}")
	require.Len(t, errs.Errors(), 1)

	want := "resolving error at 2:21: Cannot extend final class 'User'\n" +
		"class Admin extends User {}\n" +
		strings.Repeat(" ", 20) + "^"
	assert.Equal(t, want, errs.Errors()[0].Error())
}

func TestNativeFinality(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		column  int
	}{
		{"shadow with function", "using math;\nfun abs(x) {}", "Cannot redeclare final native function 'abs'", 5},
		{"shadow with var", "native fun math.abs(x);\nvar abs = 2;", "Cannot redeclare final native function 'abs'", 5},
		{"assign", "using math;\nabs = 1;", "Cannot reassign final native function 'abs'", 1},
		{"import over final", "final var abs = 1;\nusing math;", "Cannot redeclare final variable 'abs'", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, errs := resolve(t, tt.input, WithCatalog(testCatalog))
			require.Len(t, errs.Errors(), 1, "errors:\n%s", diagnostic.Join(errs.Diagnostics()))
			err := errs.Errors()[0]
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, 2, err.Position.Line)
			assert.Equal(t, tt.column, err.Position.Column)
		})
	}
}

func TestNativeNonFinalAllowed(t *testing.T) {
	inputs := []string{
		"using math;\nfloor = 1;",
		"using math;\nusing math;",
		"native fun math.abs(x);\nusing math;",
		"using nothing;\nvar abs = 1;",
	}
	for _, input := range inputs {
		_, _, errs := resolve(t, input, WithCatalog(testCatalog))
		assert.False(t, errs.HasErrors(), "%q:\n%s", input, diagnostic.Join(errs.Diagnostics()))
	}
}

func TestGlobalsPersistAcrossResolves(t *testing.T) {
	var errs diagnostic.Collector
	r := New(&errs, WithGlobals("host"))

	r.Resolve(parseProgram(t, "final var x = 1;"))
	assert.Zero(t, r.ErrorCount())
	assert.True(t, r.IsFinalGlobal("x"))
	assert.False(t, r.IsFinalGlobal("host"))

	r.Resolve(parseProgram(t, "host = 2;\nx = 2;"))
	assert.Equal(t, 1, r.ErrorCount())
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, "Cannot reassign final variable 'x'", errs.Errors()[0].Message)
	assert.Equal(t, 2, errs.Errors()[0].Position.Line)
}

func TestResolutionNilSafe(t *testing.T) {
	var res *Resolution
	_, ok := res.Distance(&ast.Variable{})
	assert.False(t, ok)
	assert.Zero(t, res.Len())
}

func TestScopeChain(t *testing.T) {
	c := newScopeChain()
	c.store("g", &Binding{Kind: VariableBinding, Final: true})
	c.enter()
	c.store("a", &Binding{Kind: ParameterBinding})
	c.enter()

	b, distance, global, found := c.lookup("a")
	require.True(t, found)
	assert.Equal(t, ParameterBinding, b.Kind)
	assert.Equal(t, 1, distance)
	assert.False(t, global)

	_, _, global, found = c.lookup("g")
	assert.True(t, found)
	assert.True(t, global)

	_, ok := c.finalAbove("g")
	assert.True(t, ok)

	assert.Contains(t, c.debugString(), "a(parameter)")
	assert.Contains(t, c.debugString(), "g(variable final)")

	c.exit()
	c.exit()
	assert.True(t, c.atGlobal())
	assert.Panics(t, c.exit)
}
