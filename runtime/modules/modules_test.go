package modules

import (
	"context"
	"testing"

	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/interpreter"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/parser"
	"github.com/opal-lang/hsl/runtime/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script runs source against reg and returns the interpreter plus runtime
// error messages.
func script(t *testing.T, reg *Registry, source string) (*interpreter.Interpreter, []string) {
	t.Helper()
	src := diagnostic.NewSource("test.hsl", source)
	var errs diagnostic.Collector
	tokens, _ := lexer.New(lexer.Default(), &errs).ScanSource(src)
	program := parser.New(lexer.Default(), &errs, src, tokens).Parse()
	res := resolver.New(&errs, resolver.WithCatalog(reg)).Resolve(program)
	require.False(t, errs.HasErrors(), "front-end errors:\n%s", diagnostic.Join(errs.Diagnostics()))

	in := interpreter.New(interpreter.WithModules(reg))
	var messages []string
	for _, err := range in.Interpret(context.Background(), program, res) {
		messages = append(messages, err.Message)
	}
	return in, messages
}

func global(t *testing.T, in *interpreter.Interpreter, name string) interpreter.Value {
	t.Helper()
	v, ok := in.Globals().Lookup(name)
	require.True(t, ok, "global %q not defined", name)
	return v
}

func TestRegisterValidation(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("geo", func(b *Builder) {}))

	assert.EqualError(t, reg.Register("geo", func(b *Builder) {}), `module "geo" already registered`)
	assert.EqualError(t, reg.Register("9lives", func(b *Builder) {}), `invalid module name "9lives"`)
	assert.EqualError(t, reg.Register("", func(b *Builder) {}), `invalid module name ""`)
	assert.Equal(t, []string{"geo"}, reg.Names())
}

func TestBuilderPanicsOnDuplicateExport(t *testing.T) {
	reg := NewRegistry().MustRegister("dup", func(b *Builder) {
		b.Const("x", 1).Const("x", 2)
	})
	assert.Panics(t, func() { reg.Module("dup") })
}

func TestModulesBuildOnce(t *testing.T) {
	builds := 0
	reg := NewRegistry().MustRegister("lazy", func(b *Builder) {
		builds++
		b.Const("n", 1)
	})
	assert.Equal(t, 0, builds, "modules build on first use")

	first, ok := reg.Module("lazy")
	require.True(t, ok)
	second, _ := reg.Module("lazy")
	assert.Same(t, first, second)
	assert.Equal(t, 1, builds)

	_, ok = reg.Module("missing")
	assert.False(t, ok)
}

func TestExportsReportFinality(t *testing.T) {
	exports, ok := Standard().Exports("math")
	require.True(t, ok)
	assert.True(t, exports["PI"])
	assert.True(t, exports["abs"])
	assert.False(t, exports["floor"])

	_, ok = Standard().Exports("nope")
	assert.False(t, ok)
}

func TestSubset(t *testing.T) {
	std := Standard()
	sub, err := std.Subset("math")
	require.NoError(t, err)
	assert.Equal(t, []string{"math"}, sub.Names())

	a, _ := std.Module("math")
	b, _ := sub.Module("math")
	assert.Same(t, a, b, "subsets share module state")

	_, err = std.Subset("math", "net")
	assert.EqualError(t, err, `unknown module "net"`)
}

func TestMathModule(t *testing.T) {
	in, errs := script(t, Standard(), `
using math;
var a = abs(-3);
var f = floor(2.7);
var c = ceil(2.1);
var r = round(2.5);
var s = sqrt(16);
var p = pow(2, 10);
var lo = min(3, 1, 2);
var hi = max(3, 1, 2);
var circle = PI * 2;
`)
	require.Empty(t, errs)

	want := map[string]interpreter.Value{
		"a": 3.0, "f": 2.0, "c": 3.0, "r": 3.0, "s": 4.0,
		"p": 1024.0, "lo": 1.0, "hi": 3.0,
	}
	for name, v := range want {
		assert.Equal(t, v, global(t, in, name), name)
	}
	assert.InDelta(t, 6.283185, global(t, in, "circle"), 1e-6)
}

func TestStringsModule(t *testing.T) {
	in, errs := script(t, Standard(), `
using strings;
var n = length("héllo");
var up = upper("abc");
var low = lower("ABC");
var tr = trim("  x  ");
var parts = split("a,b,c", ",");
var joined = join([1, "b", 'c'], "-");
var has = contains("haystack", "st");
var rep = replace("aaa", "a", "b");
var sub = substring("hello", 1, 3);
var code = ord('A');
var ch = chr(66);
var num = parseNumber(" 2.5 ");
var text = str([1, 2]);
`)
	require.Empty(t, errs)

	assert.Equal(t, 5.0, global(t, in, "n"))
	assert.Equal(t, "ABC", global(t, in, "up"))
	assert.Equal(t, "abc", global(t, in, "low"))
	assert.Equal(t, "x", global(t, in, "tr"))
	assert.Equal(t, interpreter.NewArray("a", "b", "c"), global(t, in, "parts"))
	assert.Equal(t, "1-b-c", global(t, in, "joined"))
	assert.Equal(t, true, global(t, in, "has"))
	assert.Equal(t, "bbb", global(t, in, "rep"))
	assert.Equal(t, "el", global(t, in, "sub"))
	assert.Equal(t, 65.0, global(t, in, "code"))
	assert.Equal(t, interpreter.Char('B'), global(t, in, "ch"))
	assert.Equal(t, 2.5, global(t, in, "num"))
	assert.Equal(t, "[1, 2]", global(t, in, "text"))
}

func TestArraysModule(t *testing.T) {
	in, errs := script(t, Standard(), `
using arrays;
var xs = [3, 1, 2];
var pushed = push(xs, 4);
var popped = pop(xs);
var n = size(xs);
var mid = slice(xs, 1, 3);
var rev = reverse(xs);
var nums = sorted(xs);
var words = sorted(["b", "a"]);
var at = indexOf(xs, 2);
var miss = indexOf(xs, 9);
var has = includes(xs, 1);
`)
	require.Empty(t, errs)

	assert.Equal(t, 4.0, global(t, in, "pushed"))
	assert.Equal(t, 4.0, global(t, in, "popped"))
	assert.Equal(t, 3.0, global(t, in, "n"))
	assert.Equal(t, interpreter.NewArray(3.0, 1.0, 2.0), global(t, in, "xs"))
	assert.Equal(t, interpreter.NewArray(1.0, 2.0), global(t, in, "mid"))
	assert.Equal(t, interpreter.NewArray(2.0, 1.0, 3.0), global(t, in, "rev"))
	assert.Equal(t, interpreter.NewArray(1.0, 2.0, 3.0), global(t, in, "nums"))
	assert.Equal(t, interpreter.NewArray("a", "b"), global(t, in, "words"))
	assert.Equal(t, 2.0, global(t, in, "at"))
	assert.Equal(t, -1.0, global(t, in, "miss"))
	assert.Equal(t, true, global(t, in, "has"))
}

func TestHostFailures(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{`using math; abs("x");`, "Native function 'math.abs' failed: argument 1 must be a number, got string"},
		{`using math; sqrt(-1);`, "Native function 'math.sqrt' failed: square root of negative number -1"},
		{`using math; min();`, "Native function 'math.min' failed: min needs at least one argument"},
		{`using arrays; pop([]);`, "Native function 'arrays.pop' failed: pop from empty array"},
		{`using arrays; slice([1], 0, 5);`, "Native function 'arrays.slice' failed: range 0..5 out of bounds for length 1"},
		{`using arrays; sorted([1, "a"]);`, "Native function 'arrays.sorted' failed: cannot sort mixed number and string elements"},
		{`using strings; parseNumber("x");`, `Native function 'strings.parseNumber' failed: "x" is not a number`},
		{`using strings; substring("ab", 0.5, 1);`, "Native function 'strings.substring' failed: argument 2 must be an integer, got 0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			_, errs := script(t, Standard(), tt.source)
			assert.Equal(t, []string{tt.message}, errs)
		})
	}
}

func TestFinalExportsCannotBeRedeclared(t *testing.T) {
	src := diagnostic.NewSource("test.hsl", "using math;\nvar PI = 3;")
	var errs diagnostic.Collector
	tokens, _ := lexer.New(lexer.Default(), &errs).ScanSource(src)
	program := parser.New(lexer.Default(), &errs, src, tokens).Parse()
	resolver.New(&errs, resolver.WithCatalog(Standard())).Resolve(program)

	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, "Cannot redeclare final native function 'PI'", errs.Errors()[0].Message)
}
