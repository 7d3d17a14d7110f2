package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opal-lang/hsl/core/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"var", "var a = 1;", "var a = 1;"},
		{"var without initializer", "var a;", "var a;"},
		{"final var", "final var x = 1;", "final var x = 1;"},
		{"print", "print(1 + 2);", "print((+ 1 2));"},
		{"if else", "if (a) print(1); else print(2);", "if (a) print(1); else print(2);"},
		{"else binds to nearest if", "if (a) if (b) print(1); else print(2);", "if (a) if (b) print(1); else print(2);"},
		{"while", "while (i < 3) i++;", "while ((< i 3)) (i post++);"},
		{"do while", "do { i++; } while (i < 3);", "do { (i post++); } while ((< i 3));"},
		{"for", "for (var i = 0; i < 3; i++) print(i);", "for (var i = 0; (< i 3); (i post++)) print(i);"},
		{"for empty clauses", "for (;;) break;", "for (; ; ) break;"},
		{"for expression initializer", "for (i = 0; i < 3;) continue;", "for ((= i 0); (< i 3); ) continue;"},
		{"for in", "for (x in xs) print(x);", "for (x in xs) print(x);"},
		{"for var in", "for (var x in 1..3) {}", "for (x in (.. 1 3)) {}"},
		{"repeat", "repeat (3) { print(1); }", "repeat (3) { print(1); }"},
		{"block", "{ var a = 1; { print(a); } }", "{ var a = 1; { print(a); } }"},
		{"switch", "switch (x) { case 1: print(1); case 2: {} default: print(0); }", "switch (x) { case 1: print(1); case 2: {} default: print(0); }"},
		{"return", "fun f() { return; }", "fun f() { return; }"},
		{"function", "fun add(a, b) { return a + b; }", "fun add(a, b) { return (+ a b); }"},
		{"final function", "final fun id(x) { return x; }", "final fun id(x) { return x; }"},
		{"prefix operator", "prefix fun neg(x) { return -x; }", "prefix fun neg(x) { return (- x); }"},
		{"extension function", "fun User:greet() {}", "fun User:greet() {}"},
		{"native", "native fun math.abs(x);", "native fun math.abs(x);"},
		{"using", "using math;", "using math;"},
		{"test", "test(\"adds\") { return 1 + 1 == 2; }", "test(\"adds\") { return (== (+ 1 1) 2); }"},
		{
			"class",
			"class Admin extends User { private name; final role = \"admin\"; constructor(n) { this.name = n; } fun greet() { return name; } private fun secret() {} }",
			"class Admin extends User { private name; final role = \"admin\"; constructor(n) { (= (. this name) n); } fun greet() { return name; } private fun secret() {} }",
		},
		{"final class", "final class User {}", "final class User { }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parseOK(t, tt.input)
			if diff := cmp.Diff(tt.expected, program.String()); diff != "" {
				t.Errorf("tree mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestClassStructure(t *testing.T) {
	program := parseOK(t, "class User { public name = 1; private secret; constructor() {} fun a() {} private fun b() {} }")
	require.Len(t, program.Statements, 1)

	class := program.Statements[0].(*ast.Class)
	assert.Nil(t, class.Superclass)
	require.Len(t, class.Fields, 2)
	assert.False(t, class.Fields[0].Private)
	assert.True(t, class.Fields[1].Private)
	require.NotNil(t, class.Constructor)
	assert.Equal(t, ast.Constructor, class.Constructor.Kind)
	require.Len(t, class.Methods, 2)
	assert.Equal(t, ast.Method, class.Methods[0].Kind)
	assert.True(t, class.Methods[1].Private)
}

func TestExtensionReceiver(t *testing.T) {
	program := parseOK(t, "fun User:greet(greeting) { print(greeting); }")
	fn := program.Statements[0].(*ast.Function)

	require.NotNil(t, fn.Receiver)
	assert.Equal(t, "User", fn.Receiver.Name.Lexeme)
	assert.Equal(t, "greet", fn.Name.Lexeme)
	assert.Len(t, fn.Params, 1)
}

func TestTestTitle(t *testing.T) {
	program := parseOK(t, "test(\"math works\") {}")
	assert.Equal(t, "math works", program.Statements[0].(*ast.Test).Title())
}

func TestProgramKeepsSource(t *testing.T) {
	program := parseOK(t, "var a;")
	require.NotNil(t, program.Source)
	assert.Equal(t, "test.hsl", program.Source.Name)
}
