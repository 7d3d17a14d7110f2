package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opal-lang/hsl/core/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"factor over term", "1 + 2 * 3;", "(+ 1 (* 2 3));"},
		{"left associative", "1 - 2 - 3;", "(- (- 1 2) 3);"},
		{"grouping", "(1 + 2) * 3;", "(* (group (+ 1 2)) 3);"},
		{"assignment is right associative", "a = b = 1;", "(= a (= b 1));"},
		{"compound assignment", "x += 2;", "(+= x 2);"},
		{"ternary nests right", "a ? b : c ? d : e;", "(? a b (? c d e));"},
		{"elvis nests right", "a ?: b ?: c;", "(?: a (?: b c));"},
		{"range", "1..5;", "(.. 1 5);"},
		{"range binds looser than term", "1..n + 1;", "(.. 1 (+ n 1));"},
		{"bitwise levels", "5 | 7 & 3 ^ 1;", "(| 5 (^ (& 7 3) 1));"},
		{"logical levels", "a && b || c ^^ d;", "(|| (&& a b) (^^ c d));"},
		{"logical over bitwise", "a | b && c;", "(&& (| a b) c);"},
		{"shift over term", "1 << 2 + 3;", "(<< 1 (+ 2 3));"},
		{"unsigned shift", "x >>> 2;", "(>>> x 2);"},
		{"equality over comparison", "1 == 2 < 3;", "(== 1 (< 2 3));"},
		{"unary chain", "!-x;", "(! (- x));"},
		{"complement", "~5;", "(~ 5);"},
		{"prefix increment", "++x;", "(++ x);"},
		{"postfix increment binds tighter than unary", "!x++;", "(! (x post++));"},
		{"property set", "obj.name = 3;", "(= (. obj name) 3);"},
		{"index compound set", "arr[0] += 1;", "(+= ([] arr 0) 1);"},
		{"chained calls", "f(1, 2)(3);", "(call (call f 1 2) 3);"},
		{"method call", "user.greet(\"hi\");", "(call (. user greet) \"hi\");"},
		{"super call", "super.greet();", "(call (super greet));"},
		{"this property", "this.name;", "(. this name);"},
		{"literals", "'a' + \"b\";", "(+ 'a' \"b\");"},
		{"keywords", "null == false;", "(== null false);"},
		{"array literal", "[1, 2, 3];", "[1, 2, 3];"},
		{"empty array", "[];", "[];"},
		{"trailing comma", "[1, 2,];", "[1, 2];"},
		{"nested index", "grid[1][2];", "([] ([] grid 1) 2);"},
		{"comprehension", "[x * 2 for x in xs];", "[(* x 2) for x in xs];"},
		{"comprehension with filter", "[x for x in 1..5 if x > 2];", "[x for x in (.. 1 5) if (> x 2)];"},
		{"comprehension with else", "[x * 2 for x in xs if x > 1 else 0];", "[(* x 2) for x in xs if (> x 1) else 0];"},
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

func TestCustomOperators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "infix",
			input:    "infix fun plus(a, b) { return a + b; } 1 plus 2 * 3;",
			expected: "(plus 1 (* 2 3));",
		},
		{
			name:     "infix binds looser than comparison",
			input:    "infix fun either(a, b) { return a || b; } a > 1 either b < 2;",
			expected: "(either (> a 1) (< b 2));",
		},
		{
			name:     "prefix",
			input:    "prefix fun neg(x) { return -x; } neg 5 + 1;",
			expected: "(+ (neg 5) 1);",
		},
		{
			name:     "postfix",
			input:    "postfix fun sq(x) { return x * x; } 3 sq;",
			expected: "(3 post sq);",
		},
		{
			name:     "operator used by name",
			input:    "infix fun plus(a, b) { return a + b; } plus(1, 2);",
			expected: "(call plus 1 2);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program := parseOK(t, tt.input)
			require.Len(t, program.Statements, 2)
			assert.Equal(t, tt.expected, program.Statements[1].String())
		})
	}
}

func TestOperatorsBeforeDeclarationAreIdentifiers(t *testing.T) {
	// 'plus' is not yet an operator, so this is two adjacent expressions
	_, errs, _ := parse(t, "1 plus 2; infix fun plus(a, b) { return a + b; }")
	require.True(t, errs.HasErrors())
	assert.Equal(t, "Expect ';' after expression at 'plus'", errs.Errors()[0].Message)
}

func TestSharedOperators(t *testing.T) {
	ops := NewOperators()
	_, errs, _ := parse(t, "infix fun plus(a, b) { return a + b; }", WithOperators(ops))
	require.False(t, errs.HasErrors())
	assert.True(t, ops.Infix["plus"])

	program, errs, _ := parse(t, "1 plus 2;", WithOperators(ops))
	require.False(t, errs.HasErrors(), "operators carry over to later sources")
	_, ok := program.Statements[0].(*ast.ExpressionStmt).Expression.(*ast.CustomInfix)
	assert.True(t, ok)
}

func TestParseExpression(t *testing.T) {
	expr, errs := parseExpression(t, "1==1")
	require.False(t, errs.HasErrors())
	require.NotNil(t, expr)

	binary, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "==", binary.Operator.Lexeme)
	assert.Equal(t, 1.0, binary.Left.(*ast.Literal).Value)
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"1 2", "Expect end of expression at '2'"},
		{"", "Expect expression at end"},
		{"1++=1", "Invalid assignment target at '='"},
		{"(1", "Expect ')' after expression at end"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expr, errs := parseExpression(t, tt.input)
			assert.Nil(t, expr)
			require.True(t, errs.HasErrors())
			assert.Equal(t, tt.message, errs.Errors()[0].Message)
		})
	}
}

func TestNodePositions(t *testing.T) {
	program := parseOK(t, "var a = 1;\n  a = a + 2;")
	require.Len(t, program.Statements, 2)

	assign := program.Statements[1].(*ast.ExpressionStmt).Expression.(*ast.Assign)
	assert.Equal(t, 2, assign.Position().Line)
	assert.Equal(t, 3, assign.Position().Column)

	binary := assign.Value.(*ast.Binary)
	assert.Equal(t, 9, binary.Operator.Position.Column)
}
