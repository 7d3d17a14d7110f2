package executor

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionKeepsState(t *testing.T) {
	var out bytes.Buffer
	s := newExecutor(&out).NewSession()
	ctx := context.Background()

	_, err := s.Run(ctx, "var count = 1;")
	require.NoError(t, err)
	_, err = s.Run(ctx, "fun bump() { count++; return count; }")
	require.NoError(t, err)

	result, err := s.Run(ctx, "bump()")
	require.NoError(t, err)
	require.True(t, result.OK(), "diagnostics: %v", result.Diagnostics)
	assert.True(t, result.HasValue)
	assert.Equal(t, 2.0, result.Value)

	assert.Contains(t, s.Globals(), "bump")
}

func TestSessionStatementsHaveNoValue(t *testing.T) {
	var out bytes.Buffer
	s := newExecutor(&out).NewSession()

	result, err := s.Run(context.Background(), "print(1);")
	require.NoError(t, err)
	assert.False(t, result.HasValue)
	assert.Equal(t, "1\n", out.String())

	result, err = s.Run(context.Background(), "null")
	require.NoError(t, err)
	assert.True(t, result.HasValue)
	assert.Nil(t, result.Value)
}

func TestSessionKeepsOperatorsAndFinality(t *testing.T) {
	var out bytes.Buffer
	s := newExecutor(&out).NewSession()
	ctx := context.Background()

	_, err := s.Run(ctx, "infix fun times(a, b) { return a * b; }")
	require.NoError(t, err)
	result, err := s.Run(ctx, "3 times 4")
	require.NoError(t, err)
	assert.Equal(t, 12.0, result.Value)

	_, err = s.Run(ctx, "final var limit = 3;")
	require.NoError(t, err)
	result, err = s.Run(ctx, "limit = 4;")
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "Cannot reassign final variable 'limit'", result.Diagnostics[0].Message)
}

func TestSessionReportsStatementErrors(t *testing.T) {
	var out bytes.Buffer
	s := newExecutor(&out).NewSession()

	// Not an expression and not a valid statement: the statement parse
	// error is the one reported.
	result, err := s.Run(context.Background(), "var = 2")
	require.NoError(t, err)
	require.NotEmpty(t, result.Diagnostics)
	assert.Contains(t, result.Diagnostics[0].Message, "Expect")
}

func TestSessionTestsArePerInput(t *testing.T) {
	var out bytes.Buffer
	s := newExecutor(&out).NewSession()

	first, err := s.Run(context.Background(), `test("a") { return true; }`)
	require.NoError(t, err)
	second, err := s.Run(context.Background(), `test("b") { return false; }`)
	require.NoError(t, err)

	require.Len(t, first.Tests, 1)
	require.Len(t, second.Tests, 1)
	assert.Equal(t, "b", second.Tests[0].Name)
}
