package executor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/interpreter"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/modules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(out *bytes.Buffer, opts ...Option) *Executor {
	return New(append([]Option{WithOutput(out), WithSourceName("test.hsl")}, opts...)...)
}

func TestRunCollectsGlobals(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out).Run(context.Background(), "var a=12; var b=13; var c=a+b; print(c);")
	require.NoError(t, err)
	require.True(t, result.OK(), "diagnostics: %v", result.Diagnostics)

	want := map[string]interpreter.Value{"a": 12.0, "b": 13.0, "c": 25.0}
	if diff := cmp.Diff(want, result.Globals); diff != "" {
		t.Errorf("globals mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "25\n", out.String())
	assert.NotEmpty(t, result.RunID)
}

func TestRunsAreIndependent(t *testing.T) {
	var out bytes.Buffer
	e := newExecutor(&out)
	script := "var n = 0; n++; var xs = [n, n * 2];"

	first, err := e.Run(context.Background(), script)
	require.NoError(t, err)
	second, err := e.Run(context.Background(), script)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Globals, second.Globals); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPhaseErrorsStopTheRun(t *testing.T) {
	tests := []struct {
		name   string
		source string
		phase  diagnostic.Phase
	}{
		{"lexing", "print(\"open);", diagnostic.Lexing},
		{"parsing", "var = 1;", diagnostic.Parsing},
		{"resolving", "final var x = 1;\nx = 2;", diagnostic.Resolving},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			result, err := newExecutor(&out).Run(context.Background(), "print(1);\n"+tt.source)
			require.NoError(t, err, "only strict mode returns errors")
			require.NotEmpty(t, result.Diagnostics)
			assert.Equal(t, tt.phase, result.Diagnostics[0].Phase)
			assert.Nil(t, result.Globals)
			assert.Empty(t, out.String(), "nothing runs after a front-end error")
		})
	}
}

func TestRuntimeErrorsContinue(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out).Run(context.Background(), "print(1 / 0);\nprint(2);")
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)

	d := result.Diagnostics[0]
	assert.Equal(t, diagnostic.Interpreting, d.Phase)
	assert.Equal(t, "Division by zero", d.Message)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, "2\n", out.String())
}

func TestHugeSequencesAreDiagnosed(t *testing.T) {
	tests := []struct {
		source  string
		message string
	}{
		{`print("a" * 10000000000000000000);`, "Repeat count too large"},
		{`print([1] * 100000000000000000);`, "Repeat count too large"},
		{`print(0..100000000000000000);`, "Range too large"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			var out bytes.Buffer
			result, err := newExecutor(&out).Run(context.Background(), tt.source+"\nprint(\"after\");")
			require.NoError(t, err)
			require.Len(t, result.Diagnostics, 1)
			assert.Equal(t, diagnostic.Interpreting, result.Diagnostics[0].Phase)
			assert.Equal(t, tt.message, result.Diagnostics[0].Message)
			assert.Equal(t, "after\n", out.String())
		})
	}
}

// panicky is a host callable that fails without going through NativeFunction.
type panicky struct{}

func (panicky) Arity() int     { return 0 }
func (panicky) String() string { return "<fn panicky>" }
func (panicky) Call(*interpreter.Interpreter, []interpreter.Value) (interpreter.Value, error) {
	panic("host bug")
}

func TestPanicBecomesFatalDiagnostic(t *testing.T) {
	var out bytes.Buffer
	e := newExecutor(&out, WithGlobals(map[string]interface{}{"explode": panicky{}}))

	result, err := e.Run(context.Background(), "print(1);\nexplode();\nprint(2);")
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, diagnostic.Interpreting, result.Diagnostics[0].Phase)
	assert.Equal(t, "internal error: host bug", result.Diagnostics[0].Message)
	assert.Equal(t, "1\n", out.String(), "the run stops at the panic")

	_, err = newExecutor(&out, WithMode(ModeStrict), WithGlobals(map[string]interface{}{"explode": panicky{}})).
		Run(context.Background(), "explode();")
	var rt *diagnostic.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.True(t, rt.Fatal)
}

func TestStrictMode(t *testing.T) {
	var out bytes.Buffer
	e := newExecutor(&out, WithMode(ModeStrict))

	result, err := e.Run(context.Background(), "print(1 / 0);\nprint(2);")
	var rt *diagnostic.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "Division by zero", rt.Message)
	assert.Len(t, result.Diagnostics, 1)
	assert.Empty(t, out.String())

	_, err = e.Run(context.Background(), "var = 1;")
	var se *diagnostic.ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, diagnostic.Parsing, se.Phase)
}

func TestValidateMode(t *testing.T) {
	calls := 0
	reg := modules.NewRegistry().MustRegister("host", func(b *modules.Builder) {
		b.Function("touch", 0, func(args []interpreter.Value) (interface{}, error) {
			calls++
			return 1, nil
		})
	})

	var out bytes.Buffer
	result, err := newExecutor(&out, WithMode(ModeValidate), WithModules(reg)).
		Run(context.Background(), "using host;\nvar r = touch();\nprint(\"hidden\");\nvar bad = 1 / 0;")
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.Empty(t, out.String())
	assert.Nil(t, result.Globals["r"])
	require.Len(t, result.Diagnostics, 1, "runtime errors are still collected")
	assert.Equal(t, "Division by zero", result.Diagnostics[0].Message)
}

func TestStepBudget(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out, WithMaxSteps(500), WithTelemetry(TelemetryBasic)).
		Run(context.Background(), "while (true) {}\nprint(1);")
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "execution budget of 500 steps exceeded", result.Diagnostics[0].Message)
	assert.Equal(t, int64(501), result.Telemetry.Steps)
	assert.Empty(t, out.String())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := newExecutor(&out, WithMode(ModeStrict)).Run(ctx, "while (true) {}")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHostGlobals(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out, WithGlobals(map[string]interface{}{"limit": 10, "name": "ada"})).
		Run(context.Background(), "var msg = name + \" \" + limit * 2;")
	require.NoError(t, err)
	require.True(t, result.OK(), "diagnostics: %v", result.Diagnostics)
	assert.Equal(t, "ada 20", result.Globals["msg"])
}

func TestResultTests(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out).Run(context.Background(), `
test("math works") { return 1 + 1 == 2; }
test("broken") { return false; }
`)
	require.NoError(t, err)
	require.Len(t, result.Tests, 2)
	assert.True(t, result.Tests[0].Passed)
	assert.False(t, result.Tests[1].Passed)
	assert.Equal(t, 1, result.FailedTests())
}

func TestCommentsAreReported(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out).Run(context.Background(), "# setup\nvar x = 1; // trailing\n/* block */")
	require.NoError(t, err)
	require.Len(t, result.Comments, 3)
	assert.Equal(t, lexer.LineComment, result.Comments[0].Kind)
	assert.Equal(t, lexer.BlockComment, result.Comments[2].Kind)
}

func TestCustomizers(t *testing.T) {
	type call struct {
		Phase diagnostic.Phase
		Hook  Hook
	}
	var calls []call
	var tokensAfterLexing int
	record := func(v PhaseView) {
		calls = append(calls, call{v.Phase, v.Hook})
		if v.Phase == diagnostic.Lexing && v.Hook == After {
			tokensAfterLexing = len(v.Tokens)
		}
	}

	var out bytes.Buffer
	opts := []Option{}
	for _, phase := range []diagnostic.Phase{diagnostic.Lexing, diagnostic.Parsing, diagnostic.Resolving, diagnostic.Interpreting} {
		opts = append(opts, WithCustomizer(phase, record))
	}
	_, err := newExecutor(&out, opts...).Run(context.Background(), "var x = 1;")
	require.NoError(t, err)

	want := []call{
		{diagnostic.Lexing, Before}, {diagnostic.Lexing, After},
		{diagnostic.Parsing, Before}, {diagnostic.Parsing, After},
		{diagnostic.Resolving, Before}, {diagnostic.Resolving, After},
		{diagnostic.Interpreting, Before}, {diagnostic.Interpreting, After},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("customizer calls (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, tokensAfterLexing, "var x = 1 ; EOF")
}

func TestCustomizersSeeDiagnostics(t *testing.T) {
	var seen []diagnostic.Diagnostic
	var out bytes.Buffer
	_, err := newExecutor(&out, WithCustomizer(diagnostic.Parsing, func(v PhaseView) {
		if v.Hook == After {
			seen = v.Diagnostics
		}
	})).Run(context.Background(), "var = 1;")
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, diagnostic.Parsing, seen[0].Phase)
}

func TestTelemetryTiming(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out, WithTelemetry(TelemetryTiming)).
		Run(context.Background(), "fun f(x) { return x; }\nvar y = f(2); # done")
	require.NoError(t, err)

	tel := result.Telemetry
	require.NotNil(t, tel)
	assert.Equal(t, 2, tel.Statements)
	assert.Equal(t, 1, tel.Comments)
	assert.Positive(t, tel.Tokens)
	assert.Positive(t, tel.Steps)
	assert.Positive(t, tel.ResolvedLocals)
	require.Len(t, tel.Phases, 4)
	assert.Equal(t, diagnostic.Interpreting, tel.Phases[3].Phase)
}

func TestTelemetryOff(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out).Run(context.Background(), "var x = 1;")
	require.NoError(t, err)
	assert.Nil(t, result.Telemetry)
	assert.Nil(t, result.DebugEvents)
}

func TestDebugEvents(t *testing.T) {
	var out bytes.Buffer
	result, err := newExecutor(&out, WithDebug(DebugPaths)).Run(context.Background(), "var x = 1;")
	require.NoError(t, err)

	events := make([]string, len(result.DebugEvents))
	for i, ev := range result.DebugEvents {
		events[i] = ev.Event
	}
	assert.Equal(t, []string{
		"enter_lexing", "exit_lexing",
		"enter_parsing", "exit_parsing",
		"enter_resolving", "exit_resolving",
		"enter_interpreting", "exit_interpreting",
	}, events)
}

func TestEvaluate(t *testing.T) {
	var out bytes.Buffer
	e := newExecutor(&out)

	v, err := e.Evaluate(context.Background(), "1 + 2 * 3")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	_, err = e.Evaluate(context.Background(), "1 +")
	var se *diagnostic.ScriptError
	require.ErrorAs(t, err, &se)

	_, err = e.Evaluate(context.Background(), "1 / 0")
	var rt *diagnostic.RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "Division by zero", rt.Message)
}

func TestTokens(t *testing.T) {
	e := New()
	tokens, comments, diags := e.Tokens("var x = 1; # note")
	assert.Empty(t, diags)
	require.Len(t, comments, 1)

	types := make([]lexer.TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	want := []lexer.TokenType{lexer.VAR, lexer.IDENTIFIER, lexer.EQUAL, lexer.NUMBER, lexer.SEMICOLON, lexer.EOF}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("token types (-want +got):\n%s", diff)
	}

	_, _, diags = e.Tokens("\"open")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostic.Lexing, diags[0].Phase)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeExecute, ModeValidate, ModeStrict} {
		got, ok := ParseMode(m.String())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseMode("loud")
	assert.False(t, ok)
}
