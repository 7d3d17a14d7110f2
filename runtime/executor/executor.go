// Package executor is the embedding boundary of HSL: hand it a source, get
// back a Result with globals, test outcomes and diagnostics.
//
// A run goes through four phases (lexing, parsing, resolving,
// interpreting). Errors in the first three stop the run after that phase;
// runtime errors are collected per top-level statement unless the mode is
// strict. Customizers can observe the run before and after every phase.
//
// Every Run starts from a fresh global environment. Use a Session when
// state must carry over between inputs, as in a REPL.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/interpreter"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/modules"
	"github.com/opal-lang/hsl/runtime/parser"
	"github.com/opal-lang/hsl/runtime/resolver"
)

// Executor runs sources with a fixed configuration. It holds no per-run
// state and is safe for concurrent use as long as its output writer is.
type Executor struct {
	registry    *lexer.Registry
	modules     *modules.Registry
	globals     map[string]interface{}
	mode        Mode
	maxSteps    int64
	out         io.Writer
	logger      *slog.Logger
	sourceName  string
	customizers map[diagnostic.Phase][]Customizer
	telemetry   TelemetryLevel
	debug       DebugLevel
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Globals     map[string]interpreter.Value // nil when the run stopped before interpreting
	Comments    []lexer.Comment
	Diagnostics []diagnostic.Diagnostic
	Tests       []interpreter.TestResult
	Telemetry   *Telemetry   // nil if TelemetryOff
	DebugEvents []DebugEvent // nil if DebugOff

	// Value is the value of a bare expression evaluated by a Session or
	// Evaluate. HasValue tells null apart from no value.
	Value    interpreter.Value
	HasValue bool
}

// OK reports whether the run produced no diagnostics.
func (r *Result) OK() bool { return len(r.Diagnostics) == 0 }

// FailedTests counts test blocks that did not pass.
func (r *Result) FailedTests() int {
	n := 0
	for _, t := range r.Tests {
		if !t.Passed {
			n++
		}
	}
	return n
}

// Telemetry holds run metrics (production-safe)
type Telemetry struct {
	Tokens         int
	Comments       int
	Statements     int
	ResolvedLocals int
	Steps          int64
	Phases         []PhaseTiming // Only with TelemetryTiming
}

// PhaseTiming is the wall time spent in one phase.
type PhaseTiming struct {
	Phase    diagnostic.Phase
	Duration time.Duration
}

// DebugEvent represents a debug trace event
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_lexing", "exit_parsing", etc.
	Context   string
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		registry:    lexer.Default(),
		modules:     modules.Standard(),
		globals:     make(map[string]interface{}),
		out:         os.Stdout,
		logger:      defaultLogger(),
		sourceName:  "<script>",
		customizers: make(map[diagnostic.Phase][]Customizer),
	}
	for _, opt := range opts {
		opt(e)
	}

	// INPUT CONTRACT (preconditions)
	invariant.NotNil(e.registry, "registry")
	invariant.NotNil(e.modules, "modules")
	invariant.NotNil(e.out, "output")
	invariant.NotNil(e.logger, "logger")
	invariant.Precondition(e.maxSteps >= 0, "max steps must not be negative, got %d", e.maxSteps)
	return e
}

// defaultLogger discards output unless HSL_DEBUG is set.
func defaultLogger() *slog.Logger {
	if os.Getenv("HSL_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Mode returns the configured mode.
func (e *Executor) Mode() Mode { return e.mode }

// Run executes source in a fresh global environment. The error is nil
// unless the mode is strict and some phase failed; diagnostics are always
// in the result.
func (e *Executor) Run(ctx context.Context, source string) (*Result, error) {
	return e.run(ctx, e.newState(), diagnostic.NewSource(e.sourceName, source), programInput)
}

// Evaluate evaluates a single expression in a fresh global environment.
// Any diagnostic is returned as the error.
func (e *Executor) Evaluate(ctx context.Context, expression string) (interpreter.Value, error) {
	result, err := e.run(ctx, e.newState(), diagnostic.NewEvalSource(expression), expressionInput)
	if err != nil {
		return nil, err
	}
	return result.Value, nil
}

// Tokens scans source without running it.
func (e *Executor) Tokens(source string) ([]lexer.Token, []lexer.Comment, []diagnostic.Diagnostic) {
	var errs diagnostic.Collector
	tokens, comments := lexer.New(e.registry, &errs, lexer.WithLogger(e.logger)).
		ScanSource(diagnostic.NewSource(e.sourceName, source))
	return tokens, comments, errs.Diagnostics()
}

// state is what a run needs beyond its input. A Run gets a fresh one; a
// Session keeps one across inputs.
type state struct {
	interp    *interpreter.Interpreter
	resolver  *resolver.Resolver
	operators *parser.Operators
	reporter  diagnostic.Reporter
	// errs collects the current input's front-end errors.
	errs *diagnostic.Collector
}

func (e *Executor) newState() *state {
	st := &state{operators: parser.NewOperators(), errs: &diagnostic.Collector{}}
	st.reporter = diagnostic.ReporterFunc(func(err *diagnostic.ScriptError) {
		st.errs.Report(err)
	})

	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	st.resolver = resolver.New(st.reporter, resolver.WithCatalog(e.modules), resolver.WithGlobals(names...))

	opts := []interpreter.Option{
		interpreter.WithOutput(e.out),
		interpreter.WithLogger(e.logger),
		interpreter.WithModules(e.modules),
		interpreter.WithMaxSteps(e.maxSteps),
	}
	switch e.mode {
	case ModeValidate:
		opts = append(opts, interpreter.WithValidateOnly())
	case ModeStrict:
		opts = append(opts, interpreter.WithStopOnError())
	}
	st.interp = interpreter.New(opts...)
	for _, name := range names {
		st.interp.Define(name, e.globals[name])
	}
	return st
}

type inputKind int

const (
	programInput    inputKind = iota // statements
	expressionInput                  // exactly one expression
	replInput                        // statements, or one bare expression
)

// run carries one pass through the phases.
type run struct {
	e      *Executor
	st     *state
	src    *diagnostic.Source
	kind   inputKind
	logger *slog.Logger
	result *Result

	tokens     []lexer.Token
	comments   []lexer.Comment
	program    *ast.Program
	resolution *resolver.Resolution

	phaseStart time.Time
}

func (e *Executor) run(ctx context.Context, st *state, src *diagnostic.Source, kind inputKind) (*Result, error) {
	// INPUT CONTRACT (preconditions)
	invariant.NotNil(ctx, "ctx")
	invariant.NotNil(src, "source")

	id := uuid.NewString()
	st.errs = &diagnostic.Collector{}
	r := &run{
		e:      e,
		st:     st,
		src:    src,
		kind:   kind,
		logger: e.logger.With("run_id", id),
		result: &Result{RunID: id},
	}
	if e.telemetry != TelemetryOff {
		r.result.Telemetry = &Telemetry{}
	}
	if e.debug > DebugOff {
		r.result.DebugEvents = make([]DebugEvent, 0, 8)
	}
	r.logger.Debug("run started", "source", src.Name, "mode", e.mode.String(), "bytes", len(src.Content))

	// Lexing
	r.enter(diagnostic.Lexing)
	r.tokens, r.comments = lexer.New(e.registry, st.reporter, lexer.WithLogger(r.logger)).ScanSource(src)
	r.result.Comments = r.comments
	if t := r.result.Telemetry; t != nil {
		t.Tokens, t.Comments = len(r.tokens), len(r.comments)
	}
	if err := r.exit(diagnostic.Lexing); err != nil || st.errs.HasErrors() {
		return r.result, err
	}

	// Parsing
	r.enter(diagnostic.Parsing)
	expr := r.parse(kind)
	if t := r.result.Telemetry; t != nil && r.program != nil {
		t.Statements = len(r.program.Statements)
	}
	if err := r.exit(diagnostic.Parsing); err != nil || st.errs.HasErrors() {
		return r.result, err
	}

	// Resolving
	r.enter(diagnostic.Resolving)
	r.resolution = st.resolver.Resolve(r.program)
	if t := r.result.Telemetry; t != nil {
		t.ResolvedLocals = r.resolution.Len()
	}
	if err := r.exit(diagnostic.Resolving); err != nil || st.errs.HasErrors() {
		return r.result, err
	}

	// Interpreting
	r.enter(diagnostic.Interpreting)
	testsBefore := len(st.interp.Tests())
	runtimeErrs := r.interpret(ctx, expr)
	for _, rt := range runtimeErrs {
		r.result.Diagnostics = append(r.result.Diagnostics, rt.Diagnostic())
	}
	r.result.Globals = st.interp.Globals().Snapshot()
	r.result.Tests = append([]interpreter.TestResult(nil), st.interp.Tests()[testsBefore:]...)
	if t := r.result.Telemetry; t != nil {
		t.Steps = st.interp.Steps()
	}
	r.exit(diagnostic.Interpreting)

	// OUTPUT CONTRACT (postconditions)
	invariant.Postcondition(r.result.RunID != "", "result must carry a run id")
	invariant.Postcondition(r.result.Globals != nil, "an interpreted run must report globals")

	r.logger.Debug("run finished", "diagnostics", len(r.result.Diagnostics), "tests", len(r.result.Tests))
	if r.returnsErrors() && len(runtimeErrs) > 0 {
		return r.result, runtimeErrs[0]
	}
	return r.result, nil
}

// interpret runs the parsed input. A panic escaping the interpreter becomes
// a fatal runtime error so the embedding process keeps running.
func (r *run) interpret(ctx context.Context, expr ast.Expression) (errs []*diagnostic.RuntimeError) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("interpreter panic", "panic", p)
			rt := diagnostic.NewRuntimeError("", r.program.Position(), "internal error: %v", p).WithSource(r.src)
			rt.Fatal = true
			errs = append(errs, rt)
		}
	}()

	if expr == nil {
		return r.st.interp.Interpret(ctx, r.program, r.resolution)
	}
	v, err := r.st.interp.Evaluate(ctx, expr, r.src, r.resolution)
	var rt *diagnostic.RuntimeError
	switch {
	case err == nil:
		r.result.Value, r.result.HasValue = v, true
	case errors.As(err, &rt):
		errs = append(errs, rt)
	default:
		invariant.Invariant(false, "interpreter returned a non-runtime error: %v", err)
	}
	return errs
}

// parse fills r.program. For expression input, and for REPL input that is a
// lone expression, it also returns that expression.
func (r *run) parse(kind inputKind) ast.Expression {
	opts := []parser.ParserOpt{parser.WithOperators(r.st.operators)}

	switch kind {
	case expressionInput:
		expr := parser.New(r.e.registry, r.st.reporter, r.src, r.tokens, opts...).ParseExpression()
		r.program = wrapExpression(expr, r.src)
		return expr
	case replInput:
		if looksLikeExpression(r.tokens) {
			// Parse quietly: a failed expression parse falls back to
			// statements and reports their errors instead.
			var quiet diagnostic.Collector
			if expr := parser.New(r.e.registry, &quiet, r.src, r.tokens, opts...).ParseExpression(); expr != nil {
				r.program = wrapExpression(expr, r.src)
				return expr
			}
		}
	}
	r.program = parser.New(r.e.registry, r.st.reporter, r.src, r.tokens, opts...).Parse()
	return nil
}

func wrapExpression(expr ast.Expression, src *diagnostic.Source) *ast.Program {
	program := &ast.Program{Source: src}
	if expr != nil {
		program.Statements = []ast.Statement{&ast.ExpressionStmt{Expression: expr}}
	}
	return program
}

// looksLikeExpression reports whether tokens could be a bare expression:
// non-empty and not ending in ';' or '}'.
func looksLikeExpression(tokens []lexer.Token) bool {
	if len(tokens) < 2 {
		return false
	}
	last := tokens[len(tokens)-2]
	return last.Type != lexer.SEMICOLON && last.Type != lexer.RBRACE
}

// returnsErrors reports whether the first error becomes the run's error
// result rather than only a diagnostic.
func (r *run) returnsErrors() bool {
	return r.e.mode == ModeStrict || r.kind == expressionInput
}

func (r *run) enter(phase diagnostic.Phase) {
	r.phaseStart = time.Now()
	r.recordDebugEvent("enter_"+phase.String(), "")
	r.customize(phase, Before)
}

// exit closes a phase: diagnostics are copied into the result, customizers
// run, and in strict mode the first front-end error is returned.
func (r *run) exit(phase diagnostic.Phase) error {
	var first error
	if phase != diagnostic.Interpreting {
		errs := r.st.errs.Errors()
		for _, err := range errs {
			r.result.Diagnostics = append(r.result.Diagnostics, err.Diagnostic())
		}
		if len(errs) > 0 {
			r.logger.Debug("phase failed", "phase", phase.String(), "errors", len(errs))
			if r.returnsErrors() {
				first = errs[0]
			}
		}
	}

	if r.e.telemetry == TelemetryTiming {
		r.result.Telemetry.Phases = append(r.result.Telemetry.Phases, PhaseTiming{
			Phase:    phase,
			Duration: time.Since(r.phaseStart),
		})
	}
	r.recordDebugEvent("exit_"+phase.String(), fmt.Sprintf("diagnostics=%d", len(r.result.Diagnostics)))
	r.customize(phase, After)
	return first
}

func (r *run) customize(phase diagnostic.Phase, hook Hook) {
	customizers := r.e.customizers[phase]
	if len(customizers) == 0 {
		return
	}
	view := PhaseView{
		RunID:       r.result.RunID,
		Phase:       phase,
		Hook:        hook,
		Source:      r.src,
		Tokens:      r.tokens,
		Comments:    r.comments,
		Program:     r.program,
		Resolution:  r.resolution,
		Diagnostics: append([]diagnostic.Diagnostic(nil), r.result.Diagnostics...),
	}
	for _, c := range customizers {
		r.logger.Debug("customizer", "phase", phase.String(), "hook", hook.String())
		c(view)
	}
}

// recordDebugEvent records a debug event (only if debug enabled)
func (r *run) recordDebugEvent(event, context string) {
	if r.e.debug == DebugOff {
		return
	}
	r.result.DebugEvents = append(r.result.DebugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Context:   context,
	})
}
