// Package interpreter evaluates resolved HSL programs.
//
// The interpreter walks core/ast nodes with one handler per node variant.
// Variables with a resolver distance are read exactly that many environments
// up from the current one; the rest are globals looked up by name. Runtime
// failures come back as *diagnostic.RuntimeError values; Interpret collects
// them per top-level statement so one run can surface several problems.
//
// An Interpreter owns one global environment and is not safe for concurrent
// use. Create one per run to keep runs independent.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/resolver"
)

// maxCallDepth bounds nested calls so runaway recursion is a script error
// rather than a crashed process.
const maxCallDepth = 1024

// TestResult is the outcome of one test block.
type TestResult struct {
	Name     string
	Passed   bool
	Message  string // why the test failed, empty when it passed
	Position diagnostic.Position
}

// Interpreter executes programs against a global environment.
type Interpreter struct {
	globals *Environment
	modules ModuleSource
	out     io.Writer
	logger  *slog.Logger

	maxSteps     int64
	validateOnly bool
	stopOnError  bool

	// Per Interpret call
	source     *diagnostic.Source
	resolution *resolver.Resolution
	budget     *budget

	// lexicalClass is the class whose body contains the running code
	lexicalClass *Class
	callDepth    int
	tests        []TestResult
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput sets where print writes. The default discards output.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithModules supplies the modules 'using' and 'native fun' bind from.
func WithModules(modules ModuleSource) Option {
	return func(in *Interpreter) {
		in.modules = modules
	}
}

// WithValidateOnly runs scripts without touching the host: native calls
// yield null and print output is dropped.
func WithValidateOnly() Option {
	return func(in *Interpreter) {
		in.validateOnly = true
	}
}

// WithStopOnError stops Interpret at the first runtime error.
func WithStopOnError() Option {
	return func(in *Interpreter) {
		in.stopOnError = true
	}
}

// WithMaxSteps caps the number of evaluated nodes per Interpret call.
// Zero means unlimited.
func WithMaxSteps(n int64) Option {
	return func(in *Interpreter) {
		in.maxSteps = n
	}
}

// New creates an interpreter with an empty global environment.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		globals: NewEnvironment(nil),
		out:     io.Discard,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(in)
	}
	invariant.Precondition(in.maxSteps >= 0, "max steps must not be negative, got %d", in.maxSteps)
	in.budget = newBudget(context.Background(), in.maxSteps)
	return in
}

// Globals returns the global environment.
func (in *Interpreter) Globals() *Environment { return in.globals }

// Define binds a host value as a global, converting it with FromHost.
func (in *Interpreter) Define(name string, value interface{}) {
	in.globals.Define(name, FromHost(value))
}

// Tests returns the results of every test block run so far.
func (in *Interpreter) Tests() []TestResult { return in.tests }

// Steps returns the number of nodes evaluated by the last call.
func (in *Interpreter) Steps() int64 { return in.budget.used }

func (in *Interpreter) begin(ctx context.Context, src *diagnostic.Source, res *resolver.Resolution) {
	in.source = src
	in.resolution = res
	in.budget = newBudget(ctx, in.maxSteps)
	in.lexicalClass = nil
	in.callDepth = 0
}

// Interpret runs program. A runtime error aborts the top-level statement it
// happened in and the run continues with the next statement, unless the
// error is fatal or the interpreter stops on the first error.
func (in *Interpreter) Interpret(ctx context.Context, program *ast.Program, res *resolver.Resolution) []*diagnostic.RuntimeError {
	invariant.NotNil(program, "program")
	in.begin(ctx, program.Source, res)

	var errs []*diagnostic.RuntimeError
	for _, stmt := range program.Statements {
		if _, err := in.execute(stmt, in.globals); err != nil {
			rt := in.asRuntimeError(stmt, err)
			errs = append(errs, rt)
			in.logger.Debug("runtime error",
				"line", rt.Position.Line,
				"column", rt.Position.Column,
				"message", rt.Message,
				"fatal", rt.Fatal)
			if rt.Fatal || in.stopOnError {
				break
			}
		}
	}

	in.logger.Debug("interpret finished", "statements", len(program.Statements), "steps", in.budget.used, "errors", len(errs))
	return errs
}

// Evaluate evaluates a single resolved expression in the global scope.
func (in *Interpreter) Evaluate(ctx context.Context, expr ast.Expression, src *diagnostic.Source, res *resolver.Resolution) (Value, error) {
	invariant.NotNil(expr, "expression")
	in.begin(ctx, src, res)

	v, err := in.evaluate(expr, in.globals)
	if err != nil {
		return nil, in.asRuntimeError(expr, err)
	}
	return v, nil
}

// asRuntimeError makes sure everything leaving the interpreter is a
// positioned runtime error.
func (in *Interpreter) asRuntimeError(node ast.Node, err error) *diagnostic.RuntimeError {
	var rt *diagnostic.RuntimeError
	if errors.As(err, &rt) {
		return rt
	}
	return diagnostic.NewRuntimeError("", node.Position(), "%v", err).WithSource(in.source).CausedBy(err)
}

func (in *Interpreter) callFunction(f *Function, parent *Environment, args []Value) (Value, error) {
	invariant.Precondition(len(args) == f.Arity(), "%s called with %d arguments", f, len(args))

	env := NewEnvironment(parent)
	for i, param := range f.decl.Params {
		env.Define(param.Lexeme, args[i])
	}

	enclosing := in.lexicalClass
	in.lexicalClass = f.owner
	defer func() { in.lexicalClass = enclosing }()

	done, err := in.executeStatements(f.decl.Body, env)
	if err != nil {
		return nil, err
	}
	if done.kind == flowReturn {
		return done.value, nil
	}
	return nil, nil
}

func (in *Interpreter) print(v Value) error {
	if in.validateOnly {
		return nil
	}
	if _, err := fmt.Fprintln(in.out, Stringify(v)); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return nil
}
