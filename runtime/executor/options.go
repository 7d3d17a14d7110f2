package executor

import (
	"io"
	"log/slog"

	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/modules"
)

// Mode selects how a run treats the host and errors.
type Mode int

const (
	// ModeExecute runs everything. A runtime error aborts its top-level
	// statement and the run continues.
	ModeExecute Mode = iota
	// ModeValidate runs without side effects: native functions yield null
	// and print output is dropped.
	ModeValidate
	// ModeStrict stops at the first error of any phase and returns it.
	ModeStrict
)

func (m Mode) String() string {
	switch m {
	case ModeExecute:
		return "execute"
	case ModeValidate:
		return "validate"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to its Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "execute", "":
		return ModeExecute, true
	case "validate":
		return ModeValidate, true
	case "strict":
		return ModeStrict, true
	}
	return ModeExecute, false
}

// TelemetryLevel controls telemetry collection (production-safe)
type TelemetryLevel int

const (
	TelemetryOff    TelemetryLevel = iota // Zero overhead (default)
	TelemetryBasic                        // Token, statement and step counts
	TelemetryTiming                       // Counts + per-phase durations
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff   DebugLevel = iota // No debug info (default)
	DebugPaths                   // Phase entry/exit tracing
)

// Option configures an Executor.
type Option func(*Executor)

// WithRegistry sets the lexer registry. The default is lexer.Default().
func WithRegistry(r *lexer.Registry) Option {
	return func(e *Executor) {
		e.registry = r
	}
}

// WithModules sets the native modules scripts may bind. The default is
// modules.Standard().
func WithModules(m *modules.Registry) Option {
	return func(e *Executor) {
		e.modules = m
	}
}

// WithGlobals predefines host values as globals in every run. Values are
// converted with interpreter.FromHost.
func WithGlobals(globals map[string]interface{}) Option {
	return func(e *Executor) {
		for name, v := range globals {
			e.globals[name] = v
		}
	}
}

// WithMode sets the run mode.
func WithMode(m Mode) Option {
	return func(e *Executor) {
		e.mode = m
	}
}

// WithMaxSteps caps evaluated nodes per run. Zero means unlimited.
func WithMaxSteps(n int64) Option {
	return func(e *Executor) {
		e.maxSteps = n
	}
}

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithSourceName sets the name used for sources in diagnostics.
func WithSourceName(name string) Option {
	return func(e *Executor) {
		e.sourceName = name
	}
}

// WithCustomizer registers c to run before and after phase.
func WithCustomizer(phase diagnostic.Phase, c Customizer) Option {
	return func(e *Executor) {
		e.customizers[phase] = append(e.customizers[phase], c)
	}
}

// WithTelemetry enables telemetry collection.
func WithTelemetry(level TelemetryLevel) Option {
	return func(e *Executor) {
		e.telemetry = level
	}
}

// WithDebug enables phase tracing into Result.DebugEvents.
func WithDebug(level DebugLevel) Option {
	return func(e *Executor) {
		e.debug = level
	}
}
