package parser

import "time"

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Statement and error counts only
	TelemetryTiming                      // Counts + parse time
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff   DebugLevel = iota // No debug info (default)
	DebugPaths                   // Rule entry tracing
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
	operators *Operators
}

// Operators records the custom operator names a parser has seen. Sharing one
// value between parsers lets later sources use operators declared earlier,
// as a REPL needs.
type Operators struct {
	Prefix  map[string]bool
	Infix   map[string]bool
	Postfix map[string]bool
}

// NewOperators creates an empty operator table.
func NewOperators() *Operators {
	return &Operators{
		Prefix:  make(map[string]bool),
		Infix:   make(map[string]bool),
		Postfix: make(map[string]bool),
	}
}

// WithOperators makes the parser read and extend ops instead of a private
// table.
func WithOperators(ops *Operators) ParserOpt {
	return func(c *ParserConfig) {
		c.operators = ops
	}
}

// WithTelemetryBasic enables basic telemetry (counts only)
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + parse time)
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables rule tracing (development only)
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugPaths
	}
}

// ParseTelemetry holds parser metrics (production-safe)
type ParseTelemetry struct {
	ParseTime      time.Duration // Time spent parsing
	TokenCount     int           // Number of tokens consumed
	StatementCount int           // Number of top-level statements
	ErrorCount     int           // Number of parse errors
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_declaration", "enter_class", etc.
	TokenPos  int    // Current token index
	Context   string // Lexeme of the current token
}
