package diagnostic

// Reporter receives script errors as a phase discovers them. Phases keep
// going after reporting so a single run can surface several problems.
type Reporter interface {
	Report(err *ScriptError)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(err *ScriptError)

// Report calls f(err).
func (f ReporterFunc) Report(err *ScriptError) { f(err) }

// Collector is a Reporter that keeps every error in order.
type Collector struct {
	errors []*ScriptError
}

// Report appends err.
func (c *Collector) Report(err *ScriptError) {
	c.errors = append(c.errors, err)
}

// Errors returns the collected errors in report order.
func (c *Collector) Errors() []*ScriptError {
	return c.errors
}

// HasErrors reports whether anything was collected.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Diagnostics flattens the collected errors.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(c.errors))
	for _, e := range c.errors {
		out = append(out, e.Diagnostic())
	}
	return out
}
