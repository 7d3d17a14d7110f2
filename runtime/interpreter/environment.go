package interpreter

import (
	"sort"

	"github.com/opal-lang/hsl/core/invariant"
)

// Environment is one link in the runtime scope chain. Closures hold a
// pointer to the environment they were created in; lookups with a resolver
// distance walk exactly that many parent links.
type Environment struct {
	values map[string]Value
	finals map[string]bool
	parent *Environment
}

// NewEnvironment creates a scope whose parent is enclosing (nil for globals).
func NewEnvironment(enclosing *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: enclosing,
	}
}

// Parent returns the enclosing environment, nil at the root.
func (e *Environment) Parent() *Environment { return e.parent }

// Define binds name in this environment, shadowing outer bindings.
func (e *Environment) Define(name string, v Value) {
	e.values[name] = v
}

// DefineFinal binds name and marks it read-only.
func (e *Environment) DefineFinal(name string, v Value) {
	e.values[name] = v
	if e.finals == nil {
		e.finals = make(map[string]bool)
	}
	e.finals[name] = true
}

// Lookup returns the binding for name in this environment only.
func (e *Environment) Lookup(name string) (Value, bool) {
	v, ok := e.values[name]
	return v, ok
}

// IsFinal reports whether name is a final binding of this environment.
func (e *Environment) IsFinal(name string) bool {
	return e.finals[name]
}

// Assign replaces an existing binding in this environment. It reports false
// when name is unbound here.
func (e *Environment) Assign(name string, v Value) bool {
	if _, ok := e.values[name]; !ok {
		return false
	}
	e.values[name] = v
	return true
}

// Ancestor returns the environment distance parent links up.
func (e *Environment) Ancestor(distance int) *Environment {
	invariant.Precondition(distance >= 0, "distance must not be negative, got %d", distance)
	env := e
	for i := 0; i < distance; i++ {
		invariant.Invariant(env.parent != nil, "resolved distance %d walks past the global scope", distance)
		env = env.parent
	}
	return env
}

// GetAt looks name up exactly distance links up.
func (e *Environment) GetAt(distance int, name string) (Value, bool) {
	return e.Ancestor(distance).Lookup(name)
}

// AssignAt assigns name exactly distance links up.
func (e *Environment) AssignAt(distance int, name string, v Value) bool {
	return e.Ancestor(distance).Assign(name, v)
}

// Names returns the names bound in this environment, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Visible returns every name reachable from this environment, innermost
// first and without duplicates.
func (e *Environment) Visible() []string {
	seen := make(map[string]bool)
	var names []string
	for env := e; env != nil; env = env.parent {
		for _, name := range env.Names() {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Snapshot copies the bindings of this environment.
func (e *Environment) Snapshot() map[string]Value {
	out := make(map[string]Value, len(e.values))
	for name, v := range e.values {
		out[name] = v
	}
	return out
}
