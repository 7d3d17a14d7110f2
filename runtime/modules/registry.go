// Package modules is the explicit registration point for native modules.
//
// A module is declared once with a build function that lists its exports
// through a Builder. The build runs lazily, the first time a script binds
// the module, and its result is shared by every run that uses the same
// Registry.
//
// A Registry serves both ends of the pipeline: the resolver asks it which
// exports exist and which are final, the interpreter asks it for the
// runtime values.
package modules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/interpreter"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// HostFunc is the Go side of a native function. Arguments arrive with
// External values unwrapped; the result is converted with
// interpreter.FromHost.
type HostFunc func(args []interpreter.Value) (interface{}, error)

// Builder collects the exports of one module.
type Builder struct {
	mod *interpreter.Module
}

func newBuilder(name string) *Builder {
	return &Builder{mod: &interpreter.Module{
		Name:    name,
		Exports: make(map[string]interpreter.Value),
		Finals:  make(map[string]bool),
	}}
}

// Const exports a plain value. Scripts may shadow it.
func (b *Builder) Const(name string, value interface{}) *Builder {
	b.define(name, interpreter.FromHost(value), false)
	return b
}

// FinalConst exports a value scripts cannot redefine.
func (b *Builder) FinalConst(name string, value interface{}) *Builder {
	b.define(name, interpreter.FromHost(value), true)
	return b
}

// Function exports a native function taking params arguments, or any number
// with interpreter.Variadic.
func (b *Builder) Function(name string, params int, fn HostFunc) *Builder {
	b.define(name, b.native(name, params, fn, false), false)
	return b
}

// FinalFunction exports a native function scripts cannot redefine.
func (b *Builder) FinalFunction(name string, params int, fn HostFunc) *Builder {
	b.define(name, b.native(name, params, fn, true), true)
	return b
}

func (b *Builder) native(name string, params int, fn HostFunc, final bool) *interpreter.NativeFunction {
	invariant.NotNil(fn, "native function")
	invariant.Precondition(params >= 0 || params == interpreter.Variadic,
		"native function %s.%s has invalid arity %d", b.mod.Name, name, params)
	return &interpreter.NativeFunction{
		Module: b.mod.Name,
		Name:   name,
		Params: params,
		Final:  final,
		Fn:     fn,
	}
}

func (b *Builder) define(name string, v interpreter.Value, final bool) {
	invariant.Precondition(validName(name), "invalid export name %q in module %s", name, b.mod.Name)
	_, dup := b.mod.Exports[name]
	invariant.Precondition(!dup, "module %s exports %q twice", b.mod.Name, name)
	b.mod.Exports[name] = v
	if final {
		b.mod.Finals[name] = true
	}
}

type entry struct {
	build func(*Builder)
	once  sync.Once
	mod   *interpreter.Module
}

func (e *entry) module(name string) *interpreter.Module {
	e.once.Do(func() {
		b := newBuilder(name)
		e.build(b)
		e.mod = b.mod
	})
	return e.mod
}

// Registry holds named module declarations. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register declares a module. The name must be an identifier and unused.
func (r *Registry) Register(name string, build func(*Builder)) error {
	invariant.NotNil(build, "build")
	if !validName(name) {
		return fmt.Errorf("invalid module name %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("module %q already registered", name)
	}
	r.entries[name] = &entry{build: build}
	return nil
}

// MustRegister is Register for static declarations; it panics on error.
func (r *Registry) MustRegister(name string, build func(*Builder)) *Registry {
	if err := r.Register(name, build); err != nil {
		panic(err)
	}
	return r
}

// Module returns the named module, building it on first use.
func (r *Registry) Module(name string) (*interpreter.Module, bool) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.module(name), true
}

// Names returns the registered module names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Exports maps each export of the module to whether it is final.
func (r *Registry) Exports(name string) (map[string]bool, bool) {
	mod, ok := r.Module(name)
	if !ok {
		return nil, false
	}
	out := make(map[string]bool, len(mod.Exports))
	for export := range mod.Exports {
		out[export] = mod.Finals[export]
	}
	return out, true
}

// Subset returns a registry sharing only the named modules with r.
func (r *Registry) Subset(names ...string) (*Registry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewRegistry()
	for _, name := range names {
		e, ok := r.entries[name]
		if !ok {
			return nil, fmt.Errorf("unknown module %q", name)
		}
		out.entries[name] = e
	}
	return out, nil
}

func validName(name string) bool {
	return lexer.DefaultCharacterClasses().IsIdentifier(name)
}
