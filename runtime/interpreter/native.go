package interpreter

import (
	"fmt"
	"sort"
)

// Variadic is the arity of a native function that accepts any number of
// arguments.
const Variadic = -1

// NativeFunction is a host function registered up front under a module.
// Arguments reach Fn with External values unwrapped; the result is
// converted back with FromHost.
type NativeFunction struct {
	Module string
	Name   string
	Params int
	Final  bool
	Fn     func(args []Value) (interface{}, error)
}

// Arity returns the declared parameter count, or Variadic.
func (n *NativeFunction) Arity() int { return n.Params }

func (n *NativeFunction) String() string {
	return fmt.Sprintf("<native fn %s.%s>", n.Module, n.Name)
}

// QualifiedName is module.name.
func (n *NativeFunction) QualifiedName() string {
	return n.Module + "." + n.Name
}

// Call invokes the host function. In validate mode the host is never
// reached and the call yields null. Host errors and panics come back as
// *HostError so the caller can position them.
func (n *NativeFunction) Call(in *Interpreter, args []Value) (result Value, err error) {
	if in.validateOnly {
		return nil, nil
	}

	host := make([]Value, len(args))
	for i, arg := range args {
		host[i] = ToHost(arg)
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, &HostError{Function: n.QualifiedName(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	out, hostErr := n.Fn(host)
	if hostErr != nil {
		return nil, &HostError{Function: n.QualifiedName(), Err: hostErr}
	}
	return FromHost(out), nil
}

// HostError is a failure raised by a native function.
type HostError struct {
	Function string
	Err      error
}

func (e *HostError) Error() string { return fmt.Sprintf("native function '%s' failed: %v", e.Function, e.Err) }
func (e *HostError) Unwrap() error { return e.Err }

// Module is a named set of host exports. Exports are NativeFunctions or
// plain values; names in Finals cannot be redefined by scripts.
type Module struct {
	Name    string
	Exports map[string]Value
	Finals  map[string]bool
}

// Names returns the export names, sorted.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.Exports))
	for name := range m.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ModuleSource supplies modules for 'using' and 'native fun'.
type ModuleSource interface {
	Module(name string) (*Module, bool)
	Names() []string
}
