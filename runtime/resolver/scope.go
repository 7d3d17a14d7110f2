package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opal-lang/hsl/core/invariant"
)

// BindingKind says what declared a name.
type BindingKind int

const (
	VariableBinding BindingKind = iota
	ParameterBinding
	// LoopBinding covers for-in and comprehension variables.
	LoopBinding
	FunctionBinding
	OperatorBinding
	ClassBinding
	// NativeBinding is introduced by 'using' and 'native fun'.
	NativeBinding
	// ReceiverBinding is the implicit 'this' or 'super'.
	ReceiverBinding
)

var bindingNames = [...]string{
	VariableBinding:  "variable",
	ParameterBinding: "parameter",
	LoopBinding:      "variable",
	FunctionBinding:  "function",
	OperatorBinding:  "operator",
	ClassBinding:     "class",
	NativeBinding:    "native function",
	ReceiverBinding:  "receiver",
}

func (k BindingKind) String() string {
	if int(k) < len(bindingNames) {
		return bindingNames[k]
	}
	return "binding"
}

// Binding is what the resolver knows about one declared name.
type Binding struct {
	Kind  BindingKind
	Final bool
	// Defined is false between declaration and the end of the initializer,
	// so 'var a = a;' can be caught in local scopes.
	Defined bool
}

// scope is one lexical level. The root scope holds globals.
type scope struct {
	names  map[string]*Binding
	parent *scope
	depth  int // distance from root
}

// scopeChain is the resolver's static mirror of the interpreter's
// environment chain: one scope per environment the interpreter will create.
type scopeChain struct {
	root    *scope
	current *scope
}

func newScopeChain() *scopeChain {
	root := &scope{names: make(map[string]*Binding)}
	return &scopeChain{root: root, current: root}
}

// enter pushes a child scope and makes it current.
func (c *scopeChain) enter() {
	c.current = &scope{
		names:  make(map[string]*Binding),
		parent: c.current,
		depth:  c.current.depth + 1,
	}
}

// exit returns to the parent scope.
func (c *scopeChain) exit() {
	invariant.Invariant(c.current.parent != nil, "cannot exit the global scope")
	c.current = c.current.parent
}

// atGlobal reports whether no local scope is open.
func (c *scopeChain) atGlobal() bool {
	return c.current == c.root
}

// store binds name in the current scope, replacing any earlier binding there.
func (c *scopeChain) store(name string, b *Binding) {
	c.current.names[name] = b
}

// local returns the binding for name in the current scope only.
func (c *scopeChain) local(name string) (*Binding, bool) {
	b, ok := c.current.names[name]
	return b, ok
}

// lookup walks from the current scope to the root. distance is the number
// of parent links between the current scope and the declaring one; global
// is true when the declaration lives in the root scope.
func (c *scopeChain) lookup(name string) (b *Binding, distance int, global bool, found bool) {
	for s := c.current; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok {
			return b, c.current.depth - s.depth, s == c.root, true
		}
	}
	return nil, 0, false, false
}

// finalAbove returns the nearest final binding of name in the current scope
// or any enclosing one.
func (c *scopeChain) finalAbove(name string) (*Binding, bool) {
	for s := c.current; s != nil; s = s.parent {
		if b, ok := s.names[name]; ok && b.Final {
			return b, true
		}
	}
	return nil, false
}

// global returns the root scope's binding for name.
func (c *scopeChain) global(name string) (*Binding, bool) {
	b, ok := c.root.names[name]
	return b, ok
}

// debugString renders the chain innermost first, for test failure output.
func (c *scopeChain) debugString() string {
	var b strings.Builder
	for s := c.current; s != nil; s = s.parent {
		names := make([]string, 0, len(s.names))
		for name, binding := range s.names {
			flag := ""
			if binding.Final {
				flag = " final"
			}
			names = append(names, fmt.Sprintf("%s(%s%s)", name, binding.Kind, flag))
		}
		sort.Strings(names)
		fmt.Fprintf(&b, "%d: %s\n", s.depth, strings.Join(names, " "))
	}
	return b.String()
}
