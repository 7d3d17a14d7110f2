package interpreter

import (
	"fmt"
	"sort"

	"github.com/opal-lang/hsl/core/ast"
)

// Class is a runtime class: a method table, field declarations and an
// optional superclass. Calling a class creates an instance.
type Class struct {
	Name       string
	Superclass *Class
	Final      bool

	fields      []*ast.Field
	methods     map[string]*Function
	constructor *Function
	// closure is where field initializers run, with 'this' bound on top.
	closure *Environment
}

// FindMethod looks name up on c and then its superclasses.
func (c *Class) FindMethod(name string) (*Function, bool) {
	for class := c; class != nil; class = class.Superclass {
		if m, ok := class.methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// AddMethod installs fn as a method of c, replacing any method of the same
// name. Extension functions arrive this way.
func (c *Class) AddMethod(fn *Function) {
	c.methods[fn.Name()] = fn
}

// MethodNames returns the methods callable on c, including inherited ones.
func (c *Class) MethodNames() []string {
	seen := make(map[string]bool)
	for class := c; class != nil; class = class.Superclass {
		for name := range class.methods {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// findConstructor returns the nearest constructor up the chain.
func (c *Class) findConstructor() *Function {
	for class := c; class != nil; class = class.Superclass {
		if class.constructor != nil {
			return class.constructor
		}
	}
	return nil
}

// Arity is the constructor's parameter count, or zero without one.
func (c *Class) Arity() int {
	if ctor := c.findConstructor(); ctor != nil {
		return ctor.Arity()
	}
	return 0
}

// Call instantiates the class.
func (c *Class) Call(in *Interpreter, args []Value) (Value, error) {
	return in.instantiate(c, args)
}

func (c *Class) String() string {
	return fmt.Sprintf("<class %s>", c.Name)
}

// Property is one slot of an instance.
type Property struct {
	Value   Value
	Private bool
	Final   bool
	// Owner is the class that declared the field, nil for properties added
	// by assignment.
	Owner *Class

	// assigned is set once a final property holds its value. A final field
	// without an initializer may be assigned once from inside its class.
	assigned bool
}

// Instance is a property container with a back-reference to its class.
type Instance struct {
	Class *Class
	props map[string]*Property
}

func newInstance(c *Class) *Instance {
	return &Instance{Class: c, props: make(map[string]*Property)}
}

// Property returns the named property.
func (i *Instance) Property(name string) (*Property, bool) {
	p, ok := i.props[name]
	return p, ok
}

// PropertyNames returns the property names, sorted.
func (i *Instance) PropertyNames() []string {
	names := make([]string, 0, len(i.props))
	for name := range i.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (i *Instance) String() string {
	return fmt.Sprintf("<%s instance>", i.Class.Name)
}

func (in *Interpreter) instantiate(c *Class, args []Value) (Value, error) {
	inst := newInstance(c)
	if err := in.initFields(c, inst); err != nil {
		return nil, err
	}
	if ctor := c.findConstructor(); ctor != nil {
		if _, err := ctor.bind(inst).Call(in, args); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// initFields seeds inst with the fields of c and its superclasses, base
// class first. Initializers run with 'this' bound and private access to
// the declaring class.
func (in *Interpreter) initFields(c *Class, inst *Instance) error {
	if c.Superclass != nil {
		if err := in.initFields(c.Superclass, inst); err != nil {
			return err
		}
	}
	if len(c.fields) == 0 {
		return nil
	}

	env := NewEnvironment(c.closure)
	env.Define("this", inst)

	enclosing := in.lexicalClass
	in.lexicalClass = c
	defer func() { in.lexicalClass = enclosing }()

	for _, f := range c.fields {
		var v Value
		if f.Initializer != nil {
			var err error
			if v, err = in.evaluate(f.Initializer, env); err != nil {
				return err
			}
		}
		inst.props[f.Name.Lexeme] = &Property{
			Value:    v,
			Private:  f.Private,
			Final:    f.Final,
			Owner:    c,
			assigned: f.Initializer != nil,
		}
	}
	return nil
}
