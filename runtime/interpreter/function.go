package interpreter

import (
	"fmt"

	"github.com/opal-lang/hsl/core/ast"
)

// Callable is anything a script can call: user functions, custom
// operators, bound methods, classes and native functions.
type Callable interface {
	// Arity is the expected argument count, or Variadic.
	Arity() int
	Call(in *Interpreter, args []Value) (Value, error)
	String() string
}

// Function is a user-defined function, operator or method closed over the
// environment it was declared in.
type Function struct {
	decl    *ast.Function
	closure *Environment
	// owner is the class whose body lexically contains the function. It
	// decides private access; nil outside classes and for extensions.
	owner *Class
}

func newFunction(decl *ast.Function, closure *Environment, owner *Class) *Function {
	return &Function{decl: decl, closure: closure, owner: owner}
}

// Name returns the declared name ('constructor' for constructors).
func (f *Function) Name() string { return f.decl.Name.Lexeme }

// Kind returns the declaration kind.
func (f *Function) Kind() ast.FunctionKind { return f.decl.Kind }

// IsPrivate reports whether the function is a private method.
func (f *Function) IsPrivate() bool { return f.decl.Private }

// Arity returns the parameter count.
func (f *Function) Arity() int { return len(f.decl.Params) }

func (f *Function) String() string {
	switch f.decl.Kind {
	case ast.PrefixOperator, ast.InfixOperator, ast.PostfixOperator:
		return fmt.Sprintf("<%s %s>", f.decl.Kind, f.Name())
	default:
		return fmt.Sprintf("<fn %s>", f.Name())
	}
}

// Call runs the function body in a fresh environment. Calling an unbound
// method runs it without a receiver.
func (f *Function) Call(in *Interpreter, args []Value) (Value, error) {
	return in.callFunction(f, f.closure, args)
}

// bind closes the method over receiver.
func (f *Function) bind(receiver *Instance) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: f}
}

// BoundMethod is a method closed over its receiver instance.
type BoundMethod struct {
	Receiver *Instance
	Method   *Function
}

// Arity returns the method's parameter count.
func (b *BoundMethod) Arity() int { return b.Method.Arity() }

func (b *BoundMethod) String() string {
	return fmt.Sprintf("<method %s.%s>", b.Receiver.Class.Name, b.Method.Name())
}

// Call runs the method with 'this' bound to the receiver.
func (b *BoundMethod) Call(in *Interpreter, args []Value) (Value, error) {
	env := NewEnvironment(b.Method.closure)
	env.Define("this", b.Receiver)
	result, err := in.callFunction(b.Method, env, args)
	if err != nil {
		return nil, err
	}
	if b.Method.decl.Kind == ast.Constructor {
		return b.Receiver, nil
	}
	return result, nil
}
