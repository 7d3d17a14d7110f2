package interpreter

import (
	"errors"
	"math"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

func (in *Interpreter) evaluate(expr ast.Expression, env *Environment) (Value, error) {
	if err := in.step(expr); err != nil {
		return nil, err
	}

	switch e := expr.(type) {
	case *ast.Literal:
		if r, ok := e.Value.(rune); ok {
			return Char(r), nil
		}
		return e.Value, nil

	case *ast.Variable:
		return in.lookupVariable(e.Name, e, env)

	case *ast.This:
		return in.lookupVariable(e.Keyword, e, env)

	case *ast.Assign:
		value, err := in.evaluate(e.Value, env)
		if err != nil {
			return nil, err
		}
		if arith, ok := compoundOperator(e.Operator); ok {
			current, err := in.lookupVariable(e.Name, e, env)
			if err != nil {
				return nil, err
			}
			if value, err = in.binary(arith, current, value); err != nil {
				return nil, err
			}
		}
		if err := in.assignVariable(e.Name, e, env, value); err != nil {
			return nil, err
		}
		return value, nil

	case *ast.Binary:
		left, err := in.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		return in.binary(e.Operator, left, right)

	case *ast.Logical:
		return in.logical(e, env)

	case *ast.Unary:
		if isIncrement(e.Operator) {
			return in.increment(e.Operator, e.Right, env, true)
		}
		right, err := in.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		return in.unary(e.Operator, right)

	case *ast.Postfix:
		return in.increment(e.Operator, e.Left, env, false)

	case *ast.CustomPrefix:
		right, err := in.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		return in.callOperator(e.Operator, e, env, right)

	case *ast.CustomInfix:
		left, err := in.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		return in.callOperator(e.Operator, e, env, left, right)

	case *ast.CustomPostfix:
		left, err := in.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		return in.callOperator(e.Operator, e, env, left)

	case *ast.Ternary:
		cond, err := in.evaluate(e.Condition, env)
		if err != nil {
			return nil, err
		}
		if IsTruthy(cond) {
			return in.evaluate(e.Then, env)
		}
		return in.evaluate(e.Else, env)

	case *ast.Elvis:
		left, err := in.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		if IsTruthy(left) {
			return left, nil
		}
		return in.evaluate(e.Right, env)

	case *ast.Range:
		left, err := in.evaluate(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evaluate(e.Right, env)
		if err != nil {
			return nil, err
		}
		from, to, err := in.numbers(e.Operator, left, right)
		if err != nil {
			return nil, err
		}
		arr, err := in.span(e.Operator, from, to)
		if err != nil {
			return nil, err
		}
		return arr, nil

	case *ast.Grouping:
		return in.evaluate(e.Expression, env)

	case *ast.Call:
		callee, err := in.evaluate(e.Callee, env)
		if err != nil {
			return nil, err
		}
		args := make([]Value, 0, len(e.Arguments))
		for _, arg := range e.Arguments {
			v, err := in.evaluate(arg, env)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
		return in.callValue(e.Paren, callee, args)

	case *ast.Get:
		object, err := in.evaluate(e.Object, env)
		if err != nil {
			return nil, err
		}
		return in.getProperty(e.Name, object)

	case *ast.Set:
		object, err := in.evaluate(e.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := object.(*Instance)
		if !ok {
			return nil, in.errorAt(e.Name, "Only instances have properties, got %s", TypeName(object))
		}
		value, err := in.evaluate(e.Value, env)
		if err != nil {
			return nil, err
		}
		if arith, ok := compoundOperator(e.Operator); ok {
			current, err := in.getProperty(e.Name, inst)
			if err != nil {
				return nil, err
			}
			if value, err = in.binary(arith, current, value); err != nil {
				return nil, err
			}
		}
		return value, in.setProperty(e.Name, inst, value)

	case *ast.Index:
		object, err := in.evaluate(e.Object, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evaluate(e.Index, env)
		if err != nil {
			return nil, err
		}
		return in.index(e.Bracket, object, index)

	case *ast.IndexSet:
		object, err := in.evaluate(e.Object, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evaluate(e.Index, env)
		if err != nil {
			return nil, err
		}
		value, err := in.evaluate(e.Value, env)
		if err != nil {
			return nil, err
		}
		if arith, ok := compoundOperator(e.Operator); ok {
			current, err := in.index(e.Bracket, object, index)
			if err != nil {
				return nil, err
			}
			if value, err = in.binary(arith, current, value); err != nil {
				return nil, err
			}
		}
		return value, in.setIndex(e.Bracket, object, index, value)

	case *ast.ArrayLiteral:
		elems := make([]Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := in.evaluate(el, env)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return NewArray(elems...), nil

	case *ast.Comprehension:
		return in.comprehension(e, env)

	case *ast.Super:
		return in.super(e, env)
	}

	invariant.Invariant(false, "interpreter has no case for expression %T", expr)
	return nil, nil
}

func (in *Interpreter) logical(e *ast.Logical, env *Environment) (Value, error) {
	left, err := in.evaluate(e.Left, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator.Type {
	case lexer.OR_OR:
		if IsTruthy(left) {
			return true, nil
		}
	case lexer.AND_AND:
		if !IsTruthy(left) {
			return false, nil
		}
	}

	right, err := in.evaluate(e.Right, env)
	if err != nil {
		return nil, err
	}
	if e.Operator.Type == lexer.CARET_CARET {
		return IsTruthy(left) != IsTruthy(right), nil
	}
	return IsTruthy(right), nil
}

// visibleNames lists candidate names for suggestions.
func visibleNames(env *Environment) []string {
	var names []string
	for _, name := range env.Visible() {
		if name != "this" && name != "super" {
			names = append(names, name)
		}
	}
	return names
}

func (in *Interpreter) undefinedVariable(name lexer.Token, env *Environment) error {
	return in.errorAt(name, "Undefined variable '%s'.%s", name.Lexeme, suggest(name.Lexeme, visibleNames(env)))
}

// lookupVariable reads name at its resolved distance, or from the globals
// when the resolver left it unresolved.
func (in *Interpreter) lookupVariable(name lexer.Token, expr ast.Expression, env *Environment) (Value, error) {
	if distance, ok := in.resolution.Distance(expr); ok {
		if v, ok := env.GetAt(distance, name.Lexeme); ok {
			return v, nil
		}
	} else if v, ok := in.globals.Lookup(name.Lexeme); ok {
		return v, nil
	}
	return nil, in.undefinedVariable(name, env)
}

func (in *Interpreter) assignVariable(name lexer.Token, expr ast.Expression, env *Environment, value Value) error {
	target := in.globals
	if distance, ok := in.resolution.Distance(expr); ok {
		target = env.Ancestor(distance)
	}
	if target.IsFinal(name.Lexeme) {
		return in.errorAt(name, "Cannot reassign final variable '%s'", name.Lexeme)
	}
	if !target.Assign(name.Lexeme, value) {
		return in.undefinedVariable(name, env)
	}
	return nil
}

func isIncrement(op lexer.Token) bool {
	return op.Type == lexer.PLUS_PLUS || op.Type == lexer.MINUS_MINUS
}

// increment implements prefix and postfix ++ and --. The new value is
// written back to the variable, property or element; prefix yields the new
// value and postfix the original one.
func (in *Interpreter) increment(op lexer.Token, target ast.Expression, env *Environment, prefix bool) (Value, error) {
	delta := 1.0
	if op.Type == lexer.MINUS_MINUS {
		delta = -1
	}

	var (
		old   Value
		write func(Value) error
		err   error
	)
	switch t := target.(type) {
	case *ast.Variable:
		if old, err = in.lookupVariable(t.Name, t, env); err != nil {
			return nil, err
		}
		write = func(v Value) error { return in.assignVariable(t.Name, t, env, v) }
	case *ast.Get:
		object, err := in.evaluate(t.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := object.(*Instance)
		if !ok {
			return nil, in.errorAt(t.Name, "Only instances have properties, got %s", TypeName(object))
		}
		if old, err = in.getProperty(t.Name, inst); err != nil {
			return nil, err
		}
		write = func(v Value) error { return in.setProperty(t.Name, inst, v) }
	case *ast.Index:
		object, err := in.evaluate(t.Object, env)
		if err != nil {
			return nil, err
		}
		index, err := in.evaluate(t.Index, env)
		if err != nil {
			return nil, err
		}
		if old, err = in.index(t.Bracket, object, index); err != nil {
			return nil, err
		}
		write = func(v Value) error { return in.setIndex(t.Bracket, object, index, v) }
	default:
		return nil, in.errorAt(op, "Operand of '%s' must be a variable, property or element", op.Lexeme)
	}

	n, err := in.number(op, old)
	if err != nil {
		return nil, err
	}
	updated := n + delta
	if err := write(updated); err != nil {
		return nil, err
	}
	if prefix {
		return updated, nil
	}
	return n, nil
}

// callValue calls callee with evaluated arguments, checking arity and call
// depth. Errors are attributed to tok.
func (in *Interpreter) callValue(tok lexer.Token, callee Value, args []Value) (Value, error) {
	fn, ok := callee.(Callable)
	if !ok {
		return nil, in.errorAt(tok, "Can only call functions and classes, got %s", TypeName(callee))
	}
	if arity := fn.Arity(); arity != Variadic && arity != len(args) {
		return nil, in.errorAt(tok, "Expected %d arguments but got %d", arity, len(args))
	}
	if in.callDepth >= maxCallDepth {
		return nil, in.errorAt(tok, "Stack overflow: more than %d nested calls", maxCallDepth)
	}

	in.callDepth++
	defer func() { in.callDepth-- }()

	result, err := fn.Call(in, args)
	if err != nil {
		return nil, in.wrapCallError(tok, err)
	}
	return result, nil
}

// callOperator looks a custom operator up by name and calls it. Failures
// inside the operator are reported at the operator token.
func (in *Interpreter) callOperator(op lexer.Token, expr ast.Expression, env *Environment, args ...Value) (Value, error) {
	callee, err := in.lookupVariable(op, expr, env)
	if err != nil {
		return nil, err
	}
	result, err := in.callValue(op, callee, args)
	if err == nil {
		return result, nil
	}

	var rt *diagnostic.RuntimeError
	if errors.As(err, &rt) && (rt.Fatal || rt.Position == op.Position) {
		return nil, err
	}
	msg := err.Error()
	if rt != nil {
		msg = rt.Message
	}
	return nil, in.errorAt(op, "Operator '%s' failed: %s", op.Lexeme, msg).CausedBy(err)
}

// checkPrivate rejects access to a member owned by another class than the
// one lexically enclosing the running code.
func (in *Interpreter) checkPrivate(name lexer.Token, kind string, owner *Class) error {
	if in.lexicalClass == owner {
		return nil
	}
	return in.errorAt(name, "Cannot access private %s '%s' outside of class '%s'", kind, name.Lexeme, owner.Name)
}

func (in *Interpreter) getProperty(name lexer.Token, object Value) (Value, error) {
	inst, ok := object.(*Instance)
	if !ok {
		return nil, in.errorAt(name, "Only instances have properties, got %s", TypeName(object))
	}

	if p, ok := inst.props[name.Lexeme]; ok {
		if p.Private {
			if err := in.checkPrivate(name, "property", p.Owner); err != nil {
				return nil, err
			}
		}
		return p.Value, nil
	}
	if m, ok := inst.Class.FindMethod(name.Lexeme); ok {
		if m.IsPrivate() {
			if err := in.checkPrivate(name, "method", m.owner); err != nil {
				return nil, err
			}
		}
		return m.bind(inst), nil
	}

	candidates := append(inst.PropertyNames(), inst.Class.MethodNames()...)
	return nil, in.errorAt(name, "Undefined property '%s' on %s.%s", name.Lexeme, inst.Class.Name, suggest(name.Lexeme, candidates))
}

func (in *Interpreter) setProperty(name lexer.Token, inst *Instance, value Value) error {
	p, ok := inst.props[name.Lexeme]
	if !ok {
		inst.props[name.Lexeme] = &Property{Value: value}
		return nil
	}
	if p.Private {
		if err := in.checkPrivate(name, "property", p.Owner); err != nil {
			return err
		}
	}
	if p.Final {
		if p.assigned || in.lexicalClass != p.Owner {
			return in.errorAt(name, "Cannot assign to final property '%s'", name.Lexeme)
		}
		p.assigned = true
	}
	p.Value = value
	return nil
}

func (in *Interpreter) indexValue(tok lexer.Token, index Value) (int, error) {
	n, ok := index.(float64)
	if !ok || n != math.Trunc(n) {
		return 0, in.errorAt(tok, "Index must be an integer, got %s", Stringify(index))
	}
	return int(n), nil
}

func (in *Interpreter) index(tok lexer.Token, object, index Value) (Value, error) {
	switch o := object.(type) {
	case *Array:
		i, err := in.indexValue(tok, index)
		if err != nil {
			return nil, err
		}
		v, ok := o.Get(i)
		if !ok {
			return nil, in.errorAt(tok, "Index %d out of bounds for array of length %d", i, o.Len())
		}
		return v, nil
	case string:
		i, err := in.indexValue(tok, index)
		if err != nil {
			return nil, err
		}
		runes := []rune(o)
		if i < 0 || i >= len(runes) {
			return nil, in.errorAt(tok, "Index %d out of bounds for string of length %d", i, len(runes))
		}
		return Char(runes[i]), nil
	}
	return nil, in.errorAt(tok, "Only arrays and strings can be indexed, got %s", TypeName(object))
}

func (in *Interpreter) setIndex(tok lexer.Token, object, index, value Value) error {
	arr, ok := object.(*Array)
	if !ok {
		return in.errorAt(tok, "Only array elements can be assigned, got %s", TypeName(object))
	}
	i, err := in.indexValue(tok, index)
	if err != nil {
		return err
	}
	if !arr.Set(i, value) {
		return in.errorAt(tok, "Index %d out of bounds for array of length %d", i, arr.Len())
	}
	return nil
}

func (in *Interpreter) comprehension(e *ast.Comprehension, env *Environment) (Value, error) {
	iterable, err := in.evaluate(e.Iterable, env)
	if err != nil {
		return nil, err
	}
	items, err := in.iterate(e.Bracket, iterable)
	if err != nil {
		return nil, err
	}

	out := NewArray()
	for _, item := range items {
		iterEnv := NewEnvironment(env)
		iterEnv.Define(e.Name.Lexeme, item)

		if e.Cond != nil {
			cond, err := in.evaluate(e.Cond, iterEnv)
			if err != nil {
				return nil, err
			}
			if !IsTruthy(cond) {
				if e.Else != nil {
					v, err := in.evaluate(e.Else, iterEnv)
					if err != nil {
						return nil, err
					}
					out.Append(v)
				}
				continue
			}
		}

		v, err := in.evaluate(e.Element, iterEnv)
		if err != nil {
			return nil, err
		}
		out.Append(v)
	}
	return out, nil
}

// super finds the superclass at the resolved distance and the receiver one
// environment closer, then binds the named method.
func (in *Interpreter) super(e *ast.Super, env *Environment) (Value, error) {
	distance, ok := in.resolution.Distance(e)
	if !ok || distance < 1 {
		return nil, in.errorAt(e.Keyword, "Can't use 'super' here")
	}
	sv, _ := env.GetAt(distance, "super")
	superclass, ok := sv.(*Class)
	invariant.Invariant(ok, "'super' must hold a class, got %s", TypeName(sv))
	tv, _ := env.GetAt(distance-1, "this")
	receiver, ok := tv.(*Instance)
	invariant.Invariant(ok, "'this' must hold an instance, got %s", TypeName(tv))

	method, ok := superclass.FindMethod(e.Method.Lexeme)
	if !ok {
		return nil, in.errorAt(e.Method, "Undefined method '%s' on superclass '%s'.%s",
			e.Method.Lexeme, superclass.Name, suggest(e.Method.Lexeme, superclass.MethodNames()))
	}
	if method.IsPrivate() {
		if err := in.checkPrivate(e.Method, "method", method.owner); err != nil {
			return nil, err
		}
	}
	return method.bind(receiver), nil
}
