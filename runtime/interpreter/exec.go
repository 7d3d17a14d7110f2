package interpreter

import (
	"math"

	"github.com/opal-lang/hsl/core/ast"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/lexer"
)

type flowKind int

const (
	flowNormal flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

// completion is how a statement finished. value is set for returns.
type completion struct {
	kind  flowKind
	value Value
}

var normal = completion{}

func (in *Interpreter) executeStatements(stmts []ast.Statement, env *Environment) (completion, error) {
	for _, stmt := range stmts {
		done, err := in.execute(stmt, env)
		if err != nil || done.kind != flowNormal {
			return done, err
		}
	}
	return normal, nil
}

func (in *Interpreter) execute(stmt ast.Statement, env *Environment) (completion, error) {
	if err := in.step(stmt); err != nil {
		return normal, err
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		_, err := in.evaluate(s.Expression, env)
		return normal, err

	case *ast.Print:
		v, err := in.evaluate(s.Expression, env)
		if err != nil {
			return normal, err
		}
		if err := in.print(v); err != nil {
			return normal, in.errorAt(s.Keyword, "%v", err).CausedBy(err)
		}
		return normal, nil

	case *ast.Var:
		var v Value
		if s.Initializer != nil {
			var err error
			if v, err = in.evaluate(s.Initializer, env); err != nil {
				return normal, err
			}
		}
		if s.Final {
			env.DefineFinal(s.Name.Lexeme, v)
		} else {
			env.Define(s.Name.Lexeme, v)
		}
		return normal, nil

	case *ast.Block:
		return in.executeStatements(s.Statements, NewEnvironment(env))

	case *ast.If:
		cond, err := in.evaluate(s.Condition, env)
		if err != nil {
			return normal, err
		}
		if IsTruthy(cond) {
			return in.execute(s.Then, env)
		}
		if s.Else != nil {
			return in.execute(s.Else, env)
		}
		return normal, nil

	case *ast.While:
		for {
			cond, err := in.evaluate(s.Condition, env)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
			done, err := in.execute(s.Body, env)
			if stop, result, err := loopExit(done, err); stop {
				return result, err
			}
		}

	case *ast.DoWhile:
		for {
			done, err := in.execute(s.Body, env)
			if stop, result, err := loopExit(done, err); stop {
				return result, err
			}
			cond, err := in.evaluate(s.Condition, env)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
		}

	case *ast.For:
		return in.executeFor(s, env)

	case *ast.ForEach:
		iterable, err := in.evaluate(s.Iterable, env)
		if err != nil {
			return normal, err
		}
		items, err := in.iterate(s.Keyword, iterable)
		if err != nil {
			return normal, err
		}
		for _, item := range items {
			iterEnv := NewEnvironment(env)
			iterEnv.Define(s.Name.Lexeme, item)
			done, err := in.execute(s.Body, iterEnv)
			if stop, result, err := loopExit(done, err); stop {
				return result, err
			}
		}
		return normal, nil

	case *ast.Repeat:
		count, err := in.evaluate(s.Count, env)
		if err != nil {
			return normal, err
		}
		n, ok := count.(float64)
		if !ok {
			return normal, in.errorAt(s.Keyword, "Repeat count must be a number, got %s", TypeName(count))
		}
		// Count in float64; int(n) wraps for huge counts.
		limit := math.Trunc(n)
		for i := 0.0; i < limit; i++ {
			done, err := in.execute(s.Body, env)
			if stop, result, err := loopExit(done, err); stop {
				return result, err
			}
		}
		return normal, nil

	case *ast.Switch:
		subject, err := in.evaluate(s.Subject, env)
		if err != nil {
			return normal, err
		}
		for _, c := range s.Cases {
			v, err := in.evaluate(c.Value, env)
			if err != nil {
				return normal, err
			}
			if Equal(subject, v) {
				return in.execute(c.Body, env)
			}
		}
		if s.Default != nil {
			return in.execute(s.Default, env)
		}
		return normal, nil

	case *ast.Break:
		return completion{kind: flowBreak}, nil

	case *ast.Continue:
		return completion{kind: flowContinue}, nil

	case *ast.Return:
		var v Value
		if s.Value != nil {
			var err error
			if v, err = in.evaluate(s.Value, env); err != nil {
				return normal, err
			}
		}
		return completion{kind: flowReturn, value: v}, nil

	case *ast.Function:
		return normal, in.declareFunction(s, env)

	case *ast.Class:
		return normal, in.declareClass(s, env)

	case *ast.Native:
		return normal, in.bindNative(s, env)

	case *ast.Using:
		return normal, in.useModule(s, env)

	case *ast.Test:
		return normal, in.runTest(s, env)
	}

	invariant.Invariant(false, "interpreter has no case for statement %T", stmt)
	return normal, nil
}

// loopExit decides whether a loop stops after one body execution. break
// ends the loop normally; return and errors propagate to the caller.
func loopExit(done completion, err error) (stop bool, result completion, outErr error) {
	if err != nil {
		return true, normal, err
	}
	switch done.kind {
	case flowBreak:
		return true, normal, nil
	case flowReturn:
		return true, done, nil
	}
	return false, normal, nil
}

func (in *Interpreter) executeFor(s *ast.For, env *Environment) (completion, error) {
	loopEnv := NewEnvironment(env)
	if s.Initializer != nil {
		if _, err := in.execute(s.Initializer, loopEnv); err != nil {
			return normal, err
		}
	}
	for {
		if s.Condition != nil {
			cond, err := in.evaluate(s.Condition, loopEnv)
			if err != nil {
				return normal, err
			}
			if !IsTruthy(cond) {
				return normal, nil
			}
		}
		done, err := in.execute(s.Body, loopEnv)
		if stop, result, err := loopExit(done, err); stop {
			return result, err
		}
		if s.Increment != nil {
			if _, err := in.evaluate(s.Increment, loopEnv); err != nil {
				return normal, err
			}
		}
	}
}

// iterate returns the elements a for-in loop or comprehension walks.
// Arrays are copied first so the body may modify them.
func (in *Interpreter) iterate(tok lexer.Token, v Value) ([]Value, error) {
	switch x := v.(type) {
	case *Array:
		return append([]Value(nil), x.Elements...), nil
	case string:
		runes := []rune(x)
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = Char(r)
		}
		return out, nil
	}
	return nil, in.errorAt(tok, "Can only iterate over arrays and strings, got %s", TypeName(v))
}

func (in *Interpreter) declareFunction(s *ast.Function, env *Environment) error {
	if s.Receiver != nil {
		target, err := in.evaluate(s.Receiver, env)
		if err != nil {
			return err
		}
		class, ok := target.(*Class)
		if !ok {
			return in.errorAt(s.Receiver.Name, "Can only add extension functions to classes, got %s", TypeName(target))
		}
		// Extensions are lexically outside the class: no private access.
		class.AddMethod(newFunction(s, env, nil))
		return nil
	}

	fn := newFunction(s, env, in.lexicalClass)
	if s.Final {
		env.DefineFinal(s.Name.Lexeme, fn)
	} else {
		env.Define(s.Name.Lexeme, fn)
	}
	return nil
}

func (in *Interpreter) declareClass(s *ast.Class, env *Environment) error {
	var superclass *Class
	if s.Superclass != nil {
		v, err := in.evaluate(s.Superclass, env)
		if err != nil {
			return err
		}
		sc, ok := v.(*Class)
		if !ok {
			return in.errorAt(s.Superclass.Name, "Superclass must be a class, got %s", TypeName(v))
		}
		if sc.Final {
			return in.errorAt(s.Superclass.Name, "Cannot extend final class '%s'", sc.Name)
		}
		superclass = sc
	}

	closure := env
	if superclass != nil {
		closure = NewEnvironment(env)
		closure.Define("super", superclass)
	}

	class := &Class{
		Name:       s.Name.Lexeme,
		Superclass: superclass,
		Final:      s.Final,
		fields:     s.Fields,
		methods:    make(map[string]*Function, len(s.Methods)),
		closure:    closure,
	}
	for _, m := range s.Methods {
		class.methods[m.Name.Lexeme] = newFunction(m, closure, class)
	}
	if s.Constructor != nil {
		class.constructor = newFunction(s.Constructor, closure, class)
	}

	if s.Final {
		env.DefineFinal(s.Name.Lexeme, class)
	} else {
		env.Define(s.Name.Lexeme, class)
	}
	return nil
}

func (in *Interpreter) module(tok lexer.Token) (*Module, error) {
	if in.modules == nil {
		return nil, in.errorAt(tok, "Unknown module '%s'.", tok.Lexeme)
	}
	mod, ok := in.modules.Module(tok.Lexeme)
	if !ok {
		return nil, in.errorAt(tok, "Unknown module '%s'.%s", tok.Lexeme, suggest(tok.Lexeme, in.modules.Names()))
	}
	return mod, nil
}

func defineExport(env *Environment, mod *Module, name string) {
	if mod.Finals[name] {
		env.DefineFinal(name, mod.Exports[name])
	} else {
		env.Define(name, mod.Exports[name])
	}
}

func (in *Interpreter) bindNative(s *ast.Native, env *Environment) error {
	mod, err := in.module(s.Module)
	if err != nil {
		return err
	}
	export, ok := mod.Exports[s.Name.Lexeme]
	if !ok {
		return in.errorAt(s.Name, "Module '%s' has no export '%s'.%s", mod.Name, s.Name.Lexeme, suggest(s.Name.Lexeme, mod.Names()))
	}
	if fn, ok := export.(*NativeFunction); ok && fn.Params != Variadic && fn.Params != len(s.Params) {
		return in.errorAt(s.Name, "Native function '%s' takes %d parameters but was declared with %d",
			fn.QualifiedName(), fn.Params, len(s.Params))
	}
	defineExport(env, mod, s.Name.Lexeme)
	return nil
}

func (in *Interpreter) useModule(s *ast.Using, env *Environment) error {
	mod, err := in.module(s.Module)
	if err != nil {
		return err
	}
	for _, name := range mod.Names() {
		defineExport(env, mod, name)
	}
	in.logger.Debug("module bound", "module", mod.Name, "exports", len(mod.Exports))
	return nil
}

// runTest runs a test block in its own scope. A runtime error or a
// 'return false' fails the test; neither stops the run unless the error is
// fatal.
func (in *Interpreter) runTest(s *ast.Test, env *Environment) error {
	result := TestResult{Name: s.Title(), Passed: true, Position: s.Keyword.Position}

	done, err := in.executeStatements(s.Body, NewEnvironment(env))
	switch {
	case err != nil:
		rt := in.asRuntimeError(s, err)
		if rt.Fatal {
			return rt
		}
		result.Passed, result.Message = false, rt.Message
	case done.kind == flowReturn:
		if b, ok := done.value.(bool); ok && !b {
			result.Passed, result.Message = false, "test returned false"
		}
	}

	in.tests = append(in.tests, result)
	in.logger.Debug("test finished", "name", result.Name, "passed", result.Passed)
	return nil
}
