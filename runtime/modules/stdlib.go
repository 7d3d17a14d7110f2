package modules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/opal-lang/hsl/runtime/interpreter"
)

// Standard returns a registry holding the standard modules: math, strings
// and arrays.
func Standard() *Registry {
	return NewRegistry().
		MustRegister("math", buildMath).
		MustRegister("strings", buildStrings).
		MustRegister("arrays", buildArrays)
}

func buildMath(b *Builder) {
	b.FinalConst("PI", math.Pi).
		FinalConst("E", math.E).
		FinalFunction("abs", 1, unaryMath(math.Abs)).
		Function("floor", 1, unaryMath(math.Floor)).
		Function("ceil", 1, unaryMath(math.Ceil)).
		Function("round", 1, unaryMath(math.Round)).
		Function("trunc", 1, unaryMath(math.Trunc)).
		Function("sqrt", 1, func(args []interpreter.Value) (interface{}, error) {
			x, err := number(args, 0)
			if err != nil {
				return nil, err
			}
			if x < 0 {
				return nil, fmt.Errorf("square root of negative number %v", x)
			}
			return math.Sqrt(x), nil
		}).
		Function("pow", 2, func(args []interpreter.Value) (interface{}, error) {
			x, err := number(args, 0)
			if err != nil {
				return nil, err
			}
			y, err := number(args, 1)
			if err != nil {
				return nil, err
			}
			return math.Pow(x, y), nil
		}).
		Function("min", interpreter.Variadic, extremum("min", func(a, b float64) bool { return a < b })).
		Function("max", interpreter.Variadic, extremum("max", func(a, b float64) bool { return a > b }))
}

func unaryMath(fn func(float64) float64) HostFunc {
	return func(args []interpreter.Value) (interface{}, error) {
		x, err := number(args, 0)
		if err != nil {
			return nil, err
		}
		return fn(x), nil
	}
}

func extremum(name string, better func(a, b float64) bool) HostFunc {
	return func(args []interpreter.Value) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("%s needs at least one argument", name)
		}
		best, err := number(args, 0)
		if err != nil {
			return nil, err
		}
		for i := 1; i < len(args); i++ {
			x, err := number(args, i)
			if err != nil {
				return nil, err
			}
			if better(x, best) {
				best = x
			}
		}
		return best, nil
	}
}

func buildStrings(b *Builder) {
	b.Function("length", 1, func(args []interpreter.Value) (interface{}, error) {
		s, err := str(args, 0)
		if err != nil {
			return nil, err
		}
		return len([]rune(s)), nil
	}).
		Function("upper", 1, stringMap(func(s string) string { return cases.Upper(language.Und).String(s) })).
		Function("lower", 1, stringMap(func(s string) string { return cases.Lower(language.Und).String(s) })).
		Function("trim", 1, stringMap(strings.TrimSpace)).
		Function("split", 2, func(args []interpreter.Value) (interface{}, error) {
			s, sep, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			return strings.Split(s, sep), nil
		}).
		Function("join", 2, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := str(args, 1)
			if err != nil {
				return nil, err
			}
			parts := make([]string, arr.Len())
			for i, el := range arr.Elements {
				parts[i] = interpreter.Stringify(el)
			}
			return strings.Join(parts, sep), nil
		}).
		Function("contains", 2, func(args []interpreter.Value) (interface{}, error) {
			s, sub, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			return strings.Contains(s, sub), nil
		}).
		Function("replace", 3, func(args []interpreter.Value) (interface{}, error) {
			s, old, err := twoStrings(args)
			if err != nil {
				return nil, err
			}
			repl, err := str(args, 2)
			if err != nil {
				return nil, err
			}
			return strings.ReplaceAll(s, old, repl), nil
		}).
		Function("substring", 3, func(args []interpreter.Value) (interface{}, error) {
			s, err := str(args, 0)
			if err != nil {
				return nil, err
			}
			runes := []rune(s)
			from, to, err := bounds(args, 1, len(runes))
			if err != nil {
				return nil, err
			}
			return string(runes[from:to]), nil
		}).
		Function("ord", 1, func(args []interpreter.Value) (interface{}, error) {
			c, ok := args[0].(interpreter.Char)
			if !ok {
				return nil, fmt.Errorf("argument 1 must be a char, got %s", interpreter.TypeName(args[0]))
			}
			return float64(c), nil
		}).
		Function("chr", 1, func(args []interpreter.Value) (interface{}, error) {
			n, err := integer(args, 0)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > math.MaxInt32 {
				return nil, fmt.Errorf("code point %d out of range", n)
			}
			return interpreter.Char(rune(n)), nil
		}).
		Function("parseNumber", 1, func(args []interpreter.Value) (interface{}, error) {
			s, err := str(args, 0)
			if err != nil {
				return nil, err
			}
			n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not a number", s)
			}
			return n, nil
		}).
		FinalFunction("str", 1, func(args []interpreter.Value) (interface{}, error) {
			return interpreter.Stringify(args[0]), nil
		})
}

func stringMap(fn func(string) string) HostFunc {
	return func(args []interpreter.Value) (interface{}, error) {
		s, err := str(args, 0)
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	}
}

func buildArrays(b *Builder) {
	b.Function("size", 1, func(args []interpreter.Value) (interface{}, error) {
		arr, err := array(args, 0)
		if err != nil {
			return nil, err
		}
		return arr.Len(), nil
	}).
		Function("push", 2, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			arr.Append(args[1])
			return arr.Len(), nil
		}).
		Function("pop", 1, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			if arr.Len() == 0 {
				return nil, fmt.Errorf("pop from empty array")
			}
			last := arr.Elements[arr.Len()-1]
			arr.Elements = arr.Elements[:arr.Len()-1]
			return last, nil
		}).
		Function("slice", 3, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			from, to, err := bounds(args, 1, arr.Len())
			if err != nil {
				return nil, err
			}
			return append([]interpreter.Value(nil), arr.Elements[from:to]...), nil
		}).
		Function("reverse", 1, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			out := make([]interpreter.Value, arr.Len())
			for i, el := range arr.Elements {
				out[len(out)-1-i] = el
			}
			return out, nil
		}).
		Function("sorted", 1, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			return sortValues(arr.Elements)
		}).
		Function("indexOf", 2, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			for i, el := range arr.Elements {
				if interpreter.Equal(el, args[1]) {
					return i, nil
				}
			}
			return -1, nil
		}).
		Function("includes", 2, func(args []interpreter.Value) (interface{}, error) {
			arr, err := array(args, 0)
			if err != nil {
				return nil, err
			}
			for _, el := range arr.Elements {
				if interpreter.Equal(el, args[1]) {
					return true, nil
				}
			}
			return false, nil
		})
}

// sortValues returns a sorted copy of an all-number or all-string array.
func sortValues(elems []interpreter.Value) ([]interpreter.Value, error) {
	out := append([]interpreter.Value(nil), elems...)
	if len(out) == 0 {
		return out, nil
	}
	switch out[0].(type) {
	case float64:
		for _, el := range out {
			if _, ok := el.(float64); !ok {
				return nil, fmt.Errorf("cannot sort mixed number and %s elements", interpreter.TypeName(el))
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].(float64) < out[j].(float64) })
	case string:
		for _, el := range out {
			if _, ok := el.(string); !ok {
				return nil, fmt.Errorf("cannot sort mixed string and %s elements", interpreter.TypeName(el))
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].(string) < out[j].(string) })
	default:
		return nil, fmt.Errorf("can only sort numbers or strings, got %s", interpreter.TypeName(out[0]))
	}
	return out, nil
}
