package interpreter

import (
	"reflect"
	"strconv"
)

// Value is any script value. The dynamic type is one of:
//
//	nil          null
//	float64      number (always double precision)
//	string       string
//	Char         character
//	bool         boolean
//	*Array       array
//	*Class       class reference
//	*Instance    instance
//	Callable     *Function, *BoundMethod, *NativeFunction
//	*External    opaque host value
type Value interface{}

// Char is a character value. It is distinct from a one-rune string.
type Char rune

// TypeName returns the script-facing name of v's type.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "null"
	case float64:
		return "number"
	case string:
		return "string"
	case Char:
		return "char"
	case bool:
		return "boolean"
	case *Array:
		return "array"
	case *Class:
		return "class"
	case *Instance:
		return "instance"
	case Callable:
		return "function"
	case *External:
		return "external"
	default:
		return "unknown"
	}
}

// IsTruthy reports whether v counts as true in a condition. Only null and
// false are falsy.
func IsTruthy(v Value) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	default:
		return true
	}
}

// Stringify renders v the way print shows it.
func Stringify(v Value) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case float64:
		return formatNumber(x)
	case string:
		return x
	case Char:
		return string(rune(x))
	case bool:
		return strconv.FormatBool(x)
	case *Array:
		return x.String()
	case *Class:
		return x.String()
	case *Instance:
		return x.String()
	case Callable:
		return x.String()
	case *External:
		return x.String()
	default:
		return "<unknown>"
	}
}

// formatNumber prints integral values without a fraction: 25, not 25.0.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Equal is the == operator. Scalars compare by value; arrays, instances,
// classes and functions compare by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case Char:
		y, ok := b.(Char)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case *External:
		y, ok := b.(*External)
		if !ok {
			return false
		}
		if x == y {
			return true
		}
		return hostEqual(x.Value, y.Value)
	default:
		return a == b
	}
}

func hostEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// quote renders strings and chars in source form inside arrays.
func quote(v Value) string {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case Char:
		return strconv.QuoteRune(rune(x))
	default:
		return Stringify(v)
	}
}
