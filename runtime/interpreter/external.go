package interpreter

import "fmt"

// External wraps a host value that has no script representation. Scripts
// can store and pass it around; native functions receive the wrapped value.
type External struct {
	Value interface{}
}

func (e *External) String() string {
	if s, ok := e.Value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("<external %T>", e.Value)
}

// ToHost unwraps an External for a native call. Other values pass through.
func ToHost(v Value) interface{} {
	if ext, ok := v.(*External); ok {
		return ext.Value
	}
	return v
}

// FromHost converts a value returned by the host into a script value.
// Go numbers become float64, slices of script-compatible values become
// arrays, and anything else is wrapped in an External.
func FromHost(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return nil
	case float64, string, bool, Char:
		return x
	case *Array, *Class, *Instance, *External, Callable:
		return x
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []Value:
		return NewArray(x...)
	case []interface{}:
		out := make([]Value, len(x))
		for i, el := range x {
			out[i] = FromHost(el)
		}
		return NewArray(out...)
	case []string:
		out := make([]Value, len(x))
		for i, s := range x {
			out[i] = s
		}
		return NewArray(out...)
	case []float64:
		out := make([]Value, len(x))
		for i, n := range x {
			out[i] = n
		}
		return NewArray(out...)
	default:
		return &External{Value: v}
	}
}
