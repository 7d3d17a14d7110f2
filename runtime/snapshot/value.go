package snapshot

import (
	"github.com/opal-lang/hsl/runtime/interpreter"
)

// Value kinds. They match interpreter.TypeName except for "cycle", which
// marks an array or instance that contains itself.
const (
	KindNull     = "null"
	KindNumber   = "number"
	KindString   = "string"
	KindChar     = "char"
	KindBoolean  = "boolean"
	KindArray    = "array"
	KindInstance = "instance"
	KindClass    = "class"
	KindFunction = "function"
	KindExternal = "external"
	KindCycle    = "cycle"
)

// Value is a script value as plain data. Which fields are set depends on
// Kind: Number for numbers, Text for strings, chars, and the display form
// of classes, functions and externals, Items for arrays, Text (class name)
// and Fields for instances.
type Value struct {
	Kind   string           `cbor:"k"`
	Number float64          `cbor:"n,omitempty"`
	Text   string           `cbor:"t,omitempty"`
	Bool   bool             `cbor:"b,omitempty"`
	Items  []Value          `cbor:"i,omitempty"`
	Fields map[string]Value `cbor:"f,omitempty"`
}

// Convert turns a script value into plain data.
func Convert(v interpreter.Value) Value {
	c := converter{seen: make(map[interface{}]bool)}
	return c.convert(v)
}

type converter struct {
	seen map[interface{}]bool // containers on the current path
}

func (c *converter) convert(v interpreter.Value) Value {
	switch x := v.(type) {
	case nil:
		return Value{Kind: KindNull}
	case float64:
		return Value{Kind: KindNumber, Number: x}
	case string:
		return Value{Kind: KindString, Text: x}
	case interpreter.Char:
		return Value{Kind: KindChar, Text: string(rune(x))}
	case bool:
		return Value{Kind: KindBoolean, Bool: x}
	case *interpreter.Array:
		if c.seen[x] {
			return Value{Kind: KindCycle}
		}
		c.seen[x] = true
		defer delete(c.seen, x)

		items := make([]Value, len(x.Elements))
		for i, elem := range x.Elements {
			items[i] = c.convert(elem)
		}
		return Value{Kind: KindArray, Items: items}
	case *interpreter.Instance:
		if c.seen[x] {
			return Value{Kind: KindCycle}
		}
		c.seen[x] = true
		defer delete(c.seen, x)

		out := Value{Kind: KindInstance, Text: x.Class.Name}
		names := x.PropertyNames()
		if len(names) > 0 {
			out.Fields = make(map[string]Value, len(names))
			for _, name := range names {
				p, _ := x.Property(name)
				out.Fields[name] = c.convert(p.Value)
			}
		}
		return out
	case *interpreter.Class:
		return Value{Kind: KindClass, Text: x.Name}
	case *interpreter.External:
		return Value{Kind: KindExternal, Text: interpreter.Stringify(x)}
	case interpreter.Callable:
		return Value{Kind: KindFunction, Text: interpreter.Stringify(x)}
	default:
		return Value{Kind: interpreter.TypeName(v), Text: interpreter.Stringify(v)}
	}
}
