package interpreter

import (
	"math"
	"strings"

	"github.com/opal-lang/hsl/core/invariant"
)

// Array is a dynamically sized, index-checked list of values. Arrays are
// shared by reference.
type Array struct {
	Elements []Value
}

// NewArray creates an array holding elems.
func NewArray(elems ...Value) *Array {
	if elems == nil {
		elems = []Value{}
	}
	return &Array{Elements: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Elements) }

// Get returns the element at i. ok is false when i is out of bounds.
func (a *Array) Get(i int) (Value, bool) {
	if i < 0 || i >= len(a.Elements) {
		return nil, false
	}
	return a.Elements[i], true
}

// Set replaces the element at i. It reports false when i is out of bounds.
func (a *Array) Set(i int, v Value) bool {
	if i < 0 || i >= len(a.Elements) {
		return false
	}
	a.Elements[i] = v
	return true
}

// Append adds values to the end.
func (a *Array) Append(values ...Value) {
	a.Elements = append(a.Elements, values...)
}

func (a *Array) String() string {
	var b strings.Builder
	a.write(&b, map[*Array]bool{})
	return b.String()
}

func (a *Array) write(b *strings.Builder, seen map[*Array]bool) {
	if seen[a] {
		b.WriteString("[...]")
		return
	}
	seen[a] = true
	b.WriteByte('[')
	for i, v := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		if inner, ok := v.(*Array); ok {
			inner.write(b, seen)
			continue
		}
		b.WriteString(quote(v))
	}
	b.WriteByte(']')
	delete(seen, a)
}

// repeat implements 'array * times' for n whole copies. The result has
// len*n elements and every slot holds the element at index times mod len.
func (a *Array) repeat(times float64, n int) *Array {
	if n <= 0 || len(a.Elements) == 0 {
		return NewArray()
	}
	invariant.InRange(n, 1, maxSequenceLength/len(a.Elements), "repeat count")
	source := a.Elements[int(math.Mod(times, float64(len(a.Elements))))]
	out := make([]Value, len(a.Elements)*n)
	for i := range out {
		out[i] = source
	}
	return NewArray(out...)
}

// rangeArray builds n consecutive numbers starting at lo.
func rangeArray(lo float64, n int) *Array {
	invariant.InRange(n, 1, maxSequenceLength, "range length")
	out := make([]Value, n)
	for i := range out {
		out[i] = lo + float64(i)
	}
	return NewArray(out...)
}
