package interpreter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestEnvironmentChain(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("a", 1.0)
	global.DefineFinal("PI", 3.14)

	block := NewEnvironment(global)
	block.Define("a", "shadow")
	inner := NewEnvironment(block)

	v, ok := inner.GetAt(1, "a")
	assert.True(t, ok)
	assert.Equal(t, "shadow", v)

	v, ok = inner.GetAt(2, "a")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = inner.GetAt(0, "a")
	assert.False(t, ok, "lookups never walk past the resolved distance")

	assert.True(t, inner.AssignAt(2, "a", 2.0))
	assert.False(t, inner.AssignAt(0, "a", 3.0), "assign does not create bindings")
	assert.Equal(t, 2.0, global.Snapshot()["a"])

	assert.True(t, global.IsFinal("PI"))
	assert.False(t, global.IsFinal("a"))
	assert.Same(t, global, inner.Ancestor(2))
	assert.Nil(t, global.Parent())

	assert.Panics(t, func() { inner.Ancestor(3) })
	assert.Panics(t, func() { inner.Ancestor(-1) })
}

func TestEnvironmentVisible(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("b", nil)
	global.Define("a", nil)
	local := NewEnvironment(global)
	local.Define("z", nil)
	local.Define("a", nil)

	if diff := cmp.Diff([]string{"a", "z", "b"}, local.Visible()); diff != "" {
		t.Errorf("Visible() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a", "b"}, global.Names())
}

func TestStringify(t *testing.T) {
	cyclic := NewArray(1.0)
	cyclic.Append(cyclic)

	tests := []struct {
		name string
		in   Value
		want string
	}{
		{"null", nil, "null"},
		{"integral", 25.0, "25"},
		{"fraction", 2.5, "2.5"},
		{"large", 1e21, "1000000000000000000000"},
		{"negative zero", -0.0, "0"},
		{"string", "hi", "hi"},
		{"char", Char('x'), "x"},
		{"bool", false, "false"},
		{"array", NewArray("a", Char('b'), 1.0, nil), `["a", 'b', 1, null]`},
		{"nested", NewArray(NewArray(1.0), NewArray()), "[[1], []]"},
		{"cyclic", cyclic, "[1, [...]]"},
		{"class", &Class{Name: "User"}, "<class User>"},
		{"native", &NativeFunction{Module: "m", Name: "f"}, "<native fn m.f>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestTruthinessAndEquality(t *testing.T) {
	assert.False(t, IsTruthy(nil))
	assert.False(t, IsTruthy(false))
	assert.True(t, IsTruthy(0.0))
	assert.True(t, IsTruthy(""))
	assert.True(t, IsTruthy(NewArray()))

	arr := NewArray()
	assert.True(t, Equal(arr, arr))
	assert.False(t, Equal(arr, NewArray()))
	assert.False(t, Equal(1.0, "1"))
	assert.False(t, Equal(Char('a'), "a"))
	assert.True(t, Equal(&External{Value: 3}, &External{Value: 3}))
	assert.False(t, Equal(&External{Value: []int{1}}, &External{Value: []int{1}}))
	assert.False(t, Equal(nil, false))
}

func TestTypeName(t *testing.T) {
	class := &Class{Name: "A", methods: map[string]*Function{}}
	tests := []struct {
		in   Value
		want string
	}{
		{nil, "null"},
		{1.0, "number"},
		{"s", "string"},
		{Char('c'), "char"},
		{true, "boolean"},
		{NewArray(), "array"},
		{class, "class"},
		{newInstance(class), "instance"},
		{&NativeFunction{}, "function"},
		{&External{}, "external"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeName(tt.in))
	}
}
