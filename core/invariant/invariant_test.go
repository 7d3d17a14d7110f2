package invariant_test

import (
	"fmt"
	"testing"

	"github.com/opal-lang/hsl/core/invariant"
	"github.com/stretchr/testify/assert"
)

func panicMessage(fn func()) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("%v", r)
		}
	}()
	fn()
	return ""
}

func TestAssertionsPass(t *testing.T) {
	assert.NotPanics(t, func() {
		invariant.Precondition(true, "lexer input present")
		invariant.Postcondition(2+2 == 4, "math works")
		invariant.Invariant(5 > 4, "offset advanced")
		invariant.NotNil(&struct{}{}, "registry")
		invariant.InRange(3, 0, 3, "distance")
	})
}

func TestAssertionsFail(t *testing.T) {
	var nilMap map[string]int

	tests := []struct {
		name string
		fn   func()
		kind string
		text string
	}{
		{"precondition", func() { invariant.Precondition(false, "source must not be empty") }, "PRECONDITION VIOLATION", "source must not be empty"},
		{"postcondition", func() { invariant.Postcondition(false, "stream ends with %s", "EOF") }, "POSTCONDITION VIOLATION", "stream ends with EOF"},
		{"invariant", func() { invariant.Invariant(false, "scope stack balanced") }, "INVARIANT VIOLATION", "scope stack balanced"},
		{"nil interface", func() { invariant.NotNil(nil, "reporter") }, "PRECONDITION VIOLATION", "reporter must not be nil"},
		{"typed nil", func() { invariant.NotNil(nilMap, "globals") }, "PRECONDITION VIOLATION", "globals must not be nil"},
		{"range", func() { invariant.InRange(7, 0, 3, "distance") }, "PRECONDITION VIOLATION", "distance must be in range [0, 3], got 7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := panicMessage(tt.fn)
			assert.Contains(t, msg, tt.kind)
			assert.Contains(t, msg, tt.text)
			assert.Contains(t, msg, "at ")
		})
	}
}
