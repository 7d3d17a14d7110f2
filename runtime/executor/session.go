package executor

import (
	"context"
	"fmt"
	"sync"

	"github.com/opal-lang/hsl/runtime/diagnostic"
)

// Session runs a sequence of inputs against one global environment.
// Declarations, finality and custom operators from earlier inputs stay
// visible to later ones. A lone expression without a trailing ';' is
// evaluated and its value returned in Result.Value.
type Session struct {
	e *Executor

	mu     sync.Mutex
	st     *state
	inputs int
}

// NewSession starts a session with the executor's configuration.
func (e *Executor) NewSession() *Session {
	return &Session{e: e, st: e.newState()}
}

// Run executes one input.
func (s *Session) Run(ctx context.Context, input string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inputs++
	src := diagnostic.NewSource(fmt.Sprintf("<input %d>", s.inputs), input)
	return s.e.run(ctx, s.st, src, replInput)
}

// Globals returns the names currently bound in the session.
func (s *Session) Globals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.interp.Globals().Names()
}
