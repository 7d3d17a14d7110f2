package interpreter

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/opal-lang/hsl/runtime/diagnostic"
	"github.com/opal-lang/hsl/runtime/lexer"
)

// maxSuggestionDistance bounds how far a typo may be from a known name.
const maxSuggestionDistance = 2

// errorAt creates a runtime error positioned at tok.
func (in *Interpreter) errorAt(tok lexer.Token, format string, args ...interface{}) *diagnostic.RuntimeError {
	return diagnostic.NewRuntimeError(tok.Lexeme, tok.Position, format, args...).WithSource(in.source)
}

// wrapCallError attributes err to the call site at tok. Runtime errors raised
// inside script code keep their own position; host failures and anything
// else become a runtime error at tok with err as the cause.
func (in *Interpreter) wrapCallError(tok lexer.Token, err error) error {
	var rt *diagnostic.RuntimeError
	if errors.As(err, &rt) {
		return err
	}
	var host *HostError
	if errors.As(err, &host) {
		return in.errorAt(tok, "Native function '%s' failed: %v", host.Function, host.Err).CausedBy(err)
	}
	return in.errorAt(tok, "%v", err).CausedBy(err)
}

// suggest returns a " Did you mean 'x'?" hint for name, or "".
func suggest(name string, candidates []string) string {
	if match := closestMatch(name, candidates); match != "" {
		return fmt.Sprintf(" Did you mean '%s'?", match)
	}
	return ""
}

// closestMatch prefers candidates containing name as a fuzzy subsequence,
// then candidates within a small edit distance.
func closestMatch(name string, candidates []string) string {
	if len(candidates) == 0 || name == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return ranks[0].Target
	}

	best, bestDistance := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}
