package config

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/opal-lang/hsl/runtime/lexer"
	"github.com/opal-lang/hsl/runtime/modules"
)

// Registry builds a token registry for the lexer settings. The result is
// independent of lexer.Default.
func (c *Config) Registry() (*lexer.Registry, error) {
	b := lexer.NewBuilder().
		Load(lexer.DefaultCategories()...).
		Pair(lexer.BlockPair, lexer.LBRACE, lexer.RBRACE).
		Pair(lexer.ParameterPair, lexer.LPAREN, lexer.RPAREN).
		Pair(lexer.ArrayPair, lexer.LSQUARE, lexer.RSQUARE).
		Pair(lexer.GenericPair, lexer.LESS, lexer.GREATER)

	for _, start := range c.Lexer.LineComments {
		b.LineComment(start)
	}
	for _, bc := range c.Lexer.BlockComments {
		b.BlockComment(bc.Open, bc.Close)
	}

	sep, err := optionalRune("number_separator", c.Lexer.NumberSeparator)
	if err != nil {
		return nil, err
	}
	b.NumberSeparator(sep)

	delim, err := optionalRune("decimal_delimiter", c.Lexer.DecimalDelimiter)
	if err != nil {
		return nil, err
	}
	if delim == 0 {
		return nil, fmt.Errorf("decimal_delimiter must not be empty")
	}
	b.DecimalDelimiter(delim)

	// Sorted so that errors are reported in a stable order.
	spellings := make([]string, 0, len(c.Lexer.Keywords))
	for spelling := range c.Lexer.Keywords {
		spellings = append(spellings, spelling)
	}
	sort.Strings(spellings)
	defaults := lexer.Default()
	for _, spelling := range spellings {
		t, ok := defaults.Keyword(spelling)
		if !ok {
			return nil, fmt.Errorf("unknown keyword %q", spelling)
		}
		b.Keyword(t, c.Lexer.Keywords[spelling])
	}

	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build lexer registry: %w", err)
	}
	return reg, nil
}

// optionalRune reads a setting holding at most one character.
func optionalRune(key, s string) (rune, error) {
	switch utf8.RuneCountInString(s) {
	case 0:
		return 0, nil
	case 1:
		r, _ := utf8.DecodeRuneInString(s)
		return r, nil
	default:
		return 0, fmt.Errorf("%s must be a single character, got %q", key, s)
	}
}

// Modules returns the standard modules the runtime settings ask for.
func (c *Config) Modules() (*modules.Registry, error) {
	std := modules.Standard()
	if c.Runtime.Modules == nil {
		return std, nil
	}
	reg, err := std.Subset(c.Runtime.Modules...)
	if err != nil {
		return nil, fmt.Errorf("runtime.modules: %w", err)
	}
	return reg, nil
}

// Options turns the configuration into executor options.
func (c *Config) Options() ([]executor.Option, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, err
	}
	mods, err := c.Modules()
	if err != nil {
		return nil, err
	}
	mode, ok := executor.ParseMode(c.Runtime.Mode)
	if !ok {
		return nil, fmt.Errorf("unknown runtime mode %q", c.Runtime.Mode)
	}
	if c.Runtime.MaxSteps < 0 {
		return nil, fmt.Errorf("runtime.max_steps must not be negative, got %d", c.Runtime.MaxSteps)
	}

	return []executor.Option{
		executor.WithRegistry(reg),
		executor.WithModules(mods),
		executor.WithMode(mode),
		executor.WithMaxSteps(c.Runtime.MaxSteps),
	}, nil
}
