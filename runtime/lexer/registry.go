package lexer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/opal-lang/hsl/core/invariant"
)

// Definition describes one registered token type.
//
// Fixed single-character types carry their Representation directly. Multi-character
// types list the simpler types they are made of in Combines and get their
// representation by concatenation during Build.
type Definition struct {
	Type           TokenType
	Name           string
	Representation string
	Keyword        bool
	Standalone     bool // Starts a block-shaped statement
	Combines       []TokenType
}

// PairKind names a bracket pairing role.
type PairKind int

const (
	BlockPair PairKind = iota
	ParameterPair
	ArrayPair
	GenericPair
)

// Pair is an opening and closing token type.
type Pair struct {
	Open  TokenType
	Close TokenType
}

// BlockDelimiters open and close a block comment.
type BlockDelimiters struct {
	Open  string
	Close string
}

// Registry is an immutable, validated language configuration. It is safe for
// concurrent use by any number of lexers.
type Registry struct {
	definitions   map[TokenType]Definition
	keywords      map[string]TokenType
	trie          *trieNode
	classes       CharacterClasses
	lineComments  []string
	blockComments []BlockDelimiters
	pairs         map[PairKind]Pair
	separator     rune
	delimiter     rune
}

// Builder accumulates definitions and settings for a Registry.
type Builder struct {
	definitions   []Definition
	lineComments  []string
	blockComments []BlockDelimiters
	pairs         map[PairKind]Pair
	classes       CharacterClasses
	separator     rune
	delimiter     rune
	overrides     map[TokenType]string
}

// NewBuilder returns an empty builder with default character classes,
// '_' as number separator and '.' as decimal delimiter.
func NewBuilder() *Builder {
	return &Builder{
		pairs:     make(map[PairKind]Pair),
		classes:   DefaultCharacterClasses(),
		separator: '_',
		delimiter: '.',
		overrides: make(map[TokenType]string),
	}
}

// DefaultBuilder returns a builder preloaded with the standard HSL grammar.
func DefaultBuilder() *Builder {
	return NewBuilder().
		Load(DefaultCategories()...).
		LineComment("#").
		LineComment("//").
		BlockComment("/*", "*/").
		Pair(BlockPair, LBRACE, RBRACE).
		Pair(ParameterPair, LPAREN, RPAREN).
		Pair(ArrayPair, LSQUARE, RSQUARE).
		Pair(GenericPair, LESS, GREATER)
}

// Load adds every definition of the given categories.
func (b *Builder) Load(categories ...Category) *Builder {
	for _, c := range categories {
		b.definitions = append(b.definitions, c.Definitions...)
	}
	return b
}

// Define adds individual definitions.
func (b *Builder) Define(defs ...Definition) *Builder {
	b.definitions = append(b.definitions, defs...)
	return b
}

// LineComment registers a sequence that starts a comment running to end of line.
func (b *Builder) LineComment(start string) *Builder {
	b.lineComments = append(b.lineComments, start)
	return b
}

// BlockComment registers a block comment delimiter pair.
func (b *Builder) BlockComment(open, close string) *Builder {
	b.blockComments = append(b.blockComments, BlockDelimiters{Open: open, Close: close})
	return b
}

// Pair registers a bracket pair for a role.
func (b *Builder) Pair(kind PairKind, open, close TokenType) *Builder {
	b.pairs[kind] = Pair{Open: open, Close: close}
	return b
}

// Classes replaces the character classes used for literals.
func (b *Builder) Classes(c CharacterClasses) *Builder {
	b.classes = c
	return b
}

// NumberSeparator sets the digit grouping character. Zero disables grouping.
func (b *Builder) NumberSeparator(r rune) *Builder {
	b.separator = r
	return b
}

// DecimalDelimiter sets the decimal point character.
func (b *Builder) DecimalDelimiter(r rune) *Builder {
	b.delimiter = r
	return b
}

// Keyword overrides the spelling of a registered keyword type.
func (b *Builder) Keyword(t TokenType, spelling string) *Builder {
	b.overrides[t] = spelling
	return b
}

// Build resolves representations, validates the grammar and freezes it.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		definitions:   make(map[TokenType]Definition, len(b.definitions)),
		keywords:      make(map[string]TokenType),
		trie:          newTrieNode(),
		classes:       b.classes,
		lineComments:  append([]string(nil), b.lineComments...),
		blockComments: append([]BlockDelimiters(nil), b.blockComments...),
		pairs:         make(map[PairKind]Pair, len(b.pairs)),
		separator:     b.separator,
		delimiter:     b.delimiter,
	}
	for k, v := range b.pairs {
		r.pairs[k] = v
	}

	var errs []error
	for _, def := range b.definitions {
		if _, dup := r.definitions[def.Type]; dup {
			errs = append(errs, fmt.Errorf("token type %s defined twice", def.Type))
			continue
		}
		def.Combines = append([]TokenType(nil), def.Combines...)
		r.definitions[def.Type] = def
	}

	for t, spelling := range b.overrides {
		def, ok := r.definitions[t]
		if !ok || !def.Keyword {
			errs = append(errs, fmt.Errorf("cannot override spelling of %s: not a registered keyword", t))
			continue
		}
		def.Representation = spelling
		r.definitions[t] = def
	}

	for _, t := range r.sortedTypes() {
		def := r.definitions[t]
		if len(def.Combines) > 0 {
			rep, err := r.resolveRepresentation(t, map[TokenType]bool{})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			def.Representation = rep
			r.definitions[t] = def
		}
	}

	errs = append(errs, r.validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid token registry: %w", errors.Join(errs...))
	}
	return r, nil
}

func (r *Registry) resolveRepresentation(t TokenType, visiting map[TokenType]bool) (string, error) {
	def, ok := r.definitions[t]
	if !ok {
		return "", fmt.Errorf("token type %s is not registered", t)
	}
	if len(def.Combines) == 0 {
		return def.Representation, nil
	}
	if visiting[t] {
		return "", fmt.Errorf("token type %s combines itself", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	var sb strings.Builder
	for _, part := range def.Combines {
		rep, err := r.resolveRepresentation(part, visiting)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", t, err)
		}
		sb.WriteString(rep)
	}
	return sb.String(), nil
}

// validate checks trie conflicts, keyword spellings and literal settings
func (r *Registry) validate() []error {
	var errs []error
	for _, t := range r.sortedTypes() {
		def := r.definitions[t]
		if def.Representation == "" {
			errs = append(errs, fmt.Errorf("token type %s has no representation", t))
			continue
		}
		if def.Keyword {
			if !r.classes.IsIdentifier(def.Representation) {
				errs = append(errs, fmt.Errorf("keyword %s spelled %q is not a valid identifier", t, def.Representation))
				continue
			}
			if other, dup := r.keywords[def.Representation]; dup {
				errs = append(errs, fmt.Errorf("keyword %q used by both %s and %s", def.Representation, other, t))
				continue
			}
			r.keywords[def.Representation] = t
			continue
		}
		if existing, ok := r.trie.insert(def.Representation, t); !ok {
			errs = append(errs, fmt.Errorf("token types %s and %s both resolve to %q", existing, t, def.Representation))
		}
	}

	for _, start := range r.lineComments {
		if start == "" {
			errs = append(errs, errors.New("line comment start must not be empty"))
		}
	}
	for _, bc := range r.blockComments {
		if bc.Open == "" || bc.Close == "" {
			errs = append(errs, errors.New("block comment delimiters must not be empty"))
		}
	}
	if r.delimiter == 0 {
		errs = append(errs, errors.New("decimal delimiter must be set"))
	} else if r.delimiter == r.separator {
		errs = append(errs, fmt.Errorf("decimal delimiter and number separator are both %q", r.delimiter))
	}
	if r.classes.Digit == nil || r.classes.Alpha == nil {
		errs = append(errs, errors.New("character classes must define Digit and Alpha"))
	} else if r.classes.IsDigit(r.delimiter) || (r.separator != 0 && r.classes.IsDigit(r.separator)) {
		errs = append(errs, errors.New("number separator and decimal delimiter must not be digits"))
	}
	return errs
}

func (r *Registry) sortedTypes() []TokenType {
	types := make([]TokenType, 0, len(r.definitions))
	for t := range r.definitions {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Definition returns the registered definition for t.
func (r *Registry) Definition(t TokenType) (Definition, bool) {
	def, ok := r.definitions[t]
	return def, ok
}

// Definitions returns every definition ordered by type.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.definitions))
	for _, t := range r.sortedTypes() {
		out = append(out, r.definitions[t])
	}
	return out
}

// Representation returns the canonical text of t, or its name for literal types.
func (r *Registry) Representation(t TokenType) string {
	if def, ok := r.definitions[t]; ok {
		return def.Representation
	}
	return t.String()
}

// IsKeyword reports whether t is a registered keyword.
func (r *Registry) IsKeyword(t TokenType) bool {
	def, ok := r.definitions[t]
	return ok && def.Keyword
}

// IsStandalone reports whether t starts a block-shaped statement.
func (r *Registry) IsStandalone(t TokenType) bool {
	def, ok := r.definitions[t]
	return ok && def.Standalone
}

// Keyword looks up the keyword type spelled by text.
func (r *Registry) Keyword(text string) (TokenType, bool) {
	t, ok := r.keywords[text]
	return t, ok
}

// Keywords returns all keyword types ordered by type.
func (r *Registry) Keywords() []TokenType {
	out := make([]TokenType, 0, len(r.keywords))
	for _, t := range r.keywords {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Classes returns the character classes for literals.
func (r *Registry) Classes() CharacterClasses { return r.classes }

// LineComments returns the line comment start sequences.
func (r *Registry) LineComments() []string { return r.lineComments }

// BlockComments returns the block comment delimiter pairs.
func (r *Registry) BlockComments() []BlockDelimiters { return r.blockComments }

// Pair returns the bracket pair registered for kind.
func (r *Registry) Pair(kind PairKind) (Pair, bool) {
	p, ok := r.pairs[kind]
	return p, ok
}

// NumberSeparator returns the digit grouping character (0 when disabled).
func (r *Registry) NumberSeparator() rune { return r.separator }

// DecimalDelimiter returns the decimal point character.
func (r *Registry) DecimalDelimiter() rune { return r.delimiter }

// Match returns the longest fixed token at the start of input and its byte length.
func (r *Registry) Match(input string) (TokenType, int) {
	return r.trie.longest(input)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared standard registry, built on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		var err error
		defaultRegistry, err = DefaultBuilder().Build()
		invariant.Postcondition(err == nil, "default registry must build: %v", err)
	})
	return defaultRegistry
}
