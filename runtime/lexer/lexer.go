// Package lexer turns HSL source text into tokens using a data-driven Registry.
//
// Fixed tokens (operators, punctuation) are matched by longest path through the
// registry's trie. Literals are recognized by the registry's character classes.
// Comments never reach the token stream; they are collected on the side for
// tooling.
package lexer

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/diagnostic"
)

// Lexer scans sources against a Registry. A Lexer may be reused for several
// sources but not concurrently.
type Lexer struct {
	registry *Registry
	reporter diagnostic.Reporter
	logger   *slog.Logger

	source  *diagnostic.Source
	input   string
	start   int // Byte offset where the current token starts
	current int // Byte offset of the next rune to read
	line    int
	column  int

	startPos Position
	tokens   []Token
	comments []Comment
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lexer) {
		l.logger = logger
	}
}

// New creates a lexer. Errors are sent to reporter and scanning continues.
func New(registry *Registry, reporter diagnostic.Reporter, opts ...Option) *Lexer {
	invariant.NotNil(registry, "registry")
	invariant.NotNil(reporter, "reporter")

	l := &Lexer{
		registry: registry,
		reporter: reporter,
		logger:   defaultLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// defaultLogger discards output unless HSL_DEBUG_LEXER is set.
func defaultLogger() *slog.Logger {
	if os.Getenv("HSL_DEBUG_LEXER") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Remove timestamp for cleaner output
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Scan tokenizes inline source text.
func (l *Lexer) Scan(source string) ([]Token, []Comment) {
	return l.ScanSource(diagnostic.NewEvalSource(source))
}

// ScanSource tokenizes src. The token slice always ends with EOF.
func (l *Lexer) ScanSource(src *diagnostic.Source) ([]Token, []Comment) {
	invariant.NotNil(src, "source")

	l.source = src
	l.input = src.Content
	l.start, l.current = 0, 0
	l.line, l.column = 1, 1
	l.tokens = nil
	l.comments = nil

	for !l.atEnd() {
		prev := l.current
		l.start = l.current
		l.startPos = l.position()
		l.scanToken()
		invariant.Invariant(l.current > prev, "lexer must advance at offset %d", prev)
	}

	l.start = l.current
	l.startPos = l.position()
	l.tokens = append(l.tokens, Token{Type: EOF, Position: l.startPos})

	invariant.Postcondition(l.tokens[len(l.tokens)-1].Type == EOF, "token stream must end with EOF")
	l.logger.Debug("scanned source", "source", src.Name, "tokens", len(l.tokens), "comments", len(l.comments))
	return l.tokens, l.comments
}

func (l *Lexer) scanToken() {
	r := l.peek()
	classes := l.registry.Classes()

	if isSpace(r) {
		l.advance()
		return
	}
	if l.scanComment() {
		return
	}

	switch {
	case r == '"':
		l.scanString()
	case r == '\'':
		l.scanChar()
	case classes.IsDigit(r):
		l.scanNumber()
	case classes.IsAlpha(r):
		l.scanIdentifier()
	default:
		t, size := l.registry.Match(l.input[l.current:])
		if size == 0 {
			invalid := l.invalidUTF8()
			l.advance()
			if !invalid {
				l.errorf(l.startPos, "Unexpected character '%c'", r)
			}
			return
		}
		l.advanceBytes(size)
		l.addToken(t, nil)
	}
}

// scanComment consumes a comment if one starts at the cursor. The longest
// matching start sequence wins.
func (l *Lexer) scanComment() bool {
	rest := l.input[l.current:]

	lineStart := ""
	for _, s := range l.registry.LineComments() {
		if strings.HasPrefix(rest, s) && len(s) > len(lineStart) {
			lineStart = s
		}
	}
	var block *BlockDelimiters
	for i, bc := range l.registry.BlockComments() {
		if strings.HasPrefix(rest, bc.Open) && (block == nil || len(bc.Open) > len(block.Open)) {
			block = &l.registry.BlockComments()[i]
		}
	}

	switch {
	case block != nil && len(block.Open) >= len(lineStart):
		l.scanBlockComment(*block)
	case lineStart != "":
		l.scanLineComment(lineStart)
	default:
		return false
	}
	return true
}

func (l *Lexer) scanLineComment(start string) {
	l.advanceBytes(len(start))
	textStart := l.current
	for !l.atEnd() && l.peek() != '\n' {
		l.advance()
	}
	text := strings.TrimSuffix(l.input[textStart:l.current], "\r")
	l.comments = append(l.comments, Comment{Kind: LineComment, Text: text, Position: l.startPos})
}

func (l *Lexer) scanBlockComment(delims BlockDelimiters) {
	l.advanceBytes(len(delims.Open))
	textStart := l.current
	for !l.atEnd() {
		if strings.HasPrefix(l.input[l.current:], delims.Close) {
			text := l.input[textStart:l.current]
			l.advanceBytes(len(delims.Close))
			l.comments = append(l.comments, Comment{Kind: BlockComment, Text: text, Position: l.startPos})
			return
		}
		l.advance()
	}
	l.errorf(l.startPos, "Unterminated block comment")
}

func (l *Lexer) scanString() {
	l.advance() // opening quote

	var sb strings.Builder
	for !l.atEnd() && l.peek() != '"' {
		r := l.advance()
		if r == '\\' {
			if esc, ok := l.scanEscape(); ok {
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(r)
	}

	if l.atEnd() {
		l.errorf(l.startPos, "Unterminated string")
		return
	}
	l.advance() // closing quote
	l.addToken(STRING, sb.String())
}

func (l *Lexer) scanChar() {
	l.advance() // opening quote

	if l.atEnd() || l.peek() == '\n' {
		l.errorf(l.startPos, "Unterminated character literal")
		return
	}
	if l.peek() == '\'' {
		l.advance()
		l.errorf(l.startPos, "Empty character literal")
		return
	}

	value := l.advance()
	valid := true
	if value == '\\' {
		value, valid = l.scanEscape()
	}

	if l.atEnd() || l.peek() != '\'' {
		l.errorf(l.startPos, "Unterminated character literal")
		return
	}
	l.advance() // closing quote
	if valid {
		l.addToken(CHAR, value)
	}
}

// scanEscape reads the rune after a backslash.
func (l *Lexer) scanEscape() (rune, bool) {
	if l.atEnd() {
		return 0, false
	}
	escPos := l.position()
	r := l.advance()
	switch r {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '0':
		return 0, true
	case '\\', '"', '\'':
		return r, true
	default:
		l.errorf(escPos, "Invalid escape sequence '\\%c'", r)
		return 0, false
	}
}

func (l *Lexer) scanNumber() {
	classes := l.registry.Classes()
	sep := l.registry.NumberSeparator()
	delim := l.registry.DecimalDelimiter()

	l.scanDigits(classes, sep)
	if l.peek() == delim && classes.IsDigit(l.peekNext()) {
		l.advance()
		l.scanDigits(classes, sep)
	}

	lexeme := l.input[l.start:l.current]
	normalized := lexeme
	if sep != 0 {
		normalized = strings.ReplaceAll(normalized, string(sep), "")
	}
	if delim != '.' {
		normalized = strings.ReplaceAll(normalized, string(delim), ".")
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		l.errorf(l.startPos, "Invalid number '%s'", lexeme)
		return
	}
	l.addToken(NUMBER, value)
}

// scanDigits consumes digits, allowing a separator only between two digits.
func (l *Lexer) scanDigits(classes CharacterClasses, sep rune) {
	for !l.atEnd() {
		r := l.peek()
		switch {
		case classes.IsDigit(r):
			l.advance()
		case sep != 0 && r == sep && classes.IsDigit(l.peekNext()):
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scanIdentifier() {
	classes := l.registry.Classes()
	for !l.atEnd() && classes.IsAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.input[l.start:l.current]
	t, ok := l.registry.Keyword(text)
	if !ok {
		l.addToken(IDENTIFIER, nil)
		return
	}

	switch t {
	case TRUE:
		l.addToken(t, true)
	case FALSE:
		l.addToken(t, false)
	default:
		l.addToken(t, nil)
	}
}

func (l *Lexer) addToken(t TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:     t,
		Lexeme:   l.input[l.start:l.current],
		Literal:  literal,
		Position: l.startPos,
	})
}

func (l *Lexer) errorf(pos Position, format string, args ...interface{}) {
	err := diagnostic.NewScriptError(diagnostic.Lexing, pos, format, args...).WithSource(l.source)
	l.logger.Debug("lexing error", "message", err.Message, "line", pos.Line, "column", pos.Column)
	l.reporter.Report(err)
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.current}
}

func (l *Lexer) atEnd() bool {
	return l.current >= len(l.input)
}

// advance consumes one rune, tracking line and column. A byte that is not
// valid UTF-8 is reported and consumed as utf8.RuneError.
func (l *Lexer) advance() rune {
	if l.invalidUTF8() {
		l.errorf(l.position(), "Invalid UTF-8")
	}
	r, size := utf8.DecodeRuneInString(l.input[l.current:])
	if size == 0 {
		size = 1
	}
	l.current += size
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) invalidUTF8() bool {
	r, size := utf8.DecodeRuneInString(l.input[l.current:])
	return r == utf8.RuneError && size == 1
}

// advanceBytes consumes runes until n bytes have been read
func (l *Lexer) advanceBytes(n int) {
	end := l.current + n
	for l.current < end {
		l.advance()
	}
}

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.atEnd() {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.current:])
	if l.current+size >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current+size:])
	return r
}
