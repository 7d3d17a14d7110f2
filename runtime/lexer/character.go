package lexer

import "unicode"

// ASCII character lookup tables for fast classification (zero-allocation)
//
// Use inline bounds-checked lookups:
//
//	if ch < 128 && isDigit[ch] { ... }
//
// For Unicode characters (ch >= 128), use unicode package functions.
var (
	isWhitespace [128]bool // Space, tab, carriage return, form feed, newline
	isLetter     [128]bool // a-z, A-Z, _
	isDigit      [128]bool // 0-9
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\n'
		isLetter[i] = ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_'
		isDigit[i] = '0' <= ch && ch <= '9'
	}
}

// CharacterClasses decides which runes start and continue literals.
// Registries carry their own classes so the grammar stays configurable.
type CharacterClasses struct {
	Digit func(r rune) bool
	Alpha func(r rune) bool
}

// DefaultCharacterClasses accepts ASCII digits and Unicode letters plus '_'.
func DefaultCharacterClasses() CharacterClasses {
	return CharacterClasses{
		Digit: defaultDigit,
		Alpha: defaultAlpha,
	}
}

// IsDigit reports whether r is a digit under these classes
func (c CharacterClasses) IsDigit(r rune) bool {
	return c.Digit(r)
}

// IsAlpha reports whether r may start an identifier
func (c CharacterClasses) IsAlpha(r rune) bool {
	return c.Alpha(r)
}

// IsAlphaNumeric reports whether r may continue an identifier
func (c CharacterClasses) IsAlphaNumeric(r rune) bool {
	return c.Alpha(r) || c.Digit(r)
}

// IsIdentifier reports whether s is a valid identifier under these classes
func (c CharacterClasses) IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !c.IsAlpha(r) {
				return false
			}
			continue
		}
		if !c.IsAlphaNumeric(r) {
			return false
		}
	}
	return true
}

func defaultDigit(r rune) bool {
	return r < 128 && isDigit[r]
}

func defaultAlpha(r rune) bool {
	if r < 128 {
		return isLetter[r]
	}
	return unicode.IsLetter(r)
}

func isSpace(r rune) bool {
	if r < 128 {
		return isWhitespace[r]
	}
	return unicode.IsSpace(r)
}
