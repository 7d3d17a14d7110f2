package diagnostic

import (
	"strings"

	"golang.org/x/text/width"
)

// Excerpt renders the offending source line followed by a caret under the
// column. Returns "" when the source or position is unknown.
func Excerpt(src *Source, pos Position) string {
	if src == nil || !pos.IsValid() || pos.Line > len(src.Lines()) {
		return ""
	}

	line := src.Line(pos.Line)
	return line + "\n" + caretPadding(line, pos.Column) + "^"
}

// caretPadding produces the whitespace that aligns a caret under the given
// 1-based rune column. Tabs are copied so the caret lines up in terminals, and
// wide runes take two cells.
func caretPadding(line string, column int) string {
	var b strings.Builder
	col := 1
	for _, r := range line {
		if col >= column {
			break
		}
		switch {
		case r == '\t':
			b.WriteByte('\t')
		case isWide(r):
			b.WriteString("  ")
		default:
			b.WriteByte(' ')
		}
		col++
	}
	// Columns past the end of the line (e.g. EOF) still get a caret
	for ; col < column; col++ {
		b.WriteByte(' ')
	}
	return b.String()
}

func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	default:
		return false
	}
}
