package lexer

import (
	"fmt"

	"github.com/opal-lang/hsl/runtime/diagnostic"
)

// TokenType identifies a lexical category registered in a Registry.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENTIFIER // user names
	NUMBER     // 12, 3.5, 1_000
	STRING     // "text"
	CHAR       // 'c'

	// Punctuation and pairs
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LSQUARE   // [
	RSQUARE   // ]
	COMMA     // ,
	DOT       // .
	SEMICOLON // ;
	COLON     // :

	// Arithmetic
	PLUS        // +
	MINUS       // -
	STAR        // *
	SLASH       // /
	PERCENT     // %
	PLUS_PLUS   // ++
	MINUS_MINUS // --

	// Comparison
	EQUAL_EQUAL   // ==
	BANG_EQUAL    // !=
	GREATER       // >
	GREATER_EQUAL // >=
	LESS          // <
	LESS_EQUAL    // <=

	// Assignment
	EQUAL         // =
	PLUS_EQUAL    // +=
	MINUS_EQUAL   // -=
	STAR_EQUAL    // *=
	SLASH_EQUAL   // /=
	PERCENT_EQUAL // %=

	// Bitwise
	AMPERSAND            // &
	PIPE                 // |
	CARET                // ^
	TILDE                // ~
	SHIFT_LEFT           // <<
	SHIFT_RIGHT          // >>
	SHIFT_RIGHT_UNSIGNED // >>>

	// Logical
	BANG        // !
	AND_AND     // &&
	OR_OR       // ||
	CARET_CARET // ^^

	// Conditional
	QUESTION // ?
	ELVIS    // ?:

	// Range
	DOT_DOT // ..

	// Branch keywords
	IF
	ELSE
	SWITCH
	CASE
	DEFAULT

	// Loop keywords
	WHILE
	DO
	FOR
	IN
	REPEAT
	BREAK
	CONTINUE

	// Declaration keywords
	VAR
	FINAL
	FUN
	RETURN
	PREFIX
	INFIX
	POSTFIX

	// Class keywords
	CLASS
	EXTENDS
	THIS
	SUPER
	CONSTRUCTOR
	PUBLIC
	PRIVATE

	// Module keywords
	NATIVE
	USING
	TEST
	PRINT

	// Literal keywords
	TRUE
	FALSE
	NULL

	tokenTypeCount
)

var tokenTypeNames = [...]string{
	EOF: "EOF", ILLEGAL: "ILLEGAL",
	IDENTIFIER: "IDENTIFIER", NUMBER: "NUMBER", STRING: "STRING", CHAR: "CHAR",
	LPAREN: "LPAREN", RPAREN: "RPAREN", LBRACE: "LBRACE", RBRACE: "RBRACE",
	LSQUARE: "LSQUARE", RSQUARE: "RSQUARE", COMMA: "COMMA", DOT: "DOT",
	SEMICOLON: "SEMICOLON", COLON: "COLON",
	PLUS: "PLUS", MINUS: "MINUS", STAR: "STAR", SLASH: "SLASH", PERCENT: "PERCENT",
	PLUS_PLUS: "PLUS_PLUS", MINUS_MINUS: "MINUS_MINUS",
	EQUAL_EQUAL: "EQUAL_EQUAL", BANG_EQUAL: "BANG_EQUAL", GREATER: "GREATER",
	GREATER_EQUAL: "GREATER_EQUAL", LESS: "LESS", LESS_EQUAL: "LESS_EQUAL",
	EQUAL: "EQUAL", PLUS_EQUAL: "PLUS_EQUAL", MINUS_EQUAL: "MINUS_EQUAL",
	STAR_EQUAL: "STAR_EQUAL", SLASH_EQUAL: "SLASH_EQUAL", PERCENT_EQUAL: "PERCENT_EQUAL",
	AMPERSAND: "AMPERSAND", PIPE: "PIPE", CARET: "CARET", TILDE: "TILDE",
	SHIFT_LEFT: "SHIFT_LEFT", SHIFT_RIGHT: "SHIFT_RIGHT", SHIFT_RIGHT_UNSIGNED: "SHIFT_RIGHT_UNSIGNED",
	BANG: "BANG", AND_AND: "AND_AND", OR_OR: "OR_OR", CARET_CARET: "CARET_CARET",
	QUESTION: "QUESTION", ELVIS: "ELVIS", DOT_DOT: "DOT_DOT",
	IF: "IF", ELSE: "ELSE", SWITCH: "SWITCH", CASE: "CASE", DEFAULT: "DEFAULT",
	WHILE: "WHILE", DO: "DO", FOR: "FOR", IN: "IN", REPEAT: "REPEAT",
	BREAK: "BREAK", CONTINUE: "CONTINUE",
	VAR: "VAR", FINAL: "FINAL", FUN: "FUN", RETURN: "RETURN",
	PREFIX: "PREFIX", INFIX: "INFIX", POSTFIX: "POSTFIX",
	CLASS: "CLASS", EXTENDS: "EXTENDS", THIS: "THIS", SUPER: "SUPER",
	CONSTRUCTOR: "CONSTRUCTOR", PUBLIC: "PUBLIC", PRIVATE: "PRIVATE",
	NATIVE: "NATIVE", USING: "USING", TEST: "TEST", PRINT: "PRINT",
	TRUE: "TRUE", FALSE: "FALSE", NULL: "NULL",
}

// String returns the token type's name
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenTypeNames) && tokenTypeNames[t] != "" {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position is a location in the source code
type Position = diagnostic.Position

// Token is a classified lexical unit
type Token struct {
	Type     TokenType
	Lexeme   string      // Exact source text
	Literal  interface{} // float64 for NUMBER, string for STRING, rune for CHAR
	Position Position
}

// String returns the lexeme (for testing and debugging)
func (t Token) String() string {
	return t.Lexeme
}

// CommentKind distinguishes line comments from block comments
type CommentKind int

const (
	LineComment CommentKind = iota
	BlockComment
)

// String returns "line" or "block"
func (k CommentKind) String() string {
	if k == BlockComment {
		return "block"
	}
	return "line"
}

// Comment is a comment extracted from the token stream.
// Text is everything after the start sequence, untrimmed.
type Comment struct {
	Kind     CommentKind
	Text     string
	Position Position
}
