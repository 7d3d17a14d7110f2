package lexer

// Category is a named group of token definitions loaded together.
type Category struct {
	Name        string
	Definitions []Definition
}

func single(t TokenType, name, representation string) Definition {
	return Definition{Type: t, Name: name, Representation: representation}
}

func combined(t TokenType, name string, parts ...TokenType) Definition {
	return Definition{Type: t, Name: name, Combines: parts}
}

func keyword(t TokenType, spelling string, standalone bool) Definition {
	return Definition{Type: t, Name: spelling, Representation: spelling, Keyword: true, Standalone: standalone}
}

// Built-in categories, in load order.
var (
	PunctuationCategory = Category{Name: "punctuation", Definitions: []Definition{
		single(LPAREN, "left_paren", "("),
		single(RPAREN, "right_paren", ")"),
		{Type: LBRACE, Name: "left_brace", Representation: "{", Standalone: true},
		single(RBRACE, "right_brace", "}"),
		single(LSQUARE, "left_square", "["),
		single(RSQUARE, "right_square", "]"),
		single(COMMA, "comma", ","),
		single(DOT, "dot", "."),
		single(SEMICOLON, "semicolon", ";"),
		single(COLON, "colon", ":"),
	}}

	ArithmeticCategory = Category{Name: "arithmetic", Definitions: []Definition{
		single(PLUS, "plus", "+"),
		single(MINUS, "minus", "-"),
		single(STAR, "star", "*"),
		single(SLASH, "slash", "/"),
		single(PERCENT, "percent", "%"),
		combined(PLUS_PLUS, "plus_plus", PLUS, PLUS),
		combined(MINUS_MINUS, "minus_minus", MINUS, MINUS),
	}}

	ComparisonCategory = Category{Name: "comparison", Definitions: []Definition{
		single(GREATER, "greater", ">"),
		single(LESS, "less", "<"),
		combined(GREATER_EQUAL, "greater_equal", GREATER, EQUAL),
		combined(LESS_EQUAL, "less_equal", LESS, EQUAL),
		combined(EQUAL_EQUAL, "equal_equal", EQUAL, EQUAL),
		combined(BANG_EQUAL, "bang_equal", BANG, EQUAL),
	}}

	AssignmentCategory = Category{Name: "assignment", Definitions: []Definition{
		single(EQUAL, "equal", "="),
		combined(PLUS_EQUAL, "plus_equal", PLUS, EQUAL),
		combined(MINUS_EQUAL, "minus_equal", MINUS, EQUAL),
		combined(STAR_EQUAL, "star_equal", STAR, EQUAL),
		combined(SLASH_EQUAL, "slash_equal", SLASH, EQUAL),
		combined(PERCENT_EQUAL, "percent_equal", PERCENT, EQUAL),
	}}

	BitwiseCategory = Category{Name: "bitwise", Definitions: []Definition{
		single(AMPERSAND, "ampersand", "&"),
		single(PIPE, "pipe", "|"),
		single(CARET, "caret", "^"),
		single(TILDE, "tilde", "~"),
		combined(SHIFT_LEFT, "shift_left", LESS, LESS),
		combined(SHIFT_RIGHT, "shift_right", GREATER, GREATER),
		combined(SHIFT_RIGHT_UNSIGNED, "shift_right_unsigned", SHIFT_RIGHT, GREATER),
	}}

	LogicalCategory = Category{Name: "logical", Definitions: []Definition{
		single(BANG, "bang", "!"),
		combined(AND_AND, "and_and", AMPERSAND, AMPERSAND),
		combined(OR_OR, "or_or", PIPE, PIPE),
		combined(CARET_CARET, "caret_caret", CARET, CARET),
	}}

	ConditionalCategory = Category{Name: "conditional", Definitions: []Definition{
		single(QUESTION, "question", "?"),
		combined(ELVIS, "elvis", QUESTION, COLON),
	}}

	RangeCategory = Category{Name: "range", Definitions: []Definition{
		combined(DOT_DOT, "dot_dot", DOT, DOT),
	}}

	BranchCategory = Category{Name: "branch", Definitions: []Definition{
		keyword(IF, "if", true),
		keyword(ELSE, "else", false),
		keyword(SWITCH, "switch", true),
		keyword(CASE, "case", false),
		keyword(DEFAULT, "default", false),
	}}

	LoopCategory = Category{Name: "loop", Definitions: []Definition{
		keyword(WHILE, "while", true),
		keyword(DO, "do", true),
		keyword(FOR, "for", true),
		keyword(IN, "in", false),
		keyword(REPEAT, "repeat", true),
		keyword(BREAK, "break", false),
		keyword(CONTINUE, "continue", false),
	}}

	DeclarationCategory = Category{Name: "declaration", Definitions: []Definition{
		keyword(VAR, "var", false),
		keyword(FINAL, "final", false),
		keyword(FUN, "fun", true),
		keyword(RETURN, "return", false),
		keyword(PREFIX, "prefix", true),
		keyword(INFIX, "infix", true),
		keyword(POSTFIX, "postfix", true),
	}}

	ClassCategory = Category{Name: "class", Definitions: []Definition{
		keyword(CLASS, "class", true),
		keyword(EXTENDS, "extends", false),
		keyword(THIS, "this", false),
		keyword(SUPER, "super", false),
		keyword(CONSTRUCTOR, "constructor", false),
		keyword(PUBLIC, "public", false),
		keyword(PRIVATE, "private", false),
	}}

	ModuleCategory = Category{Name: "module", Definitions: []Definition{
		keyword(NATIVE, "native", false),
		keyword(USING, "using", false),
		keyword(TEST, "test", true),
		keyword(PRINT, "print", false),
	}}

	LiteralCategory = Category{Name: "literal", Definitions: []Definition{
		keyword(TRUE, "true", false),
		keyword(FALSE, "false", false),
		keyword(NULL, "null", false),
	}}
)

// DefaultCategories lists every built-in category.
func DefaultCategories() []Category {
	return []Category{
		PunctuationCategory,
		ArithmeticCategory,
		ComparisonCategory,
		AssignmentCategory,
		BitwiseCategory,
		LogicalCategory,
		ConditionalCategory,
		RangeCategory,
		BranchCategory,
		LoopCategory,
		DeclarationCategory,
		ClassCategory,
		ModuleCategory,
		LiteralCategory,
	}
}
