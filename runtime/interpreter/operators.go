package interpreter

import (
	"math"
	"strings"

	"github.com/opal-lang/hsl/runtime/lexer"
)

// binary applies a built-in binary operator to evaluated operands.
func (in *Interpreter) binary(op lexer.Token, left, right Value) (Value, error) {
	switch op.Type {
	case lexer.PLUS:
		return in.add(op, left, right)

	case lexer.MINUS:
		l, r, err := in.numbers(op, left, right)
		if err != nil {
			return nil, err
		}
		return l - r, nil

	case lexer.STAR:
		return in.multiply(op, left, right)

	case lexer.SLASH:
		l, r, err := in.numbers(op, left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, in.errorAt(op, "Division by zero")
		}
		return l / r, nil

	case lexer.PERCENT:
		l, r, err := in.numbers(op, left, right)
		if err != nil {
			return nil, err
		}
		if r == 0 {
			return nil, in.errorAt(op, "Division by zero")
		}
		return math.Mod(l, r), nil

	case lexer.GREATER, lexer.GREATER_EQUAL, lexer.LESS, lexer.LESS_EQUAL:
		l, r, err := in.numbers(op, left, right)
		if err != nil {
			return nil, err
		}
		return compare(op.Type, l, r), nil

	case lexer.EQUAL_EQUAL:
		return Equal(left, right), nil
	case lexer.BANG_EQUAL:
		return !Equal(left, right), nil

	case lexer.CARET:
		_, lnum := left.(float64)
		_, rnum := right.(float64)
		if !lnum || !rnum {
			// XOR of non-numbers falls back to truthiness.
			return IsTruthy(left) != IsTruthy(right), nil
		}
		return in.bitwise(op, left, right)

	case lexer.AMPERSAND, lexer.PIPE, lexer.SHIFT_LEFT, lexer.SHIFT_RIGHT, lexer.SHIFT_RIGHT_UNSIGNED:
		return in.bitwise(op, left, right)
	}

	return nil, in.errorAt(op, "Unknown operator '%s'", op.Lexeme)
}

func compare(t lexer.TokenType, l, r float64) bool {
	switch t {
	case lexer.GREATER:
		return l > r
	case lexer.GREATER_EQUAL:
		return l >= r
	case lexer.LESS:
		return l < r
	default:
		return l <= r
	}
}

func (in *Interpreter) numbers(op lexer.Token, left, right Value) (float64, float64, error) {
	l, lok := left.(float64)
	r, rok := right.(float64)
	if !lok || !rok {
		return 0, 0, in.errorAt(op, "Operands of '%s' must be numbers, got %s and %s", op.Lexeme, TypeName(left), TypeName(right))
	}
	return l, r, nil
}

func (in *Interpreter) number(op lexer.Token, operand Value) (float64, error) {
	n, ok := operand.(float64)
	if !ok {
		return 0, in.errorAt(op, "Operand of '%s' must be a number, got %s", op.Lexeme, TypeName(operand))
	}
	return n, nil
}

// add implements '+': numbers add, a string on either side concatenates,
// two characters join into a string and a character next to a number
// contributes its code point.
func (in *Interpreter) add(op lexer.Token, left, right Value) (Value, error) {
	switch l := left.(type) {
	case float64:
		switch r := right.(type) {
		case float64:
			return l + r, nil
		case Char:
			return l + float64(r), nil
		}
	case Char:
		switch r := right.(type) {
		case Char:
			return string([]rune{rune(l), rune(r)}), nil
		case float64:
			return float64(l) + r, nil
		}
	}

	_, lstr := left.(string)
	_, rstr := right.(string)
	if lstr || rstr {
		return Stringify(left) + Stringify(right), nil
	}
	return nil, in.errorAt(op, "Operands of '+' must be numbers, strings or characters, got %s and %s", TypeName(left), TypeName(right))
}

// multiply implements '*' including string and array repetition.
func (in *Interpreter) multiply(op lexer.Token, left, right Value) (Value, error) {
	if times, ok := right.(float64); ok {
		switch l := left.(type) {
		case string:
			n, err := in.repeatCount(op, times, len(l))
			if err != nil {
				return nil, err
			}
			return strings.Repeat(l, n), nil
		case *Array:
			n, err := in.repeatCount(op, times, l.Len())
			if err != nil {
				return nil, err
			}
			return l.repeat(times, n), nil
		}
	}
	l, r, err := in.numbers(op, left, right)
	if err != nil {
		return nil, err
	}
	return l * r, nil
}

// maxSequenceLength caps the elements of a range or repeated array and the
// bytes of a repeated string.
const maxSequenceLength = 1 << 24

// repeatCount checks a repetition of unit-sized items and returns the whole
// number of copies. Counts below one yield zero copies.
func (in *Interpreter) repeatCount(op lexer.Token, times float64, unit int) (int, error) {
	switch {
	case math.IsNaN(times) || math.IsInf(times, 0):
		return 0, in.errorAt(op, "Repeat count must be finite, got %s", Stringify(times))
	case times < 1 || unit == 0:
		return 0, nil
	case times > float64(maxSequenceLength/unit):
		return 0, in.errorAt(op, "Repeat count too large")
	}
	return int(times), nil
}

// span implements 'from..to'. Bounds truncate toward zero and from > to
// gives an empty array.
func (in *Interpreter) span(op lexer.Token, from, to float64) (*Array, error) {
	if math.IsNaN(from) || math.IsInf(from, 0) || math.IsNaN(to) || math.IsInf(to, 0) {
		return nil, in.errorAt(op, "Range bounds must be finite, got %s and %s", Stringify(from), Stringify(to))
	}
	lo, hi := math.Trunc(from), math.Trunc(to)
	if lo > hi {
		return NewArray(), nil
	}
	if hi-lo >= maxSequenceLength {
		return nil, in.errorAt(op, "Range too large")
	}
	return rangeArray(lo, int(hi-lo)+1), nil
}

// bitwise works on the 32-bit integer view of both operands. Shift counts
// use their low five bits and '>>>' shifts in zeros.
func (in *Interpreter) bitwise(op lexer.Token, left, right Value) (Value, error) {
	lf, rf, err := in.numbers(op, left, right)
	if err != nil {
		return nil, err
	}
	l, r := toInt32(lf), toInt32(rf)
	shift := uint32(r) & 31

	var out int32
	switch op.Type {
	case lexer.AMPERSAND:
		out = l & r
	case lexer.PIPE:
		out = l | r
	case lexer.CARET:
		out = l ^ r
	case lexer.SHIFT_LEFT:
		out = l << shift
	case lexer.SHIFT_RIGHT:
		out = l >> shift
	case lexer.SHIFT_RIGHT_UNSIGNED:
		return float64(uint32(l) >> shift), nil
	}
	return float64(out), nil
}

// toInt32 truncates toward zero and saturates, mapping NaN to zero.
func toInt32(f float64) int32 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int32(f)
}

// unary applies '-', '!' and '~'.
func (in *Interpreter) unary(op lexer.Token, operand Value) (Value, error) {
	switch op.Type {
	case lexer.BANG:
		return !IsTruthy(operand), nil
	case lexer.MINUS:
		n, err := in.number(op, operand)
		if err != nil {
			return nil, err
		}
		return -n, nil
	case lexer.TILDE:
		n, err := in.number(op, operand)
		if err != nil {
			return nil, err
		}
		return float64(^toInt32(n)), nil
	}
	return nil, in.errorAt(op, "Unknown operator '%s'", op.Lexeme)
}

// compoundOperator maps '+=' and friends onto the arithmetic token they
// desugar to.
func compoundOperator(op lexer.Token) (lexer.Token, bool) {
	var t lexer.TokenType
	switch op.Type {
	case lexer.PLUS_EQUAL:
		t = lexer.PLUS
	case lexer.MINUS_EQUAL:
		t = lexer.MINUS
	case lexer.STAR_EQUAL:
		t = lexer.STAR
	case lexer.SLASH_EQUAL:
		t = lexer.SLASH
	case lexer.PERCENT_EQUAL:
		t = lexer.PERCENT
	default:
		return op, false
	}
	arith := op
	arith.Type = t
	return arith, true
}
