package modules

import (
	"fmt"
	"math"

	"github.com/opal-lang/hsl/runtime/interpreter"
)

// Argument accessors for host functions. Positions in messages are
// 1-based to match what scripts pass.

func number(args []interpreter.Value, i int) (float64, error) {
	n, ok := args[i].(float64)
	if !ok {
		return 0, fmt.Errorf("argument %d must be a number, got %s", i+1, interpreter.TypeName(args[i]))
	}
	return n, nil
}

func integer(args []interpreter.Value, i int) (int, error) {
	n, err := number(args, i)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("argument %d must be an integer, got %v", i+1, n)
	}
	return int(n), nil
}

func str(args []interpreter.Value, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string, got %s", i+1, interpreter.TypeName(args[i]))
	}
	return s, nil
}

func twoStrings(args []interpreter.Value) (string, string, error) {
	a, err := str(args, 0)
	if err != nil {
		return "", "", err
	}
	b, err := str(args, 1)
	if err != nil {
		return "", "", err
	}
	return a, b, nil
}

func array(args []interpreter.Value, i int) (*interpreter.Array, error) {
	arr, ok := args[i].(*interpreter.Array)
	if !ok {
		return nil, fmt.Errorf("argument %d must be an array, got %s", i+1, interpreter.TypeName(args[i]))
	}
	return arr, nil
}

// bounds reads a half-open [from, to) range at args[i] and args[i+1] and
// checks it against length.
func bounds(args []interpreter.Value, i, length int) (int, int, error) {
	from, err := integer(args, i)
	if err != nil {
		return 0, 0, err
	}
	to, err := integer(args, i+1)
	if err != nil {
		return 0, 0, err
	}
	if from < 0 || to > length || from > to {
		return 0, 0, fmt.Errorf("range %d..%d out of bounds for length %d", from, to, length)
	}
	return from, to, nil
}
