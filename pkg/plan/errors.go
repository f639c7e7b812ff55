package plan

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned when a row evaluates x / 0.
var ErrDivisionByZero = errors.New("division by zero")

// RuntimeError is a failure raised while a plan executes. It wraps the
// underlying storage or evaluation error so callers can match it with
// errors.Is.
type RuntimeError struct {
	Op  string // operator that failed, e.g. "insert"
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func runtimeError(op string, err error) *RuntimeError {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re
	}
	return &RuntimeError{Op: op, Err: err}
}
