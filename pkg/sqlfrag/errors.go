package sqlfrag

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------
// Every builder failure is an invalid-input failure: the caller handed over
// something that cannot be turned into a fragment. Callers test for it with
// errors.Is(err, ErrInvalidInput) and translate it to a client error.
// -----------------------------------------------------------------------------

// ErrInvalidInput is the sentinel matched by every *InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes why an input could not be compiled.
//
// Key is empty for errors that concern the whole input (e.g. an empty
// update).
type InputError struct {
	Key     string
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Key == "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func invalid(key, msg string, err error) error {
	return &InputError{Key: key, Message: msg, Err: err}
}
