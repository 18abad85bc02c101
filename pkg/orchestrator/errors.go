package orchestrator

import (
	"errors"
	"fmt"
)

var (
	ErrParse   = errors.New("malformed decomposition")
	ErrTimeout = errors.New("run timed out")
)

// ParseError is a decomposition response that is not the expected JSON
// object. Raw is the model output as received.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
