package spec

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned when a caller breaks the input contract,
// e.g. passes something that is not a sequence of candidates.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError describes a caller contract violation with context.
type InvalidArgumentError struct {
	Argument string
	Reason   string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Argument, e.Reason)
}

func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewInvalidArgumentError creates a new InvalidArgumentError
func NewInvalidArgumentError(argument, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Argument: argument, Reason: reason}
}
