package comparison

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidInputError is returned when a lap or parameter cannot be compared: an empty sample
// sequence, a non-positive segment count or a non-finite position or angle. It is never
// retried; the computation is deterministic.
type InvalidInputError struct {
	Op     string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("comparison: %s: invalid input: %s", e.Op, e.Reason)
}

func invalidInput(op, format string, args ...interface{}) error {
	return &InvalidInputError{
		Op:     op,
		Reason: fmt.Sprintf(format, args...),
	}
}

// IsInvalidInput reports whether err, or any error it wraps, is an *InvalidInputError.
func IsInvalidInput(err error) bool {
	var invalid *InvalidInputError

	return errors.As(err, &invalid)
}
