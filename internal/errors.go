package internal

import (
	"errors"
	"fmt"
)

// Precondition violations. These always reach callers wrapped in a
// *PreconditionError.
var (
	ErrNotVector               = errors.New("input is not a rank-1 vector")
	ErrNotMonotonic            = errors.New("sequence is not increasing")
	ErrHeterogeneousThresholds = errors.New("not implemented for heterogeneous thresholds across groups")
	ErrNotBinary               = errors.New("target labels must be binary")
	ErrInvalidProblem          = errors.New("invalid threshold problem")
	ErrUnsupportedMethod       = errors.New("unsupported method")
	ErrWordNotFound            = errors.New("word not in embedding")
	ErrNotUnitLength           = errors.New("vectors are not unit length")
	ErrDimensionMismatch       = errors.New("dimension mismatch")
)

var (
	// ErrDirectionNotIdentified is a state error: the bias direction was read
	// before it was identified.
	ErrDirectionNotIdentified = errors.New("direction not yet identified")

	// ErrInsufficientSeparability reports that the definitional pairs do not
	// span a clean one-dimensional subspace. It is a modeling concern:
	// callers may lower the explained-variance threshold or switch to the
	// single or sum identification methods.
	ErrInsufficientSeparability = errors.New("insufficient separability")

	ErrNotImplemented  = errors.New("not implemented")
	ErrNoFeasiblePoint = errors.New("no feasible operating point shared by all groups")
)

type PreconditionError struct {
	Op     string
	Detail string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

func precondition(op string, err error, format string, args ...any) error {
	return &PreconditionError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsPrecondition reports whether err is a precondition violation, as opposed
// to a state error or a statistical validity failure.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
