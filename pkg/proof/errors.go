package proof

import (
	"fmt"

	"github.com/rebryant/ipbip/pkg/pbterm"
)

// The four fatal error classes a run can end in (spec.md §7). Each wraps one
// of these sentinels so callers can classify a failure with errors.Is while
// still getting a specific message via Error().
var (
	// ErrMalformedInput: a line didn't match the expected grammar, an
	// objective line referenced an unknown variable, or a hint referenced a
	// non-existent or future clause id.
	ErrMalformedInput = fmt.Errorf("proof: malformed input")

	// ErrUnsupportedConstruct: a constraint used a relation other than >=.
	ErrUnsupportedConstruct = fmt.Errorf("proof: unsupported construct")

	// ErrRUPFailure: unit propagation terminated without a conflict.
	ErrRUPFailure = fmt.Errorf("proof: RUP failure")

	// ErrInternalInvariantViolation: an internal invariant (sorted terms,
	// positive coefficients, no duplicate variables, no forward hints) was
	// violated.
	ErrInternalInvariantViolation = fmt.Errorf("proof: internal invariant violation")
)

// wrappedError pairs a sentinel class with a specific message, so
// errors.Is(err, ErrMalformedInput) works while Error() stays descriptive.
type wrappedError struct {
	class   error
	message string
}

func (e *wrappedError) Error() string { return e.message }
func (e *wrappedError) Unwrap() error { return e.class }

func malformedInputf(format string, args ...any) error {
	return &wrappedError{class: ErrMalformedInput, message: fmt.Sprintf(format, args...)}
}

func unsupportedConstructf(format string, args ...any) error {
	return &wrappedError{class: ErrUnsupportedConstruct, message: fmt.Sprintf(format, args...)}
}

func rupFailuref(format string, args ...any) error {
	return &wrappedError{class: ErrRUPFailure, message: fmt.Sprintf(format, args...)}
}

func internalInvariantViolationf(format string, args ...any) error {
	return &wrappedError{class: ErrInternalInvariantViolation, message: fmt.Sprintf(format, args...)}
}

// runAlgebra calls fn, which must only call into pkg/pbterm's constraint
// algebra (Normalize, Negate, Sum, ScalarProduct, CeilDiv, Saturate). An
// int64 overflow there surfaces as a panic (see pbterm.Recoverable); this
// turns it into ErrInternalInvariantViolation so a pathological proof aborts
// cleanly with exit code 5 (§7) instead of crashing the process.
func runAlgebra(fn func()) error {
	if err := pbterm.Recoverable(fn); err != nil {
		return internalInvariantViolationf("algebra: %v", err)
	}

	return nil
}
