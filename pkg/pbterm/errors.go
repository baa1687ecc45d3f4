package pbterm

import "errors"

// ErrCoefficientOverflow is returned (via Recoverable) when a constraint
// algebra operation would overflow int64. Treated by pkg/proof as an
// InternalInvariantViolation.
var ErrCoefficientOverflow = errors.New("pbterm: coefficient or rhs overflowed int64")
