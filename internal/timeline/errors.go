package timeline

import "errors"

// Rejection reasons. Operations wrap one of these with context, and a
// rejected operation never changes controller state.
var (
	// ErrInvalidInput covers NaN/Inf times and ranges that are empty after normalizing
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange covers times that cannot be clamped into the asset, including
	// any positional operation before the duration is known
	ErrOutOfRange = errors.New("out of range")

	// ErrIllegalCommit is returned when committing a selection that is not ready
	ErrIllegalCommit = errors.New("illegal commit")

	// ErrStaleSelection marks a ready range dropped after a duration change.
	// It is logged, not returned.
	ErrStaleSelection = errors.New("stale selection")
)
