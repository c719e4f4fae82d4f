// Package shared holds cross-cutting domain primitives.
package shared

import "errors"

// Error taxonomy shared by all engine packages. Domain packages wrap these
// sentinels with structured error types carrying the attempted value and
// current state; the HTTP layer maps each class to a status code.
var (
	// ErrNotFound indicates an unknown id reference (contact, document,
	// transaction).
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input: a missing required field or an
	// out-of-range numeric.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a duplicate code/number or a stale document
	// version.
	ErrConflict = errors.New("conflict")
	// ErrBusinessRule indicates a well-formed request the engine must refuse:
	// amount exceeds due/remaining credit, non-approved source for a payment,
	// allocation or conversion.
	ErrBusinessRule = errors.New("business rule violation")
)
