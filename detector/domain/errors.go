package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a state transition is not allowed.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidPair is returned when a pair has an empty side or both sides are equal.
	ErrInvalidPair = errors.New("invalid pair")

	// ErrInvalidOrder is returned when a square is requested for an order below 2.
	ErrInvalidOrder = errors.New("invalid square order")

	// ErrConstructionFailed is returned when a built square does not satisfy
	// the adjacency coverage property.
	ErrConstructionFailed = errors.New("square construction failed")

	// ErrClassNotFound is returned when a class cannot be resolved by the
	// mutability oracle.
	ErrClassNotFound = errors.New("class not found")

	// ErrFieldNotFound is returned when a class does not declare the requested field.
	ErrFieldNotFound = errors.New("field not found")

	// ErrRunNotFound is returned when a run record doesn't exist.
	ErrRunNotFound = errors.New("run not found")
)
