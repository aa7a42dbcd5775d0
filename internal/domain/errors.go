package domain

import "errors"

// Sentinel errors for the service. Callers classify failures with errors.Is;
// the API layer maps them to HTTP status codes.
var (
	// ErrInvalidInput indicates a caller-supplied value failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownEntity indicates a referenced supplier, buyer, rule, or
	// record does not exist.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrComputation indicates an internal scoring or aggregation failure.
	ErrComputation = errors.New("computation failed")
)
