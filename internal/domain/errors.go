package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound = errors.New("not found")

	// Precondition errors — reported before any upstream call is made.
	ErrNoReviewer = errors.New("reviewer identity is required before deciding")
	ErrNoAccount  = errors.New("customer activation has no account identifier")

	ErrInvalidDecision = errors.New("decision must be approve or reject")
	ErrUnknownKind     = errors.New("unknown record kind")
)
