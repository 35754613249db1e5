package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrInvalidInput indicates that input data failed validation checks
// (malformed terms, negative amounts, discount outside [0,100], ...).
var ErrInvalidInput = errors.New("invalid input")

// ErrInvalidState indicates an operation attempted on an instrument, round or
// exit that is in a terminal or otherwise wrong status.
var ErrInvalidState = errors.New("invalid state for operation")

// ErrInvariantViolation indicates a computed result would violate a data-model
// invariant (e.g. negative remaining shares). These are programmer/caller
// errors and are never retried.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrStaleSnapshot indicates the caller's expected cap table version no longer
// matches the stored one; the caller must re-read and retry with the current
// snapshot.
var ErrStaleSnapshot = errors.New("cap table snapshot version is stale")
