// Package errs provides standardized error types for the coordinator.
// It implements a consistent pattern for error creation, formatting, and
// unwrapping used throughout the application.
//
// Each error type follows the same shape:
//   - A sentinel error variable (e.g. ErrValueIsRequired)
//   - A struct type carrying the error details
//   - Constructor functions with and without a cause
//   - Error() for formatting and Unwrap() for errors.Is classification
//
// The lifecycle-specific taxonomy (InvalidTransition, StaleEvent, the
// Duplicate* family, AssignmentExhausted and the timeout errors) lives next
// to the code that produces it; this package only carries the generic
// validation and lookup errors shared by every layer.
package errs
