/*
errors.go - Centralized error taxonomy for the inventory engine

PURPOSE:
  All error kinds in one place so every caller - HTTP handlers included - can
  discriminate failures with errors.Is instead of matching message strings.

ERROR CATEGORIES:
  1. Lookup errors      - referenced entity absent
  2. Filter errors      - malformed date/identifier in a query
  3. Workflow errors    - state machine rule violations
  4. Authorization      - actor lacks the required role or base scope
  5. Concurrency        - a compare-and-set transition lost the race
  6. Validation         - missing or out-of-range fields

PROPAGATION RULES:
  Validation and not-found errors are detected at the operation boundary
  before any mutation. Workflow errors come out of the transition guard with
  no partial effect. An audit write failure aborts the whole transaction.

USAGE:
  if errors.Is(err, inventory.ErrInvalidStateTransition) {
      // surface as 409 to the client
  }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidFilter is returned when a query filter carries a malformed
	// date or identifier.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidStateTransition is returned when a workflow transition is not
	// legal from the entity's current state, including applying the same
	// transition twice.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrUnauthorized is returned when the acting user lacks the role or base
	// scope required by the operation.
	ErrUnauthorized = errors.New("actor not authorized")

	// ErrConflict is returned when a concurrent transition won the
	// compare-and-set race.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrValidation is returned for missing or out-of-range request fields.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context, unwrap to sentinels
// =============================================================================

// NotFoundError identifies which entity was missing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// FilterError identifies the malformed filter field.
type FilterError struct {
	Field string
	Value string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %s: %q", e.Field, e.Value)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }

// StateTransitionError describes an illegal workflow transition.
type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnauthorizedError describes a failed role/base scope check.
type UnauthorizedError struct {
	Actor    UserID
	Required string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s not authorized: requires %s", e.Actor, e.Required)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is caused by invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidFilter) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrConflict)
}

// IsRetryable reports whether the operation might succeed if replayed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}
