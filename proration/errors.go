/*
errors.go - Centralized error types for the proration engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  The engine has no recoverable errors in normal operation: well-formed
  input always produces a complete result. Everything here describes
  malformed input caught by validation at the boundary.

ERROR CATEGORIES:
  1. Validation errors - Input invariant violations (bad dates, bad price)
  2. Lookup errors - References to members/items not in the snapshot

USAGE:
  Callers can test categories:

    if proration.IsValidation(err) {
        // 4xx, tell the client which field is wrong
    }

SEE ALSO:
  - member.go, item.go: Produce ValidationError during snapshot validation
  - engine.go: Produces lookup errors on unknown ids
*/
package proration

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMember is the category for member validation failures.
	ErrInvalidMember = errors.New("invalid member")

	// ErrInvalidItem is the category for item validation failures.
	ErrInvalidItem = errors.New("invalid item")

	// ErrDuplicateID is returned when two members or two items in one
	// snapshot share an id.
	ErrDuplicateID = errors.New("duplicate id in snapshot")

	// ErrMemberNotFound is returned when a calculation references a member
	// id that is not in the snapshot.
	ErrMemberNotFound = errors.New("member not found")

	// ErrItemNotFound is returned when a calculation references an item id
	// that is not in the snapshot.
	ErrItemNotFound = errors.New("item not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError identifies the entity, field, and invariant that failed
// during snapshot validation.
type ValidationError struct {
	Kind   string // "member" or "item"
	ID     string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s: %s", e.Kind, e.ID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case "member":
		return ErrInvalidMember
	case "item":
		return ErrInvalidItem
	default:
		return nil
	}
}

func memberError(id MemberID, field, reason string) *ValidationError {
	return &ValidationError{Kind: "member", ID: string(id), Field: field, Reason: reason}
}

func itemError(id ItemID, field, reason string) *ValidationError {
	return &ValidationError{Kind: "item", ID: string(id), Field: field, Reason: reason}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid snapshot input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidMember) ||
		errors.Is(err, ErrInvalidItem) ||
		errors.Is(err, ErrDuplicateID)
}

// IsNotFound returns true if the error indicates a missing member or item.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrItemNotFound)
}
