/*
errors.go - Centralized error types for the tabular engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine recovers row- and cell-level problems locally (null Values,
  dropped rows); the errors here cover the structural failures that must
  terminate a run.

ERROR CATEGORIES:
  1. Batch structure errors - a required column is absent entirely
  2. Window errors - an unknown quarter selection

USAGE:
  Callers match with errors.Is / errors.As:

    var missing *engine.MissingColumnError
    if errors.As(err, &missing) {
        // report missing.Column to the operator
    }
*/
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMissingColumn is returned when a batch lacks a column its schema
	// declares. The batch is structurally unreadable, not merely dirty.
	ErrMissingColumn = errors.New("required column missing")

	// ErrInvalidQuarter is returned for a quarter selection outside 1-4.
	ErrInvalidQuarter = errors.New("invalid quarter")

	// ErrEmptyBatch is returned when a batch carries no rows at all.
	ErrEmptyBatch = errors.New("batch contains no rows")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// MissingColumnError reports which column was absent and what was found,
// so the operator can spot a renamed or misaligned header.
type MissingColumnError struct {
	Column string
	Found  []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q missing; found columns: %s",
		e.Column, strings.Join(e.Found, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
