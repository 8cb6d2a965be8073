/*
errors.go - Centralized error types for the commission engine

PURPOSE:
  The engine recovers everything recoverable locally: bad cells become
  nulls, unmatched rows land in side collections. What remains here are
  the terminal failures - reference data that is absent or structurally
  unreadable - for which the whole run fails without partial results.
*/
package commission

import "errors"

var (
	// ErrScheduleRequired is returned when a run is constructed without a
	// commission schedule.
	ErrScheduleRequired = errors.New("commission schedule required")

	// ErrFeeTableRequired is returned when a run is constructed without a
	// module fee table.
	ErrFeeTableRequired = errors.New("module fee table required")

	// ErrScheduleNotFound is returned by reference providers when the
	// requested schedule ID does not exist.
	ErrScheduleNotFound = errors.New("schedule not found")
)
