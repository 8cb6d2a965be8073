/*
provider.go - Reference-table provider interface

PURPOSE:
  The engine is agnostic to where module fees and commission schedules
  live. Callers load an immutable snapshot through this interface at the
  start of a run; the engine itself performs no I/O mid-computation.

IMPLEMENTATIONS:
  - store/sqlite: production store, schema-migrated SQLite
  - store/memory: in-memory store for tests and demos
*/
package commission

import "context"

// ReferenceProvider loads the reference tables a run snapshots at start.
type ReferenceProvider interface {
	// LoadModuleFees returns the full module fee table.
	LoadModuleFees(ctx context.Context) (ModuleFeeTable, error)

	// LoadSchedule returns the schedule with the given ID, tiers sorted
	// ascending by threshold. Returns ErrScheduleNotFound when absent.
	LoadSchedule(ctx context.Context, scheduleID string) (*CommissionSchedule, error)
}
