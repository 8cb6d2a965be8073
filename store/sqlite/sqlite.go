/*
Package sqlite provides the SQLite-backed reference store.

PURPOSE:
  Implements commission.ReferenceProvider using SQLite, and persists run
  summaries for operator review. In production the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  module_fees:     Canonical module name -> fee
  schedules:       Commission schemes (RSP, RTL, ENT, ...)
  schedule_tiers:  Ordered tiers per schedule, optional effective ranges
  runs:            Persisted summaries of completed calculation runs

SNAPSHOT SEMANTICS:
  The engine loads fees and schedules once at the start of a run and never
  mid-computation, so the store hands out fresh copies - callers can hold
  a snapshot for the run's duration without observing later edits.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WAL mode keeps readers from
  blocking each other.

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  store.Seed(ctx) // install default schemes into an empty database

SEE ALSO:
  - commission/provider.go: Interface definition
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

const dayLayout = "2006-01-02"

// Store implements commission.ReferenceProvider plus run persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS module_fees (
		module_name TEXT PRIMARY KEY,
		fee TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schedule_tiers (
		schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		label TEXT NOT NULL,
		threshold TEXT NOT NULL,
		percent TEXT NOT NULL,
		effective_from TEXT,
		effective_to TEXT,
		PRIMARY KEY (schedule_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_tiers_schedule
		ON schedule_tiers(schedule_id);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		quarter INTEGER NOT NULL,
		year_start INTEGER NOT NULL,
		schedule_id TEXT NOT NULL,
		withdrawal_policy TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		unmatched_count INTEGER NOT NULL,
		missing_fee_count INTEGER NOT NULL,
		total_payable TEXT NOT NULL,
		summaries_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Seed installs the built-in schemes when the schedules table is empty.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedules`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, schedule := range commission.DefaultSchedules() {
		if err := s.SaveSchedule(ctx, schedule); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// MODULE FEES
// =============================================================================

// LoadModuleFees returns the full module fee table.
func (s *Store) LoadModuleFees(ctx context.Context) (commission.ModuleFeeTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT module_name, fee FROM module_fees`)
	if err != nil {
		return nil, fmt.Errorf("failed to load module fees: %w", err)
	}
	defer rows.Close()

	fees := make(commission.ModuleFeeTable)
	for rows.Next() {
		var name, feeStr string
		if err := rows.Scan(&name, &feeStr); err != nil {
			return nil, err
		}
		fee, err := decimal.NewFromString(feeStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt fee for module %q: %w", name, err)
		}
		fees[name] = fee
	}
	return fees, rows.Err()
}

// ReplaceModuleFees atomically replaces the whole fee table.
func (s *Store) ReplaceModuleFees(ctx context.Context, fees commission.ModuleFeeTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_fees`); err != nil {
		return err
	}
	for name, fee := range fees {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO module_fees (module_name, fee) VALUES (?, ?)`,
			name, fee.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// SCHEDULES
// =============================================================================

// LoadSchedule returns the schedule with the given ID, tiers ordered by
// stored position (ascending threshold).
func (s *Store) LoadSchedule(ctx context.Context, scheduleID string) (*commission.CommissionSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule := &commission.CommissionSchedule{ID: scheduleID}
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM schedules WHERE id = ?`, scheduleID).Scan(&schedule.Name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", commission.ErrScheduleNotFound, scheduleID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, threshold, percent, effective_from, effective_to
		FROM schedule_tiers WHERE schedule_id = ? ORDER BY position`, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var label, thresholdStr, percentStr string
		var fromStr, toStr sql.NullString
		if err := rows.Scan(&label, &thresholdStr, &percentStr, &fromStr, &toStr); err != nil {
			return nil, err
		}
		threshold, err := decimal.NewFromString(thresholdStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt threshold in schedule %q: %w", scheduleID, err)
		}
		percent, err := decimal.NewFromString(percentStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt percent in schedule %q: %w", scheduleID, err)
		}
		tier := commission.CommissionTier{Label: label, Threshold: threshold, Percent: percent}
		if fromStr.Valid {
			from, err := time.Parse(dayLayout, fromStr.String)
			if err != nil {
				return nil, err
			}
			tier.EffectiveFrom = &from
		}
		if toStr.Valid {
			to, err := time.Parse(dayLayout, toStr.String)
			if err != nil {
				return nil, err
			}
			tier.EffectiveTo = &to
		}
		schedule.Tiers = append(schedule.Tiers, tier)
	}
	return schedule, rows.Err()
}

// SaveSchedule upserts a schedule and its tiers atomically. Tiers are
// stored in ascending threshold order so loads need no resort.
func (s *Store) SaveSchedule(ctx context.Context, schedule *commission.CommissionSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := &commission.CommissionSchedule{
		ID:    schedule.ID,
		Name:  schedule.Name,
		Tiers: append([]commission.CommissionTier(nil), schedule.Tiers...),
	}
	sorted.SortTiers()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO schedules (id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		sorted.ID, sorted.Name, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM schedule_tiers WHERE schedule_id = ?`, sorted.ID); err != nil {
		return err
	}
	for i, tier := range sorted.Tiers {
		var fromStr, toStr any
		if tier.EffectiveFrom != nil {
			fromStr = tier.EffectiveFrom.Format(dayLayout)
		}
		if tier.EffectiveTo != nil {
			toStr = tier.EffectiveTo.Format(dayLayout)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_tiers
				(schedule_id, position, label, threshold, percent, effective_from, effective_to)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sorted.ID, i, tier.Label, tier.Threshold.String(), tier.Percent.String(),
			fromStr, toStr); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListScheduleIDs returns every stored schedule ID with its name.
func (s *Store) ListScheduleIDs(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM schedules ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// =============================================================================
// RUN SUMMARIES
// =============================================================================

// RunRecord is a persisted summary of one completed calculation run.
type RunRecord struct {
	ID               string
	CreatedAt        time.Time
	Quarter          int
	YearStart        int
	ScheduleID       string
	WithdrawalPolicy string
	RowCount         int
	UnmatchedCount   int
	MissingFeeCount  int
	TotalPayable     decimal.Decimal
	Summaries        map[string]decimal.Decimal
}

// SaveRun persists a run summary.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make(map[string]string, len(rec.Summaries))
	for agent, total := range rec.Summaries {
		summaries[agent] = total.String()
	}
	summariesJSON, err := json.Marshal(summaries)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, quarter, year_start, schedule_id, withdrawal_policy,
			 row_count, unmatched_count, missing_fee_count, total_payable, summaries_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano), rec.Quarter, rec.YearStart,
		rec.ScheduleID, rec.WithdrawalPolicy, rec.RowCount, rec.UnmatchedCount,
		rec.MissingFeeCount, rec.TotalPayable.String(), string(summariesJSON))
	return err
}

// ListRuns returns the most recent run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, quarter, year_start, schedule_id, withdrawal_policy,
		       row_count, unmatched_count, missing_fee_count, total_payable, summaries_json
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr, totalStr, summariesJSON string
		if err := rows.Scan(&rec.ID, &createdStr, &rec.Quarter, &rec.YearStart,
			&rec.ScheduleID, &rec.WithdrawalPolicy, &rec.RowCount, &rec.UnmatchedCount,
			&rec.MissingFeeCount, &totalStr, &summariesJSON); err != nil {
			return nil, err
		}
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, err
		}
		rec.TotalPayable, err = decimal.NewFromString(totalStr)
		if err != nil {
			return nil, err
		}
		var summaries map[string]string
		if err := json.Unmarshal([]byte(summariesJSON), &summaries); err != nil {
			return nil, err
		}
		rec.Summaries = make(map[string]decimal.Decimal, len(summaries))
		for agent, totalText := range summaries {
			total, err := decimal.NewFromString(totalText)
			if err != nil {
				return nil, err
			}
			rec.Summaries[agent] = total
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
