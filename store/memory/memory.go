// Package memory provides an in-memory ReferenceProvider for tests and demos.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

// =============================================================================
// MEMORY STORE - In-memory reference provider (for testing/dev)
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	fees      commission.ModuleFeeTable
	schedules map[string]*commission.CommissionSchedule
}

func New() *Store {
	return &Store{
		fees:      make(commission.ModuleFeeTable),
		schedules: make(map[string]*commission.CommissionSchedule),
	}
}

// SetModuleFee sets one fee entry.
func (m *Store) SetModuleFee(moduleName string, fee decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fees[moduleName] = fee
}

// SetSchedule installs a schedule, sorting its tiers.
func (m *Store) SetSchedule(schedule *commission.CommissionSchedule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := &commission.CommissionSchedule{
		ID:    schedule.ID,
		Name:  schedule.Name,
		Tiers: append([]commission.CommissionTier(nil), schedule.Tiers...),
	}
	copied.SortTiers()
	m.schedules[copied.ID] = copied
}

// LoadModuleFees returns a copy of the fee table.
func (m *Store) LoadModuleFees(_ context.Context) (commission.ModuleFeeTable, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fees := make(commission.ModuleFeeTable, len(m.fees))
	for name, fee := range m.fees {
		fees[name] = fee
	}
	return fees, nil
}

// LoadSchedule returns a copy of the schedule with the given ID.
func (m *Store) LoadSchedule(_ context.Context, scheduleID string) (*commission.CommissionSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	schedule, ok := m.schedules[scheduleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", commission.ErrScheduleNotFound, scheduleID)
	}
	return &commission.CommissionSchedule{
		ID:    schedule.ID,
		Name:  schedule.Name,
		Tiers: append([]commission.CommissionTier(nil), schedule.Tiers...),
	}, nil
}

var _ commission.ReferenceProvider = (*Store)(nil)
