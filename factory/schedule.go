/*
Package factory provides JSON and table conversion for commission schedules.

PURPOSE:
  Converts externally-authored schedule definitions into
  commission.CommissionSchedule values. Schedules reach the engine two
  ways: as JSON through the admin API, and as normalized tier tables
  when operators author schemes as CSV reference files.

WHY JSON?
  - Non-developers can modify schemes
  - Easy integration with the admin UI
  - Database storage of scheme configs

JSON SCHEMA:
  {
    "id": "RSP",
    "name": "Retail - Salespersons",
    "tiers": [
      {"label": "Base",   "sales_order_required": 0,    "percent_payable": 0},
      {"label": "Tier 1", "sales_order_required": 1000, "percent_payable": 5,
       "effective_from": "2025-07-01", "effective_to": "2026-06-30"}
    ]
  }

TABLE INPUT:
  Scheme CSVs carry the columns Tier, Sales Order Required, and
  % of Commission Payable. The percent column may be authored as a
  fraction (0.05), a percentage (5), or %-glyph text ("5%"); FromTable
  folds all three onto the 0-100 scale.

SEE ALSO:
  - commission/schedule.go: Schedule and tier definitions
  - commission/schemes.go: Go-based preset schemes
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a commission schedule.
type ScheduleJSON struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Tiers []TierJSON `json:"tiers"`
}

// TierJSON is the JSON representation of one tier. Percent is on the
// 0-100 scale; effective dates are ISO days and optional.
type TierJSON struct {
	Label              string  `json:"label"`
	SalesOrderRequired float64 `json:"sales_order_required"`
	PercentPayable     float64 `json:"percent_payable"`
	EffectiveFrom      string  `json:"effective_from,omitempty"`
	EffectiveTo        string  `json:"effective_to,omitempty"`
}

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts external schedule definitions to domain values.
type ScheduleFactory struct{}

// NewScheduleFactory creates a new schedule factory.
func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{}
}

// ParseSchedule parses a JSON string into a CommissionSchedule.
func (f *ScheduleFactory) ParseSchedule(jsonStr string) (*commission.CommissionSchedule, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// FromJSON converts a ScheduleJSON to a CommissionSchedule with tiers
// sorted ascending by threshold.
func (f *ScheduleFactory) FromJSON(sj ScheduleJSON) (*commission.CommissionSchedule, error) {
	if sj.ID == "" {
		return nil, fmt.Errorf("schedule id is required")
	}

	schedule := &commission.CommissionSchedule{
		ID:    sj.ID,
		Name:  sj.Name,
		Tiers: make([]commission.CommissionTier, 0, len(sj.Tiers)),
	}

	for i, tj := range sj.Tiers {
		tier := commission.CommissionTier{
			Label:     tj.Label,
			Threshold: decimal.NewFromFloat(tj.SalesOrderRequired),
			Percent:   decimal.NewFromFloat(tj.PercentPayable),
		}
		if tj.EffectiveFrom != "" {
			from, err := time.Parse("2006-01-02", tj.EffectiveFrom)
			if err != nil {
				return nil, fmt.Errorf("tier %d: invalid effective_from %q: %w", i, tj.EffectiveFrom, err)
			}
			tier.EffectiveFrom = &from
		}
		if tj.EffectiveTo != "" {
			to, err := time.Parse("2006-01-02", tj.EffectiveTo)
			if err != nil {
				return nil, fmt.Errorf("tier %d: invalid effective_to %q: %w", i, tj.EffectiveTo, err)
			}
			tier.EffectiveTo = &to
		}
		schedule.Tiers = append(schedule.Tiers, tier)
	}

	schedule.SortTiers()
	return schedule, nil
}

// ToJSON converts a CommissionSchedule back to its JSON representation.
func (f *ScheduleFactory) ToJSON(s *commission.CommissionSchedule) ScheduleJSON {
	sj := ScheduleJSON{
		ID:    s.ID,
		Name:  s.Name,
		Tiers: make([]TierJSON, 0, len(s.Tiers)),
	}
	for _, t := range s.Tiers {
		threshold, _ := t.Threshold.Float64()
		percent, _ := t.Percent.Float64()
		tj := TierJSON{
			Label:              t.Label,
			SalesOrderRequired: threshold,
			PercentPayable:     percent,
		}
		if t.EffectiveFrom != nil {
			tj.EffectiveFrom = t.EffectiveFrom.Format("2006-01-02")
		}
		if t.EffectiveTo != nil {
			tj.EffectiveTo = t.EffectiveTo.Format("2006-01-02")
		}
		sj.Tiers = append(sj.Tiers, tj)
	}
	return sj
}

// =============================================================================
// TABLE INPUT - CSV-authored schemes
// =============================================================================

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// FromTable builds a schedule from a normalized scheme table (columns per
// commission.SchemeSchema). Rows with unparsable thresholds or percents
// are skipped. Percent cells normalized to fractions (< 1) are lifted to
// the 0-100 scale; values of 1 and above are taken as already-percent.
func (f *ScheduleFactory) FromTable(id, name string, t engine.Table) *commission.CommissionSchedule {
	schedule := &commission.CommissionSchedule{ID: id, Name: name}

	for _, row := range t.Rows {
		threshold := row[commission.ColSalesOrderNeeded]
		percent := row[commission.ColPercentPayable]
		if !threshold.Valid || !percent.Valid {
			continue
		}
		p := percent.Num
		if p.LessThan(one) {
			p = p.Mul(hundred)
		}
		schedule.Tiers = append(schedule.Tiers, commission.CommissionTier{
			Label:     row[commission.ColTier].Str,
			Threshold: threshold.Num,
			Percent:   p,
		})
	}

	schedule.SortTiers()
	return schedule
}
