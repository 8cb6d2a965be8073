/*
schedule.go - Tiered, date-effective commission schedules

PURPOSE:
  A commission schedule is an ordered list of tiers mapping a sales-volume
  threshold to a payable percentage, optionally bounded by effective-date
  ranges. The resolver answers: given a salesperson's net monthly sales
  and a reference date, what percentage applies?

RESOLUTION:
  1. If tiers carry effective ranges, restrict to tiers whose range
     contains the reference date; if none match, the percent is 0.
  2. Scan eligible tiers in ascending threshold order, keeping the percent
     of every tier whose threshold does not exceed the net sales. The last
     qualifying tier wins, i.e. the highest threshold not exceeding the
     total.

  A floor tier (threshold 0, percent 0) is conventional; without one, net
  sales below every threshold still resolve to 0 through initialization.

MALFORMED SCHEDULES:
  Non-monotonic thresholds or overlapping effective ranges are the
  schedule author's responsibility. The resolver never raises on such
  data - it deterministically returns whatever the scan produces.
*/
package commission

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIERS AND SCHEDULES
// =============================================================================

// CommissionTier maps a sales-volume threshold to a payable percentage on
// the 0-100 scale, optionally restricted to an effective-date range.
type CommissionTier struct {
	Label     string
	Threshold decimal.Decimal // sales order required to reach this tier
	Percent   decimal.Decimal // percent of commission payable, 0-100

	// Optional validity bounds, inclusive. Nil means unbounded.
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
}

// EffectiveAt reports whether the tier is valid at the given date.
func (t CommissionTier) EffectiveAt(asOf time.Time) bool {
	if t.EffectiveFrom != nil && asOf.Before(*t.EffectiveFrom) {
		return false
	}
	if t.EffectiveTo != nil && asOf.After(*t.EffectiveTo) {
		return false
	}
	return true
}

// CommissionSchedule is a named, ordered tier list. IDs follow the scheme
// codes of the reference store ("RSP", "RTL", "ENT").
type CommissionSchedule struct {
	ID    string
	Name  string
	Tiers []CommissionTier
}

// SortTiers orders tiers ascending by threshold in place. The resolver
// relies on this order; builders call it after assembling tiers from
// unordered sources.
func (s *CommissionSchedule) SortTiers() {
	sort.SliceStable(s.Tiers, func(i, j int) bool {
		return s.Tiers[i].Threshold.LessThan(s.Tiers[j].Threshold)
	})
}

// =============================================================================
// RESOLUTION
// =============================================================================

// ResolvePercent returns the payable percentage (0-100) for the given net
// sales total as of the reference date. Ties between equal thresholds go
// to the later tier, since the last qualifying tier in scan order wins.
func (s *CommissionSchedule) ResolvePercent(netSales decimal.Decimal, asOf time.Time) decimal.Decimal {
	percent := decimal.Zero
	for _, tier := range s.Tiers {
		if !tier.EffectiveAt(asOf) {
			continue
		}
		if netSales.GreaterThanOrEqual(tier.Threshold) {
			percent = tier.Percent
		}
	}
	return percent
}
