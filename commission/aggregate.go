/*
aggregate.go - Memoized monthly sales totals per salesperson

PURPOSE:
  A salesperson's commission tier depends on their NET sales volume for
  the month a sale closed: closed-won total minus withdrawn total. Many
  completion rows share the same (salesperson, month, year), so the naive
  per-row recomputation dominates the cost of a run. The aggregator scans
  once per distinct key and memoizes the tuple.

WITHDRAWN SALES:
  A sale is withdrawn when its identity appears among completion records
  whose withdrawal status the active withdrawal policy treats as
  invalidating. Which sub-categories invalidate differs between business
  variants, so both readings are preserved as explicit named policies
  rather than collapsed into one.

CACHE:
  Entries are write-once per (salesperson, month, year) key and scoped to
  a single run. Repeated lookups return the cached tuple without
  rescanning, making aggregate cost O(distinct salesperson-months)
  instead of O(completion rows).
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WITHDRAWAL POLICIES
// =============================================================================

// WithdrawalPolicy names which withdrawal sub-categories invalidate a sale
// for commission purposes.
type WithdrawalPolicy string

const (
	// WithdrawNonSOC invalidates only withdrawals without effect:
	// WITHDRAWN_NON_SOC and WITHDRAWN_NON_SOC_ATTRITION. SOC withdrawals
	// remain commissionable. This is the default reading.
	WithdrawNonSOC WithdrawalPolicy = "non_soc"

	// WithdrawAll additionally invalidates WITHDRAWN_SOC.
	WithdrawAll WithdrawalPolicy = "all"
)

// Invalidates reports whether the status voids the linked sale under this
// policy.
func (p WithdrawalPolicy) Invalidates(s EnrollmentStatus) bool {
	switch s {
	case StatusWithdrawnNonSOC, StatusWithdrawnNonSOCAttrition:
		return true
	case StatusWithdrawnSOC:
		return p == WithdrawAll
	}
	return false
}

// ParseWithdrawalPolicy maps a wire string to a policy, defaulting to
// WithdrawNonSOC for the empty string.
func ParseWithdrawalPolicy(s string) (WithdrawalPolicy, bool) {
	switch WithdrawalPolicy(s) {
	case "":
		return WithdrawNonSOC, true
	case WithdrawNonSOC:
		return WithdrawNonSOC, true
	case WithdrawAll:
		return WithdrawAll, true
	}
	return "", false
}

// =============================================================================
// MONTHLY AGGREGATOR
// =============================================================================

// MonthSales is the memoized tuple for one (salesperson, month, year).
// Net must never be read before both components are computed; the
// aggregator only ever exposes fully-populated tuples.
type MonthSales struct {
	ClosedWon decimal.Decimal
	Withdrawn decimal.Decimal
}

// Net returns closed-won minus withdrawn sales.
func (m MonthSales) Net() decimal.Decimal {
	return m.ClosedWon.Sub(m.Withdrawn)
}

type monthKey struct {
	agent string
	month time.Month
	year  int
}

// MonthlyAggregator computes and caches monthly sales totals over an
// immutable snapshot of the run's deduplicated sales records. It is scoped
// to one run and must not be shared across runs.
type MonthlyAggregator struct {
	sales       []SalesRecord
	invalidated map[string]bool // identities voided under the policy
	cache       map[monthKey]MonthSales
	scans       int
}

// NewMonthlyAggregator snapshots the deduplicated sales batch and the
// identities invalidated by withdrawal-status completions under the given
// policy. The completions slice is the FULL batch, not a window-filtered
// view: withdrawals outside the reporting window still void their sales.
func NewMonthlyAggregator(sales []SalesRecord, completions []CompletionRecord, policy WithdrawalPolicy) *MonthlyAggregator {
	invalidated := make(map[string]bool)
	for _, c := range completions {
		if policy.Invalidates(c.Status) {
			invalidated[c.Identity] = true
		}
	}
	return &MonthlyAggregator{
		sales:       sales,
		invalidated: invalidated,
		cache:       make(map[monthKey]MonthSales),
	}
}

// MonthSales returns the closed-won and withdrawn totals for the
// salesperson in the month of the reference date, scanning the sales
// snapshot at most once per distinct key.
func (a *MonthlyAggregator) MonthSales(salesperson string, ref time.Time) MonthSales {
	key := monthKey{agent: salesperson, month: ref.Month(), year: ref.Year()}
	if cached, ok := a.cache[key]; ok {
		return cached
	}

	a.scans++
	totals := MonthSales{ClosedWon: decimal.Zero, Withdrawn: decimal.Zero}
	for _, s := range a.sales {
		if s.AgentName != salesperson {
			continue
		}
		if s.ClosedDate.Month() != key.month || s.ClosedDate.Year() != key.year {
			continue
		}
		totals.ClosedWon = totals.ClosedWon.Add(s.Amount)
		if a.invalidated[s.Identity] {
			totals.Withdrawn = totals.Withdrawn.Add(s.Amount)
		}
	}

	a.cache[key] = totals
	return totals
}

// Scans returns how many underlying scans have run. Exposed for
// memoization verification.
func (a *MonthlyAggregator) Scans() int { return a.scans }
