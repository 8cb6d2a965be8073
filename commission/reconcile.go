/*
reconcile.go - Matching completions to sales and fees

PURPOSE:
  Left-joins the window's passed completion records to the deduplicated
  sales batch by identity, and to the module fee table by module name.
  Produces the payable candidate set plus the side collections the
  operator reviews: completions with no matching sale, and module names
  with no fee entry.

JOIN GUARANTEES:
  After deduplication, at most one sale exists per (identity, course
  equivalence class), so each completion normally attaches one sale. If
  the raw data still violates uniqueness the join fans out - one payable
  candidate per matching sale - rather than silently picking a winner.

SIDE COLLECTIONS:
  Nothing recoverable is an error. Rows outside the window or without a
  PASSED status are counted; unmatched completions and missing-fee module
  names are retained for operator follow-up.
*/
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// RESULT SHAPES
// =============================================================================

// MatchedCompletion is one payable candidate: a completion with its
// attached sale and resolved module fee.
type MatchedCompletion struct {
	Completion CompletionRecord
	Sale       SalesRecord
	Fee        decimal.Decimal
	FeeMissing bool // fee defaulted to 0 because the module has no entry
}

// ReconcileResult carries the payable candidates and every side
// collection of the join.
type ReconcileResult struct {
	Matched []MatchedCompletion

	// Unmatched holds eligible completions with no sale for their
	// identity. They never reach payable results or summaries.
	Unmatched []CompletionRecord

	// MissingFeeModules lists module names absent from the fee table,
	// each exactly once, in first-occurrence order.
	MissingFeeModules []string

	// Excluded counts completions dropped by the status/window filter.
	Excluded int
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconcile filters completions to PASSED rows whose completion date lies
// inside the window, then attaches module fees and sales. The sales slice
// must already be deduplicated.
func Reconcile(completions []CompletionRecord, sales []SalesRecord, fees ModuleFeeTable, window engine.Window) ReconcileResult {
	salesByIdentity := make(map[string][]SalesRecord, len(sales))
	for _, s := range sales {
		salesByIdentity[s.Identity] = append(salesByIdentity[s.Identity], s)
	}

	result := ReconcileResult{}
	missingSeen := make(map[string]bool)

	for _, c := range completions {
		if c.Status != StatusPassed || !c.HasCompletionDate() || !window.Contains(c.CompletionDate) {
			result.Excluded++
			continue
		}

		fee, feeOK := fees[c.ModuleName]
		if !feeOK {
			fee = decimal.Zero
			if !missingSeen[c.ModuleName] {
				missingSeen[c.ModuleName] = true
				result.MissingFeeModules = append(result.MissingFeeModules, c.ModuleName)
			}
		}

		matches := salesByIdentity[c.Identity]
		if len(matches) == 0 {
			result.Unmatched = append(result.Unmatched, c)
			continue
		}
		for _, sale := range matches {
			result.Matched = append(result.Matched, MatchedCompletion{
				Completion: c,
				Sale:       sale,
				Fee:        fee,
				FeeMissing: !feeOK,
			})
		}
	}

	return result
}
