/*
payout.go - Run orchestration and payable-commission calculation

PURPOSE:
  A Run owns one complete reconciliation: immutable snapshots of the
  reference tables, its own aggregation cache, and no ambient state.
  Concurrent invocations of the engine each construct their own Run and
  can never observe another run's intermediates.

PER-ROW CALCULATION:
  (closedWon, withdrawn) = aggregator(salesperson, closedWonDate)
  net     = closedWon - withdrawn
  percent = schedule.ResolvePercent(net, closedWonDate)
  payable = fee * percent / 100

OUTPUT:
  Enriched rows, salesperson-level payable summaries, the missing-fee and
  unmatched side collections, and drop counts. Aggregation results are
  reused across rows, never recomputed destructively.
*/
package commission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/engine"
)

var oneHundred = decimal.NewFromInt(100)

// =============================================================================
// RUN CONFIGURATION
// =============================================================================

// RunConfig is the immutable reference snapshot for one run. Schedule and
// Fees are loaded once, before the run starts, and never reloaded
// mid-computation.
type RunConfig struct {
	Window     engine.Window
	Schedule   *CommissionSchedule
	Fees       ModuleFeeTable
	Withdrawal WithdrawalPolicy
}

// Run executes one reconciliation over one (completions, sales) pair.
type Run struct {
	cfg RunConfig
}

// NewRun validates the reference snapshot. A missing schedule or fee table
// is the one terminal failure class: partial results are never produced
// for it.
func NewRun(cfg RunConfig) (*Run, error) {
	if cfg.Schedule == nil {
		return nil, ErrScheduleRequired
	}
	if cfg.Fees == nil {
		return nil, ErrFeeTableRequired
	}
	if cfg.Withdrawal == "" {
		cfg.Withdrawal = WithdrawNonSOC
	}
	return &Run{cfg: cfg}, nil
}

// =============================================================================
// RESULT SHAPES
// =============================================================================

// EnrichedRecord is a completion augmented with everything resolved during
// the run. This is the engine's primary output row.
type EnrichedRecord struct {
	Identity       string
	StudentName    string
	ModuleName     string
	CompletionDate time.Time

	ClosedWonDate time.Time
	Salesperson   string

	ModuleFee         decimal.Decimal
	ClosedWonSales    decimal.Decimal // salesperson total for the CW month
	WithdrawnSales    decimal.Decimal // invalidated portion of that total
	NetSales          decimal.Decimal
	CommissionPercent decimal.Decimal // 0-100
	PayableCommission decimal.Decimal // fee * percent / 100
}

// RunResult is everything a run produces.
type RunResult struct {
	Rows []EnrichedRecord

	// Summaries maps salesperson to total payable commission.
	Summaries map[string]decimal.Decimal

	// MissingFeeModules lists module names that defaulted to fee 0.
	MissingFeeModules []string

	// Unmatched holds eligible completions with no sale record.
	Unmatched []CompletionRecord

	// ExcludedCompletions counts rows dropped by the status/window filter.
	ExcludedCompletions int

	// DeduplicatedSales counts sales records removed by deduplication.
	DeduplicatedSales int
}

// TotalPayable sums payable commission across all rows.
func (r *RunResult) TotalPayable() decimal.Decimal {
	total := decimal.Zero
	for _, row := range r.Rows {
		total = total.Add(row.PayableCommission)
	}
	return total
}

// =============================================================================
// COMPUTATION
// =============================================================================

// Compute executes the pipeline: deduplicate sales, reconcile, then price
// each payable candidate through the aggregator and the schedule resolver.
// The input slices are treated as immutable.
func (r *Run) Compute(completions []CompletionRecord, sales []SalesRecord) (*RunResult, error) {
	deduped := Deduplicate(sales)

	// The aggregator sees the FULL completion batch: withdrawn-status rows
	// outside the payable window still invalidate their sales.
	agg := NewMonthlyAggregator(deduped, completions, r.cfg.Withdrawal)

	rec := Reconcile(completions, deduped, r.cfg.Fees, r.cfg.Window)

	result := &RunResult{
		Rows:                make([]EnrichedRecord, 0, len(rec.Matched)),
		Summaries:           make(map[string]decimal.Decimal),
		MissingFeeModules:   rec.MissingFeeModules,
		Unmatched:           rec.Unmatched,
		ExcludedCompletions: rec.Excluded,
		DeduplicatedSales:   len(sales) - len(deduped),
	}

	for _, m := range rec.Matched {
		months := agg.MonthSales(m.Sale.AgentName, m.Sale.ClosedDate)
		net := months.Net()
		percent := r.cfg.Schedule.ResolvePercent(net, m.Sale.ClosedDate)
		payable := m.Fee.Mul(percent).Div(oneHundred)

		result.Rows = append(result.Rows, EnrichedRecord{
			Identity:          m.Completion.Identity,
			StudentName:       m.Completion.StudentName,
			ModuleName:        m.Completion.ModuleName,
			CompletionDate:    m.Completion.CompletionDate,
			ClosedWonDate:     m.Sale.ClosedDate,
			Salesperson:       m.Sale.AgentName,
			ModuleFee:         m.Fee,
			ClosedWonSales:    months.ClosedWon,
			WithdrawnSales:    months.Withdrawn,
			NetSales:          net,
			CommissionPercent: percent,
			PayableCommission: payable,
		})

		prev, ok := result.Summaries[m.Sale.AgentName]
		if !ok {
			prev = decimal.Zero
		}
		result.Summaries[m.Sale.AgentName] = prev.Add(payable)
	}

	return result, nil
}
