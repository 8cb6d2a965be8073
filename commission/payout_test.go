package commission_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
)

func newRun(t *testing.T, fees commission.ModuleFeeTable) *commission.Run {
	t.Helper()
	run, err := commission.NewRun(commission.RunConfig{
		Window:   q1Window(t),
		Schedule: threeTierSchedule(),
		Fees:     fees,
	})
	if err != nil {
		t.Fatal(err)
	}
	return run
}

func TestNewRun_RequiresReferenceData(t *testing.T) {
	_, err := commission.NewRun(commission.RunConfig{Fees: commission.ModuleFeeTable{}})
	if !errors.Is(err, commission.ErrScheduleRequired) {
		t.Errorf("missing schedule: got %v", err)
	}

	_, err = commission.NewRun(commission.RunConfig{Schedule: threeTierSchedule()})
	if !errors.Is(err, commission.ErrFeeTableRequired) {
		t.Errorf("missing fee table: got %v", err)
	}
}

func TestCompute_EndToEndPayable(t *testing.T) {
	// GIVEN: a student who passed a 2000-fee module, sold by Bob in a
	//        6000-amount opportunity, with no withdrawals
	// WHEN: the run executes against the 0/1000:5/5000:10 schedule
	// THEN: net sales 6000 resolves 10% and payable is 200
	run := newRun(t, commission.ModuleFeeTable{"PYTHON": dec(2000)})

	completions := []commission.CompletionRecord{
		passed("S1", "PYTHON", date(2025, time.August, 1)),
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", ClosedDate: date(2025, time.July, 1), Amount: dec(6000)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if !row.NetSales.Equal(dec(6000)) {
		t.Errorf("NetSales = %s, want 6000", row.NetSales)
	}
	if !row.CommissionPercent.Equal(dec(10)) {
		t.Errorf("CommissionPercent = %s, want 10", row.CommissionPercent)
	}
	if !row.PayableCommission.Equal(dec(200)) {
		t.Errorf("PayableCommission = %s, want 200", row.PayableCommission)
	}
	if got := result.Summaries["BOB"]; !got.Equal(dec(200)) {
		t.Errorf("Summaries[BOB] = %s, want 200", got)
	}
	if !result.TotalPayable().Equal(dec(200)) {
		t.Errorf("TotalPayable = %s, want 200", result.TotalPayable())
	}
}

func TestCompute_WithdrawalsLowerTheTier(t *testing.T) {
	// Bob closed 8000 in July but 3000 of it withdrew; net 5000 still
	// reaches the 10% tier, net 4999 would not.
	run := newRun(t, commission.ModuleFeeTable{"PYTHON": dec(2000)})

	completions := []commission.CompletionRecord{
		passed("S1", "PYTHON", date(2025, time.August, 1)),
		{
			Identity: "S2", ModuleName: "DATA SCIENCE",
			Status:         commission.StatusWithdrawnNonSOC,
			CompletionDate: date(2025, time.August, 5),
		},
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", ClosedDate: date(2025, time.July, 1), Amount: dec(5000)},
		{Identity: "S2", AgentName: "BOB", ClosedDate: date(2025, time.July, 10), Amount: dec(3000)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1 (the withdrawn completion is not payable)", len(result.Rows))
	}
	row := result.Rows[0]
	if !row.ClosedWonSales.Equal(dec(8000)) || !row.WithdrawnSales.Equal(dec(3000)) {
		t.Errorf("month totals = (%s, %s), want (8000, 3000)", row.ClosedWonSales, row.WithdrawnSales)
	}
	if !row.NetSales.Equal(dec(5000)) {
		t.Errorf("NetSales = %s, want 5000", row.NetSales)
	}
	if !row.CommissionPercent.Equal(dec(10)) {
		t.Errorf("CommissionPercent = %s, want 10", row.CommissionPercent)
	}
}

func TestCompute_OutOfWindowWithdrawalStillInvalidates(t *testing.T) {
	// The withdrawal completion predates the reporting window; its sale is
	// still voided for net-sales purposes.
	run := newRun(t, commission.ModuleFeeTable{"PYTHON": dec(2000)})

	completions := []commission.CompletionRecord{
		passed("S1", "PYTHON", date(2025, time.August, 1)),
		{
			Identity: "S2", ModuleName: "DATA SCIENCE",
			Status:         commission.StatusWithdrawnNonSOC,
			CompletionDate: date(2025, time.March, 1), // before Q1
		},
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", ClosedDate: date(2025, time.July, 1), Amount: dec(1000)},
		{Identity: "S2", AgentName: "BOB", ClosedDate: date(2025, time.July, 10), Amount: dec(4000)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	row := result.Rows[0]
	if !row.NetSales.Equal(dec(1000)) {
		t.Errorf("NetSales = %s, want 1000 (4000 withdrawn)", row.NetSales)
	}
	if !row.CommissionPercent.Equal(dec(5)) {
		t.Errorf("CommissionPercent = %s, want 5", row.CommissionPercent)
	}
}

func TestCompute_MissingFeePaysZeroButReportsModule(t *testing.T) {
	run := newRun(t, commission.ModuleFeeTable{})

	completions := []commission.CompletionRecord{
		passed("S1", "UNPRICED MODULE", date(2025, time.August, 1)),
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", ClosedDate: date(2025, time.July, 1), Amount: dec(6000)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(result.Rows))
	}
	if !result.Rows[0].PayableCommission.IsZero() {
		t.Errorf("PayableCommission = %s, want 0", result.Rows[0].PayableCommission)
	}
	if len(result.MissingFeeModules) != 1 || result.MissingFeeModules[0] != "UNPRICED MODULE" {
		t.Errorf("MissingFeeModules = %v", result.MissingFeeModules)
	}
}

func TestCompute_DeduplicationFeedsTheCount(t *testing.T) {
	run := newRun(t, commission.ModuleFeeTable{"PYTHON": dec(2000)})

	completions := []commission.CompletionRecord{
		passed("S1", "PYTHON", date(2025, time.August, 1)),
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", CourseName: "INTRO TO PYTHON",
			ClosedDate: date(2025, time.July, 1), Amount: dec(6000)},
		{Identity: "S1", AgentName: "BOB", CourseName: "PYTHON",
			ClosedDate: date(2025, time.July, 3), Amount: dec(6000)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	if result.DeduplicatedSales != 1 {
		t.Errorf("DeduplicatedSales = %d, want 1", result.DeduplicatedSales)
	}
	// Only the surviving sale funds the completion.
	if len(result.Rows) != 1 {
		t.Errorf("Rows = %d, want 1", len(result.Rows))
	}
	if !result.Rows[0].NetSales.Equal(dec(6000)) {
		t.Errorf("NetSales = %s, want 6000 (duplicate removed before aggregation)", result.Rows[0].NetSales)
	}
}

func TestCompute_SummariesAccumulatePerSalesperson(t *testing.T) {
	run := newRun(t, commission.ModuleFeeTable{"PYTHON": dec(2000), "DATA SCIENCE": dec(1000)})

	completions := []commission.CompletionRecord{
		passed("S1", "PYTHON", date(2025, time.August, 1)),
		passed("S2", "DATA SCIENCE", date(2025, time.August, 2)),
		passed("S3", "PYTHON", date(2025, time.August, 3)),
	}
	sales := []commission.SalesRecord{
		{Identity: "S1", AgentName: "BOB", ClosedDate: date(2025, time.July, 1), Amount: dec(3000)},
		{Identity: "S2", AgentName: "BOB", ClosedDate: date(2025, time.July, 2), Amount: dec(2000)},
		{Identity: "S3", AgentName: "ALICE", ClosedDate: date(2025, time.July, 5), Amount: dec(500)},
	}

	result, err := run.Compute(completions, sales)
	if err != nil {
		t.Fatal(err)
	}

	// Bob's July net is 5000: 10% of 2000 plus 10% of 1000.
	if got := result.Summaries["BOB"]; !got.Equal(dec(300)) {
		t.Errorf("Summaries[BOB] = %s, want 300", got)
	}
	// Alice's July net is 500: below every paying tier.
	if got, ok := result.Summaries["ALICE"]; !ok || !got.Equal(decimal.Zero) {
		t.Errorf("Summaries[ALICE] = %s (present %v), want 0", got, ok)
	}
}
