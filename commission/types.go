/*
Package commission implements the sales-commission reconciliation engine.

PURPOSE:
  Computes payable commission for training-module completions by
  reconciling two independently-sourced record sets - module completion
  records (MSR) and closed-won sales-opportunity records (CW) - against a
  tiered, date-effective commission schedule.

PIPELINE:
  raw batches -> engine.Normalize -> Bind* (this file) -> Deduplicate
  -> Reconcile -> MonthlyAggregator + CommissionSchedule -> Run.Compute

KEY CONCEPTS IN THIS FILE (types.go):
  - CompletionRecord: One student's status for one training module
  - SalesRecord:      One closed-won sales opportunity
  - ModuleFeeTable:   Canonical module name -> fee
  - EnrichedRecord:   A completion with everything the payout needs attached

DESIGN PRINCIPLES:
  1. Immutability: records are value types; filtered subsets are new slices
  2. Precision: decimal.Decimal for every currency and percent figure
  3. Run isolation: nothing here reads ambient state; every computation
     goes through an explicit Run

SEE ALSO:
  - dedupe.go:    Near-duplicate sales removal
  - reconcile.go: Completion-to-sale matching
  - aggregate.go: Memoized monthly sales totals
  - schedule.go:  Tier resolution
  - payout.go:    Run orchestration
*/
package commission

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/engine"
)

// =============================================================================
// COLUMN NAMES AND SCHEMAS - The retained columns of each batch
// =============================================================================

// MSR (Module Status Report) columns.
const (
	ColStudentName    = "Student Name"
	ColStudentNRIC    = "Student NRIC"
	ColModuleName     = "Module Name"
	ColModuleStatus   = "Module Status"
	ColCompletionDate = "Module Completion Date"
	ColCourseName     = "Course Name" // optional on MSR batches
)

// CW (Closed-Won) columns.
const (
	ColIdentityNumber = "Identity Document Number"
	ColClosedDate     = "Opportunity Closed Date"
	ColAgentName      = "Agent Name"
	ColAmount         = "Amount"
)

// Module fee table columns.
const (
	ColModuleFee = "Module Fee"
)

// Commission scheme columns.
const (
	ColTier             = "Tier"
	ColSalesOrderNeeded = "Sales Order Required"
	ColPercentPayable   = "% of Commission Payable"
)

// MSRSchema declares the retained MSR columns and their field types.
var MSRSchema = engine.Schema{
	ColStudentName:    engine.FieldString,
	ColStudentNRIC:    engine.FieldID,
	ColModuleName:     engine.FieldString,
	ColModuleStatus:   engine.FieldString,
	ColCompletionDate: engine.FieldDateTime,
}

// CWSchema declares the retained CW columns and their field types.
var CWSchema = engine.Schema{
	ColIdentityNumber: engine.FieldID,
	ColClosedDate:     engine.FieldDateTime,
	ColStudentName:    engine.FieldString,
	ColCourseName:     engine.FieldString,
	ColAgentName:      engine.FieldString,
	ColAmount:         engine.FieldFloat,
}

// ModulesSchema declares the module fee reference table columns.
var ModulesSchema = engine.Schema{
	ColModuleName: engine.FieldString,
	ColModuleFee:  engine.FieldFloat,
}

// SchemeSchema declares the commission scheme reference table columns.
// The percent column uses the percentage field type: scheme CSVs are
// authored as either fractions or %-glyph text.
var SchemeSchema = engine.Schema{
	ColTier:             engine.FieldString,
	ColSalesOrderNeeded: engine.FieldFloat,
	ColPercentPayable:   engine.FieldPercentage,
}

// =============================================================================
// ENROLLMENT STATUS
// =============================================================================

type EnrollmentStatus string

const (
	StatusPassed                   EnrollmentStatus = "PASSED"
	StatusWithdrawnSOC             EnrollmentStatus = "WITHDRAWN_SOC"
	StatusWithdrawnNonSOC          EnrollmentStatus = "WITHDRAWN_NON_SOC"
	StatusWithdrawnNonSOCAttrition EnrollmentStatus = "WITHDRAWN_NON_SOC_ATTRITION"
	StatusOther                    EnrollmentStatus = "OTHER"
)

// ParseEnrollmentStatus classifies a normalized module-status text.
// Normalization has already uppercased the text and turned hyphens into
// spaces, so "Withdrawn - Non-SOC" arrives as "WITHDRAWN NON SOC".
func ParseEnrollmentStatus(normalized string) EnrollmentStatus {
	switch {
	case strings.Contains(normalized, "PASS"):
		return StatusPassed
	case strings.Contains(normalized, "WITHDRAWN"):
		switch {
		case strings.Contains(normalized, "ATTRITION"):
			return StatusWithdrawnNonSOCAttrition
		case strings.Contains(normalized, "NON SOC"):
			return StatusWithdrawnNonSOC
		case strings.Contains(normalized, "SOC"):
			return StatusWithdrawnSOC
		default:
			return StatusOther
		}
	default:
		return StatusOther
	}
}

// IsWithdrawal reports whether the status is any withdrawal sub-category.
func (s EnrollmentStatus) IsWithdrawal() bool {
	switch s {
	case StatusWithdrawnSOC, StatusWithdrawnNonSOC, StatusWithdrawnNonSOCAttrition:
		return true
	}
	return false
}

// =============================================================================
// RECORDS
// =============================================================================

// CompletionRecord is one MSR row after normalization and binding.
// Immutable once bound; filtered subsets are derived views.
type CompletionRecord struct {
	Identity       string // normalized identity document number
	StudentName    string
	CourseName     string // empty when the batch does not carry it
	ModuleName     string // canonical module name, the fee-table key
	ModuleStatus   string // normalized raw status text
	Status         EnrollmentStatus
	CompletionDate time.Time // zero when the source date was unparsable
}

// HasCompletionDate reports whether the completion date parsed.
func (c CompletionRecord) HasCompletionDate() bool { return !c.CompletionDate.IsZero() }

// SalesRecord is one CW row after normalization and binding.
type SalesRecord struct {
	Identity    string
	ClosedDate  time.Time
	CourseName  string
	StudentName string
	AgentName   string // the salesperson credited with the sale
	Amount      decimal.Decimal
}

// ModuleFeeTable maps canonical module names to fees. Keys are unique
// after canonicalization; a later duplicate overwrites the earlier entry.
type ModuleFeeTable map[string]decimal.Decimal

// =============================================================================
// BINDING - Normalized tables to domain records
// =============================================================================

// BindCompletions converts a normalized MSR table into completion records.
// Rows without an identity are dropped and counted; rows with unparsable
// dates are kept (the reconciler's window filter excludes them) so that
// withdrawal statuses still feed the aggregator.
func BindCompletions(t engine.Table) (records []CompletionRecord, dropped int) {
	records = make([]CompletionRecord, 0, t.Len())
	for _, row := range t.Rows {
		identity := row[ColStudentNRIC].Str
		if identity == "" {
			dropped++
			continue
		}
		status := row[ColModuleStatus].Str
		rec := CompletionRecord{
			Identity:     identity,
			StudentName:  row[ColStudentName].Str,
			CourseName:   row[ColCourseName].Str,
			ModuleName:   row[ColModuleName].Str,
			ModuleStatus: status,
			Status:       ParseEnrollmentStatus(status),
		}
		if d := row[ColCompletionDate]; d.Valid {
			rec.CompletionDate = d.Time
		}
		records = append(records, rec)
	}
	return records, dropped
}

// BindSales converts a normalized CW table into sales records. Rows missing
// an identity, a parsable closed date, or a parsable amount are dropped and
// counted: a sale that cannot be placed in a month or summed cannot
// participate in any computation.
func BindSales(t engine.Table) (records []SalesRecord, dropped int) {
	records = make([]SalesRecord, 0, t.Len())
	for _, row := range t.Rows {
		identity := row[ColIdentityNumber].Str
		closed := row[ColClosedDate]
		amount := row[ColAmount]
		if identity == "" || !closed.Valid || !amount.Valid {
			dropped++
			continue
		}
		records = append(records, SalesRecord{
			Identity:    identity,
			ClosedDate:  closed.Time,
			CourseName:  row[ColCourseName].Str,
			StudentName: row[ColStudentName].Str,
			AgentName:   row[ColAgentName].Str,
			Amount:      amount.Num,
		})
	}
	return records, dropped
}

// BindModuleFees converts a normalized module table into a fee table.
// Unparsable fees are dropped; duplicate canonical names keep the last row.
func BindModuleFees(t engine.Table) ModuleFeeTable {
	fees := make(ModuleFeeTable, t.Len())
	for _, row := range t.Rows {
		name := row[ColModuleName].Str
		fee := row[ColModuleFee]
		if name == "" || !fee.Valid {
			continue
		}
		fees[name] = fee.Num
	}
	return fees
}
