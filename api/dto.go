/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's decimal-based domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ON THE WIRE:
  Currency and percent figures cross the wire as float64. The engine keeps
  decimals internally; conversion happens only at this boundary.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/schedule.go: ScheduleJSON type (reused directly for schedules)
*/
package api

import (
	"time"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/engine"
	"github.com/warp/commission-engine/store/sqlite"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CalculateRequest is the body of POST /api/runs. MSR and CW carry the
// already-parsed raw batches: one map per row, column name to raw text.
type CalculateRequest struct {
	Quarter          int                 `json:"quarter"`            // 1-4, academic
	AcademicYear     int                 `json:"academic_year"`      // start year, e.g. 2025
	ScheduleID       string              `json:"schedule_id"`        // e.g. "RSP"
	WithdrawalPolicy string              `json:"withdrawal_policy,omitempty"` // "non_soc" (default) or "all"
	MSR              []map[string]string `json:"msr"`
	CW               []map[string]string `json:"cw"`
}

// ReplaceModuleFeesRequest is the body of PUT /api/modules.
type ReplaceModuleFeesRequest struct {
	Modules []ModuleFeeDTO `json:"modules"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ModuleFeeDTO is one module fee entry.
type ModuleFeeDTO struct {
	ModuleName string  `json:"module_name"`
	Fee        float64 `json:"fee"`
}

// EnrichedRowDTO mirrors commission.EnrichedRecord.
type EnrichedRowDTO struct {
	Identity          string  `json:"identity"`
	StudentName       string  `json:"student_name"`
	ModuleName        string  `json:"module_name"`
	CompletionDate    string  `json:"completion_date"`
	ClosedWonDate     string  `json:"closed_won_date"`
	Salesperson       string  `json:"salesperson"`
	ModuleFee         float64 `json:"module_fee"`
	ClosedWonSales    float64 `json:"closed_won_sales"`
	WithdrawnSales    float64 `json:"withdrawn_sales"`
	NetSales          float64 `json:"net_sales"`
	CommissionPercent float64 `json:"commission_percent"`
	PayableCommission float64 `json:"payable_commission"`
}

// UnmatchedDTO is one completion with no matching sale.
type UnmatchedDTO struct {
	Identity       string `json:"identity"`
	StudentName    string `json:"student_name"`
	ModuleName     string `json:"module_name"`
	CompletionDate string `json:"completion_date"`
}

// CalculateResponse is the result of POST /api/runs.
type CalculateResponse struct {
	RunID             string             `json:"run_id"`
	Window            WindowDTO          `json:"window"`
	Rows              []EnrichedRowDTO   `json:"rows"`
	Summaries         map[string]float64 `json:"summaries"`
	TotalPayable      float64            `json:"total_payable"`
	MissingFeeModules []string           `json:"missing_fee_modules"`
	Unmatched         []UnmatchedDTO     `json:"unmatched"`
	ExcludedRows      int                `json:"excluded_rows"`
	DroppedMSRRows    int                `json:"dropped_msr_rows"`
	DroppedCWRows     int                `json:"dropped_cw_rows"`
	DeduplicatedSales int                `json:"deduplicated_sales"`
}

// WindowDTO is an inclusive reporting window.
type WindowDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// RunSummaryDTO is one persisted run summary.
type RunSummaryDTO struct {
	ID               string             `json:"id"`
	CreatedAt        string             `json:"created_at"`
	Quarter          int                `json:"quarter"`
	AcademicYear     int                `json:"academic_year"`
	ScheduleID       string             `json:"schedule_id"`
	WithdrawalPolicy string             `json:"withdrawal_policy"`
	RowCount         int                `json:"row_count"`
	UnmatchedCount   int                `json:"unmatched_count"`
	MissingFeeCount  int                `json:"missing_fee_count"`
	TotalPayable     float64            `json:"total_payable"`
	Summaries        map[string]float64 `json:"summaries"`
}

// WindowOptionsDTO lists the selectable quarters and academic years.
type WindowOptionsDTO struct {
	Quarters []QuarterOptionDTO `json:"quarters"`
	Years    []YearOptionDTO    `json:"years"`
}

type QuarterOptionDTO struct {
	Quarter int    `json:"quarter"`
	Label   string `json:"label"`
}

type YearOptionDTO struct {
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEnrichedRowDTO(row commission.EnrichedRecord) EnrichedRowDTO {
	fee, _ := row.ModuleFee.Float64()
	closedWon, _ := row.ClosedWonSales.Float64()
	withdrawn, _ := row.WithdrawnSales.Float64()
	net, _ := row.NetSales.Float64()
	percent, _ := row.CommissionPercent.Float64()
	payable, _ := row.PayableCommission.Float64()
	return EnrichedRowDTO{
		Identity:          row.Identity,
		StudentName:       row.StudentName,
		ModuleName:        row.ModuleName,
		CompletionDate:    row.CompletionDate.Format("2006-01-02"),
		ClosedWonDate:     row.ClosedWonDate.Format("2006-01-02"),
		Salesperson:       row.Salesperson,
		ModuleFee:         fee,
		ClosedWonSales:    closedWon,
		WithdrawnSales:    withdrawn,
		NetSales:          net,
		CommissionPercent: percent,
		PayableCommission: payable,
	}
}

func toUnmatchedDTO(c commission.CompletionRecord) UnmatchedDTO {
	dto := UnmatchedDTO{
		Identity:    c.Identity,
		StudentName: c.StudentName,
		ModuleName:  c.ModuleName,
	}
	if c.HasCompletionDate() {
		dto.CompletionDate = c.CompletionDate.Format("2006-01-02")
	}
	return dto
}

func toWindowDTO(w engine.Window) WindowDTO {
	return WindowDTO{
		Start: w.Start.Format("2006-01-02"),
		End:   w.End.Format("2006-01-02"),
	}
}

func toRunSummaryDTO(rec sqlite.RunRecord) RunSummaryDTO {
	total, _ := rec.TotalPayable.Float64()
	summaries := make(map[string]float64, len(rec.Summaries))
	for agent, amount := range rec.Summaries {
		f, _ := amount.Float64()
		summaries[agent] = f
	}
	return RunSummaryDTO{
		ID:               rec.ID,
		CreatedAt:        rec.CreatedAt.Format(time.RFC3339),
		Quarter:          rec.Quarter,
		AcademicYear:     rec.YearStart,
		ScheduleID:       rec.ScheduleID,
		WithdrawalPolicy: rec.WithdrawalPolicy,
		RowCount:         rec.RowCount,
		UnmatchedCount:   rec.UnmatchedCount,
		MissingFeeCount:  rec.MissingFeeCount,
		TotalPayable:     total,
		Summaries:        summaries,
	}
}
