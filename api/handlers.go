/*
handlers.go - HTTP API handlers for the commission engine

PURPOSE:
  Exposes the reconciliation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Runs:
    POST   /api/runs             Execute a calculation run
    GET    /api/runs             Recent persisted run summaries

  Reference data:
    GET    /api/modules          Module fee table
    PUT    /api/modules          Replace module fee table
    GET    /api/schedules        List schedule IDs
    GET    /api/schedules/{id}   Get a schedule as JSON
    PUT    /api/schedules/{id}   Replace a schedule from JSON

  Selection options:
    GET    /api/windows          Selectable quarters and academic years

REQUEST FLOW (runs):
  1. Decode and validate the request
  2. Compute the reporting window from quarter + academic year
  3. Normalize and bind both raw batches
  4. Snapshot reference tables from the store
  5. Execute one commission.Run - nothing shared with other requests
  6. Persist the run summary, serialize the response

ERROR HANDLING:
  - 400: Validation errors, structurally unreadable batches
  - 404: Unknown schedule
  - 500: Store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/engine"
	"github.com/warp/commission-engine/factory"
	"github.com/warp/commission-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.ScheduleFactory
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:   store,
		Factory: factory.NewScheduleFactory(),
	}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CalculateRun executes one reconciliation run.
func (h *Handler) CalculateRun(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	window, err := engine.QuarterWindow(engine.Quarter(req.Quarter), req.AcademicYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quarter", err)
		return
	}
	policy, ok := commission.ParseWithdrawalPolicy(req.WithdrawalPolicy)
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Unknown withdrawal policy %q", req.WithdrawalPolicy), nil)
		return
	}
	if len(req.MSR) == 0 || len(req.CW) == 0 {
		writeError(w, http.StatusBadRequest, "Both MSR and CW batches are required", engine.ErrEmptyBatch)
		return
	}

	msrRaw := rawTableFromRows(req.MSR)
	if err := msrRaw.RequireColumns(commission.MSRSchema); err != nil {
		writeError(w, http.StatusBadRequest, "MSR batch unreadable", err)
		return
	}
	cwRaw := rawTableFromRows(req.CW)
	if err := cwRaw.RequireColumns(commission.CWSchema); err != nil {
		writeError(w, http.StatusBadRequest, "CW batch unreadable", err)
		return
	}

	completions, droppedMSR := commission.BindCompletions(engine.Normalize(msrRaw, commission.MSRSchema))
	sales, droppedCW := commission.BindSales(engine.Normalize(cwRaw, commission.CWSchema))

	ctx := r.Context()
	fees, err := h.Store.LoadModuleFees(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load module fees", err)
		return
	}
	schedule, err := h.Store.LoadSchedule(ctx, req.ScheduleID)
	if err != nil {
		if errors.Is(err, commission.ErrScheduleNotFound) {
			writeError(w, http.StatusNotFound, "Schedule not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}

	run, err := commission.NewRun(commission.RunConfig{
		Window:     window,
		Schedule:   schedule,
		Fees:       fees,
		Withdrawal: policy,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to construct run", err)
		return
	}
	result, err := run.Compute(completions, sales)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Run failed", err)
		return
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	record := sqlite.RunRecord{
		ID:               runID,
		CreatedAt:        time.Now().UTC(),
		Quarter:          req.Quarter,
		YearStart:        req.AcademicYear,
		ScheduleID:       req.ScheduleID,
		WithdrawalPolicy: string(policy),
		RowCount:         len(result.Rows),
		UnmatchedCount:   len(result.Unmatched),
		MissingFeeCount:  len(result.MissingFeeModules),
		TotalPayable:     result.TotalPayable(),
		Summaries:        result.Summaries,
	}
	if err := h.Store.SaveRun(ctx, record); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist run summary", err)
		return
	}

	writeJSON(w, http.StatusOK, toCalculateResponse(runID, window, result, droppedMSR, droppedCW))
}

// ListRuns returns recent persisted run summaries.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRuns(r.Context(), 50)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunSummaryDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRunSummaryDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// GetModuleFees returns the module fee table, sorted by module name.
func (h *Handler) GetModuleFees(w http.ResponseWriter, r *http.Request) {
	fees, err := h.Store.LoadModuleFees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load module fees", err)
		return
	}
	dtos := make([]ModuleFeeDTO, 0, len(fees))
	for name, fee := range fees {
		f, _ := fee.Float64()
		dtos = append(dtos, ModuleFeeDTO{ModuleName: name, Fee: f})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ModuleName < dtos[j].ModuleName })
	writeJSON(w, http.StatusOK, dtos)
}

// ReplaceModuleFees replaces the whole fee table. Module names are
// canonicalized on the way in so lookups during runs always hit.
func (h *Handler) ReplaceModuleFees(w http.ResponseWriter, r *http.Request) {
	var req ReplaceModuleFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	fees := make(commission.ModuleFeeTable, len(req.Modules))
	for _, m := range req.Modules {
		name := engine.NormalizeString(m.ModuleName)
		if name == "" {
			continue
		}
		fees[name] = decimal.NewFromFloat(m.Fee)
	}
	if err := h.Store.ReplaceModuleFees(r.Context(), fees); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save module fees", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"modules": len(fees)})
}

// ListSchedules returns every stored schedule ID and name.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.ListScheduleIDs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetSchedule returns one schedule in factory JSON form.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	schedule, err := h.Store.LoadSchedule(r.Context(), id)
	if err != nil {
		if errors.Is(err, commission.ErrScheduleNotFound) {
			writeError(w, http.StatusNotFound, "Schedule not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.ToJSON(schedule))
}

// PutSchedule replaces one schedule from factory JSON.
func (h *Handler) PutSchedule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var sj factory.ScheduleJSON
	if err := json.NewDecoder(r.Body).Decode(&sj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	sj.ID = id // the URL wins over any body ID

	schedule, err := h.Factory.FromJSON(sj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid schedule", err)
		return
	}
	if err := h.Store.SaveSchedule(r.Context(), schedule); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Factory.ToJSON(schedule))
}

// =============================================================================
// SELECTION OPTIONS
// =============================================================================

// GetWindowOptions returns the selectable quarters and academic years.
func (h *Handler) GetWindowOptions(w http.ResponseWriter, r *http.Request) {
	opts := WindowOptionsDTO{}
	for q := engine.Quarter1; q <= engine.Quarter4; q++ {
		opts.Quarters = append(opts.Quarters, QuarterOptionDTO{
			Quarter: int(q),
			Label:   engine.QuarterLabels[q],
		})
	}
	for _, y := range engine.AcademicYears(time.Now().UTC(), 5) {
		opts.Years = append(opts.Years, YearOptionDTO{Label: y.Label, Start: y.Start, End: y.End})
	}
	writeJSON(w, http.StatusOK, opts)
}

// =============================================================================
// HELPERS
// =============================================================================

// rawTableFromRows rebuilds a RawTable from wire rows. Column order is
// sorted for determinism; the first row's keys define the column set.
func rawTableFromRows(rows []map[string]string) engine.RawTable {
	var columns []string
	if len(rows) > 0 {
		for c := range rows[0] {
			columns = append(columns, c)
		}
		sort.Strings(columns)
	}
	out := engine.RawTable{Columns: columns, Rows: make([]engine.Row, len(rows))}
	for i, r := range rows {
		out.Rows[i] = engine.Row(r)
	}
	return out
}

func toCalculateResponse(runID string, window engine.Window, result *commission.RunResult, droppedMSR, droppedCW int) CalculateResponse {
	resp := CalculateResponse{
		RunID:             runID,
		Window:            toWindowDTO(window),
		Rows:              make([]EnrichedRowDTO, len(result.Rows)),
		Summaries:         make(map[string]float64, len(result.Summaries)),
		MissingFeeModules: result.MissingFeeModules,
		Unmatched:         make([]UnmatchedDTO, len(result.Unmatched)),
		ExcludedRows:      result.ExcludedCompletions,
		DroppedMSRRows:    droppedMSR,
		DroppedCWRows:     droppedCW,
		DeduplicatedSales: result.DeduplicatedSales,
	}
	for i, row := range result.Rows {
		resp.Rows[i] = toEnrichedRowDTO(row)
	}
	for agent, total := range result.Summaries {
		f, _ := total.Float64()
		resp.Summaries[agent] = f
	}
	total, _ := result.TotalPayable().Float64()
	resp.TotalPayable = total
	for i, c := range result.Unmatched {
		resp.Unmatched[i] = toUnmatchedDTO(c)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Error = fmt.Sprintf("%s: %v", msg, err)
	}
	writeJSON(w, status, resp)
}
