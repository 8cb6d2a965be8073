package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/commission-engine/api"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/store/sqlite"
)

func newServer(t *testing.T) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "api-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Seed(context.Background()))

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(store)))
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func putJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// msrRow and cwRow build wire rows with the raw, un-normalized headers a
// spreadsheet export would carry values for.
func msrRow(name, nric, module, status, completed string) map[string]string {
	return map[string]string{
		"Student Name":           name,
		"Student NRIC":           nric,
		"Module Name":            module,
		"Module Status":          status,
		"Module Completion Date": completed,
	}
}

func cwRow(identity, closed, student, course, agent, amount string) map[string]string {
	return map[string]string{
		"Identity Document Number": identity,
		"Opportunity Closed Date":  closed,
		"Student Name":             student,
		"Course Name":              course,
		"Agent Name":               agent,
		"Amount":                   amount,
	}
}

func TestCalculateRun_EndToEnd(t *testing.T) {
	// GIVEN: a 2000-fee module passed in Q1 2025/26, sold by Bob for 6000
	// WHEN: a run executes under the RSP scheme
	// THEN: net 6000 reaches the 10% tier and pays 200
	srv, store := newServer(t)
	require.NoError(t, store.ReplaceModuleFees(context.Background(), commission.ModuleFeeTable{
		"INTRO TO PYTHON": decimal.NewFromInt(2000),
	}))

	resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
		Quarter:      1,
		AcademicYear: 2025,
		ScheduleID:   commission.SchemeRetailSalesperson,
		MSR: []map[string]string{
			msrRow("Alice Tan", "s 1234567 a", "intro-to-python", "Passed", "2025-08-01"),
		},
		CW: []map[string]string{
			cwRow("S1234567A", "2025-07-01", "Alice Tan", "Intro to Python", "Bob", "$6,000"),
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out api.CalculateResponse
	decode(t, resp, &out)

	require.Len(t, out.Rows, 1)
	row := out.Rows[0]
	assert.Equal(t, "S1234567A", row.Identity)
	assert.Equal(t, "INTRO TO PYTHON", row.ModuleName)
	assert.Equal(t, "BOB", row.Salesperson)
	assert.InDelta(t, 6000, row.NetSales, 0.001)
	assert.InDelta(t, 10, row.CommissionPercent, 0.001)
	assert.InDelta(t, 200, row.PayableCommission, 0.001)
	assert.InDelta(t, 200, out.Summaries["BOB"], 0.001)
	assert.InDelta(t, 200, out.TotalPayable, 0.001)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, "2025-07-01", out.Window.Start)
	assert.Equal(t, "2025-09-30", out.Window.End)

	// The run summary is persisted and listable.
	listResp, err := http.Get(srv.URL + "/api/runs")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var runs []api.RunSummaryDTO
	decode(t, listResp, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	assert.InDelta(t, 200, runs[0].TotalPayable, 0.001)
}

func TestCalculateRun_ValidationFailures(t *testing.T) {
	srv, _ := newServer(t)

	msr := []map[string]string{msrRow("A", "S1", "M", "Passed", "2025-08-01")}
	cw := []map[string]string{cwRow("S1", "2025-07-01", "A", "M", "Bob", "100")}

	t.Run("invalid quarter", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
			Quarter: 9, AcademicYear: 2025, ScheduleID: "RSP", MSR: msr, CW: cw,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("empty batches", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
			Quarter: 1, AcademicYear: 2025, ScheduleID: "RSP",
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown withdrawal policy", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
			Quarter: 1, AcademicYear: 2025, ScheduleID: "RSP",
			WithdrawalPolicy: "sometimes", MSR: msr, CW: cw,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing MSR column", func(t *testing.T) {
		broken := []map[string]string{{"Student Name": "A"}}
		resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
			Quarter: 1, AcademicYear: 2025, ScheduleID: "RSP", MSR: broken, CW: cw,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var e api.ErrorResponse
		decode(t, resp, &e)
		assert.Contains(t, e.Error, "MSR batch unreadable")
	})

	t.Run("unknown schedule", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/runs", api.CalculateRequest{
			Quarter: 1, AcademicYear: 2025, ScheduleID: "NOPE", MSR: msr, CW: cw,
		})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestModuleFees_PutAndGet(t *testing.T) {
	srv, _ := newServer(t)

	resp := putJSON(t, srv.URL+"/api/modules", api.ReplaceModuleFeesRequest{
		Modules: []api.ModuleFeeDTO{
			{ModuleName: "intro-to-python", Fee: 2000},
			{ModuleName: "Data Science", Fee: 3000},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/api/modules")
	require.NoError(t, err)
	defer getResp.Body.Close()

	var fees []api.ModuleFeeDTO
	decode(t, getResp, &fees)
	require.Len(t, fees, 2)

	// Names come back canonicalized and sorted.
	assert.Equal(t, "DATA SCIENCE", fees[0].ModuleName)
	assert.Equal(t, "INTRO TO PYTHON", fees[1].ModuleName)
	assert.InDelta(t, 2000, fees[1].Fee, 0.001)
}

func TestSchedules_GetAndPut(t *testing.T) {
	srv, _ := newServer(t)

	// Seeded schemes are served as factory JSON.
	resp, err := http.Get(srv.URL + "/api/schedules/" + commission.SchemeRetailSalesperson)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sj map[string]any
	decode(t, resp, &sj)
	assert.Equal(t, commission.SchemeRetailSalesperson, sj["id"])

	// PUT replaces the schedule; the URL ID wins over the body.
	put := putJSON(t, srv.URL+"/api/schedules/CUSTOM", map[string]any{
		"id":   "IGNORED",
		"name": "Custom",
		"tiers": []map[string]any{
			{"label": "Base", "sales_order_required": 0, "percent_payable": 0},
			{"label": "Only", "sales_order_required": 500, "percent_payable": 7},
		},
	})
	require.Equal(t, http.StatusOK, put.StatusCode)

	var saved map[string]any
	decode(t, put, &saved)
	assert.Equal(t, "CUSTOM", saved["id"])

	list, err := http.Get(srv.URL + "/api/schedules")
	require.NoError(t, err)
	defer list.Body.Close()
	var ids map[string]string
	decode(t, list, &ids)
	assert.Contains(t, ids, "CUSTOM")

	notFound, err := http.Get(srv.URL + "/api/schedules/NOPE")
	require.NoError(t, err)
	defer notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestWindowOptions(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/api/windows")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var opts api.WindowOptionsDTO
	decode(t, resp, &opts)
	require.Len(t, opts.Quarters, 4)
	assert.Equal(t, 1, opts.Quarters[0].Quarter)
	assert.Len(t, opts.Years, 5)
}
