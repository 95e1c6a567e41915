package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

type stubPeriods struct {
	period.UseCase

	createIn period.CreatePeriodInput
	updateIn period.UpdatePeriodInput
	closeIn  period.ClosePeriodInput
	listIn   period.ListPeriodsInput
	hardID   ids.PeriodID
	softID   ids.PeriodID
	result   *period.Period
	err      error
}

func (s *stubPeriods) CreatePeriod(_ context.Context, in period.CreatePeriodInput) (*period.Period, error) {
	s.createIn = in
	return s.result, s.err
}

func (s *stubPeriods) UpdatePeriod(_ context.Context, in period.UpdatePeriodInput) (*period.Period, error) {
	s.updateIn = in
	return s.result, s.err
}

func (s *stubPeriods) ClosePeriod(_ context.Context, in period.ClosePeriodInput) (*period.Period, error) {
	s.closeIn = in
	return s.result, s.err
}

func (s *stubPeriods) SoftDeletePeriod(_ context.Context, id ids.PeriodID) (*period.Period, error) {
	s.softID = id
	return s.result, s.err
}

func (s *stubPeriods) HardDeletePeriod(_ context.Context, id ids.PeriodID) error {
	s.hardID = id
	return s.err
}

func (s *stubPeriods) GetPeriod(_ context.Context, _ ids.PeriodID) (*period.Period, error) {
	return s.result, s.err
}

func (s *stubPeriods) ListPeriods(_ context.Context, in period.ListPeriodsInput) (*period.ListPeriodsResult, error) {
	s.listIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &period.ListPeriodsResult{Periods: []*period.Period{s.result}, TotalResults: 1, TotalPages: 1, Page: 1}, nil
}

type stubLeaves struct {
	leave.UseCase

	createIn leave.CreateLeaveInput
	updateIn leave.UpdateLeaveInput
	listIn   leave.ListLeavesInput
	result   *leave.Leave
	err      error
}

func (s *stubLeaves) CreateLeave(_ context.Context, in leave.CreateLeaveInput) (*leave.Leave, error) {
	s.createIn = in
	return s.result, s.err
}

func (s *stubLeaves) UpdateLeave(_ context.Context, in leave.UpdateLeaveInput) (*leave.Leave, error) {
	s.updateIn = in
	return s.result, s.err
}

func (s *stubLeaves) ListLeaves(_ context.Context, in leave.ListLeavesInput) (*leave.ListLeavesResult, error) {
	s.listIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &leave.ListLeavesResult{Leaves: []*leave.Leave{}, Page: 1}, nil
}

type stubAudits struct {
	req      audit.Request
	report   *audit.Report
	findings []audit.WorkerFindings
	err      error
}

func (s *stubAudits) AuditPayrollCompliance(_ context.Context, req audit.Request) (*audit.Report, error) {
	s.req = req
	return s.report, s.err
}

func (s *stubAudits) CollectPayrollCompliance(_ context.Context, req audit.Request) ([]audit.WorkerFindings, error) {
	s.req = req
	return s.findings, s.err
}

type stubExporter struct {
	got []audit.WorkerFindings
}

func (*stubExporter) ContentType() string { return "application/test" }
func (*stubExporter) FileName() string    { return "report.bin" }

func (s *stubExporter) Write(w io.Writer, findings []audit.WorkerFindings) error {
	s.got = findings
	_, err := io.WriteString(w, "report")
	return err
}

type fixture struct {
	periods  *stubPeriods
	leaves   *stubLeaves
	audits   *stubAudits
	exporter *stubExporter
	router   http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		periods:  &stubPeriods{},
		leaves:   &stubLeaves{},
		audits:   &stubAudits{},
		exporter: &stubExporter{},
	}
	h := NewHandler(f.periods, f.leaves, f.audits, f.exporter, nil)
	f.router = NewRouter(h, RouterOptions{AllowedOrigins: []string{"http://localhost:5173"}})
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func samplePeriod() *period.Period {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	return &period.Period{
		ID:        "period-1",
		WorkerID:  "worker-1",
		Position:  "nurse",
		WorkShift: period.WorkShift{Type: "morning"},
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Active:    true,
	}
}

func TestCreatePeriod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.result = samplePeriod()

	rec := f.do(http.MethodPost, "/api/periods", `{
        "worker_id": "worker-1",
        "position": "nurse",
        "work_shift": {"type": "morning"},
        "start_date": "2024-01-01",
        "end_date": "2024-06-30"
    }`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ids.WorkerID("worker-1"), f.periods.createIn.WorkerID)
	require.NotNil(t, f.periods.createIn.StartDate)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.periods.createIn.StartDate)

	var body PeriodResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-01-01", body.StartDate)
	require.NotNil(t, body.EndDate)
	assert.Equal(t, "2024-06-30", *body.EndDate)
}

func TestCreatePeriod_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/periods", `{"worker_id": "w", "salary": 10}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid request", body.Error)
	assert.Contains(t, body.Details, "salary")
}

func TestCreatePeriod_RejectsBadDate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/periods", `{"worker_id": "w", "start_date": "01/02/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdatePeriod_PatchSemantics(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.result = samplePeriod()

	rec := f.do(http.MethodPatch, "/api/periods/period-1", `{"end_date": null, "position": "cook"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	in := f.periods.updateIn
	assert.Equal(t, ids.PeriodID("period-1"), in.ID)
	assert.True(t, in.EndDateSet)
	assert.Nil(t, in.EndDate)
	assert.False(t, in.WorkplaceIDSet)
	assert.False(t, in.ReplacementSet)
	require.NotNil(t, in.Position)
	assert.Equal(t, "cook", *in.Position)
}

func TestClosePeriod_EmptyBody(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.result = samplePeriod()

	rec := f.do(http.MethodPost, "/api/periods/period-1/close", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.periods.closeIn.EndDate)
}

func TestDeletePeriod_SoftAndHard(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.result = samplePeriod()

	rec := f.do(http.MethodDelete, "/api/periods/period-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ids.PeriodID("period-1"), f.periods.softID)

	rec = f.do(http.MethodDelete, "/api/periods/period-2?hard=true", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, ids.PeriodID("period-2"), f.periods.hardID)

	rec = f.do(http.MethodDelete, "/api/periods/period-2?hard=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPeriods_Query(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.result = samplePeriod()

	rec := f.do(http.MethodGet, "/api/periods?worker_id=worker-1&active=true&open=true&page=2&limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	in := f.periods.listIn
	require.NotNil(t, in.WorkerID)
	assert.Equal(t, ids.WorkerID("worker-1"), *in.WorkerID)
	require.NotNil(t, in.Active)
	assert.True(t, *in.Active)
	assert.True(t, in.OpenOnly)
	assert.Equal(t, 2, in.Page)
	assert.Equal(t, 5, in.Limit)

	var body ListResponse[PeriodResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Results, 1)
}

func TestListPeriods_InvalidPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/periods?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{period.ErrPeriodNotFound, http.StatusNotFound},
		{period.ErrInvalidDateRange, http.StatusBadRequest},
		{fmt.Errorf("substituted worker id: %w", period.ErrInvalidReplacement), http.StatusBadRequest},
		{leave.ErrLeaveAlreadyOpen, http.StatusBadRequest},
		{leave.ErrStartOutsidePeriod, http.StatusBadRequest},
		{leave.ErrLeaveTypeNotFound, http.StatusNotFound},
		{audit.ErrInvalidMonth, http.StatusBadRequest},
		{errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		f := newFixture(t)
		f.periods.err = tc.err

		rec := f.do(http.MethodGet, "/api/periods/period-1", "")
		assert.Equal(t, tc.want, rec.Code, tc.err.Error())
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.periods.err = errors.New("connection refused")

	rec := f.do(http.MethodGet, "/api/periods/period-1", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestCreateLeave_AlreadyOpen(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.leaves.err = leave.ErrLeaveAlreadyOpen

	rec := f.do(http.MethodPost, "/api/leaves", `{
        "worker_id": "worker-1",
        "period_id": "period-1",
        "leave_type_id": "sick",
        "start_leave_date": "2024-03-01"
    }`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ids.LeaveTypeID("sick"), f.leaves.createIn.LeaveTypeID)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestUpdateLeave_ClearsActualEnd(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.leaves.result = &leave.Leave{ID: "leave-1", StartLeaveDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Active: true}

	rec := f.do(http.MethodPatch, "/api/leaves/leave-1", `{"actual_end_leave_date": null, "active": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.leaves.updateIn.ActualEndLeaveDateSet)
	assert.Nil(t, f.leaves.updateIn.ActualEndLeaveDate)
	assert.False(t, f.leaves.updateIn.ExpectedEndLeaveDateSet)

	var body LeaveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.ActualEndLeaveDate)
}

func TestListLeaves_DateRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/leaves?from=2024-01-01&to=2024-12-31&open=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.leaves.listIn.StartFrom)
	require.NotNil(t, f.leaves.listIn.StartTo)
	assert.True(t, f.leaves.listIn.OpenOnly)

	rec = f.do(http.MethodGet, "/api/leaves?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditPayroll(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.audits.report = &audit.Report{
		Results: []audit.WorkerFindings{{
			WorkerID:        "worker-1",
			MissingPayrolls: []calendar.YearMonth{{Year: 2023, Month: 7}},
		}},
		TotalResults: 1,
		TotalPages:   1,
		Page:         1,
	}

	rec := f.do(http.MethodPost, "/api/audits/payroll", `{
        "selected_fields": ["missing"],
        "employment": "active",
        "apafa": "si",
        "time": {"months": [7], "years": [2023]}
    }`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []audit.Field{audit.FieldMissing}, f.audits.req.SelectedFields)
	assert.Equal(t, "si", f.audits.req.Apafa)
	assert.Equal(t, []int{7}, f.audits.req.Time.Months)

	assert.JSONEq(t, `{
        "results": [{
            "worker_id": "worker-1",
            "first_name": "",
            "last_name": "",
            "email": "",
            "missing_payrolls": [{"year": 2023, "month": 7}],
            "not_signed_payrolls": []
        }],
        "total_results": 1,
        "total_pages": 1,
        "page": 1
    }`, rec.Body.String())
}

func TestAuditPayroll_ValidationError(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.audits.err = audit.ErrEmptySelectedFields

	rec := f.do(http.MethodPost, "/api/audits/payroll", `{"employment": "all", "time": {"months": [1], "years": [2024]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportPayrollAudit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.audits.findings = []audit.WorkerFindings{{WorkerID: "worker-1"}}

	rec := f.do(http.MethodPost, "/api/audits/payroll/export", `{
        "selected_fields": ["unsigned"],
        "employment": "all",
        "time": {"months": [1], "years": [2024]}
    }`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/test", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report.bin"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "report", rec.Body.String())
	assert.Len(t, f.exporter.got, 1)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/periods", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
