package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
)

type auditTimeDTO struct {
	Months []int `json:"months"`
	Years  []int `json:"years"`
}

type auditRequest struct {
	SelectedFields []string     `json:"selected_fields"`
	Apafa          string       `json:"apafa"`
	Tracking       string       `json:"tracking"`
	Employment     string       `json:"employment"`
	Time           auditTimeDTO `json:"time"`
	Page           int          `json:"page"`
	Limit          int          `json:"limit"`
}

// WorkerFindingsResponse は 1 名分の監査結果のレスポンス表現です。
type WorkerFindingsResponse struct {
	WorkerID          string               `json:"worker_id"`
	FirstName         string               `json:"first_name"`
	LastName          string               `json:"last_name"`
	Email             string               `json:"email"`
	MissingPayrolls   []calendar.YearMonth `json:"missing_payrolls"`
	NotSignedPayrolls []calendar.YearMonth `json:"not_signed_payrolls"`
}

func (req auditRequest) toDomain() audit.Request {
	fields := make([]audit.Field, 0, len(req.SelectedFields))
	for _, f := range req.SelectedFields {
		fields = append(fields, audit.Field(f))
	}
	return audit.Request{
		SelectedFields: fields,
		Apafa:          req.Apafa,
		Tracking:       req.Tracking,
		Employment:     worker.Employment(req.Employment),
		Time:           audit.TimeRange{Months: req.Time.Months, Years: req.Time.Years},
		Page:           req.Page,
		Limit:          req.Limit,
	}
}

// AuditPayroll は POST /api/audits/payroll を処理します。
func (h *Handler) AuditPayroll(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	report, err := h.audits.AuditPayrollCompliance(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := ListResponse[WorkerFindingsResponse]{
		Results:      make([]WorkerFindingsResponse, 0, len(report.Results)),
		TotalResults: report.TotalResults,
		TotalPages:   report.TotalPages,
		Page:         report.Page,
	}
	for _, f := range report.Results {
		resp.Results = append(resp.Results, toWorkerFindingsResponse(f))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportPayrollAudit は POST /api/audits/payroll/export を処理し、全件の監査結果をファイルで返します。
func (h *Handler) ExportPayrollAudit(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured", nil)
		return
	}

	var req auditRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	findings, err := h.audits.CollectPayrollCompliance(r.Context(), req.toDomain())
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, findings); err != nil {
		h.respondError(w, r, fmt.Errorf("write report: %w", err))
		return
	}

	w.Header().Set("Content-Type", h.exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exporter.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func toWorkerFindingsResponse(f audit.WorkerFindings) WorkerFindingsResponse {
	resp := WorkerFindingsResponse{
		WorkerID:          f.WorkerID,
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		Email:             f.Email,
		MissingPayrolls:   f.MissingPayrolls,
		NotSignedPayrolls: f.NotSignedPayrolls,
	}
	if resp.MissingPayrolls == nil {
		resp.MissingPayrolls = []calendar.YearMonth{}
	}
	if resp.NotSignedPayrolls == nil {
		resp.NotSignedPayrolls = []calendar.YearMonth{}
	}
	return resp
}
