package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

type workShiftDTO struct {
	Type string  `json:"type"`
	Note *string `json:"note,omitempty"`
}

type replacementDTO struct {
	SubstitutedWorkerID *string `json:"substituted_worker_id,omitempty"`
	SubstitutedLeaveID  *string `json:"substituted_leave_id,omitempty"`
}

type createPeriodRequest struct {
	WorkerID           string          `json:"worker_id"`
	WorkplaceID        *string         `json:"workplace_id"`
	Position           string          `json:"position"`
	WorkShift          workShiftDTO    `json:"work_shift"`
	StartDate          *Date           `json:"start_date"`
	EndDate            *Date           `json:"end_date"`
	SelectionProcessID *string         `json:"selection_process_id"`
	Replacement        *replacementDTO `json:"replacement"`
}

type updatePeriodRequest struct {
	WorkplaceID        Optional[string]         `json:"workplace_id"`
	Position           *string                  `json:"position"`
	WorkShift          *workShiftDTO            `json:"work_shift"`
	StartDate          *Date                    `json:"start_date"`
	EndDate            Optional[Date]           `json:"end_date"`
	SelectionProcessID Optional[string]         `json:"selection_process_id"`
	Replacement        Optional[replacementDTO] `json:"replacement"`
	Active             *bool                    `json:"active"`
}

type closeRequest struct {
	EndDate *Date `json:"end_date"`
}

// PeriodResponse は雇用期間のレスポンス表現です。
type PeriodResponse struct {
	ID                 string          `json:"id"`
	WorkerID           string          `json:"worker_id"`
	WorkplaceID        *string         `json:"workplace_id"`
	Position           string          `json:"position"`
	WorkShift          workShiftDTO    `json:"work_shift"`
	StartDate          string          `json:"start_date"`
	EndDate            *string         `json:"end_date"`
	SelectionProcessID *string         `json:"selection_process_id"`
	Replacement        *replacementDTO `json:"replacement"`
	Active             bool            `json:"active"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// CreatePeriod は POST /api/periods を処理します。
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req createPeriodRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.periods.CreatePeriod(r.Context(), period.CreatePeriodInput{
		WorkerID:           ids.WorkerID(req.WorkerID),
		WorkplaceID:        typedString[ids.WorkplaceID](req.WorkplaceID),
		Position:           req.Position,
		WorkShift:          period.WorkShift{Type: req.WorkShift.Type, Note: req.WorkShift.Note},
		StartDate:          req.StartDate.timePtr(),
		EndDate:            req.EndDate.timePtr(),
		SelectionProcessID: req.SelectionProcessID,
		Replacement:        toDomainReplacement(req.Replacement),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPeriodResponse(created))
}

// GetPeriod は GET /api/periods/{id} を処理します。
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	found, err := h.periods.GetPeriod(r.Context(), ids.PeriodID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(found))
}

// ListPeriods は GET /api/periods を処理します。
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r, "active")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	open, err := queryBool(r, "open")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	page, err := queryInt(r, "page")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.periods.ListPeriods(r.Context(), period.ListPeriodsInput{
		WorkerID:    typedString[ids.WorkerID](queryString(r, "worker_id")),
		WorkplaceID: typedString[ids.WorkplaceID](queryString(r, "workplace_id")),
		Active:      active,
		OpenOnly:    open != nil && *open,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := ListResponse[PeriodResponse]{
		Results:      make([]PeriodResponse, 0, len(result.Periods)),
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		Page:         result.Page,
	}
	for _, p := range result.Periods {
		resp.Results = append(resp.Results, toPeriodResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdatePeriod は PATCH /api/periods/{id} を処理します。
func (h *Handler) UpdatePeriod(w http.ResponseWriter, r *http.Request) {
	var req updatePeriodRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	in := period.UpdatePeriodInput{
		ID:                    ids.PeriodID(chi.URLParam(r, "id")),
		WorkplaceID:           typedString[ids.WorkplaceID](req.WorkplaceID.Value),
		WorkplaceIDSet:        req.WorkplaceID.Set,
		Position:              req.Position,
		StartDate:             req.StartDate.timePtr(),
		EndDate:               optionalTime(req.EndDate),
		EndDateSet:            req.EndDate.Set,
		SelectionProcessID:    req.SelectionProcessID.Value,
		SelectionProcessIDSet: req.SelectionProcessID.Set,
		Replacement:           toDomainReplacement(req.Replacement.Value),
		ReplacementSet:        req.Replacement.Set,
		Active:                req.Active,
	}
	if req.WorkShift != nil {
		in.WorkShift = &period.WorkShift{Type: req.WorkShift.Type, Note: req.WorkShift.Note}
	}

	updated, err := h.periods.UpdatePeriod(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(updated))
}

// ClosePeriod は POST /api/periods/{id}/close を処理します。ボディ省略時は当日で終了します。
func (h *Handler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.respondError(w, r, err)
		return
	}

	closed, err := h.periods.ClosePeriod(r.Context(), period.ClosePeriodInput{
		ID:      ids.PeriodID(chi.URLParam(r, "id")),
		EndDate: req.EndDate.timePtr(),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(closed))
}

// DeletePeriod は DELETE /api/periods/{id} を処理します。hard=true で配下の休職ごと物理削除します。
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	id := ids.PeriodID(chi.URLParam(r, "id"))

	hard, err := queryBool(r, "hard")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if hard != nil && *hard {
		if err := h.periods.HardDeletePeriod(r.Context(), id); err != nil {
			h.respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	deleted, err := h.periods.SoftDeletePeriod(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodResponse(deleted))
}

func toDomainReplacement(dto *replacementDTO) *period.Replacement {
	if dto == nil {
		return nil
	}
	return &period.Replacement{
		SubstitutedWorkerID: typedString[ids.WorkerID](dto.SubstitutedWorkerID),
		SubstitutedLeaveID:  typedString[ids.LeaveID](dto.SubstitutedLeaveID),
	}
}

func toPeriodResponse(p *period.Period) PeriodResponse {
	resp := PeriodResponse{
		ID:                 string(p.ID),
		WorkerID:           string(p.WorkerID),
		Position:           p.Position,
		WorkShift:          workShiftDTO{Type: p.WorkShift.Type, Note: p.WorkShift.Note},
		StartDate:          p.StartDate.Format(dateLayout),
		EndDate:            formatDate(p.EndDate),
		SelectionProcessID: p.SelectionProcessID,
		Active:             p.Active,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	if p.WorkplaceID != nil {
		wp := string(*p.WorkplaceID)
		resp.WorkplaceID = &wp
	}
	if p.Replacement != nil {
		resp.Replacement = &replacementDTO{}
		if p.Replacement.SubstitutedWorkerID != nil {
			v := string(*p.Replacement.SubstitutedWorkerID)
			resp.Replacement.SubstitutedWorkerID = &v
		}
		if p.Replacement.SubstitutedLeaveID != nil {
			v := string(*p.Replacement.SubstitutedLeaveID)
			resp.Replacement.SubstitutedLeaveID = &v
		}
	}
	return resp
}
