package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
)

type createLeaveRequest struct {
	WorkerID             string `json:"worker_id"`
	PeriodID             string `json:"period_id"`
	LeaveTypeID          string `json:"leave_type_id"`
	StartLeaveDate       *Date  `json:"start_leave_date"`
	ExpectedEndLeaveDate *Date  `json:"expected_end_leave_date"`
}

type updateLeaveRequest struct {
	LeaveTypeID          *string        `json:"leave_type_id"`
	StartLeaveDate       *Date          `json:"start_leave_date"`
	ExpectedEndLeaveDate Optional[Date] `json:"expected_end_leave_date"`
	ActualEndLeaveDate   Optional[Date] `json:"actual_end_leave_date"`
	Active               *bool          `json:"active"`
}

type closeLeaveRequest struct {
	ActualEndLeaveDate *Date `json:"actual_end_leave_date"`
}

// LeaveResponse は休職のレスポンス表現です。
type LeaveResponse struct {
	ID                   string    `json:"id"`
	WorkerID             string    `json:"worker_id"`
	PeriodID             string    `json:"period_id"`
	LeaveTypeID          string    `json:"leave_type_id"`
	StartLeaveDate       string    `json:"start_leave_date"`
	ExpectedEndLeaveDate *string   `json:"expected_end_leave_date"`
	ActualEndLeaveDate   *string   `json:"actual_end_leave_date"`
	Active               bool      `json:"active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CreateLeave は POST /api/leaves を処理します。
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var req createLeaveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	created, err := h.leaves.CreateLeave(r.Context(), leave.CreateLeaveInput{
		WorkerID:             ids.WorkerID(req.WorkerID),
		PeriodID:             ids.PeriodID(req.PeriodID),
		LeaveTypeID:          ids.LeaveTypeID(req.LeaveTypeID),
		StartLeaveDate:       req.StartLeaveDate.timePtr(),
		ExpectedEndLeaveDate: req.ExpectedEndLeaveDate.timePtr(),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveResponse(created))
}

// GetLeave は GET /api/leaves/{id} を処理します。
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	found, err := h.leaves.GetLeave(r.Context(), ids.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(found))
}

// ListLeaves は GET /api/leaves を処理します。from/to は開始日の範囲です。
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	in := leave.ListLeavesInput{
		WorkerID:    typedString[ids.WorkerID](queryString(r, "worker_id")),
		PeriodID:    typedString[ids.PeriodID](queryString(r, "period_id")),
		LeaveTypeID: typedString[ids.LeaveTypeID](queryString(r, "leave_type_id")),
	}

	var err error
	if in.Active, err = queryBool(r, "active"); err != nil {
		h.respondError(w, r, err)
		return
	}
	open, err := queryBool(r, "open")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	in.OpenOnly = open != nil && *open
	if in.StartFrom, err = queryDate(r, "from"); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.StartTo, err = queryDate(r, "to"); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Page, err = queryInt(r, "page"); err != nil {
		h.respondError(w, r, err)
		return
	}
	if in.Limit, err = queryInt(r, "limit"); err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.leaves.ListLeaves(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := ListResponse[LeaveResponse]{
		Results:      make([]LeaveResponse, 0, len(result.Leaves)),
		TotalResults: result.TotalResults,
		TotalPages:   result.TotalPages,
		Page:         result.Page,
	}
	for _, l := range result.Leaves {
		resp.Results = append(resp.Results, toLeaveResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateLeave は PATCH /api/leaves/{id} を処理します。
func (h *Handler) UpdateLeave(w http.ResponseWriter, r *http.Request) {
	var req updateLeaveRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(w, r, err)
		return
	}

	updated, err := h.leaves.UpdateLeave(r.Context(), leave.UpdateLeaveInput{
		ID:                      ids.LeaveID(chi.URLParam(r, "id")),
		LeaveTypeID:             typedString[ids.LeaveTypeID](req.LeaveTypeID),
		StartLeaveDate:          req.StartLeaveDate.timePtr(),
		ExpectedEndLeaveDate:    optionalTime(req.ExpectedEndLeaveDate),
		ExpectedEndLeaveDateSet: req.ExpectedEndLeaveDate.Set,
		ActualEndLeaveDate:      optionalTime(req.ActualEndLeaveDate),
		ActualEndLeaveDateSet:   req.ActualEndLeaveDate.Set,
		Active:                  req.Active,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(updated))
}

// CloseLeave は POST /api/leaves/{id}/close を処理します。ボディ省略時は当日で終了します。
func (h *Handler) CloseLeave(w http.ResponseWriter, r *http.Request) {
	var req closeLeaveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.respondError(w, r, err)
		return
	}

	closed, err := h.leaves.CloseLeave(r.Context(), leave.CloseLeaveInput{
		ID:                 ids.LeaveID(chi.URLParam(r, "id")),
		ActualEndLeaveDate: req.ActualEndLeaveDate.timePtr(),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(closed))
}

// DeleteLeave は DELETE /api/leaves/{id} を処理します。hard=true で物理削除します。
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	id := ids.LeaveID(chi.URLParam(r, "id"))

	hard, err := queryBool(r, "hard")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if hard != nil && *hard {
		if err := h.leaves.HardDeleteLeave(r.Context(), id); err != nil {
			h.respondError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	deleted, err := h.leaves.SoftDeleteLeave(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveResponse(deleted))
}

func toLeaveResponse(l *leave.Leave) LeaveResponse {
	return LeaveResponse{
		ID:                   string(l.ID),
		WorkerID:             string(l.WorkerID),
		PeriodID:             string(l.PeriodID),
		LeaveTypeID:          string(l.LeaveTypeID),
		StartLeaveDate:       l.StartLeaveDate.Format(dateLayout),
		ExpectedEndLeaveDate: formatDate(l.ExpectedEndLeaveDate),
		ActualEndLeaveDate:   formatDate(l.ActualEndLeaveDate),
		Active:               l.Active,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}
