package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ogurasousui/worker-chronology/internal/core/audit"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
)

func statusFor(err error) int {
	switch {
	case isAny(err,
		errInvalidBody,
		errInvalidQuery,
		ids.ErrInvalid,
		period.ErrInvalidID,
		period.ErrInvalidWorkerID,
		period.ErrInvalidWorkplaceID,
		period.ErrInvalidPosition,
		period.ErrInvalidWorkShift,
		period.ErrInvalidReplacement,
		period.ErrStartDateRequired,
		period.ErrInvalidDateRange,
		period.ErrInvalidPage,
		period.ErrInvalidLimit,
		leave.ErrInvalidID,
		leave.ErrInvalidWorkerID,
		leave.ErrInvalidPeriodID,
		leave.ErrInvalidLeaveTypeID,
		leave.ErrStartDateRequired,
		leave.ErrInvalidDateRange,
		leave.ErrInvalidPage,
		leave.ErrInvalidLimit,
		leave.ErrStartOutsidePeriod,
		leave.ErrStartBeforePreviousEnd,
		leave.ErrLeaveAlreadyOpen,
		audit.ErrEmptySelectedFields,
		audit.ErrInvalidSelectedField,
		audit.ErrInvalidTime,
		audit.ErrInvalidMonth,
		audit.ErrInvalidYear,
		audit.ErrInvalidEmployment,
		audit.ErrInvalidApafa,
		audit.ErrInvalidTracking,
		audit.ErrInvalidPage,
		audit.ErrInvalidLimit,
	):
		return http.StatusBadRequest
	case isAny(err,
		period.ErrPeriodNotFound,
		period.ErrWorkerNotFound,
		period.ErrWorkplaceNotFound,
		leave.ErrLeaveNotFound,
		leave.ErrLeaveTypeNotFound,
		worker.ErrWorkerNotFound,
	):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError はドメインエラーを HTTP ステータスに変換して返します。500 の場合は原因をログに残し、詳細は返しません。
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		writeError(w, status, "invalid request", err)
	case http.StatusNotFound:
		writeError(w, status, "not found", err)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
		writeError(w, status, "internal server error", nil)
	}
}
