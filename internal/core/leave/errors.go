package leave

import "errors"

var (
	ErrInvalidID          = errors.New("leave: invalid id")
	ErrInvalidWorkerID    = errors.New("leave: invalid worker id")
	ErrInvalidPeriodID    = errors.New("leave: invalid period id")
	ErrInvalidLeaveTypeID = errors.New("leave: invalid leave type id")
	ErrStartDateRequired  = errors.New("leave: start leave date is required")
	ErrInvalidDateRange   = errors.New("leave: end date must not be before start date")
	ErrInvalidPage        = errors.New("leave: invalid page")
	ErrInvalidLimit       = errors.New("leave: invalid limit")
	ErrLeaveNotFound      = errors.New("leave: not found")
	ErrLeaveTypeNotFound  = errors.New("leave: leave type not found")

	// ErrStartOutsidePeriod は開始日が雇用期間の範囲外の場合に返却されます。
	ErrStartOutsidePeriod = errors.New("leave: start leave date is outside the period")
	// ErrStartBeforePreviousEnd は直前に終了した休職の終了日以前に開始しようとした場合に返却されます。
	ErrStartBeforePreviousEnd = errors.New("leave: start leave date must be after the previous leave end date")
	// ErrLeaveAlreadyOpen は同じ雇用期間に継続中の休職が既に存在する場合に返却されます。
	ErrLeaveAlreadyOpen = errors.New("leave: an open leave already exists for the period")
)
