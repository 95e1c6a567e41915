package period

import "errors"

var (
	ErrInvalidID          = errors.New("period: invalid id")
	ErrInvalidWorkerID    = errors.New("period: invalid worker id")
	ErrInvalidWorkplaceID = errors.New("period: invalid workplace id")
	ErrInvalidPosition    = errors.New("period: invalid position")
	ErrInvalidWorkShift   = errors.New("period: invalid work shift")
	ErrInvalidReplacement = errors.New("period: invalid replacement")
	ErrStartDateRequired  = errors.New("period: start date is required")
	ErrInvalidDateRange   = errors.New("period: end date must not be before start date")
	ErrInvalidPage        = errors.New("period: invalid page")
	ErrInvalidLimit       = errors.New("period: invalid limit")
	ErrPeriodNotFound     = errors.New("period: not found")
	ErrWorkerNotFound     = errors.New("period: worker not found")
	ErrWorkplaceNotFound  = errors.New("period: workplace not found")
)
