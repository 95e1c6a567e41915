package audit

import "errors"

var (
	ErrEmptySelectedFields  = errors.New("audit: selected fields must not be empty")
	ErrInvalidSelectedField = errors.New("audit: invalid selected field")
	ErrInvalidTime          = errors.New("audit: months and years must not be empty")
	ErrInvalidMonth         = errors.New("audit: month must be between 1 and 12")
	ErrInvalidYear          = errors.New("audit: year must be positive")
	ErrInvalidEmployment    = errors.New("audit: invalid employment")
	ErrInvalidApafa         = errors.New("audit: invalid apafa")
	ErrInvalidTracking      = errors.New("audit: invalid tracking")
	ErrInvalidPage          = errors.New("audit: invalid page")
	ErrInvalidLimit         = errors.New("audit: invalid limit")
)
