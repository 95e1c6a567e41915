package worker

import "errors"

var (
	// ErrWorkerNotFound は従業員が存在しない場合に返却されます。
	ErrWorkerNotFound = errors.New("worker: not found")
)
