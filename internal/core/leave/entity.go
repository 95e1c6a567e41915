package leave

import (
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// Leave は雇用期間内の休職期間です。ActualEndLeaveDate が nil の場合は継続中です。
type Leave struct {
	ID                   ids.LeaveID
	WorkerID             ids.WorkerID
	PeriodID             ids.PeriodID
	LeaveTypeID          ids.LeaveTypeID
	StartLeaveDate       time.Time
	ExpectedEndLeaveDate *time.Time
	ActualEndLeaveDate   *time.Time
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsOpen は有効かつ実終了日が未設定かを返します。
func (l *Leave) IsOpen() bool {
	return l.Active && l.ActualEndLeaveDate == nil
}

// Covers は休職が [from, to] の日付範囲と重なるかを返します。
func (l *Leave) Covers(from, to time.Time) bool {
	if l.StartLeaveDate.After(to) {
		return false
	}
	return l.ActualEndLeaveDate == nil || !l.ActualEndLeaveDate.Before(from)
}
