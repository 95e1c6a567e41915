package period

import (
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// WorkShift は勤務形態です。
type WorkShift struct {
	Type string
	Note *string
}

// Replacement は代替雇用の場合の代替対象です。
type Replacement struct {
	SubstitutedWorkerID *ids.WorkerID
	SubstitutedLeaveID  *ids.LeaveID
}

// Period は 1 回の雇用契約期間を表すエンティティです。EndDate が nil の場合は継続中です。
type Period struct {
	ID                 ids.PeriodID
	WorkerID           ids.WorkerID
	WorkplaceID        *ids.WorkplaceID
	Position           string
	WorkShift          WorkShift
	StartDate          time.Time
	EndDate            *time.Time
	SelectionProcessID *string
	Replacement        *Replacement
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsOpen は終了日が未設定かを返します。
func (p *Period) IsOpen() bool {
	return p.EndDate == nil
}

// Contains は日付が期間内 (両端含む) にあるかを返します。継続中の期間に上限はありません。
func (p *Period) Contains(date time.Time) bool {
	if date.Before(p.StartDate) {
		return false
	}
	if p.EndDate != nil && date.After(*p.EndDate) {
		return false
	}
	return true
}
