package leave

import (
	"context"
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// Repository は休職永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, l *Leave) (*Leave, error)
	Update(ctx context.Context, l *Leave) (*Leave, error)
	Delete(ctx context.Context, id ids.LeaveID) error
	DeleteByPeriod(ctx context.Context, periodID ids.PeriodID) (int64, error)
	FindByID(ctx context.Context, id ids.LeaveID) (*Leave, error)
	// ListOpenByPeriod は雇用期間内の継続中 (active かつ実終了日なし) の休職を返します。
	ListOpenByPeriod(ctx context.Context, periodID ids.PeriodID) ([]*Leave, error)
	// FindLatestClosedByPeriod は実終了日を持つ休職のうち開始日が最も新しいものを返します。
	// 該当がなければ ErrLeaveNotFound を返します。
	FindLatestClosedByPeriod(ctx context.Context, periodID ids.PeriodID) (*Leave, error)
	List(ctx context.Context, filter ListLeavesFilter) ([]*Leave, int, error)
	ListByWorkersAndTypes(ctx context.Context, workerIDs []ids.WorkerID, typeIDs []ids.LeaveTypeID) ([]*Leave, error)
}

// ListLeavesFilter は一覧取得用フィルタです。StartFrom/StartTo は開始日に対する両端含みの範囲です。
type ListLeavesFilter struct {
	WorkerID    *ids.WorkerID
	PeriodID    *ids.PeriodID
	LeaveTypeID *ids.LeaveTypeID
	Active      *bool
	OpenOnly    bool
	StartFrom   *time.Time
	StartTo     *time.Time
	Limit       int
	Offset      int
}
