package period

import (
	"context"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// Repository は雇用期間永続化の抽象です。
type Repository interface {
	Create(ctx context.Context, p *Period) (*Period, error)
	Update(ctx context.Context, p *Period) (*Period, error)
	Delete(ctx context.Context, id ids.PeriodID) error
	FindByID(ctx context.Context, id ids.PeriodID) (*Period, error)
	List(ctx context.Context, filter ListPeriodsFilter) ([]*Period, int, error)
	ListByWorkers(ctx context.Context, workerIDs []ids.WorkerID, excludeWorkplace *ids.WorkplaceID) ([]*Period, error)
}

// Finder は ID による雇用期間の参照のみを必要とする利用者向けの抽象です。
type Finder interface {
	FindByID(ctx context.Context, id ids.PeriodID) (*Period, error)
}

// LeaveRemover は雇用期間の物理削除時に配下の休職をまとめて削除します。
type LeaveRemover interface {
	DeleteByPeriod(ctx context.Context, periodID ids.PeriodID) (int64, error)
}

// ListPeriodsFilter は一覧取得用フィルタです。
type ListPeriodsFilter struct {
	WorkerID    *ids.WorkerID
	WorkplaceID *ids.WorkplaceID
	Active      *bool
	OpenOnly    bool
	Limit       int
	Offset      int
}
