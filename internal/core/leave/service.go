package leave

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service は休職のライフサイクルを管理し、雇用期間に対する時間的な不変条件を保証します。
type Service struct {
	repo    Repository
	periods period.Finder
	clock   Clock
	tx      TransactionManager
}

// UseCase は休職ユースケースの公開インターフェースです。
type UseCase interface {
	CreateLeave(ctx context.Context, in CreateLeaveInput) (*Leave, error)
	UpdateLeave(ctx context.Context, in UpdateLeaveInput) (*Leave, error)
	CloseLeave(ctx context.Context, in CloseLeaveInput) (*Leave, error)
	SoftDeleteLeave(ctx context.Context, id ids.LeaveID) (*Leave, error)
	HardDeleteLeave(ctx context.Context, id ids.LeaveID) error
	GetLeave(ctx context.Context, id ids.LeaveID) (*Leave, error)
	ListLeaves(ctx context.Context, in ListLeavesInput) (*ListLeavesResult, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, periods period.Finder, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, periods: periods, clock: clock, tx: tx}
}

// CreateLeaveInput は休職作成時の入力です。
type CreateLeaveInput struct {
	WorkerID             ids.WorkerID
	PeriodID             ids.PeriodID
	LeaveTypeID          ids.LeaveTypeID
	StartLeaveDate       *time.Time
	ExpectedEndLeaveDate *time.Time
}

// UpdateLeaveInput は休職更新時の入力です。XSet が true の場合、nil は値の削除を意味します。
type UpdateLeaveInput struct {
	ID                      ids.LeaveID
	LeaveTypeID             *ids.LeaveTypeID
	StartLeaveDate          *time.Time
	ExpectedEndLeaveDate    *time.Time
	ExpectedEndLeaveDateSet bool
	ActualEndLeaveDate      *time.Time
	ActualEndLeaveDateSet   bool
	Active                  *bool
}

// CloseLeaveInput は休職終了時の入力です。ActualEndLeaveDate が nil なら現在日付で終了します。
type CloseLeaveInput struct {
	ID                 ids.LeaveID
	ActualEndLeaveDate *time.Time
}

// ListLeavesInput は一覧取得時の入力です。
type ListLeavesInput struct {
	WorkerID    *ids.WorkerID
	PeriodID    *ids.PeriodID
	LeaveTypeID *ids.LeaveTypeID
	Active      *bool
	OpenOnly    bool
	StartFrom   *time.Time
	StartTo     *time.Time
	Page        int
	Limit       int
}

// ListLeavesResult は一覧取得結果です。
type ListLeavesResult struct {
	Leaves       []*Leave
	TotalResults int
	TotalPages   int
	Page         int
}

// CreateLeave は休職を作成します。すべての検証は書き込みより前に完了します。
func (s *Service) CreateLeave(ctx context.Context, in CreateLeaveInput) (*Leave, error) {
	workerID, err := ids.ParseWorkerID(string(in.WorkerID))
	if err != nil {
		return nil, ErrInvalidWorkerID
	}

	periodID, err := ids.ParsePeriodID(string(in.PeriodID))
	if err != nil {
		return nil, ErrInvalidPeriodID
	}

	leaveTypeID, err := ids.ParseLeaveTypeID(string(in.LeaveTypeID))
	if err != nil {
		return nil, ErrInvalidLeaveTypeID
	}

	if in.StartLeaveDate == nil || in.StartLeaveDate.IsZero() {
		return nil, ErrStartDateRequired
	}
	start := calendar.Date(*in.StartLeaveDate)

	var created *Leave
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		owner, err := period.FindForWorker(txCtx, s.periods, workerID, periodID)
		if err != nil {
			return err
		}

		if !owner.Contains(start) {
			return ErrStartOutsidePeriod
		}

		if err := s.ensureNoOtherOpenLeave(txCtx, periodID, ""); err != nil {
			return err
		}

		previous, err := s.repo.FindLatestClosedByPeriod(txCtx, periodID)
		if err != nil && !errors.Is(err, ErrLeaveNotFound) {
			return err
		}
		if previous != nil && !start.After(*previous.ActualEndLeaveDate) {
			return ErrStartBeforePreviousEnd
		}

		now := s.clock.Now()
		result, err := s.repo.Create(txCtx, &Leave{
			ID:                   ids.NewLeaveID(),
			WorkerID:             workerID,
			PeriodID:             periodID,
			LeaveTypeID:          leaveTypeID,
			StartLeaveDate:       start,
			ExpectedEndLeaveDate: calendar.DatePtr(in.ExpectedEndLeaveDate),
			Active:               true,
			CreatedAt:            now,
			UpdatedAt:            now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateLeave は休職を部分更新します。更新後に継続中となる場合は同じ雇用期間の他の継続中休職を確認します。
func (s *Service) UpdateLeave(ctx context.Context, in UpdateLeaveInput) (*Leave, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Leave
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if in.LeaveTypeID != nil {
			leaveTypeID, err := ids.ParseLeaveTypeID(string(*in.LeaveTypeID))
			if err != nil {
				return ErrInvalidLeaveTypeID
			}
			existing.LeaveTypeID = leaveTypeID
		}

		if in.StartLeaveDate != nil {
			if in.StartLeaveDate.IsZero() {
				return ErrStartDateRequired
			}
			existing.StartLeaveDate = calendar.Date(*in.StartLeaveDate)
		}

		if in.ExpectedEndLeaveDateSet {
			existing.ExpectedEndLeaveDate = calendar.DatePtr(in.ExpectedEndLeaveDate)
		}

		if in.ActualEndLeaveDateSet {
			existing.ActualEndLeaveDate = calendar.DatePtr(in.ActualEndLeaveDate)
		}

		if in.Active != nil {
			existing.Active = *in.Active
		}

		if err := validateDateRange(existing.StartLeaveDate, existing.ActualEndLeaveDate); err != nil {
			return err
		}

		if existing.IsOpen() {
			if err := s.ensureNoOtherOpenLeave(txCtx, existing.PeriodID, existing.ID); err != nil {
				return err
			}
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// CloseLeave は実終了日を設定し、休職を無効化します。
func (s *Service) CloseLeave(ctx context.Context, in CloseLeaveInput) (*Leave, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	var closed *Leave
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		end := calendar.Date(now)
		if in.ActualEndLeaveDate != nil {
			end = calendar.Date(*in.ActualEndLeaveDate)
		}

		if err := validateDateRange(existing.StartLeaveDate, &end); err != nil {
			return err
		}

		existing.ActualEndLeaveDate = &end
		existing.Active = false
		existing.UpdatedAt = now

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		closed = result
		return nil
	}); err != nil {
		return nil, err
	}

	return closed, nil
}

// SoftDeleteLeave は休職を無効化します。
func (s *Service) SoftDeleteLeave(ctx context.Context, id ids.LeaveID) (*Leave, error) {
	active := false
	return s.UpdateLeave(ctx, UpdateLeaveInput{ID: id, Active: &active})
}

// HardDeleteLeave は休職を物理削除します。
func (s *Service) HardDeleteLeave(ctx context.Context, id ids.LeaveID) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, parsed)
	})
}

// GetLeave は休職を取得します。
func (s *Service) GetLeave(ctx context.Context, id ids.LeaveID) (*Leave, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var result *Leave
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, parsed)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListLeaves は休職の一覧を取得します。
func (s *Service) ListLeaves(ctx context.Context, in ListLeavesInput) (*ListLeavesResult, error) {
	page, limit, err := normalizePaging(in.Page, in.Limit)
	if err != nil {
		return nil, err
	}

	filter := ListLeavesFilter{
		Active:    in.Active,
		OpenOnly:  in.OpenOnly,
		StartFrom: calendar.DatePtr(in.StartFrom),
		StartTo:   calendar.DatePtr(in.StartTo),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	if filter.StartFrom != nil && filter.StartTo != nil && filter.StartTo.Before(*filter.StartFrom) {
		return nil, ErrInvalidDateRange
	}

	if in.WorkerID != nil {
		workerID, err := ids.ParseWorkerID(string(*in.WorkerID))
		if err != nil {
			return nil, ErrInvalidWorkerID
		}
		filter.WorkerID = &workerID
	}

	if in.PeriodID != nil {
		periodID, err := ids.ParsePeriodID(string(*in.PeriodID))
		if err != nil {
			return nil, ErrInvalidPeriodID
		}
		filter.PeriodID = &periodID
	}

	if in.LeaveTypeID != nil {
		leaveTypeID, err := ids.ParseLeaveTypeID(string(*in.LeaveTypeID))
		if err != nil {
			return nil, ErrInvalidLeaveTypeID
		}
		filter.LeaveTypeID = &leaveTypeID
	}

	var (
		leaves []*Leave
		total  int
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, count, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		leaves = found
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListLeavesResult{
		Leaves:       leaves,
		TotalResults: total,
		TotalPages:   totalPages(total, limit),
		Page:         page,
	}, nil
}

func (s *Service) ensureNoOtherOpenLeave(ctx context.Context, periodID ids.PeriodID, self ids.LeaveID) error {
	open, err := s.repo.ListOpenByPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	for _, l := range open {
		if l.ID != self {
			return fmt.Errorf("%w: %s", ErrLeaveAlreadyOpen, l.ID)
		}
	}
	return nil
}

func parseID(id ids.LeaveID) (ids.LeaveID, error) {
	parsed, err := ids.ParseLeaveID(string(id))
	if err != nil {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	return parsed, nil
}

func validateDateRange(start time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

func normalizePaging(page, limit int) (int, int, error) {
	if limit < 0 || limit > maxListLimit {
		return 0, 0, ErrInvalidLimit
	}
	if limit == 0 {
		limit = defaultListLimit
	}
	if page < 0 {
		return 0, 0, ErrInvalidPage
	}
	if page == 0 {
		page = 1
	}
	// (page-1)*limit がオフセットとして int に収まる範囲に制限します。
	if page-1 > math.MaxInt/limit {
		return 0, 0, ErrInvalidPage
	}
	return page, limit, nil
}

func totalPages(total, limit int) int {
	if total == 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
