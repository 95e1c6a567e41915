package period

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
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

// Service は雇用期間のライフサイクルを管理します。
type Service struct {
	repo   Repository
	leaves LeaveRemover
	clock  Clock
	tx     TransactionManager
}

// UseCase は雇用期間ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePeriod(ctx context.Context, in CreatePeriodInput) (*Period, error)
	UpdatePeriod(ctx context.Context, in UpdatePeriodInput) (*Period, error)
	ClosePeriod(ctx context.Context, in ClosePeriodInput) (*Period, error)
	SoftDeletePeriod(ctx context.Context, id ids.PeriodID) (*Period, error)
	HardDeletePeriod(ctx context.Context, id ids.PeriodID) error
	GetPeriod(ctx context.Context, id ids.PeriodID) (*Period, error)
	ListPeriods(ctx context.Context, in ListPeriodsInput) (*ListPeriodsResult, error)
}

// NewService は Service を生成します。leaves は物理削除時の連鎖削除に使用します。
func NewService(repo Repository, leaves LeaveRemover, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, leaves: leaves, clock: clock, tx: tx}
}

// CreatePeriodInput は雇用期間作成時の入力です。
type CreatePeriodInput struct {
	WorkerID           ids.WorkerID
	WorkplaceID        *ids.WorkplaceID
	Position           string
	WorkShift          WorkShift
	StartDate          *time.Time
	EndDate            *time.Time
	SelectionProcessID *string
	Replacement        *Replacement
}

// UpdatePeriodInput は雇用期間更新時の入力です。XSet が true の場合、nil は値の削除を意味します。
type UpdatePeriodInput struct {
	ID                    ids.PeriodID
	WorkplaceID           *ids.WorkplaceID
	WorkplaceIDSet        bool
	Position              *string
	WorkShift             *WorkShift
	StartDate             *time.Time
	EndDate               *time.Time
	EndDateSet            bool
	SelectionProcessID    *string
	SelectionProcessIDSet bool
	Replacement           *Replacement
	ReplacementSet        bool
	Active                *bool
}

// ClosePeriodInput は雇用期間終了時の入力です。EndDate が nil なら現在日付で終了します。
type ClosePeriodInput struct {
	ID      ids.PeriodID
	EndDate *time.Time
}

// ListPeriodsInput は一覧取得時の入力です。
type ListPeriodsInput struct {
	WorkerID    *ids.WorkerID
	WorkplaceID *ids.WorkplaceID
	Active      *bool
	OpenOnly    bool
	Page        int
	Limit       int
}

// ListPeriodsResult は一覧取得結果です。
type ListPeriodsResult struct {
	Periods      []*Period
	TotalResults int
	TotalPages   int
	Page         int
}

// CreatePeriod は新しい雇用期間を作成します。勤務先や職位の参照整合性は永続化層で検証されます。
func (s *Service) CreatePeriod(ctx context.Context, in CreatePeriodInput) (*Period, error) {
	workerID, err := ids.ParseWorkerID(string(in.WorkerID))
	if err != nil {
		return nil, ErrInvalidWorkerID
	}

	if in.StartDate == nil || in.StartDate.IsZero() {
		return nil, ErrStartDateRequired
	}

	position, err := normalizePosition(in.Position)
	if err != nil {
		return nil, err
	}

	workplaceID, err := normalizeWorkplaceID(in.WorkplaceID)
	if err != nil {
		return nil, err
	}

	shift, err := normalizeWorkShift(in.WorkShift)
	if err != nil {
		return nil, err
	}

	replacement, err := normalizeReplacement(in.Replacement)
	if err != nil {
		return nil, err
	}

	startDate := calendar.Date(*in.StartDate)
	endDate := calendar.DatePtr(in.EndDate)
	if err := validateDateRange(startDate, endDate); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := &Period{
		ID:                 ids.NewPeriodID(),
		WorkerID:           workerID,
		WorkplaceID:        workplaceID,
		Position:           position,
		WorkShift:          shift,
		StartDate:          startDate,
		EndDate:            endDate,
		SelectionProcessID: normalizeOptionalString(in.SelectionProcessID),
		Replacement:        replacement,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var created *Period
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.Create(txCtx, p)
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

// UpdatePeriod は雇用期間を部分更新します。
// 日付を変更しても配下の休職は再検証しません。休職が期間外になる更新も受け付けます。
func (s *Service) UpdatePeriod(ctx context.Context, in UpdatePeriodInput) (*Period, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	var updated *Period
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		if in.WorkplaceIDSet {
			workplaceID, err := normalizeWorkplaceID(in.WorkplaceID)
			if err != nil {
				return err
			}
			existing.WorkplaceID = workplaceID
		}

		if in.Position != nil {
			position, err := normalizePosition(*in.Position)
			if err != nil {
				return err
			}
			existing.Position = position
		}

		if in.WorkShift != nil {
			shift, err := normalizeWorkShift(*in.WorkShift)
			if err != nil {
				return err
			}
			existing.WorkShift = shift
		}

		if in.StartDate != nil {
			if in.StartDate.IsZero() {
				return ErrStartDateRequired
			}
			existing.StartDate = calendar.Date(*in.StartDate)
		}

		if in.EndDateSet {
			existing.EndDate = calendar.DatePtr(in.EndDate)
		}

		if in.SelectionProcessIDSet {
			existing.SelectionProcessID = normalizeOptionalString(in.SelectionProcessID)
		}

		if in.ReplacementSet {
			replacement, err := normalizeReplacement(in.Replacement)
			if err != nil {
				return err
			}
			existing.Replacement = replacement
		}

		if in.Active != nil {
			existing.Active = *in.Active
		}

		if err := validateDateRange(existing.StartDate, existing.EndDate); err != nil {
			return err
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

// ClosePeriod は終了日を設定して雇用期間を終了します。
func (s *Service) ClosePeriod(ctx context.Context, in ClosePeriodInput) (*Period, error) {
	id, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}

	var closed *Period
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		endDate := calendar.Date(now)
		if in.EndDate != nil {
			endDate = calendar.Date(*in.EndDate)
		}

		if err := validateDateRange(existing.StartDate, &endDate); err != nil {
			return err
		}

		existing.EndDate = &endDate
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

// SoftDeletePeriod は雇用期間を無効化します。配下の休職には影響しません。
func (s *Service) SoftDeletePeriod(ctx context.Context, id ids.PeriodID) (*Period, error) {
	active := false
	return s.UpdatePeriod(ctx, UpdatePeriodInput{ID: id, Active: &active})
}

// HardDeletePeriod は雇用期間と配下の休職を 1 つのトランザクションで物理削除します。
func (s *Service) HardDeletePeriod(ctx context.Context, id ids.PeriodID) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, parsed); err != nil {
			return err
		}

		if s.leaves != nil {
			if _, err := s.leaves.DeleteByPeriod(txCtx, parsed); err != nil {
				return fmt.Errorf("delete leaves of period %s: %w", parsed, err)
			}
		}

		return s.repo.Delete(txCtx, parsed)
	})
}

// GetPeriod は雇用期間を取得します。
func (s *Service) GetPeriod(ctx context.Context, id ids.PeriodID) (*Period, error) {
	parsed, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var result *Period
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

// ListPeriods は雇用期間の一覧を取得します。
func (s *Service) ListPeriods(ctx context.Context, in ListPeriodsInput) (*ListPeriodsResult, error) {
	page, limit, err := normalizePaging(in.Page, in.Limit)
	if err != nil {
		return nil, err
	}

	filter := ListPeriodsFilter{
		Active:   in.Active,
		OpenOnly: in.OpenOnly,
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	if in.WorkerID != nil {
		workerID, err := ids.ParseWorkerID(string(*in.WorkerID))
		if err != nil {
			return nil, ErrInvalidWorkerID
		}
		filter.WorkerID = &workerID
	}

	if in.WorkplaceID != nil {
		workplaceID, err := normalizeWorkplaceID(in.WorkplaceID)
		if err != nil {
			return nil, err
		}
		filter.WorkplaceID = workplaceID
	}

	var (
		periods []*Period
		total   int
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, count, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		periods = found
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListPeriodsResult{
		Periods:      periods,
		TotalResults: total,
		TotalPages:   totalPages(total, limit),
		Page:         page,
	}, nil
}

// FindForWorker は従業員に属する雇用期間を取得します。他の従業員の期間は存在しないものとして扱います。
func FindForWorker(ctx context.Context, repo Finder, workerID ids.WorkerID, id ids.PeriodID) (*Period, error) {
	found, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found.WorkerID != workerID {
		return nil, ErrPeriodNotFound
	}
	return found, nil
}

func parseID(id ids.PeriodID) (ids.PeriodID, error) {
	parsed, err := ids.ParsePeriodID(string(id))
	if err != nil {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	return parsed, nil
}

func normalizePosition(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidPosition
	}
	return trimmed, nil
}

func normalizeWorkplaceID(raw *ids.WorkplaceID) (*ids.WorkplaceID, error) {
	if raw == nil {
		return nil, nil
	}
	parsed, err := ids.ParseWorkplaceID(string(*raw))
	if err != nil {
		return nil, ErrInvalidWorkplaceID
	}
	return &parsed, nil
}

func normalizeWorkShift(shift WorkShift) (WorkShift, error) {
	shiftType := strings.TrimSpace(shift.Type)
	if shiftType == "" {
		return WorkShift{}, ErrInvalidWorkShift
	}
	return WorkShift{Type: shiftType, Note: normalizeOptionalString(shift.Note)}, nil
}

func normalizeOptionalString(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// normalizeReplacement は代替対象の従業員 ID と休職 ID を検証し、複製を返します。
func normalizeReplacement(r *Replacement) (*Replacement, error) {
	if r == nil {
		return nil, nil
	}
	out := &Replacement{}
	if r.SubstitutedWorkerID != nil {
		workerID, err := ids.ParseWorkerID(string(*r.SubstitutedWorkerID))
		if err != nil {
			return nil, fmt.Errorf("substituted worker id: %w", ErrInvalidReplacement)
		}
		out.SubstitutedWorkerID = &workerID
	}
	if r.SubstitutedLeaveID != nil {
		leaveID, err := ids.ParseLeaveID(string(*r.SubstitutedLeaveID))
		if err != nil {
			return nil, fmt.Errorf("substituted leave id: %w", ErrInvalidReplacement)
		}
		out.SubstitutedLeaveID = &leaveID
	}
	return out, nil
}

func cloneReplacement(r *Replacement) *Replacement {
	if r == nil {
		return nil
	}
	clone := *r
	if r.SubstitutedWorkerID != nil {
		v := *r.SubstitutedWorkerID
		clone.SubstitutedWorkerID = &v
	}
	if r.SubstitutedLeaveID != nil {
		v := *r.SubstitutedLeaveID
		clone.SubstitutedLeaveID = &v
	}
	return &clone
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
