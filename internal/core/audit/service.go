// Package audit は従業員の給与明細の欠落・未署名を在籍期間に照らして検出します。
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager は読み取り専用トランザクションの抽象です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// WorkerFinder は監査対象の従業員を検索します。
type WorkerFinder interface {
	Find(ctx context.Context, filter worker.Filter) ([]*worker.Worker, error)
}

// PeriodLister は複数従業員の雇用期間をまとめて取得します。
type PeriodLister interface {
	ListByWorkers(ctx context.Context, workerIDs []ids.WorkerID, excludeWorkplace *ids.WorkplaceID) ([]*period.Period, error)
}

// LeaveLister は複数従業員の休職を種別で絞り込んで取得します。
type LeaveLister interface {
	ListByWorkersAndTypes(ctx context.Context, workerIDs []ids.WorkerID, typeIDs []ids.LeaveTypeID) ([]*leave.Leave, error)
}

const defaultConcurrency = 4

// Config は監査の外部設定です。
type Config struct {
	// ExcludedWorkplaceID は在籍期間の計算から除く仮の勤務先です。
	ExcludedWorkplaceID *ids.WorkplaceID
	// ExcludedLeaveTypeIDs は労働月に重なると従業員ごと監査対象外になる休職種別です。
	ExcludedLeaveTypeIDs []ids.LeaveTypeID
	Concurrency          int
}

// Report は給与明細監査の結果です。
type Report struct {
	Results      []WorkerFindings
	TotalResults int
	TotalPages   int
	Page         int
}

// UseCase は監査ユースケースの公開インターフェースです。
type UseCase interface {
	AuditPayrollCompliance(ctx context.Context, req Request) (*Report, error)
	CollectPayrollCompliance(ctx context.Context, req Request) ([]WorkerFindings, error)
}

// Service は給与明細監査を実行します。
type Service struct {
	workers WorkerFinder
	periods PeriodLister
	leaves  LeaveLister
	cfg     Config
	clock   Clock
	tx      TransactionManager
	logger  *slog.Logger
}

// NewService は Service を生成します。logger が nil の場合はログを出力しません。
func NewService(workers WorkerFinder, periods PeriodLister, leaves LeaveLister, cfg Config, clock Clock, tx TransactionManager, logger *slog.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Service{
		workers: workers,
		periods: periods,
		leaves:  leaves,
		cfg:     cfg,
		clock:   clock,
		tx:      tx,
		logger:  logger,
	}
}

var _ UseCase = (*Service)(nil)

// AuditPayrollCompliance は条件に合う従業員を監査し、指摘のある従業員をページ単位で返します。
func (s *Service) AuditPayrollCompliance(ctx context.Context, req Request) (*Report, error) {
	c, err := req.normalize()
	if err != nil {
		return nil, err
	}

	all, err := s.collect(ctx, c)
	if err != nil {
		return nil, err
	}

	total := len(all)
	start := (c.page - 1) * c.limit
	if start > total {
		start = total
	}
	end := start + c.limit
	if end > total {
		end = total
	}

	return &Report{
		Results:      all[start:end],
		TotalResults: total,
		TotalPages:   (total + c.limit - 1) / c.limit,
		Page:         c.page,
	}, nil
}

// CollectPayrollCompliance はページングせずに全件の監査結果を返します。
func (s *Service) CollectPayrollCompliance(ctx context.Context, req Request) ([]WorkerFindings, error) {
	c, err := req.normalize()
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, c)
}

func (s *Service) collect(ctx context.Context, c criteria) ([]WorkerFindings, error) {
	var (
		workers []*worker.Worker
		periods []*period.Period
		leaves  []*leave.Leave
	)

	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		var err error
		workers, err = s.workers.Find(ctx, c.filter)
		if err != nil {
			return fmt.Errorf("find workers: %w", err)
		}
		if len(workers) == 0 {
			return nil
		}

		workerIDs := make([]ids.WorkerID, 0, len(workers))
		for _, w := range workers {
			workerIDs = append(workerIDs, w.ID)
		}

		periods, err = s.periods.ListByWorkers(ctx, workerIDs, s.cfg.ExcludedWorkplaceID)
		if err != nil {
			return fmt.Errorf("list periods: %w", err)
		}
		if len(s.cfg.ExcludedLeaveTypeIDs) == 0 {
			return nil
		}
		leaves, err = s.leaves.ListByWorkersAndTypes(ctx, workerIDs, s.cfg.ExcludedLeaveTypeIDs)
		if err != nil {
			return fmt.Errorf("list leaves: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(workers) == 0 {
		return []WorkerFindings{}, nil
	}

	periodsByWorker := make(map[ids.WorkerID][]*period.Period, len(workers))
	for _, p := range periods {
		periodsByWorker[p.WorkerID] = append(periodsByWorker[p.WorkerID], p)
	}
	leavesByWorker := make(map[ids.WorkerID][]*leave.Leave)
	for _, l := range leaves {
		leavesByWorker[l.WorkerID] = append(leavesByWorker[l.WorkerID], l)
	}

	now := s.clock.Now()
	slots := make([]*WorkerFindings, len(workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, w := range workers {
		ps := periodsByWorker[w.ID]
		if len(ps) == 0 {
			continue
		}
		in := evaluation{worker: w, periods: ps, leaves: leavesByWorker[w.ID]}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if f, ok := evaluateWorker(in, c, now); ok {
				slots[i] = &f
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]WorkerFindings, 0, len(slots))
	for _, f := range slots {
		if f != nil {
			results = append(results, *f)
		}
	}

	s.logger.DebugContext(ctx, "payroll audit evaluated",
		slog.Int("workers", len(workers)),
		slog.Int("periods", len(periods)),
		slog.Int("excluded_leaves", len(leaves)),
		slog.Int("findings", len(results)),
	)
	return results, nil
}
