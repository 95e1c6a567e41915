package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	pgdb "github.com/ogurasousui/worker-chronology/internal/platform/db/postgres"
)

const (
	leaveColumns = `id, worker_id, period_id, leave_type_id, start_leave_date,
               expected_end_leave_date, actual_end_leave_date, active, created_at, updated_at`

	openLeaveIndexName = "leaves_one_open_per_period"
)

// LeaveRepository は PostgreSQL を利用した休職永続化の実装です。
type LeaveRepository struct {
	pool pgdb.Queryer
}

// NewLeaveRepository は LeaveRepository を生成します。
func NewLeaveRepository(pool pgdb.Queryer) *LeaveRepository {
	return &LeaveRepository{pool: pool}
}

// Create は休職を新規作成します。
func (r *LeaveRepository) Create(ctx context.Context, l *leave.Leave) (*leave.Leave, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO leaves (id, worker_id, period_id, leave_type_id, start_leave_date,
                            expected_end_leave_date, actual_end_leave_date, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING `+leaveColumns,
		string(l.ID),
		string(l.WorkerID),
		string(l.PeriodID),
		string(l.LeaveTypeID),
		calendar.Date(l.StartLeaveDate),
		nullableDate(l.ExpectedEndLeaveDate),
		nullableDate(l.ActualEndLeaveDate),
		l.Active,
		l.CreatedAt,
		l.UpdatedAt,
	)

	created, err := scanLeave(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return created, nil
}

// Update は休職を更新します。
func (r *LeaveRepository) Update(ctx context.Context, l *leave.Leave) (*leave.Leave, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE leaves
           SET leave_type_id = $1,
               start_leave_date = $2,
               expected_end_leave_date = $3,
               actual_end_leave_date = $4,
               active = $5,
               updated_at = $6
         WHERE id = $7
        RETURNING `+leaveColumns,
		string(l.LeaveTypeID),
		calendar.Date(l.StartLeaveDate),
		nullableDate(l.ExpectedEndLeaveDate),
		nullableDate(l.ActualEndLeaveDate),
		l.Active,
		l.UpdatedAt,
		string(l.ID),
	)

	updated, err := scanLeave(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return updated, nil
}

// Delete は休職を物理削除します。
func (r *LeaveRepository) Delete(ctx context.Context, id ids.LeaveID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM leaves WHERE id = $1`, string(id))
	if err != nil {
		return translateLeavePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveNotFound
	}
	return nil
}

// DeleteByPeriod は雇用期間配下の休職をすべて物理削除し、削除件数を返します。
func (r *LeaveRepository) DeleteByPeriod(ctx context.Context, periodID ids.PeriodID) (int64, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM leaves WHERE period_id = $1`, string(periodID))
	if err != nil {
		return 0, translateLeavePgError(err)
	}
	return tag.RowsAffected(), nil
}

// FindByID は ID で休職を取得します。
func (r *LeaveRepository) FindByID(ctx context.Context, id ids.LeaveID) (*leave.Leave, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+leaveColumns+`
          FROM leaves
         WHERE id = $1
         LIMIT 1
    `, string(id))

	found, err := scanLeave(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return found, nil
}

// ListOpenByPeriod は雇用期間内の継続中の休職を返します。
func (r *LeaveRepository) ListOpenByPeriod(ctx context.Context, periodID ids.PeriodID) ([]*leave.Leave, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+leaveColumns+`
          FROM leaves
         WHERE period_id = $1 AND active AND actual_end_leave_date IS NULL
         ORDER BY start_leave_date, id
    `, string(periodID))
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	defer rows.Close()

	return collectLeaves(rows, 1)
}

// FindLatestClosedByPeriod は実終了日を持つ休職のうち開始日が最も新しいものを返します。
func (r *LeaveRepository) FindLatestClosedByPeriod(ctx context.Context, periodID ids.PeriodID) (*leave.Leave, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+leaveColumns+`
          FROM leaves
         WHERE period_id = $1 AND actual_end_leave_date IS NOT NULL
         ORDER BY start_leave_date DESC, id DESC
         LIMIT 1
    `, string(periodID))

	found, err := scanLeave(row)
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	return found, nil
}

// List は条件に合う休職と総件数を返します。
func (r *LeaveRepository) List(ctx context.Context, filter leave.ListLeavesFilter) ([]*leave.Leave, int, error) {
	if filter.Limit <= 0 {
		return nil, 0, leave.ErrInvalidLimit
	}
	if filter.Offset < 0 {
		return nil, 0, leave.ErrInvalidPage
	}

	var where whereBuilder
	if filter.WorkerID != nil {
		where.add("worker_id = ?", string(*filter.WorkerID))
	}
	if filter.PeriodID != nil {
		where.add("period_id = ?", string(*filter.PeriodID))
	}
	if filter.LeaveTypeID != nil {
		where.add("leave_type_id = ?", string(*filter.LeaveTypeID))
	}
	if filter.Active != nil {
		where.add("active = ?", *filter.Active)
	}
	if filter.OpenOnly {
		where.addRaw("active AND actual_end_leave_date IS NULL")
	}
	if filter.StartFrom != nil {
		where.add("start_leave_date >= ?", calendar.Date(*filter.StartFrom))
	}
	if filter.StartTo != nil {
		where.add("start_leave_date <= ?", calendar.Date(*filter.StartTo))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM leaves`+where.clause(), where.args...).Scan(&total); err != nil {
		return nil, 0, translateLeavePgError(err)
	}

	limitPlaceholder := where.next(filter.Limit)
	offsetPlaceholder := where.next(filter.Offset)

	query := `
        SELECT ` + leaveColumns + `
          FROM leaves` + where.clause() + `
         ORDER BY start_leave_date DESC, id
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, translateLeavePgError(err)
	}
	defer rows.Close()

	leaves, err := collectLeaves(rows, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	return leaves, total, nil
}

// ListByWorkersAndTypes は複数従業員の指定種別の休職をまとめて取得します。
// 終了済みの休職は無効化されているため、有効フラグでは絞り込みません。
func (r *LeaveRepository) ListByWorkersAndTypes(ctx context.Context, workerIDs []ids.WorkerID, typeIDs []ids.LeaveTypeID) ([]*leave.Leave, error) {
	if len(workerIDs) == 0 || len(typeIDs) == 0 {
		return []*leave.Leave{}, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+leaveColumns+`
          FROM leaves
         WHERE worker_id = ANY($1) AND leave_type_id = ANY($2)
         ORDER BY worker_id, start_leave_date
    `, stringSlice(workerIDs), stringSlice(typeIDs))
	if err != nil {
		return nil, translateLeavePgError(err)
	}
	defer rows.Close()

	return collectLeaves(rows, 0)
}

func collectLeaves(rows pgx.Rows, capacity int) ([]*leave.Leave, error) {
	leaves := make([]*leave.Leave, 0, capacity)
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, translateLeavePgError(err)
		}
		leaves = append(leaves, l)
	}
	if err := rows.Err(); err != nil {
		return nil, translateLeavePgError(err)
	}
	return leaves, nil
}

func scanLeave(row pgx.Row) (*leave.Leave, error) {
	var (
		id          string
		workerID    string
		periodID    string
		leaveTypeID string
		start       time.Time
		expectedEnd sql.NullTime
		actualEnd   sql.NullTime
		active      bool
		createdAt   time.Time
		updatedAt   time.Time
	)

	if err := row.Scan(
		&id,
		&workerID,
		&periodID,
		&leaveTypeID,
		&start,
		&expectedEnd,
		&actualEnd,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, leave.ErrLeaveNotFound
		}
		return nil, err
	}

	return &leave.Leave{
		ID:                   ids.LeaveID(id),
		WorkerID:             ids.WorkerID(workerID),
		PeriodID:             ids.PeriodID(periodID),
		LeaveTypeID:          ids.LeaveTypeID(leaveTypeID),
		StartLeaveDate:       calendar.Date(start),
		ExpectedEndLeaveDate: datePtr(expectedEnd),
		ActualEndLeaveDate:   datePtr(actualEnd),
		Active:               active,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}, nil
}

func translateLeavePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return leave.ErrLeaveNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == openLeaveIndexName {
				return leave.ErrLeaveAlreadyOpen
			}
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "leaves_period_id_fkey":
				return period.ErrPeriodNotFound
			case "leaves_worker_id_fkey":
				return leave.ErrInvalidWorkerID
			case "leaves_leave_type_id_fkey":
				return leave.ErrLeaveTypeNotFound
			}
		case checkViolationCode:
			return leave.ErrInvalidDateRange
		}
	}

	return err
}
