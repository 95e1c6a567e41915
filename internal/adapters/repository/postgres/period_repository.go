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
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	pgdb "github.com/ogurasousui/worker-chronology/internal/platform/db/postgres"
)

const periodColumns = `id, worker_id, workplace_id, position, work_shift_type, work_shift_note,
               start_date, end_date, selection_process_id, substituted_worker_id, substituted_leave_id,
               active, created_at, updated_at`

// PeriodRepository は PostgreSQL を利用した雇用期間永続化の実装です。
type PeriodRepository struct {
	pool pgdb.Queryer
}

// NewPeriodRepository は PeriodRepository を生成します。
func NewPeriodRepository(pool pgdb.Queryer) *PeriodRepository {
	return &PeriodRepository{pool: pool}
}

// Create は雇用期間を新規作成します。
func (r *PeriodRepository) Create(ctx context.Context, p *period.Period) (*period.Period, error) {
	substitutedWorker, substitutedLeave := replacementArgs(p.Replacement)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO periods (id, worker_id, workplace_id, position, work_shift_type, work_shift_note,
                             start_date, end_date, selection_process_id, substituted_worker_id, substituted_leave_id,
                             active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        RETURNING `+periodColumns,
		string(p.ID),
		string(p.WorkerID),
		nullableString(p.WorkplaceID),
		p.Position,
		p.WorkShift.Type,
		nullableString(p.WorkShift.Note),
		calendar.Date(p.StartDate),
		nullableDate(p.EndDate),
		nullableString(p.SelectionProcessID),
		substitutedWorker,
		substitutedLeave,
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	)

	created, err := scanPeriod(row)
	if err != nil {
		return nil, translatePeriodPgError(err)
	}
	return created, nil
}

// Update は雇用期間を更新します。
func (r *PeriodRepository) Update(ctx context.Context, p *period.Period) (*period.Period, error) {
	substitutedWorker, substitutedLeave := replacementArgs(p.Replacement)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE periods
           SET workplace_id = $1,
               position = $2,
               work_shift_type = $3,
               work_shift_note = $4,
               start_date = $5,
               end_date = $6,
               selection_process_id = $7,
               substituted_worker_id = $8,
               substituted_leave_id = $9,
               active = $10,
               updated_at = $11
         WHERE id = $12
        RETURNING `+periodColumns,
		nullableString(p.WorkplaceID),
		p.Position,
		p.WorkShift.Type,
		nullableString(p.WorkShift.Note),
		calendar.Date(p.StartDate),
		nullableDate(p.EndDate),
		nullableString(p.SelectionProcessID),
		substitutedWorker,
		substitutedLeave,
		p.Active,
		p.UpdatedAt,
		string(p.ID),
	)

	updated, err := scanPeriod(row)
	if err != nil {
		return nil, translatePeriodPgError(err)
	}
	return updated, nil
}

// Delete は雇用期間を物理削除します。
func (r *PeriodRepository) Delete(ctx context.Context, id ids.PeriodID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM periods WHERE id = $1`, string(id))
	if err != nil {
		return translatePeriodPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return period.ErrPeriodNotFound
	}
	return nil
}

// FindByID は ID で雇用期間を取得します。
func (r *PeriodRepository) FindByID(ctx context.Context, id ids.PeriodID) (*period.Period, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+periodColumns+`
          FROM periods
         WHERE id = $1
         LIMIT 1
    `, string(id))

	found, err := scanPeriod(row)
	if err != nil {
		return nil, translatePeriodPgError(err)
	}
	return found, nil
}

// List は条件に合う雇用期間と総件数を返します。
func (r *PeriodRepository) List(ctx context.Context, filter period.ListPeriodsFilter) ([]*period.Period, int, error) {
	if filter.Limit <= 0 {
		return nil, 0, period.ErrInvalidLimit
	}
	if filter.Offset < 0 {
		return nil, 0, period.ErrInvalidPage
	}

	var where whereBuilder
	if filter.WorkerID != nil {
		where.add("worker_id = ?", string(*filter.WorkerID))
	}
	if filter.WorkplaceID != nil {
		where.add("workplace_id = ?", string(*filter.WorkplaceID))
	}
	if filter.Active != nil {
		where.add("active = ?", *filter.Active)
	}
	if filter.OpenOnly {
		where.addRaw("end_date IS NULL")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM periods`+where.clause(), where.args...).Scan(&total); err != nil {
		return nil, 0, translatePeriodPgError(err)
	}

	limitPlaceholder := where.next(filter.Limit)
	offsetPlaceholder := where.next(filter.Offset)

	query := `
        SELECT ` + periodColumns + `
          FROM periods` + where.clause() + `
         ORDER BY start_date DESC, id
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, translatePeriodPgError(err)
	}
	defer rows.Close()

	periods, err := collectPeriods(rows, filter.Limit)
	if err != nil {
		return nil, 0, err
	}
	return periods, total, nil
}

// ListByWorkers は複数従業員の有効な雇用期間をまとめて取得します。
// excludeWorkplace が指定された場合、その勤務先の期間は除外します。
func (r *PeriodRepository) ListByWorkers(ctx context.Context, workerIDs []ids.WorkerID, excludeWorkplace *ids.WorkplaceID) ([]*period.Period, error) {
	if len(workerIDs) == 0 {
		return []*period.Period{}, nil
	}

	var where whereBuilder
	where.add("worker_id = ANY(?)", stringSlice(workerIDs))
	where.addRaw("active")
	if excludeWorkplace != nil {
		where.add("(workplace_id IS NULL OR workplace_id <> ?)", string(*excludeWorkplace))
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+periodColumns+`
          FROM periods`+where.clause()+`
         ORDER BY worker_id, start_date`, where.args...)
	if err != nil {
		return nil, translatePeriodPgError(err)
	}
	defer rows.Close()

	return collectPeriods(rows, len(workerIDs))
}

func collectPeriods(rows pgx.Rows, capacity int) ([]*period.Period, error) {
	periods := make([]*period.Period, 0, capacity)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, translatePeriodPgError(err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePeriodPgError(err)
	}
	return periods, nil
}

func scanPeriod(row pgx.Row) (*period.Period, error) {
	var (
		id                 string
		workerID           string
		workplaceID        sql.NullString
		position           string
		shiftType          string
		shiftNote          sql.NullString
		startDate          time.Time
		endDate            sql.NullTime
		selectionProcessID sql.NullString
		substitutedWorker  sql.NullString
		substitutedLeave   sql.NullString
		active             bool
		createdAt          time.Time
		updatedAt          time.Time
	)

	if err := row.Scan(
		&id,
		&workerID,
		&workplaceID,
		&position,
		&shiftType,
		&shiftNote,
		&startDate,
		&endDate,
		&selectionProcessID,
		&substitutedWorker,
		&substitutedLeave,
		&active,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, period.ErrPeriodNotFound
		}
		return nil, err
	}

	p := &period.Period{
		ID:                 ids.PeriodID(id),
		WorkerID:           ids.WorkerID(workerID),
		WorkplaceID:        stringPtr[ids.WorkplaceID](workplaceID),
		Position:           position,
		WorkShift:          period.WorkShift{Type: shiftType, Note: stringPtr[string](shiftNote)},
		StartDate:          calendar.Date(startDate),
		EndDate:            datePtr(endDate),
		SelectionProcessID: stringPtr[string](selectionProcessID),
		Active:             active,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
	if substitutedWorker.Valid || substitutedLeave.Valid {
		p.Replacement = &period.Replacement{
			SubstitutedWorkerID: stringPtr[ids.WorkerID](substitutedWorker),
			SubstitutedLeaveID:  stringPtr[ids.LeaveID](substitutedLeave),
		}
	}
	return p, nil
}

func replacementArgs(r *period.Replacement) (any, any) {
	if r == nil {
		return nil, nil
	}
	return nullableString(r.SubstitutedWorkerID), nullableString(r.SubstitutedLeaveID)
}

func translatePeriodPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return period.ErrPeriodNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case foreignKeyViolationCode:
			switch pgErr.ConstraintName {
			case "periods_worker_id_fkey":
				return period.ErrWorkerNotFound
			case "periods_workplace_id_fkey":
				return period.ErrWorkplaceNotFound
			}
		case checkViolationCode:
			return period.ErrInvalidDateRange
		}
	}

	return err
}
