package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var periodColumnNames = []string{
	"id", "worker_id", "workplace_id", "position", "work_shift_type", "work_shift_note",
	"start_date", "end_date", "selection_process_id", "substituted_worker_id", "substituted_leave_id",
	"active", "created_at", "updated_at",
}

func TestScanPeriod_Success(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 14 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "period-1"
		*(dest[1].(*string)) = "worker-1"
		*(dest[2].(*sql.NullString)) = sql.NullString{String: "wp-1", Valid: true}
		*(dest[3].(*string)) = "nurse"
		*(dest[4].(*string)) = "morning"
		*(dest[6].(*time.Time)) = start
		*(dest[7].(*sql.NullTime)) = sql.NullTime{Time: end, Valid: true}
		*(dest[10].(*sql.NullString)) = sql.NullString{String: "leave-9", Valid: true}
		*(dest[11].(*bool)) = true
		*(dest[12].(*time.Time)) = now
		*(dest[13].(*time.Time)) = now
		return nil
	}}

	p, err := scanPeriod(row)
	if err != nil {
		t.Fatalf("scanPeriod returned error: %v", err)
	}
	if p.WorkplaceID == nil || *p.WorkplaceID != "wp-1" {
		t.Fatalf("expected workplace, got %+v", p.WorkplaceID)
	}
	if !p.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected start truncated to date, got %v", p.StartDate)
	}
	if p.EndDate == nil || !p.EndDate.Equal(end) {
		t.Fatalf("expected end date, got %+v", p.EndDate)
	}
	if p.WorkShift.Note != nil {
		t.Fatalf("expected nil note, got %v", *p.WorkShift.Note)
	}
	if p.Replacement == nil || p.Replacement.SubstitutedWorkerID != nil || p.Replacement.SubstitutedLeaveID == nil {
		t.Fatalf("unexpected replacement: %+v", p.Replacement)
	}
}

func TestScanPeriod_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	if _, err := scanPeriod(row); !errors.Is(err, period.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestTranslatePeriodPgError(t *testing.T) {
	t.Parallel()

	workerFK := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "periods_worker_id_fkey"}
	if !errors.Is(translatePeriodPgError(workerFK), period.ErrWorkerNotFound) {
		t.Fatal("expected worker fk violation to map to ErrWorkerNotFound")
	}

	workplaceFK := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "periods_workplace_id_fkey"}
	if !errors.Is(translatePeriodPgError(workplaceFK), period.ErrWorkplaceNotFound) {
		t.Fatal("expected workplace fk violation to map to ErrWorkplaceNotFound")
	}

	checkErr := &pgconn.PgError{Code: checkViolationCode}
	if !errors.Is(translatePeriodPgError(checkErr), period.ErrInvalidDateRange) {
		t.Fatal("expected check violation to map to ErrInvalidDateRange")
	}

	restrict := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "leaves_period_id_fkey"}
	if translatePeriodPgError(restrict) != error(restrict) {
		t.Fatal("expected unrelated fk violation to pass through")
	}

	other := errors.New("other")
	if translatePeriodPgError(other) != other {
		t.Fatal("unexpected translation for generic error")
	}
}

func TestPeriodRepository_Create(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPeriodRepository(mock)
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wp := ids.WorkplaceID("wp-1")

	p := &period.Period{
		ID:          "period-1",
		WorkerID:    "worker-1",
		WorkplaceID: &wp,
		Position:    "nurse",
		WorkShift:   period.WorkShift{Type: "night"},
		StartDate:   start,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO periods`)).
		WithArgs("period-1", "worker-1", "wp-1", "nurse", "night", nil, start, nil, nil, nil, nil, true, now, now).
		WillReturnRows(pgxmock.NewRows(periodColumnNames).
			AddRow("period-1", "worker-1", "wp-1", "nurse", "night", nil, start, nil, nil, nil, nil, true, now, now))

	created, err := repo.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "period-1" || created.EndDate != nil || created.Replacement != nil {
		t.Fatalf("unexpected period: %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPeriodRepository_Create_WorkerMissing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPeriodRepository(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO periods`)).
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "periods_worker_id_fkey"})

	_, err = repo.Create(context.Background(), &period.Period{ID: "period-1", WorkerID: "worker-x", StartDate: time.Now()})
	if !errors.Is(err, period.ErrWorkerNotFound) {
		t.Fatalf("expected ErrWorkerNotFound, got %v", err)
	}
}

func TestPeriodRepository_Delete_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPeriodRepository(mock)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM periods WHERE id = $1`)).
		WithArgs("period-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "period-1"); !errors.Is(err, period.ErrPeriodNotFound) {
		t.Fatalf("expected ErrPeriodNotFound, got %v", err)
	}
}

func TestPeriodRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPeriodRepository(mock)
	workerID := ids.WorkerID("worker-1")
	active := true
	now := time.Now().UTC()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM periods WHERE worker_id = $1 AND active = $2 AND end_date IS NULL`)).
		WithArgs("worker-1", true).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	mock.ExpectQuery(regexp.QuoteMeta(`FROM periods WHERE worker_id = $1 AND active = $2 AND end_date IS NULL`) + `(?s).*LIMIT \$3\s+OFFSET \$4`).
		WithArgs("worker-1", true, 2, 2).
		WillReturnRows(pgxmock.NewRows(periodColumnNames).
			AddRow("period-3", "worker-1", nil, "nurse", "day", nil, start, nil, nil, nil, nil, true, now, now))

	periods, total, err := repo.List(context.Background(), period.ListPeriodsFilter{
		WorkerID: &workerID,
		Active:   &active,
		OpenOnly: true,
		Limit:    2,
		Offset:   2,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(periods) != 1 {
		t.Fatalf("expected total 3 and 1 row, got %d and %d", total, len(periods))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPeriodRepository_List_InvalidLimit(t *testing.T) {
	t.Parallel()

	repo := NewPeriodRepository(nil)
	if _, _, err := repo.List(context.Background(), period.ListPeriodsFilter{}); !errors.Is(err, period.ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestPeriodRepository_ListByWorkers(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewPeriodRepository(mock)
	excluded := ids.WorkplaceID("placeholder")
	now := time.Now().UTC()
	start := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM periods WHERE worker_id = ANY($1) AND active AND (workplace_id IS NULL OR workplace_id <> $2)`)).
		WithArgs([]string{"worker-1", "worker-2"}, "placeholder").
		WillReturnRows(pgxmock.NewRows(periodColumnNames).
			AddRow("period-1", "worker-1", nil, "nurse", "day", nil, start, nil, nil, nil, nil, true, now, now).
			AddRow("period-2", "worker-2", "wp-2", "cook", "day", nil, start, nil, nil, nil, nil, true, now, now))

	periods, err := repo.ListByWorkers(context.Background(), []ids.WorkerID{"worker-1", "worker-2"}, &excluded)
	if err != nil {
		t.Fatalf("ListByWorkers returned error: %v", err)
	}
	if len(periods) != 2 || periods[1].WorkerID != "worker-2" {
		t.Fatalf("unexpected periods: %+v", periods)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPeriodRepository_ListByWorkers_Empty(t *testing.T) {
	t.Parallel()

	repo := NewPeriodRepository(nil)
	periods, err := repo.ListByWorkers(context.Background(), nil, nil)
	if err != nil || len(periods) != 0 {
		t.Fatalf("expected empty result without querying, got %v, %v", periods, err)
	}
}
