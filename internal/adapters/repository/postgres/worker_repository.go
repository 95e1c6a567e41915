package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/worker-chronology/internal/core/ids"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
	pgdb "github.com/ogurasousui/worker-chronology/internal/platform/db/postgres"
)

const workerSelect = `
        SELECT w.id,
               w.first_name,
               w.last_name,
               w.email,
               w.status,
               w.externally_funded,
               w.tracked,
               COALESCE(
                   json_agg(
                       json_build_object(
                           'year', pe.year,
                           'month', pe.month,
                           'document_ref', pe.document_ref,
                           'signature_ref', pe.signature_ref,
                           'signed_at', pe.signed_at
                       ) ORDER BY pe.year, pe.month
                   ) FILTER (WHERE pe.id IS NOT NULL),
                   '[]'
               ) AS payrolls
          FROM workers w
          LEFT JOIN payroll_entries pe ON pe.worker_id = w.id`

// WorkerRepository は従業員と給与明細台帳を 1 クエリで読み出します。
type WorkerRepository struct {
	pool pgdb.Queryer
}

// NewWorkerRepository は WorkerRepository を生成します。
func NewWorkerRepository(pool pgdb.Queryer) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

// Find は条件に合う従業員を姓・名・ID の順で返します。
func (r *WorkerRepository) Find(ctx context.Context, filter worker.Filter) ([]*worker.Worker, error) {
	var where whereBuilder
	if statuses := filter.Employment.Statuses(); len(statuses) > 0 {
		where.add("w.status = ANY(?)", stringSlice(statuses))
	}
	if filter.ExternallyFunded != nil {
		where.add("w.externally_funded = ?", *filter.ExternallyFunded)
	}
	if filter.Tracked != nil {
		where.add("w.tracked = ?", *filter.Tracked)
	}

	query := workerSelect + where.clause() + `
         GROUP BY w.id
         ORDER BY w.last_name, w.first_name, w.id`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workers := make([]*worker.Worker, 0)
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return workers, nil
}

// FindByID は ID で従業員を取得します。
func (r *WorkerRepository) FindByID(ctx context.Context, id ids.WorkerID) (*worker.Worker, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, workerSelect+`
         WHERE w.id = $1
         GROUP BY w.id`, string(id))

	return scanWorker(row)
}

type payrollRow struct {
	Year         int        `json:"year"`
	Month        int        `json:"month"`
	DocumentRef  *string    `json:"document_ref"`
	SignatureRef *string    `json:"signature_ref"`
	SignedAt     *time.Time `json:"signed_at"`
}

func scanWorker(row pgx.Row) (*worker.Worker, error) {
	var (
		id        string
		firstName string
		lastName  string
		email     string
		status    string
		funded    bool
		tracked   bool
		payrolls  []byte
	)

	if err := row.Scan(&id, &firstName, &lastName, &email, &status, &funded, &tracked, &payrolls); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, worker.ErrWorkerNotFound
		}
		return nil, err
	}

	var entries []payrollRow
	if len(payrolls) > 0 {
		if err := json.Unmarshal(payrolls, &entries); err != nil {
			return nil, fmt.Errorf("decode payrolls of worker %s: %w", id, err)
		}
	}

	w := &worker.Worker{
		ID:               ids.WorkerID(id),
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Status:           worker.Status(status),
		ExternallyFunded: funded,
		Tracked:          tracked,
		Payrolls:         make([]worker.PayrollEntry, 0, len(entries)),
	}
	for _, e := range entries {
		entry := worker.PayrollEntry{Year: e.Year, Month: e.Month, SignedAt: e.SignedAt}
		if e.DocumentRef != nil {
			entry.DocumentRef = *e.DocumentRef
		}
		if e.SignatureRef != nil {
			entry.SignatureRef = *e.SignatureRef
		}
		w.Payrolls = append(w.Payrolls, entry)
	}
	return w, nil
}
