package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
	defaultMaxAttempts       = 3
)

// ErrWriteInReadOnly は読み取り専用トランザクションの内側で書き込みトランザクションを要求した場合に返却されます。
var ErrWriteInReadOnly = errors.New("postgres: read-write transaction requested inside a read-only transaction")

type scopeContextKey struct{}

// scope はコンテキストに格納される実行中のトランザクションです。
type scope struct {
	tx   pgx.Tx
	mode pgx.TxAccessMode
}

// txStarter は pgxpool.Pool と pgxmock の双方が満たすトランザクション開始の抽象です。
type txStarter interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TransactionManager はコンテキスト単位のトランザクションを管理します。
// 最も外側のトランザクションがシリアライズ失敗またはデッドロックで終わった場合は fn ごと再実行します。
type TransactionManager struct {
	pool        txStarter
	maxAttempts int
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(pool txStarter) *TransactionManager {
	if pool == nil {
		return nil
	}
	return &TransactionManager{pool: pool, maxAttempts: defaultMaxAttempts}
}

// WithinReadOnly は読み取り専用トランザクションで fn を実行します。
// 複数の一括読み出しが同じスナップショットを参照するよう REPEATABLE READ で開始します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead}, fn)
}

// WithinReadWrite は読み書きトランザクションで fn を実行します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if m == nil {
		return fn(ctx)
	}
	return m.within(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

func (m *TransactionManager) within(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("postgres: transaction function is required")
	}

	if current, ok := scopeFromContext(ctx); ok {
		if current.mode == pgx.ReadOnly && opts.AccessMode == pgx.ReadWrite {
			return ErrWriteInReadOnly
		}
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		err = m.runOnce(ctx, opts, fn)
		if err == nil || !isRetryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (m *TransactionManager) runOnce(ctx context.Context, opts pgx.TxOptions, fn func(context.Context) error) error {
	tx, err := m.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(contextWithScope(ctx, scope{tx: tx, mode: opts.AccessMode})); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("postgres: rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		if !errors.Is(err, pgx.ErrTxClosed) {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				return errors.Join(fmt.Errorf("postgres: commit: %w", err), fmt.Errorf("postgres: rollback after commit failure: %w", rbErr))
			}
		}
		return fmt.Errorf("postgres: commit: %w", err)
	}

	return nil
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == serializationFailureCode || pgErr.Code == deadlockDetectedCode
}

func contextWithScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, s)
}

func scopeFromContext(ctx context.Context) (scope, bool) {
	if ctx == nil {
		return scope{}, false
	}
	s, ok := ctx.Value(scopeContextKey{}).(scope)
	return s, ok
}

func txFromContext(ctx context.Context) (pgx.Tx, bool) {
	s, ok := scopeFromContext(ctx)
	return s.tx, ok
}

// QueryerFromContext はコンテキスト内にトランザクションがあればそれを、なければ fallback を返します。
func QueryerFromContext(ctx context.Context, fallback Queryer) Queryer {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// Queryer は pgx.Tx と pgxpool.Pool に共通するクエリ実行インターフェースです。
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
