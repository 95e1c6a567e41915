package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestTransactionManager_ReadWriteCommit(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, ok := txFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("WithinReadWrite returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_ReadOnlyRollbackOnError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	mock.ExpectRollback()

	expectedErr := errors.New("usecase error")
	err = tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		if _, ok := txFromContext(ctx); !ok {
			t.Fatalf("transaction not injected into context")
		}
		return expectedErr
	})

	if !errors.Is(err, expectedErr) {
		t.Fatalf("expected %v, got %v", expectedErr, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	err = tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadOnly(ctx, func(inner context.Context) error {
			if _, ok := txFromContext(inner); !ok {
				t.Fatalf("nested transaction lost context")
			}
			return nil
		})
	})

	if err != nil {
		t.Fatalf("nested transaction returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_WriteInsideReadOnlyRejected(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	mock.ExpectRollback()

	err = tm.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		return tm.WithinReadWrite(ctx, func(context.Context) error {
			t.Fatalf("write callback must not run")
			return nil
		})
	})

	if !errors.Is(err, ErrWriteInReadOnly) {
		t.Fatalf("expected ErrWriteInReadOnly, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_RetriesSerializationFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()
	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectCommit()

	calls := 0
	err = tm.WithinReadWrite(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return &pgconn.PgError{Code: serializationFailureCode}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	for i := 0; i < defaultMaxAttempts; i++ {
		mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
		mock.ExpectRollback()
	}

	calls := 0
	err = tm.WithinReadWrite(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: deadlockDetectedCode}
	})

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != deadlockDetectedCode {
		t.Fatalf("expected deadlock error, got %v", err)
	}
	if calls != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, calls)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_OtherErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	tm := NewTransactionManager(mock)

	mock.ExpectBeginTx(pgx.TxOptions{AccessMode: pgx.ReadWrite})
	mock.ExpectRollback()

	calls := 0
	err = tm.WithinReadWrite(context.Background(), func(context.Context) error {
		calls++
		return &pgconn.PgError{Code: "23505"}
	})

	if err == nil || calls != 1 {
		t.Fatalf("expected a single failing attempt, got err=%v calls=%d", err, calls)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransactionManager_NilManagerRunsDirectly(t *testing.T) {
	t.Parallel()

	var tm *TransactionManager
	ran := false
	if err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		ran = true
		if _, ok := txFromContext(ctx); ok {
			t.Fatalf("nil manager must not inject a transaction")
		}
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatalf("callback did not run")
	}
}
