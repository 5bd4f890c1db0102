package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes worth retrying a whole transaction for.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
)

// StorageError classifies a driver error returned by operation op.
// sql.ErrNoRows and foreign key violations become common.ErrorNotFound,
// context cancellation is passed through, everything else is tagged
// common.ErrTransientStorage.
func StorageError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w: %w", op, common.ErrorNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, common.ErrTransientStorage), errors.Is(err, common.ErrorNotFound):
		return err
	default:
		return fmt.Errorf("%w: %s: %w", common.ErrTransientStorage, op, err)
	}
}

// IsRetryable reports whether err is a PostgreSQL conflict that a fresh
// attempt of the same transaction can resolve.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
		return true
	}
	return false
}

// a missing referenced row never appears on retry
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
