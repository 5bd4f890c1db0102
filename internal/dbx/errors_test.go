package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestStorageError(t *testing.T) {
	assert.NoError(t, StorageError("op", nil))

	err := StorageError("select project", sql.ErrNoRows)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrTransientStorage)

	err = StorageError("select project", errors.New("connection reset"))
	assert.ErrorIs(t, err, common.ErrTransientStorage)
	assert.Contains(t, err.Error(), "select project")
	assert.Contains(t, err.Error(), "connection reset")

	err = StorageError("select project", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, common.ErrTransientStorage)

	err = StorageError("record download", &pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrTransientStorage)
	assert.False(t, IsRetryable(err))

	already := fmt.Errorf("%w: inner", common.ErrTransientStorage)
	assert.Same(t, already, StorageError("outer", already))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "unique violation", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
