// Package downloads provides the PostgreSQL-backed Download Ledger.
package downloads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sortify/internal/dbx"
)

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Record upserts the (user, file) row keeping GREATEST(existing, versionID).
// The row is written only if the version exists, so a missing version
// yields common.ErrorNotFound. Writers of the same pair serialize on the
// row lock taken by ON CONFLICT.
func (r *PostgresRepository) Record(ctx context.Context, userID, fileID, versionID int64) (int64, error) {
	query := `
		INSERT INTO last_download (user_id, file_id, version_id)
		SELECT $1::bigint, $2::bigint, $3::bigint
		WHERE EXISTS (SELECT 1 FROM file_version WHERE file_id = $2 AND version_id = $3)
		ON CONFLICT (user_id, file_id)
		DO UPDATE SET version_id = GREATEST(last_download.version_id, EXCLUDED.version_id)
		RETURNING version_id
	`
	var stored int64
	if err := r.db.QueryRowContext(ctx, query, userID, fileID, versionID).Scan(&stored); err != nil {
		return 0, dbx.StorageError(fmt.Sprintf("record download of %d/%d", fileID, versionID), err)
	}
	return stored, nil
}

// LastDownloaded returns the highest version userID has fetched of fileID.
func (r *PostgresRepository) LastDownloaded(ctx context.Context, userID, fileID int64) (int64, bool, error) {
	query := `SELECT version_id FROM last_download WHERE user_id = $1 AND file_id = $2`

	var versionID int64
	err := r.db.QueryRowContext(ctx, query, userID, fileID).Scan(&versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, dbx.StorageError("select last download", err)
	}
	return versionID, true, nil
}
