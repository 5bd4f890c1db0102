// Package versions provides the PostgreSQL-backed Version Ledger.
package versions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/dbx"
	"github.com/dmitrijs2005/sortify/internal/server/models"
)

const versionColumns = `file_id, version_id, user_id, upload_date, last_version, storage_key`

// PostgresRepository implements the ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVersion(row scanner) (*models.FileVersion, error) {
	var v models.FileVersion
	if err := row.Scan(&v.FileID, &v.VersionID, &v.UploaderID, &v.UploadedAt, &v.IsLatest, &v.StorageKey); err != nil {
		return nil, err
	}
	v.UploadedAt = v.UploadedAt.UTC()
	return &v, nil
}

// Append locks the file row, allocates max(version_id)+1, moves the latest
// flag onto the new row and inserts it. Concurrent appends to the same file
// queue on the row lock; appends to different files never contend.
func (r *PostgresRepository) Append(ctx context.Context, v *models.FileVersion) error {
	var locked int64
	err := r.db.QueryRowContext(ctx,
		`SELECT file_data_id FROM file_data WHERE file_data_id = $1 FOR UPDATE`, v.FileID).Scan(&locked)
	if err != nil {
		return dbx.StorageError(fmt.Sprintf("lock file %d", v.FileID), err)
	}

	var next int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version_id), 0) + 1 FROM file_version WHERE file_id = $1`, v.FileID).Scan(&next)
	if err != nil {
		return dbx.StorageError("next version", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE file_version SET last_version = FALSE WHERE file_id = $1 AND last_version`, v.FileID); err != nil {
		return dbx.StorageError("clear latest", err)
	}

	query := `
		INSERT INTO file_version (file_id, version_id, user_id, upload_date, last_version, storage_key)
		VALUES ($1, $2, $3, $4, TRUE, $5)
	`
	res, err := r.db.ExecContext(ctx, query, v.FileID, next, v.UploaderID, v.UploadedAt, v.StorageKey)
	if err != nil {
		return dbx.StorageError("insert version", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbx.StorageError("rows affected", err)
	}
	if n != 1 {
		return fmt.Errorf("insert version: unexpected rows affected: %d", n)
	}

	v.VersionID = next
	v.IsLatest = true
	return nil
}

// Latest returns the head of fileID's history. The flagged row and the
// max(version_id) row are both read so a lagging or missing flag is
// reconciled (max wins) and reported through Drift.
func (r *PostgresRepository) Latest(ctx context.Context, fileID int64) (*models.LatestVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM file_version
		WHERE file_id = $1
		AND (last_version OR version_id = (SELECT MAX(version_id) FROM file_version WHERE file_id = $1))
		`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, dbx.StorageError("select latest version", err)
	}
	defer rows.Close()

	var candidates []models.FileVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, dbx.StorageError("scan latest version", err)
		}
		candidates = append(candidates, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate latest version", err)
	}

	latest, ok := models.ResolveLatest(candidates)
	if !ok {
		return nil, fmt.Errorf("file %d has no versions: %w", fileID, common.ErrorNotFound)
	}
	return &latest, nil
}

// LatestForProject returns the most recent upload across every file of the
// project. Ties on timestamp go to the higher version, then the lower file id.
func (r *PostgresRepository) LatestForProject(ctx context.Context, projectID int64) (*models.FileVersion, error) {
	query := `SELECT fv.file_id, fv.version_id, fv.user_id, fv.upload_date, fv.last_version, fv.storage_key
		FROM file_version fv
		JOIN file_data fd ON fd.file_data_id = fv.file_id
		WHERE fd.project_id = $1
		ORDER BY fv.upload_date DESC, fv.version_id DESC, fv.file_id ASC
		LIMIT 1
		`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, projectID))
	if err != nil {
		return nil, dbx.StorageError(fmt.Sprintf("latest version of project %d", projectID), err)
	}
	return v, nil
}

// Get returns a single version.
func (r *PostgresRepository) Get(ctx context.Context, fileID, versionID int64) (*models.FileVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM file_version WHERE file_id = $1 AND version_id = $2`
	v, err := scanVersion(r.db.QueryRowContext(ctx, query, fileID, versionID))
	if err != nil {
		return nil, dbx.StorageError(fmt.Sprintf("get version %d/%d", fileID, versionID), err)
	}
	return v, nil
}

// List returns the history of fileID, newest first.
func (r *PostgresRepository) List(ctx context.Context, fileID int64) ([]*models.FileVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM file_version WHERE file_id = $1 ORDER BY version_id DESC`
	rows, err := r.db.QueryContext(ctx, query, fileID)
	if err != nil {
		return nil, dbx.StorageError("select versions", err)
	}
	defer rows.Close()

	var result []*models.FileVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, dbx.StorageError("scan version", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate versions", err)
	}
	return result, nil
}
