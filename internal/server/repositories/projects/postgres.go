// Package projects provides PostgreSQL-backed lookups of projects, their
// members and their files.
package projects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sortify/internal/dbx"
	"github.com/dmitrijs2005/sortify/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// MembershipsOf lists every project userID belongs to with its role.
func (r *PostgresRepository) MembershipsOf(ctx context.Context, userID int64) ([]models.Membership, error) {
	query := `SELECT user_id, project_id, role FROM user_project WHERE user_id = $1 ORDER BY project_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.StorageError("select memberships", err)
	}
	defer rows.Close()

	var result []models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.UserID, &m.ProjectID, &m.Role); err != nil {
			return nil, dbx.StorageError("scan membership", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate memberships", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, projectID int64) (*models.Project, error) {
	query := `SELECT project_id, name, description, creator_id, created_date FROM project WHERE project_id = $1`

	var (
		p       models.Project
		creator sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(&p.ID, &p.Name, &p.Description, &creator, &p.CreatedAt)
	if err != nil {
		return nil, dbx.StorageError(fmt.Sprintf("get project %d", projectID), err)
	}
	p.CreatorID = creator.Int64
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *PostgresRepository) FileIDs(ctx context.Context, projectID int64) ([]int64, error) {
	query := `SELECT file_data_id FROM file_data WHERE project_id = $1 ORDER BY file_data_id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, dbx.StorageError("select files", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbx.StorageError("scan file", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError("iterate files", err)
	}
	return ids, nil
}

// ProjectOf returns the project that owns fileID.
func (r *PostgresRepository) ProjectOf(ctx context.Context, fileID int64) (int64, error) {
	query := `SELECT project_id FROM file_data WHERE file_data_id = $1`

	var projectID int64
	if err := r.db.QueryRowContext(ctx, query, fileID).Scan(&projectID); err != nil {
		return 0, dbx.StorageError(fmt.Sprintf("project of file %d", fileID), err)
	}
	return projectID, nil
}
