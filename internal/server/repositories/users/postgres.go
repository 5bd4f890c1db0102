// Package users resolves user ids to display profiles.
package users

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

// GetProfile returns common.ErrorNotFound when the user no longer exists.
func (r *PostgresRepository) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	query :=
		`SELECT user_id, full_name, profile_pic FROM user_profile
		 WHERE user_id = $1
		 `

	var (
		u   models.UserProfile
		pic sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.FullName, &pic)
	if err != nil {
		return nil, dbx.StorageError(fmt.Sprintf("get user %d", userID), err)
	}
	if pic.Valid {
		u.ProfilePicture = &pic.String
	}
	return &u, nil
}
