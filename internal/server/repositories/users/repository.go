package users

import (
	"context"

	"github.com/dmitrijs2005/sortify/internal/server/models"
)

type Repository interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}
