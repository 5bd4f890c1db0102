package projects

import (
	"context"

	"github.com/dmitrijs2005/sortify/internal/server/models"
)

// Repository answers membership, project metadata and file enumeration
// questions for the synchronization core.
type Repository interface {
	MembershipsOf(ctx context.Context, userID int64) ([]models.Membership, error)
	GetByID(ctx context.Context, projectID int64) (*models.Project, error)
	FileIDs(ctx context.Context, projectID int64) ([]int64, error)
	ProjectOf(ctx context.Context, fileID int64) (int64, error)
}
