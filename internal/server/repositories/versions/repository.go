package versions

import (
	"context"

	"github.com/dmitrijs2005/sortify/internal/server/models"
)

// Repository is the Version Ledger: the append-only history of file versions.
type Repository interface {
	// Append allocates the next version of v.FileID and makes it the only
	// flagged head. It must run inside a transaction.
	Append(ctx context.Context, v *models.FileVersion) error
	Latest(ctx context.Context, fileID int64) (*models.LatestVersion, error)
	LatestForProject(ctx context.Context, projectID int64) (*models.FileVersion, error)
	Get(ctx context.Context, fileID, versionID int64) (*models.FileVersion, error)
	List(ctx context.Context, fileID int64) ([]*models.FileVersion, error)
}
