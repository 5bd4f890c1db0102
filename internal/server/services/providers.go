package services

import (
	"context"

	"github.com/dmitrijs2005/sortify/internal/server/models"
)

// MembershipProvider lists the projects a user may see.
type MembershipProvider interface {
	MembershipsOf(ctx context.Context, userID int64) ([]models.Membership, error)
}

// ProjectProvider returns the static metadata of a project.
type ProjectProvider interface {
	GetByID(ctx context.Context, projectID int64) (*models.Project, error)
}

// FileProvider enumerates the files of a project and maps a file back to
// its project.
type FileProvider interface {
	FileIDs(ctx context.Context, projectID int64) ([]int64, error)
	ProjectOf(ctx context.Context, fileID int64) (int64, error)
}

// IdentityProvider resolves a user id to a display profile. Missing users
// are reported as common.ErrorNotFound.
type IdentityProvider interface {
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

// VersionReader is the read side of the version ledger used by the resolver.
type VersionReader interface {
	Latest(ctx context.Context, fileID int64) (*models.LatestVersion, error)
	LatestForProject(ctx context.Context, projectID int64) (*models.FileVersion, error)
}

// DownloadReader is the read side of the download ledger.
type DownloadReader interface {
	LastDownloaded(ctx context.Context, userID, fileID int64) (int64, bool, error)
}

// Presigner issues short-lived blob URLs for version storage keys.
type Presigner interface {
	PresignPut(ctx context.Context, key string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
}
