package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/models"
)

// ResolverSources are the ledgers and providers a resolution reads from.
// BuildView binds all of them to one snapshot transaction.
type ResolverSources struct {
	Files     FileProvider
	Versions  VersionReader
	Downloads DownloadReader
	Identity  IdentityProvider
}

// Resolution is the per-project outcome for one user.
type Resolution struct {
	HasLatest      bool
	LastModifiedBy *string
	LastModifiedAt time.Time
}

// StalenessResolver decides whether a user is caught up on a project and who
// touched it last.
type StalenessResolver struct {
	log logging.Logger
}

func NewStalenessResolver(log logging.Logger) *StalenessResolver {
	return &StalenessResolver{log: log.With("module", "resolver")}
}

// Resolve computes the Resolution of project for userID. Storage errors are
// returned unchanged; missing provenance falls back to the project's
// creation time and the "Unknown" label.
func (r *StalenessResolver) Resolve(ctx context.Context, src ResolverSources, userID int64, project *models.Project) (Resolution, error) {
	hasLatest, err := r.hasLatest(ctx, src, userID, project.ID)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{HasLatest: hasLatest, LastModifiedAt: project.CreatedAt}

	last, err := src.Versions.LatestForProject(ctx, project.ID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return res, nil
	case err != nil:
		return Resolution{}, err
	}

	name, err := displayName(ctx, src.Identity, last.UploaderID)
	if err != nil {
		return Resolution{}, err
	}
	res.LastModifiedBy = &name
	res.LastModifiedAt = last.UploadedAt
	return res, nil
}

// hasLatest stops at the first file the user is behind on.
func (r *StalenessResolver) hasLatest(ctx context.Context, src ResolverSources, userID, projectID int64) (bool, error) {
	fileIDs, err := src.Files.FileIDs(ctx, projectID)
	if err != nil {
		return false, err
	}

	for _, fileID := range fileIDs {
		ok, err := r.caughtUpOn(ctx, src, userID, fileID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *StalenessResolver) caughtUpOn(ctx context.Context, src ResolverSources, userID, fileID int64) (bool, error) {
	latest, err := src.Versions.Latest(ctx, fileID)
	if errors.Is(err, common.ErrorNotFound) {
		// a file without versions has nothing to fall behind on
		return true, nil
	}
	if err != nil {
		return false, err
	}

	if latest.Drift {
		r.log.Warn(ctx, "latest flag disagrees with max version",
			"kind", common.KindInvariantViolation,
			"file_id", fileID,
			"resolved_version_id", latest.VersionID,
			"error", fmt.Errorf("%w: file %d", common.ErrInvariantViolation, fileID))
	}

	if latest.UploaderID == userID {
		return true, nil
	}

	mark, found, err := src.Downloads.LastDownloaded(ctx, userID, fileID)
	if err != nil {
		return false, err
	}
	return found && mark >= latest.VersionID, nil
}

func displayName(ctx context.Context, identity IdentityProvider, userID int64) (string, error) {
	if userID == 0 {
		return common.UnknownUserName, nil
	}
	p, err := identity.GetProfile(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return common.UnknownUserName, nil
	}
	if err != nil {
		return "", err
	}
	return p.FullName, nil
}
