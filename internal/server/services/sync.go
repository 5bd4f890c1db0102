// Package services contains the synchronization core: recording uploads and
// downloads against the ledgers and building a user's project view.
package services

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/sortify/internal/common"
	"github.com/dmitrijs2005/sortify/internal/dbx"
	"github.com/dmitrijs2005/sortify/internal/logging"
	"github.com/dmitrijs2005/sortify/internal/server/config"
	"github.com/dmitrijs2005/sortify/internal/server/models"
	"github.com/dmitrijs2005/sortify/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sortify/internal/server/storage"
	"github.com/sethvargo/go-retry"
)

const defaultRetryBackoff = 50 * time.Millisecond

// SyncService is the entry point of the synchronization core. Every method
// takes the acting user explicitly.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   Presigner
	resolver    *StalenessResolver
	log         logging.Logger

	uploadRetries uint64
	retryBackoff  time.Duration
	newStorageKey func() string
	now           func() time.Time
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, presigner Presigner, cfg *config.Config, log logging.Logger) *SyncService {
	return &SyncService{
		db:            db,
		repomanager:   m,
		presigner:     presigner,
		resolver:      NewStalenessResolver(log),
		log:           log.With("module", "sync"),
		uploadRetries: uint64(max(cfg.UploadRetries, 0)),
		retryBackoff:  defaultRetryBackoff,
		newStorageKey: storage.NewStorageKey,
		now:           time.Now,
	}
}

// RecordUpload appends the next version of fileID on behalf of userID and
// returns it together with a presigned URL for the blob. Version allocation
// and the latest-flag transfer happen in one transaction that holds the
// file's row lock; conflicts are retried with exponential backoff.
func (s *SyncService) RecordUpload(ctx context.Context, userID, fileID int64) (*models.FileUploadTask, error) {
	if err := s.authorizeFile(ctx, userID, fileID); err != nil {
		return nil, err
	}

	key := s.newStorageKey()
	uploadedAt := s.now().UTC()

	var v models.FileVersion
	backoff := retry.WithMaxRetries(s.uploadRetries, retry.NewExponential(s.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		v = models.FileVersion{
			FileID:     fileID,
			UploaderID: userID,
			UploadedAt: uploadedAt,
			StorageKey: key,
		}
		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			return s.repomanager.Versions(tx).Append(ctx, &v)
		})
		if dbx.IsRetryable(err) {
			s.log.Debug(ctx, "upload conflict, retrying", "file_id", fileID, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		s.log.Error(ctx, "record upload failed", "kind", common.KindOf(err), "user_id", userID, "file_id", fileID, "error", err)
		return nil, err
	}

	url, err := s.presigner.PresignPut(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	s.log.Info(ctx, "version recorded", "user_id", userID, "file_id", fileID, "version_id", v.VersionID)
	return &models.FileUploadTask{Version: v, URL: url}, nil
}

// RecordDownload raises the user's download mark for fileID to versionID
// (never lowering it) and returns a presigned URL for that version's blob.
func (s *SyncService) RecordDownload(ctx context.Context, userID, fileID, versionID int64) (*models.FileDownloadTask, error) {
	if err := s.authorizeFile(ctx, userID, fileID); err != nil {
		return nil, err
	}

	v, err := s.repomanager.Versions(s.db).Get(ctx, fileID, versionID)
	if err != nil {
		return nil, err
	}

	mark, err := s.repomanager.Downloads(s.db).Record(ctx, userID, fileID, versionID)
	if err != nil {
		s.log.Error(ctx, "record download failed", "kind", common.KindOf(err), "user_id", userID, "file_id", fileID, "error", err)
		return nil, err
	}

	url, err := s.presigner.PresignGet(ctx, v.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}

	return &models.FileDownloadTask{
		FileID:                  fileID,
		VersionID:               versionID,
		LastDownloadedVersionID: mark,
		URL:                     url,
	}, nil
}

// LatestVersion returns the resolved head of fileID.
func (s *SyncService) LatestVersion(ctx context.Context, userID, fileID int64) (*models.FileVersion, error) {
	if err := s.authorizeFile(ctx, userID, fileID); err != nil {
		return nil, err
	}

	latest, err := s.repomanager.Versions(s.db).Latest(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if latest.Drift {
		s.log.Warn(ctx, "latest flag disagrees with max version",
			"kind", common.KindInvariantViolation, "file_id", fileID, "resolved_version_id", latest.VersionID)
	}
	return &latest.FileVersion, nil
}

// ListVersions returns the history of fileID, newest first.
func (s *SyncService) ListVersions(ctx context.Context, userID, fileID int64) ([]*models.FileVersion, error) {
	if err := s.authorizeFile(ctx, userID, fileID); err != nil {
		return nil, err
	}

	list, err := s.repomanager.Versions(s.db).List(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("file %d has no versions: %w", fileID, common.ErrorNotFound)
	}
	return list, nil
}

// authorizeFile returns common.ErrorNotFound unless userID is a member of
// the project owning fileID, so outsiders cannot probe for files either.
func (s *SyncService) authorizeFile(ctx context.Context, userID, fileID int64) error {
	projects := s.repomanager.Projects(s.db)

	projectID, err := projects.ProjectOf(ctx, fileID)
	if err != nil {
		return err
	}

	memberships, err := projects.MembershipsOf(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if m.ProjectID == projectID {
			return nil
		}
	}

	s.log.Warn(ctx, "file access denied", "user_id", userID, "file_id", fileID, "project_id", projectID)
	return fmt.Errorf("file %d: %w", fileID, common.ErrorNotFound)
}

// BuildView returns one entry per project userID belongs to, stale projects
// first and most recently modified first within each group. All reads share
// one read-only snapshot transaction.
func (s *SyncService) BuildView(ctx context.Context, userID int64) ([]models.ProjectSyncEntry, error) {
	var entries []models.ProjectSyncEntry

	err := dbx.WithTx(ctx, s.db, dbx.SnapshotTxOptions, func(ctx context.Context, tx dbx.DBTX) error {
		projects := s.repomanager.Projects(tx)
		src := ResolverSources{
			Files:     projects,
			Versions:  s.repomanager.Versions(tx),
			Downloads: s.repomanager.Downloads(tx),
			Identity:  s.repomanager.Users(tx),
		}

		memberships, err := projects.MembershipsOf(ctx, userID)
		if err != nil {
			return err
		}

		entries = make([]models.ProjectSyncEntry, 0, len(memberships))
		for _, m := range memberships {
			e, err := s.buildEntry(ctx, projects, src, userID, m)
			if err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "build view failed", "kind", common.KindOf(err), "user_id", userID, "error", err)
		return nil, err
	}

	SortEntries(entries)
	return entries, nil
}

func (s *SyncService) buildEntry(ctx context.Context, projects ProjectProvider, src ResolverSources, userID int64, m models.Membership) (models.ProjectSyncEntry, error) {
	p, err := projects.GetByID(ctx, m.ProjectID)
	if err != nil {
		return models.ProjectSyncEntry{}, err
	}

	creatorName := common.UnknownUserName
	var creatorPicture *string
	if p.CreatorID != 0 {
		creator, err := src.Identity.GetProfile(ctx, p.CreatorID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return models.ProjectSyncEntry{}, err
		default:
			creatorName = creator.FullName
			creatorPicture = creator.ProfilePicture
		}
	}

	res, err := s.resolver.Resolve(ctx, src, userID, p)
	if err != nil {
		return models.ProjectSyncEntry{}, err
	}

	return models.ProjectSyncEntry{
		ProjectID:             p.ID,
		ProjectName:           p.Name,
		Role:                  m.Role,
		CreatedDate:           p.CreatedAt,
		CreatorName:           creatorName,
		CreatorProfilePicture: creatorPicture,
		HasLatest:             res.HasLatest,
		Description:           p.Description,
		LastModifiedBy:        res.LastModifiedBy,
		LastModifiedDate:      res.LastModifiedAt,
	}, nil
}

// SortEntries orders a view: has_latest false before true, then
// last_modified_date descending, then project_id ascending.
func SortEntries(entries []models.ProjectSyncEntry) {
	slices.SortFunc(entries, func(a, b models.ProjectSyncEntry) int {
		if a.HasLatest != b.HasLatest {
			if !a.HasLatest {
				return -1
			}
			return 1
		}
		if c := b.LastModifiedDate.Compare(a.LastModifiedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ProjectID, b.ProjectID)
	})
}
