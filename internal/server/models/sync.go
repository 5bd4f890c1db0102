package models

import "time"

// ProjectSyncEntry is one row of a user's synchronization view.
type ProjectSyncEntry struct {
	ProjectID             int64     `json:"project_id"`
	ProjectName           string    `json:"project_name"`
	Role                  string    `json:"role"`
	CreatedDate           time.Time `json:"created_date"`
	CreatorName           string    `json:"creator_name"`
	CreatorProfilePicture *string   `json:"creator_profile_picture"`
	HasLatest             bool      `json:"has_latest"`
	Description           string    `json:"description"`
	LastModifiedBy        *string   `json:"last_modified_by"`
	LastModifiedDate      time.Time `json:"last_modified_date"`
}

// FileUploadTask tells the uploader where to PUT the blob of a new version.
type FileUploadTask struct {
	Version FileVersion `json:"version"`
	URL     string      `json:"upload_url"`
}

// FileDownloadTask tells the caller where to GET the blob it just recorded.
// LastDownloadedVersionID is the user's high-water mark after recording.
type FileDownloadTask struct {
	FileID                  int64  `json:"file_id"`
	VersionID               int64  `json:"version_id"`
	LastDownloadedVersionID int64  `json:"last_downloaded_version_id"`
	URL                     string `json:"download_url"`
}
