package models

// DownloadRecord is the high-water mark of what a user has fetched for a file.
type DownloadRecord struct {
	UserID                  int64 `json:"user_id"`
	FileID                  int64 `json:"file_id"`
	LastDownloadedVersionID int64 `json:"last_downloaded_version_id"`
}
