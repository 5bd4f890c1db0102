// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileVersion is one immutable snapshot of a file's content at upload time.
// Only IsLatest ever changes after insert.
type FileVersion struct {
	// FileID identifies the logical file, stable across versions.
	FileID int64 `json:"file_id"`
	// VersionID increases strictly within a file, starting at 1.
	VersionID int64 `json:"version_id"`
	// UploaderID is the user who uploaded this version.
	UploaderID int64 `json:"uploader_id"`
	// UploadedAt is the upload timestamp (UTC).
	UploadedAt time.Time `json:"upload_date"`
	// IsLatest is the denormalized head marker.
	IsLatest bool `json:"is_latest"`
	// StorageKey is the object-storage key of the version's blob.
	StorageKey string `json:"-"`
}

// LatestVersion is the resolved head of a file's history.
type LatestVersion struct {
	FileVersion
	// Drift is set when the is_latest marker disagrees with max(version_id):
	// no row flagged, several rows flagged, or a stale row flagged.
	Drift bool
}

// ResolveLatest picks the head among candidate rows (flagged rows plus the
// max-version row). The highest version_id always wins; Drift reports
// whether the marker agreed. ok is false for an empty slice.
func ResolveLatest(candidates []FileVersion) (latest LatestVersion, ok bool) {
	if len(candidates) == 0 {
		return LatestVersion{}, false
	}

	best := candidates[0]
	flagged := 0
	for _, c := range candidates {
		if c.VersionID > best.VersionID {
			best = c
		}
		if c.IsLatest {
			flagged++
		}
	}

	return LatestVersion{
		FileVersion: best,
		Drift:       flagged != 1 || !best.IsLatest,
	}, true
}
