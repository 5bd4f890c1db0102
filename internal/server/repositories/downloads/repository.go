package downloads

import "context"

// Repository is the Download Ledger: per (user, file) high-water marks.
type Repository interface {
	// Record raises the mark to versionID and returns the stored mark,
	// which is never lower than before.
	Record(ctx context.Context, userID, fileID, versionID int64) (int64, error)
	// LastDownloaded returns the mark; found is false if the user never
	// downloaded the file.
	LastDownloaded(ctx context.Context, userID, fileID int64) (versionID int64, found bool, err error)
}
