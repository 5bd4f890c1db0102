package models

import "time"

// Project is the static metadata of a project.
type Project struct {
	ID          int64
	Name        string
	Description string
	CreatorID   int64
	CreatedAt   time.Time
}

// Membership links a user to a project with a role.
type Membership struct {
	UserID    int64
	ProjectID int64
	Role      string
}

// UserProfile is the display identity of a user.
type UserProfile struct {
	ID             int64
	FullName       string
	ProfilePicture *string
}
