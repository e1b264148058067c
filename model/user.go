package model

import "time"

// Role controls which operations an authenticated user may perform.
type Role string

const (
	RoleArtist    Role = "artist"
	RoleModerator Role = "moderator"
)

// User represents an account in the system. Artists own releases;
// moderators run the moderation panel.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsModerator reports whether the user holds the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}
