package domain

import "time"

// Roles a user can hold. Single role per user.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

type User struct {
	Email        string
	PasswordHash string // argon2id, PHC encoded
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
