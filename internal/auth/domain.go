package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	RoleID       int64
	Department   string
	Position     string
	Active       bool
	LastLogin    *time.Time
}
