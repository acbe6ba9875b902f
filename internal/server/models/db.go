// Package models defines server-side data models persisted in the database.
package models

import "time"

// Role is the closed set of account roles. It is the only input to
// authorization decisions.
type Role string

const (
	RoleAdmin  Role = "INTERNAL_ADMIN"
	RoleClient Role = "CLIENT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

// Client is the customer organisation wrapping exactly one owner User.
type Client struct {
	ID        string
	UserID    string
	Company   string
	CreatedAt time.Time
}

type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// MagicLink is a single-use login token. Only the sha256 of the token is
// stored.
type MagicLink struct {
	TokenHash string
	Email     string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
