// Package domain holds the core user entity.
package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the identity record. HashedPassword is only ever a bcrypt hash,
// assigned through the security hasher; it must never be logged or returned
// to clients.
type User struct {
	ID             int64
	Email          string
	Username       string
	FullName       string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Public is the client-facing projection of a user. It deliberately has no
// password field of any kind.
type Public struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Public returns the client-facing view of the user.
func (u *User) Public() Public {
	return Public{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address. Emails are unique
// case-insensitively, so every write and lookup goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.HashedPassword == "" {
		return errors.New("password hash is required")
	}
	if u.UpdatedAt.Before(u.CreatedAt) {
		return errors.New("updated_at must not precede created_at")
	}
	return nil
}
