package domain

import (
	"strings"
	"time"
)

// Field limits enforced on every write path.
const (
	MaxNameLength     = 50
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
	// MaxRefreshTokens caps concurrent sessions; the oldest token is evicted first.
	MaxRefreshTokens = 10
)

// User models an account in the credential store.
type User struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	LoginAttempts int        `json:"loginAttempts"`
	LockUntil     *time.Time `json:"lockUntil,omitempty"`
	RefreshTokens []string   `json:"-"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsLocked reports whether the account is locked at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// HasRefreshToken reports whether token is one of the user's live sessions.
func (u *User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail is the canonical form used for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
