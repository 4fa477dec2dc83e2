package ports

import (
	"context"
	"time"

	"github.com/userauth/auth-service/internal/core/domain"
)

// ListUsersFilter carries all query parameters for listing users.
type ListUsersFilter struct {
	Search string      // optional: case-insensitive substring of first name, last name or email
	Role   domain.Role // optional: exact role
	Active *bool       // optional: exact active flag
	Page   int         // 1-based
	Limit  int         // max rows per page (capped by the service)
}

// ProfileChanges holds the optional self-service profile fields. Nil means unchanged.
type ProfileChanges struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// UserCounts aggregates the dashboard counters.
type UserCounts struct {
	Total  int64
	Active int64
	Admins int64
}

// UserRepository is the credential store. Every mutation is a single
// per-document update so concurrent requests never read-modify-write.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// RecordLoginFailure applies policy.NextFailure atomically and returns the updated record.
	RecordLoginFailure(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.User, error)
	// RecordLoginSuccess resets the counter, clears the lock, stamps last login and stores the refresh token.
	RecordLoginSuccess(ctx context.Context, id, refreshToken string, now time.Time) error

	AddRefreshToken(ctx context.Context, id, token string, now time.Time) error
	// ReplaceRefreshToken swaps oldToken for newToken; ErrInvalidToken when oldToken is not stored.
	ReplaceRefreshToken(ctx context.Context, id, oldToken, newToken string, now time.Time) error
	RemoveRefreshToken(ctx context.Context, id, token string, now time.Time) error

	UpdateProfile(ctx context.Context, id string, changes ProfileChanges, now time.Time) (*domain.User, error)
	// UpdatePassword stores a new hash and revokes every refresh token.
	UpdatePassword(ctx context.Context, id, passwordHash string, now time.Time) error
	// SetActive toggles the active flag; deactivation clears refresh tokens.
	SetActive(ctx context.Context, id string, active bool, now time.Time) (*domain.User, error)
	SetRole(ctx context.Context, id string, role domain.Role, now time.Time) (*domain.User, error)
	Delete(ctx context.Context, id string) error

	// List returns a page of users matching filter, newest first, and the total count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	Counts(ctx context.Context) (*UserCounts, error)
	Recent(ctx context.Context, limit int) ([]*domain.User, error)
}
