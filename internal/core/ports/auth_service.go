package ports

import (
	"context"

	"github.com/userauth/auth-service/internal/core/domain"
)

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string // optional, defaults to "user"
}

// ChangePasswordInput is the validated change-password payload.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// AuthResult is returned by every operation that mints tokens.
type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

// AuthService covers registration, login, token lifecycle and self-service.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Logout(ctx context.Context, userID, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)

	// Authenticate resolves a bearer access token into a live, active user.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)

	Profile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, changes ProfileChanges) (*domain.User, error)
	ChangePassword(ctx context.Context, userID string, input ChangePasswordInput) error
}
