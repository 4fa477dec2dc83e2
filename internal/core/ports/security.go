package ports

import (
	"time"

	"github.com/userauth/auth-service/internal/core/domain"
)

// TokenKind selects the secret family a token is signed with.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenClaims is the identity embedded in every issued token.
type TokenClaims struct {
	TokenID   string
	UserID    string
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(user *domain.User) (TokenPair, error)
	// Verify fails with domain.ErrInvalidToken on bad signature, wrong family or expiry.
	Verify(token string, kind TokenKind) (*TokenClaims, error)
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns false with a nil error on mismatch; an error means the hash is unusable.
	Verify(hash, password string) (bool, error)
}
