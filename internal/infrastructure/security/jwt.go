package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// JWTConfig holds the two secret families and their lifetimes.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Claims is the JWT payload for both token kinds.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer implements ports.TokenIssuer with HS256.
type JWTIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("jwt: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &JWTIssuer{cfg: cfg, now: time.Now}, nil
}

// Issue signs an access and a refresh token for user.
func (i *JWTIssuer) Issue(user *domain.User) (ports.TokenPair, error) {
	access, err := i.sign(user, ports.TokenAccess)
	if err != nil {
		return ports.TokenPair{}, err
	}
	refresh, err := i.sign(user, ports.TokenRefresh)
	if err != nil {
		return ports.TokenPair{}, err
	}
	return ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks signature and expiry against the secret of kind.
func (i *JWTIssuer) Verify(token string, kind ports.TokenKind) (*ports.TokenClaims, error) {
	secret, _, err := i.family(kind)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", domain.ErrInvalidToken)
	}

	out := &ports.TokenClaims{
		TokenID: claims.ID,
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    domain.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (i *JWTIssuer) sign(user *domain.User, kind ports.TokenKind) (string, error) {
	secret, ttl, err := i.family(kind)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

func (i *JWTIssuer) family(kind ports.TokenKind) (string, time.Duration, error) {
	switch kind {
	case ports.TokenAccess:
		return i.cfg.AccessSecret, i.cfg.AccessTTL, nil
	case ports.TokenRefresh:
		return i.cfg.RefreshSecret, i.cfg.RefreshTTL, nil
	default:
		return "", 0, fmt.Errorf("%w: unknown token kind %q", domain.ErrInvalidToken, kind)
	}
}
