package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/domain"
)

// userKey is the context key under which the authenticated *domain.User is stored.
const userKey = "user"

// Authenticator resolves an access token into an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// Auth validates the bearer access token, reloads the user and injects it
// into the context. Unknown or deactivated users are rejected even when the
// token itself is still valid.
func Auth(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
			}

			user, err := authenticator.Authenticate(c.Request().Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				return err
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

// UserFrom returns the user stored by Auth, or nil.
func UserFrom(c echo.Context) *domain.User {
	user, _ := c.Get(userKey).(*domain.User)
	return user
}
