package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/domain"
)

// userContextKey matches the key the Auth middleware stores the *domain.User under.
const userContextKey = "user"

// currentUser returns the user injected by the Auth middleware. A missing
// user means the route was mounted without the middleware: reject with 401.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(userContextKey).(*domain.User)
	if user == nil || user.ID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return user, nil
}
