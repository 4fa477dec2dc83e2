package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := UserFrom(c)
			if user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if err := domain.Authorize(user.Role, allowedRoles...); err != nil {
				return err
			}
			return next(c)
		}
	}
}
