package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/userauth/auth-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := errorResponse{Success: false}
		var code int
		code, resp.Message, resp.Errors = resolveError(err, log, c)

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, []string) {
	// Echo's own errors (bind failures, 404 from router, middleware rejections).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "Validation failed", ve.Fields
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Validation failed", []string{err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password", nil
	case errors.Is(err, domain.ErrAccountLocked):
		return http.StatusUnauthorized, "Account is temporarily locked due to too many failed login attempts", nil
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusUnauthorized, "Account is deactivated", nil
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token", nil
	case errors.Is(err, domain.ErrInsufficientPermissions):
		return http.StatusForbidden, "Insufficient permissions", nil
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found", nil
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "User with this email already exists", nil
	case errors.Is(err, domain.ErrSelfDeactivation):
		return http.StatusBadRequest, "You cannot deactivate your own account", nil
	case errors.Is(err, domain.ErrSelfRoleChange):
		return http.StatusBadRequest, "You cannot change your own role", nil
	case errors.Is(err, domain.ErrSelfDeletion):
		return http.StatusBadRequest, "You cannot delete your own account", nil
	case errors.Is(err, domain.ErrIncorrectPassword):
		return http.StatusBadRequest, "Current password is incorrect", nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error", nil
}
