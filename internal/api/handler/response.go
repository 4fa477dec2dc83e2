package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/domain"
)

// successResponse is the envelope for every 2xx body.
type successResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorBody documents the failure envelope rendered by the API error handler.
type errorBody struct {
	Success bool     `json:"success" example:"false"`
	Message string   `json:"message" example:"Validation failed"`
	Errors  []string `json:"errors,omitempty"`
}

func respond(c echo.Context, code int, message string, data any) error {
	return c.JSON(code, successResponse{Success: true, Message: message, Data: data})
}

// userResponse is the public projection of a user. Password hash and refresh
// tokens never leave the service.
type userResponse struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	IsActive      bool       `json:"isActive"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	LoginAttempts int        `json:"loginAttempts"`
	LockUntil     *time.Time `json:"lockUntil,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            u.ID,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		Role:          string(u.Role),
		IsActive:      u.IsActive,
		LastLogin:     u.LastLogin,
		LoginAttempts: u.LoginAttempts,
		LockUntil:     u.LockUntil,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
