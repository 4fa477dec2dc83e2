package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// Register creates a new account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  successResponse{data=authData}
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		return err
	}

	h.cookies.set(c, res.Tokens.RefreshToken)
	user := toUserResponse(res.User)
	return respond(c, http.StatusCreated, "User registered successfully", authData{
		AccessToken: res.Tokens.AccessToken,
		User:        &user,
	})
}

// Login authenticates a user and returns an access token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  successResponse{data=authData}
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.cookies.set(c, res.Tokens.RefreshToken)
	user := toUserResponse(res.User)
	return respond(c, http.StatusOK, "Login successful", authData{
		AccessToken: res.Tokens.AccessToken,
		User:        &user,
	})
}

// Refresh exchanges the refresh token for a new access token and rotates it.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token when no cookie is sent"
// @Success      200   {object}  successResponse{data=authData}
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	// The body is optional when the cookie is present.
	_ = c.Bind(&req)

	token := refreshTokenFrom(c, req.RefreshToken)
	if token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token required")
	}

	res, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		h.cookies.clear(c)
		return err
	}

	h.cookies.set(c, res.Tokens.RefreshToken)
	return respond(c, http.StatusOK, "", authData{AccessToken: res.Tokens.AccessToken})
}

// Logout revokes the caller's refresh token.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successResponse
// @Failure      401  {object}  errorBody
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req refreshRequest
	_ = c.Bind(&req)

	if err := h.authService.Logout(c.Request().Context(), user.ID, refreshTokenFrom(c, req.RefreshToken)); err != nil {
		return err
	}

	h.cookies.clear(c)
	return respond(c, http.StatusOK, "Logout successful", nil)
}

// Profile returns the authenticated user.
//
// @Summary      Get profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successResponse{data=userData}
// @Failure      401  {object}  errorBody
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", userData{User: toUserResponse(user)})
}

// UpdateProfile changes name or email of the authenticated user.
//
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  successResponse{data=userData}
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Router       /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.authService.UpdateProfile(c.Request().Context(), user.ID, ports.ProfileChanges{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated successfully", userData{User: toUserResponse(updated)})
}

// ChangePassword replaces the password and signs out every session.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Router       /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), user.ID, ports.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return err
	}

	h.cookies.clear(c)
	return respond(c, http.StatusOK, "Password changed successfully", nil)
}
