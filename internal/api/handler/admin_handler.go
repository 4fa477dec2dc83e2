package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/ports"
)

type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// DashboardStats returns account counters and the newest accounts.
//
// @Summary      Dashboard statistics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  successResponse{data=dashboardData}
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Router       /admin/dashboard/stats [get]
func (h *AdminHandler) DashboardStats(c echo.Context) error {
	stats, err := h.adminService.DashboardStats(c.Request().Context())
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "", dashboardData{
		Stats: dashboardStats{
			Total:        stats.Total,
			Active:       stats.Active,
			Inactive:     stats.Inactive,
			Admins:       stats.Admins,
			RegularUsers: stats.RegularUsers,
		},
		RecentUsers: toUserResponses(stats.RecentUsers),
	})
}

// ListUsers returns a filtered, paginated user list.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Param        search  query     string  false  "Substring of first name, last name or email"
// @Param        role    query     string  false  "admin | user"
// @Param        status  query     string  false  "active | inactive"
// @Success      200     {object}  successResponse{data=userListData}
// @Failure      400     {object}  errorBody
// @Failure      401     {object}  errorBody
// @Failure      403     {object}  errorBody
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	var q listUsersQuery
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	res, err := h.adminService.ListUsers(c.Request().Context(), ports.ListUsersInput{
		Search: q.Search,
		Role:   q.Role,
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, "", userListData{
		Users: toUserResponses(res.Users),
		Pagination: pagination{
			CurrentPage: res.Page,
			TotalPages:  res.TotalPages,
			TotalUsers:  res.Total,
			HasNext:     res.HasNext,
			HasPrev:     res.HasPrev,
		},
	})
}

// GetUser returns a single user.
//
// @Summary      Get user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  successResponse{data=userData}
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c echo.Context) error {
	user, err := h.adminService.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", userData{User: toUserResponse(user)})
}

// UpdateStatus activates or deactivates a user.
//
// @Summary      Set user status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "User ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  successResponse{data=userData}
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /admin/users/{id}/status [put]
func (h *AdminHandler) UpdateStatus(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.adminService.SetStatus(c.Request().Context(), actor.ID, c.Param("id"), *req.IsActive)
	if err != nil {
		return err
	}

	msg := "User deactivated successfully"
	if user.IsActive {
		msg = "User activated successfully"
	}
	return respond(c, http.StatusOK, msg, userData{User: toUserResponse(user)})
}

// UpdateRole changes a user's role.
//
// @Summary      Set user role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  successResponse{data=userData}
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Router       /admin/users/{id}/role [put]
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.adminService.SetRole(c.Request().Context(), actor.ID, c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User role updated successfully", userData{User: toUserResponse(user)})
}

// DeleteUser permanently removes a user.
//
// @Summary      Delete user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  successResponse
// @Failure      400  {object}  errorBody
// @Failure      401  {object}  errorBody
// @Failure      403  {object}  errorBody
// @Failure      404  {object}  errorBody
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.adminService.DeleteUser(c.Request().Context(), actor.ID, c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted successfully", nil)
}
