package handler

// listUsersQuery holds the query parameters of GET /admin/users.
type listUsersQuery struct {
	Page   int    `query:"page"`
	Limit  int    `query:"limit"`
	Search string `query:"search"`
	Role   string `query:"role"`
	Status string `query:"status"`
}

// updateStatusRequest is the body of PUT /admin/users/:id/status.
type updateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// updateRoleRequest is the body of PUT /admin/users/:id/role.
type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin user" example:"admin"`
}

type dashboardStats struct {
	Total        int64 `json:"total"`
	Active       int64 `json:"active"`
	Inactive     int64 `json:"inactive"`
	Admins       int64 `json:"admins"`
	RegularUsers int64 `json:"regularUsers"`
}

type dashboardData struct {
	Stats       dashboardStats `json:"stats"`
	RecentUsers []userResponse `json:"recentUsers"`
}

type pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalUsers  int64 `json:"totalUsers"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

type userListData struct {
	Users      []userResponse `json:"users"`
	Pagination pagination     `json:"pagination"`
}
