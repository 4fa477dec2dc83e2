package ports

import (
	"context"

	"github.com/userauth/auth-service/internal/core/domain"
)

// ListUsersInput carries all parameters for the admin list endpoint.
type ListUsersInput struct {
	Search string
	Role   string // "admin", "user" or empty
	Status string // "active", "inactive" or empty
	Page   int
	Limit  int
}

// ListUsersResult is returned by ListUsers.
type ListUsersResult struct {
	Users      []*domain.User
	Total      int64
	Page       int
	Limit      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// DashboardStats is the admin console summary.
type DashboardStats struct {
	Total        int64
	Active       int64
	Inactive     int64
	Admins       int64
	RegularUsers int64
	RecentUsers  []*domain.User
}

// AdminService defines the admin console use cases. actorID is the
// authenticated admin; targeting it is rejected for status, role and delete.
type AdminService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	SetStatus(ctx context.Context, actorID, targetID string, active bool) (*domain.User, error)
	SetRole(ctx context.Context, actorID, targetID, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, actorID, targetID string) error
}
