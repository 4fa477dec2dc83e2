package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/userauth/auth-service/internal/pkg/metrics"
	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

const (
	defaultPageSize  = 10
	maxPageSize      = 100
	recentUsersLimit = 5
)

type AdminService struct {
	repo   ports.UserRepository
	audit  ports.AuditRecorder
	logger zerolog.Logger
	now    func() time.Time
}

func NewAdminService(repo ports.UserRepository, audit ports.AuditRecorder, logger zerolog.Logger) *AdminService {
	if audit == nil {
		audit = nopRecorder{}
	}
	return &AdminService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

func (s *AdminService) DashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	recent, err := s.repo.Recent(ctx, recentUsersLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}
	return &ports.DashboardStats{
		Total:        counts.Total,
		Active:       counts.Active,
		Inactive:     counts.Total - counts.Active,
		Admins:       counts.Admins,
		RegularUsers: counts.Total - counts.Admins,
		RecentUsers:  recent,
	}, nil
}

// ListUsers pages through users newest first. Unknown role or status values
// are ignored rather than rejected.
func (s *AdminService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	switch {
	case limit < 1:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	filter := ports.ListUsersFilter{
		Search: strings.TrimSpace(in.Search),
		Page:   page,
		Limit:  limit,
	}
	if r := domain.Role(strings.ToLower(in.Role)); r.Valid() {
		filter.Role = r
	}
	switch strings.ToLower(in.Status) {
	case "active":
		active := true
		filter.Active = &active
	case "inactive":
		active := false
		filter.Active = &active
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListUsersResult{
		Users:      users,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// SetStatus activates or deactivates an account. Deactivation revokes its refresh tokens.
func (s *AdminService) SetStatus(ctx context.Context, actorID, targetID string, active bool) (*domain.User, error) {
	if actorID == targetID {
		return nil, domain.ErrSelfDeactivation
	}

	user, err := s.repo.SetActive(ctx, targetID, active, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("status").Inc()
	s.record(domain.AuditStatusChange, user, actorID, fmt.Sprintf("active=%t", active))
	s.logger.Info().Str("actor_id", actorID).Str("user_id", targetID).Bool("active", active).Msg("user status changed")
	return user, nil
}

func (s *AdminService) SetRole(ctx context.Context, actorID, targetID, role string) (*domain.User, error) {
	r := domain.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return nil, domain.NewValidationError("role must be either admin or user")
	}
	if actorID == targetID {
		return nil, domain.ErrSelfRoleChange
	}

	user, err := s.repo.SetRole(ctx, targetID, r, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("role").Inc()
	s.record(domain.AuditRoleChange, user, actorID, "role="+string(r))
	s.logger.Info().Str("actor_id", actorID).Str("user_id", targetID).Str("role", string(r)).Msg("user role changed")
	return user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return domain.ErrSelfDeletion
	}

	user, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.repo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	metrics.AdminActionsTotal.WithLabelValues("delete").Inc()
	s.record(domain.AuditUserDeleted, user, actorID, "")
	s.logger.Info().Str("actor_id", actorID).Str("user_id", targetID).Msg("user deleted")
	return nil
}

func (s *AdminService) record(action domain.AuditAction, user *domain.User, actorID, detail string) {
	s.audit.Record(domain.AuditEvent{
		Action:    action,
		UserID:    user.ID,
		Email:     user.Email,
		ActorID:   actorID,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	})
}
