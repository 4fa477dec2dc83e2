package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

type stubAdminService struct {
	listFn      func(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error)
	setStatusFn func(ctx context.Context, actorID, targetID string, active bool) (*domain.User, error)
	setRoleFn   func(ctx context.Context, actorID, targetID, role string) (*domain.User, error)
	deleteFn    func(ctx context.Context, actorID, targetID string) error
}

func (s *stubAdminService) DashboardStats(context.Context) (*ports.DashboardStats, error) {
	return &ports.DashboardStats{
		Total: 3, Active: 2, Inactive: 1, Admins: 1, RegularUsers: 2,
		RecentUsers: []*domain.User{{ID: "u3"}, {ID: "u2"}},
	}, nil
}

func (s *stubAdminService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubAdminService) GetUser(_ context.Context, id string) (*domain.User, error) {
	if id != "u1" {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: "u1"}, nil
}

func (s *stubAdminService) SetStatus(ctx context.Context, actorID, targetID string, active bool) (*domain.User, error) {
	return s.setStatusFn(ctx, actorID, targetID, active)
}

func (s *stubAdminService) SetRole(ctx context.Context, actorID, targetID, role string) (*domain.User, error) {
	return s.setRoleFn(ctx, actorID, targetID, role)
}

func (s *stubAdminService) DeleteUser(ctx context.Context, actorID, targetID string) error {
	return s.deleteFn(ctx, actorID, targetID)
}

func adminContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, id string) echo.Context {
	c := e.NewContext(req, rec)
	c.Set(userContextKey, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c
}

func TestAdminHandler_DashboardStats(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{})

	rec := httptest.NewRecorder()
	if err := h.DashboardStats(adminContext(e, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/stats", nil), rec, "")); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	data := decodeEnvelope(t, rec)
	stats, _ := data["stats"].(map[string]any)
	if stats["total"] != float64(3) || stats["regularUsers"] != float64(2) {
		t.Fatalf("unexpected stats: %v", stats)
	}
	if recent, _ := data["recentUsers"].([]any); len(recent) != 2 {
		t.Fatalf("expected 2 recent users, got %v", data["recentUsers"])
	}
}

func TestAdminHandler_ListUsers(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{
		listFn: func(_ context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
			if in.Page != 2 || in.Limit != 5 || in.Search != "ann" || in.Role != "user" || in.Status != "active" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.ListUsersResult{
				Users: []*domain.User{{ID: "u1"}}, Total: 6, Page: 2, Limit: 5, TotalPages: 2, HasPrev: true,
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?page=2&limit=5&search=ann&role=user&status=active", nil)
	if err := h.ListUsers(adminContext(e, req, rec, "")); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	data := decodeEnvelope(t, rec)
	p, _ := data["pagination"].(map[string]any)
	if p["currentPage"] != float64(2) || p["totalPages"] != float64(2) || p["totalUsers"] != float64(6) || p["hasNext"] != false || p["hasPrev"] != true {
		t.Fatalf("unexpected pagination: %v", p)
	}
}

func TestAdminHandler_ListUsers_BadPage(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?page=abc", nil)
	err := h.ListUsers(adminContext(e, req, httptest.NewRecorder(), ""))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAdminHandler_GetUser_NotFound(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{})

	err := h.GetUser(adminContext(e, httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder(), "missing"))
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminHandler_UpdateStatus(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{
		setStatusFn: func(_ context.Context, actorID, targetID string, active bool) (*domain.User, error) {
			if actorID != "admin-1" || targetID != "u1" || active {
				t.Fatalf("unexpected args: %s %s %v", actorID, targetID, active)
			}
			return &domain.User{ID: "u1", IsActive: false}, nil
		},
	})

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPut, "/", `{"isActive":false}`)
	if err := h.UpdateStatus(adminContext(e, req, rec, "u1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminHandler_UpdateStatus_MissingFlag(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{})

	req := jsonRequest(http.MethodPut, "/", `{}`)
	if err := h.UpdateStatus(adminContext(e, req, httptest.NewRecorder(), "u1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAdminHandler_SelfTargetingPropagates(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{
		setStatusFn: func(context.Context, string, string, bool) (*domain.User, error) {
			return nil, domain.ErrSelfDeactivation
		},
		setRoleFn: func(context.Context, string, string, string) (*domain.User, error) {
			return nil, domain.ErrSelfRoleChange
		},
		deleteFn: func(context.Context, string, string) error {
			return domain.ErrSelfDeletion
		},
	})

	if err := h.UpdateStatus(adminContext(e, jsonRequest(http.MethodPut, "/", `{"isActive":true}`), httptest.NewRecorder(), "admin-1")); !errors.Is(err, domain.ErrSelfDeactivation) {
		t.Fatalf("expected ErrSelfDeactivation, got %v", err)
	}
	if err := h.UpdateRole(adminContext(e, jsonRequest(http.MethodPut, "/", `{"role":"user"}`), httptest.NewRecorder(), "admin-1")); !errors.Is(err, domain.ErrSelfRoleChange) {
		t.Fatalf("expected ErrSelfRoleChange, got %v", err)
	}
	if err := h.DeleteUser(adminContext(e, httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder(), "admin-1")); !errors.Is(err, domain.ErrSelfDeletion) {
		t.Fatalf("expected ErrSelfDeletion, got %v", err)
	}
}

func TestAdminHandler_UpdateRole_InvalidRole(t *testing.T) {
	e := newTestEcho()
	h := NewAdminHandler(&stubAdminService{})

	req := jsonRequest(http.MethodPut, "/", `{"role":"root"}`)
	if err := h.UpdateRole(adminContext(e, req, httptest.NewRecorder(), "u1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
