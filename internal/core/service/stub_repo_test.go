package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	clone.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	return &clone
}

func (r *stubUserRepo) get(id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[clone.ID] = clone
	return cloneUser(clone), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) RecordLoginFailure(_ context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	u.LoginAttempts, u.LockUntil = policy.NextFailure(u.LoginAttempts, u.LockUntil, now)
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (r *stubUserRepo) RecordLoginSuccess(_ context.Context, id, refreshToken string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.LastLogin = &now
	u.RefreshTokens = append(u.RefreshTokens, refreshToken)
	return nil
}

func (r *stubUserRepo) AddRefreshToken(_ context.Context, id, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	u.RefreshTokens = append(u.RefreshTokens, token)
	return nil
}

func (r *stubUserRepo) ReplaceRefreshToken(_ context.Context, id, oldToken, newToken string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	for i, t := range u.RefreshTokens {
		if t == oldToken {
			u.RefreshTokens = append(u.RefreshTokens[:i:i], u.RefreshTokens[i+1:]...)
			u.RefreshTokens = append(u.RefreshTokens, newToken)
			return nil
		}
	}
	return domain.ErrInvalidToken
}

func (r *stubUserRepo) RemoveRefreshToken(_ context.Context, id, token string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	kept := u.RefreshTokens[:0]
	for _, t := range u.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.RefreshTokens = kept
	return nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, changes ports.ProfileChanges, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if changes.Email != nil {
		for _, other := range r.users {
			if other.ID != id && other.Email == *changes.Email {
				return nil, domain.ErrDuplicateEmail
			}
		}
		u.Email = *changes.Email
	}
	if changes.FirstName != nil {
		u.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		u.LastName = *changes.LastName
	}
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	u.RefreshTokens = nil
	u.UpdatedAt = now
	return nil
}

func (r *stubUserRepo) SetActive(_ context.Context, id string, active bool, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	if !active {
		u.RefreshTokens = nil
	}
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetRole(_ context.Context, id string, role domain.Role, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.UpdatedAt = now
	return cloneUser(u), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.users, id)
	return nil
}

// sorted returns users newest first, breaking ties by ID.
func (r *stubUserRepo) sorted() []*domain.User {
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// List applies the same filters the real Mongo repo would use.
func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(f.Search)
	var matched []*domain.User
	for _, u := range r.sorted() {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Active != nil && u.IsActive != *f.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FirstName), search) &&
			!strings.Contains(strings.ToLower(u.LastName), search) &&
			!strings.Contains(u.Email, search) {
			continue
		}
		matched = append(matched, cloneUser(u))
	}

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *stubUserRepo) Counts(_ context.Context) (*ports.UserCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &ports.UserCounts{}
	for _, u := range r.users {
		c.Total++
		if u.IsActive {
			c.Active++
		}
		if u.Role == domain.RoleAdmin {
			c.Admins++
		}
	}
	return c, nil
}

func (r *stubUserRepo) Recent(_ context.Context, limit int) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted()
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]*domain.User, len(all))
	for i, u := range all {
		out[i] = cloneUser(u)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Test doubles for hashing and audit
// ---------------------------------------------------------------------------

// plainHasher avoids bcrypt cost in service tests.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Verify(hash, password string) (bool, error) {
	return hash == "hashed:"+password, nil
}

type captureRecorder struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (c *captureRecorder) Record(e domain.AuditEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureRecorder) actions() []domain.AuditAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.AuditAction, len(c.events))
	for i, e := range c.events {
		out[i] = e.Action
	}
	return out
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
