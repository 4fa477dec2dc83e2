package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/userauth/auth-service/internal/pkg/metrics"
	"github.com/userauth/auth-service/internal/core/domain"
	"github.com/userauth/auth-service/internal/core/ports"
)

// AuthService implements registration, login, token lifecycle and profile self-service.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	audit  ports.AuditRecorder
	policy domain.LockoutPolicy
	log    zerolog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthOption customises an AuthService.
type AuthOption func(*AuthService)

// WithLockoutPolicy overrides the default five-failures / two-hours policy.
func WithLockoutPolicy(p domain.LockoutPolicy) AuthOption {
	return func(s *AuthService) { s.policy = p.Normalize() }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	audit ports.AuditRecorder,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if audit == nil {
		audit = nopRecorder{}
	}
	s := &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		audit:  audit,
		policy: domain.DefaultLockoutPolicy(),
		log:    log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register hashes the password, stores the user and signs them in.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	firstName, lastName := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	email := domain.NormalizeEmail(in.Email)

	var problems []string
	problems = append(problems, nameProblems("first name", firstName)...)
	problems = append(problems, nameProblems("last name", lastName)...)
	if email == "" {
		problems = append(problems, "email is required")
	}
	problems = append(problems, domain.PasswordProblems(in.Password)...)
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	tokens, err := s.tokens.Issue(created)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	if err := s.repo.AddRefreshToken(ctx, created.ID, tokens.RefreshToken, now); err != nil {
		return nil, fmt.Errorf("register: store refresh token: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(string(role)).Inc()
	metrics.TokensIssuedTotal.WithLabelValues("register").Inc()
	s.record(domain.AuditRegister, created, "", "role="+string(role))
	s.log.Info().Str("user_id", created.ID).Str("role", string(role)).Msg("user registered")

	return &ports.AuthResult{User: created, Tokens: tokens}, nil
}

// Login runs the credential check and lockout bookkeeping for one attempt.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same work and message as a wrong password.
			s.burnHash(password)
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			s.audit.Record(domain.AuditEvent{Action: domain.AuditLoginFailure, Email: email, Detail: "unknown email", Timestamp: s.now().UTC()})
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		s.record(domain.AuditLoginFailure, user, "", "inactive")
		return nil, domain.ErrAccountInactive
	}

	now := s.now().UTC()
	if user.IsLocked(now) {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		s.record(domain.AuditLoginFailure, user, "", "locked")
		return nil, domain.ErrAccountLocked
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return nil, s.failLogin(ctx, user, now)
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := s.repo.RecordLoginSuccess(ctx, user.ID, tokens.RefreshToken, now); err != nil {
		return nil, fmt.Errorf("login: record success: %w", err)
	}

	user.LoginAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now
	user.RefreshTokens = append(user.RefreshTokens, tokens.RefreshToken)

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("login").Inc()
	s.record(domain.AuditLoginSuccess, user, "", "")
	s.log.Info().Str("user_id", user.ID).Msg("user logged in")

	return &ports.AuthResult{User: user, Tokens: tokens}, nil
}

func (s *AuthService) failLogin(ctx context.Context, user *domain.User, now time.Time) error {
	updated, err := s.repo.RecordLoginFailure(ctx, user.ID, s.policy, now)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("login: record failure: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
	s.record(domain.AuditLoginFailure, user, "", fmt.Sprintf("attempts=%d", updated.LoginAttempts))

	if updated.IsLocked(now) {
		metrics.AccountLockoutsTotal.Inc()
		s.record(domain.AuditAccountLocked, user, "", "until="+updated.LockUntil.Format(time.RFC3339))
		s.log.Warn().
			Str("user_id", user.ID).
			Int("attempts", updated.LoginAttempts).
			Time("lock_until", *updated.LockUntil).
			Msg("account locked")
	}
	return domain.ErrInvalidCredentials
}

// Logout revokes the presented refresh token. An empty token is a no-op.
func (s *AuthService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken != "" {
		if err := s.repo.RemoveRefreshToken(ctx, userID, refreshToken, s.now().UTC()); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}
	s.audit.Record(domain.AuditEvent{Action: domain.AuditLogout, UserID: userID, Timestamp: s.now().UTC()})
	return nil
}

// Refresh exchanges a stored refresh token for a new token pair, rotating it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken, ports.TokenRefresh)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenRefresh)).Inc()
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenRefresh)).Inc()
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !user.IsActive || !user.HasRefreshToken(refreshToken) {
		metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenRefresh)).Inc()
		return nil, domain.ErrInvalidToken
	}

	tokens, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := s.repo.ReplaceRefreshToken(ctx, user.ID, refreshToken, tokens.RefreshToken, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	s.record(domain.AuditTokenRefresh, user, "", "")
	return &ports.AuthResult{User: user, Tokens: tokens}, nil
}

// Authenticate verifies an access token and reloads its user. Deactivated or
// deleted accounts are rejected even while the token has not expired.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.Verify(accessToken, ports.TokenAccess)
	if err != nil {
		metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenAccess)).Inc()
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenAccess)).Inc()
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !user.IsActive {
		metrics.TokenRejectionsTotal.WithLabelValues(string(ports.TokenAccess)).Inc()
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields. Email changes keep the uniqueness rule.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, changes ports.ProfileChanges) (*domain.User, error) {
	var problems []string
	if changes.FirstName != nil {
		v := strings.TrimSpace(*changes.FirstName)
		changes.FirstName = &v
		problems = append(problems, nameProblems("first name", v)...)
	}
	if changes.LastName != nil {
		v := strings.TrimSpace(*changes.LastName)
		changes.LastName = &v
		problems = append(problems, nameProblems("last name", v)...)
	}
	if changes.Email != nil {
		v := domain.NormalizeEmail(*changes.Email)
		changes.Email = &v
		if v == "" {
			problems = append(problems, "email is required")
		}
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	user, err := s.repo.UpdateProfile(ctx, userID, changes, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.record(domain.AuditProfileUpdate, user, "", "")
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every refresh token of the account.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, in ports.ChangePasswordInput) error {
	if err := domain.ValidatePassword(in.NewPassword); err != nil {
		return err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.CurrentPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return domain.ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.record(domain.AuditPasswordChange, user, "", "")
	s.log.Info().Str("user_id", userID).Msg("password changed")
	return nil
}

// burnHash spends one comparison against a throwaway hash.
func (s *AuthService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("unknown-account-placeholder")
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to build placeholder hash")
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(s.dummyHash, password)
	}
}

func (s *AuthService) record(action domain.AuditAction, user *domain.User, actorID, detail string) {
	s.audit.Record(domain.AuditEvent{
		Action:    action,
		UserID:    user.ID,
		Email:     user.Email,
		ActorID:   actorID,
		Detail:    detail,
		Timestamp: s.now().UTC(),
	})
}

func nameProblems(field, value string) []string {
	switch {
	case value == "":
		return []string{field + " is required"}
	case len([]rune(value)) > domain.MaxNameLength:
		return []string{fmt.Sprintf("%s cannot exceed %d characters", field, domain.MaxNameLength)}
	}
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}
