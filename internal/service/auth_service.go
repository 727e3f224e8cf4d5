package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/engagement-marketplace/internal/auth"
	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/config"
	"github.com/spec-kit/engagement-marketplace/internal/domain"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	apperrors "github.com/spec-kit/engagement-marketplace/pkg/util/errorutil"
)

// AuthService coordinates registration and login flows.
type AuthService struct {
	store      repository.Store
	tokenMgr   *auth.TokenManager
	ids        idgen.Generator
	clock      clock.Clock
	logger     *zap.Logger
	bcryptCost int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store  repository.Store
	IDs    idgen.Generator
	Clock  clock.Clock
	Logger *zap.Logger
}

// SignupInput describes a new account.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Session is an issued access token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.System()
	}
	ids := deps.IDs
	if ids == nil {
		ids = idgen.NewUUID()
	}
	return &AuthService{
		store:      deps.Store,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.Issuer, cfg.AccessTokenTTLMinutes),
		ids:        ids,
		clock:      clk,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup creates an engager or creator account. Admins are bootstrapped, not signed up.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	if input.Role == domain.RoleAdmin || !input.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be ENGAGER or CREATOR", map[string]any{"role": string(input.Role)})
	}
	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	var user *domain.User
	err := s.store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users().GetByEmail(ctx, normalizeEmail(email))
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(user)
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return s.store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users().GetByID(ctx, userID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		user.PasswordHash = hash
		user.UpdatedAt = s.clock.Now()
		return apperrors.MapError(repos.Users().Update(ctx, user))
	})
}

// EnsureAdmin creates the bootstrap admin when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	var existing *domain.User
	err := s.store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		existing, err = repos.Users().GetByEmail(ctx, normalizeEmail(email))
		return err
	})
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			return nil, false, apperrors.NewConflict("bootstrap email belongs to a non-admin account", map[string]any{"email": existing.Email})
		}
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.MapError(err)
	}
	admin, err := s.createUser(ctx, SignupInput{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return nil, false, err
	}
	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID))
	return admin, true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, input SignupInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	details := map[string]any{}
	if input.Name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(input.Email); err != nil || input.Email == "" {
		details["email"] = "invalid email"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid signup", details)
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           s.ids.NewID(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.store.Atomic(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Users().Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": input.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{User: user, Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
