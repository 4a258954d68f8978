// Package auth implements admin-console authentication: username/password
// login issuing JWT access tokens, and token validation for the middleware.
// Customers never authenticate; they only hold a shared balance link.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crawlingsloth/blvq-backend/internal/auth"
	"github.com/crawlingsloth/blvq-backend/internal/domain"
)

type userRepo interface {
	Create(ctx context.Context, u domain.User) error
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type jwtManager interface {
	GenerateAccessToken(userID uuid.UUID, role string) (string, error)
	ValidateAccessToken(token string) (uuid.UUID, string, error)
}

// Service provides admin authentication.
type Service struct {
	users    userRepo
	jwt      jwtManager
	hashCost int
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a new auth service. hashCost is the bcrypt cost used
// when creating accounts.
func NewService(log *slog.Logger, users userRepo, jwt jwtManager, hashCost int) *Service {
	return &Service{
		users:    users,
		jwt:      jwt,
		hashCost: hashCost,
		log:      log.With("service", "auth"),
		now:      time.Now,
	}
}

// LoginResult is the successful login payload.
type LoginResult struct {
	AccessToken string
	User        domain.User
}

// Login verifies the credentials and issues an access token. Unknown
// usernames and wrong passwords both return domain.ErrUnauthorized so the
// response does not reveal which accounts exist.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, fmt.Errorf("login: %w", domain.ErrUnauthorized)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.InfoContext(ctx, "login failed: unknown user", slog.String("username", username))
			return LoginResult{}, fmt.Errorf("login: %w", domain.ErrUnauthorized)
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		s.log.InfoContext(ctx, "login failed: bad password", slog.String("username", username))
		return LoginResult{}, fmt.Errorf("login: %w", domain.ErrUnauthorized)
	}

	token, err := s.jwt.GenerateAccessToken(user.ID, user.Role.String())
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	s.log.InfoContext(ctx, "login succeeded", slog.String("username", username))
	return LoginResult{AccessToken: token, User: user}, nil
}

// ValidateToken checks an access token and returns the user's ID and role.
// Invalid, expired, or foreign tokens return domain.ErrUnauthorized.
func (s *Service) ValidateToken(token string) (uuid.UUID, string, error) {
	userID, role, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("validate token: %w: %w", domain.ErrUnauthorized, err)
	}
	return userID, role, nil
}

// CreateUser creates an admin-console account with a bcrypt-hashed password.
// Used by the bootstrap command; there is no self-service registration.
func (s *Service) CreateUser(ctx context.Context, username, password string, role domain.UserRole) (domain.User, error) {
	username = strings.TrimSpace(username)

	var errs []domain.FieldError
	if username == "" {
		errs = append(errs, domain.FieldError{Field: "username", Message: "must not be empty"})
	}
	if len(password) < 8 {
		errs = append(errs, domain.FieldError{Field: "password", Message: "must be at least 8 characters"})
	}
	if !role.IsValid() {
		errs = append(errs, domain.FieldError{Field: "role", Message: "unknown role"})
	}
	if len(errs) > 0 {
		return domain.User{}, domain.NewValidationErrors(errs)
	}

	hash, err := auth.HashPassword(password, s.hashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.InfoContext(ctx, "user created",
		slog.String("username", username), slog.String("role", role.String()))
	return user, nil
}
