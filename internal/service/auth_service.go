package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/repository"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// MsgInvalidCredentials is returned for any failed login.
const MsgInvalidCredentials = "Invalid username or password"

// AuthService coordinates registration and login flows. Session handling stays with the
// caller; the service only verifies credentials.
type AuthService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, bcryptCost: cfg.BcryptCost, logger: logger}
}

// RegisterInput describes a self-service account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a regular, active account.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	return createUser(ctx, s.users, s.bcryptCost, NewUserInput{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
}

// Login verifies credentials. Unknown users and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthenticated(MsgInvalidCredentials)
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		s.logger.Info("login rejected", zap.String("username", user.Username))
		return nil, apperrors.NewUnauthenticated(MsgInvalidCredentials)
	}
	return user, nil
}

// Profile returns the actor's own record.
func (s *AuthService) Profile(actor *domain.User) (*domain.User, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}
	return actor, nil
}

// NewUserInput is shared by registration and admin account creation.
type NewUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsAdmin   bool
}

func createUser(ctx context.Context, users repository.UserRepository, cost int, input NewUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password are required")
	}

	exists, err := users.ExistsByUsernameOrEmail(ctx, username, email, 0)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if exists {
		return nil, apperrors.NewValidationError(MsgDuplicateUser)
	}

	hash, err := auth.HashPassword(input.Password, cost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		IsAdmin:      input.IsAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, writeError(err, "User")
	}
	return user, nil
}
