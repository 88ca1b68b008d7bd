package service

import (
	"context"
	"strings"

	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/repository"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// UserService exposes user records. Per-user records are visible to their owner only;
// being an admin grants nothing extra here.
type UserService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	bcryptCost int
}

// NewUserService builds the service.
func NewUserService(cfg config.AuthConfig, users repository.UserRepository, tickets repository.TicketRepository) *UserService {
	return &UserService{users: users, tickets: tickets, bcryptCost: cfg.BcryptCost}
}

// UserPatch is a partial self-update. Nil fields are left unchanged.
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

// List returns every user.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Create adds an account on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor *domain.User, input NewUserInput) (*domain.User, error) {
	if err := auth.RequireAdmin(actor).Err(); err != nil {
		return nil, err
	}
	return createUser(ctx, s.users, s.bcryptCost, input)
}

// Get returns the actor's own record. The ownership check runs first, so asking for another
// user's id is forbidden whether or not that user exists.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.User, error) {
	if err := auth.AuthorizeUserRecord(actor, id).Err(); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Update changes the actor's own record.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id int64, patch UserPatch) (*domain.User, error) {
	if err := auth.AuthorizeUserRecord(actor, id).Err(); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		user.Username = strings.TrimSpace(*patch.Username)
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.FirstName != nil {
		user.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		user.LastName = strings.TrimSpace(*patch.LastName)
	}
	if user.Username == "" || user.Email == "" {
		return nil, apperrors.NewValidationError("username and email cannot be empty")
	}

	if patch.Username != nil || patch.Email != nil {
		exists, err := s.users.ExistsByUsernameOrEmail(ctx, user.Username, user.Email, user.ID)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if exists {
			return nil, apperrors.NewValidationError(MsgDuplicateUser)
		}
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return nil, apperrors.NewValidationError("password cannot be empty")
		}
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, writeError(err, "User")
	}
	return user, nil
}

// Delete removes the actor's own account. Tickets still referencing the user block the
// delete and surface as a validation error.
func (s *UserService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if err := auth.AuthorizeUserRecord(actor, id).Err(); err != nil {
		return err
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return writeError(err, "User")
	}
	return nil
}

// ListTickets returns the tickets the user owns.
func (s *UserService) ListTickets(ctx context.Context, actor *domain.User, id int64) ([]domain.Ticket, error) {
	if err := auth.AuthorizeUserRecord(actor, id).Err(); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{OwnerID: &id})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

func (s *UserService) load(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "User")
	}
	return user, nil
}
