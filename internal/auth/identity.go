package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/repository"
	"github.com/spec-kit/ticketing-api/internal/session"
)

// UserLookup is the slice of the user repository identity resolution needs.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// IdentityResolver maps a session to the acting user.
type IdentityResolver struct {
	users  UserLookup
	logger *zap.Logger
}

// NewIdentityResolver builds a resolver.
func NewIdentityResolver(users UserLookup, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{users: users, logger: logger}
}

// Resolve returns the user recorded in the session. It never fails: a session whose user is
// gone resolves to absent, and a lookup error is logged and treated the same way. The
// session itself is left untouched.
func (r *IdentityResolver) Resolve(ctx context.Context, s *session.Session) (*domain.User, bool) {
	if s == nil {
		return nil, false
	}
	id, ok := s.UserID()
	if !ok {
		return nil, false
	}
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("identity lookup failed", zap.Int64("user_id", id), zap.Error(err))
		}
		return nil, false
	}
	return user, true
}
