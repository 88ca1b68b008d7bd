package service

import (
	"errors"

	"github.com/spec-kit/ticketing-api/internal/repository"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// MsgDuplicateUser is returned whenever a username or email is already taken.
const MsgDuplicateUser = "Username or email already exists"

// MsgInvalidAssignee is returned when a ticket is assigned to anyone but an admin.
const MsgInvalidAssignee = "Can only assign tickets to admin users"

// lookupError maps a failed read of resource onto the client-facing taxonomy.
func lookupError(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource)
	}
	return apperrors.NewInternalError(err)
}

// writeError maps a failed write. Every persistence failure during a write is a client
// error carrying the underlying message; a row that vanished mid-request is a 404.
func writeError(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewValidationError(MsgDuplicateUser)
	}
	return apperrors.NewPersistenceError(err)
}
