package auth

import (
	"github.com/spec-kit/ticketing-api/internal/domain"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// Messages surfaced to clients on denial.
const (
	MsgAuthenticationRequired = "Authentication required"
	MsgAdminRequired          = "Admin privileges required"
	MsgAccessDenied           = "Access denied"
	MsgAdminRequiredToDelete  = "Admin privileges required to delete tickets"
)

// Outcome is the verdict of an authorization check.
type Outcome int

const (
	Allow Outcome = iota
	DenyUnauthenticated
	DenyForbidden
)

// Decision is the result of a policy check. The zero value allows.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// Allowed reports whether the decision lets the request through.
func (d Decision) Allowed() bool { return d.Outcome == Allow }

// Err converts a denial into the matching domain error. It returns nil for Allow.
func (d Decision) Err() error {
	switch d.Outcome {
	case DenyUnauthenticated:
		return apperrors.NewUnauthenticated(d.Reason)
	case DenyForbidden:
		return apperrors.NewForbidden(d.Reason)
	}
	return nil
}

func allow() Decision { return Decision{Outcome: Allow} }

func unauthenticated() Decision {
	return Decision{Outcome: DenyUnauthenticated, Reason: MsgAuthenticationRequired}
}

func forbidden(reason string) Decision {
	return Decision{Outcome: DenyForbidden, Reason: reason}
}

// Action names an operation on a protected resource.
type Action int

const (
	ActionRead Action = iota
	ActionUpdate
	ActionDelete
)

// Authenticate requires a resolved actor.
func Authenticate(actor *domain.User) Decision {
	if actor == nil {
		return unauthenticated()
	}
	return allow()
}

// RequireAdmin requires an admin actor. Anonymous callers are unauthenticated, not forbidden.
func RequireAdmin(actor *domain.User) Decision {
	if actor == nil {
		return unauthenticated()
	}
	if !actor.IsAdmin {
		return forbidden(MsgAdminRequired)
	}
	return allow()
}

// AuthorizeTicket applies the ownership rules to an existing ticket.
//
// Admins may do anything. Owners and assignees may read and update. Only admins delete.
func AuthorizeTicket(actor *domain.User, ticket *domain.Ticket, action Action) Decision {
	if actor == nil {
		return unauthenticated()
	}
	if actor.IsAdmin {
		return allow()
	}
	if action == ActionDelete {
		return forbidden(MsgAdminRequiredToDelete)
	}
	if ticket.IsOwner(actor.ID) || ticket.IsAssignee(actor.ID) {
		return allow()
	}
	return forbidden(MsgAccessDenied)
}

// AuthorizeUserRecord restricts a per-user record to the user themself. Admin status grants
// nothing here, and the check does not need the target to exist.
func AuthorizeUserRecord(actor *domain.User, targetID int64) Decision {
	if actor == nil {
		return unauthenticated()
	}
	if actor.ID != targetID {
		return forbidden(MsgAccessDenied)
	}
	return allow()
}

// RestrictTicketPatch drops the fields a non-admin may not change. The dropped fields are
// ignored rather than rejected.
func RestrictTicketPatch(actor *domain.User, patch domain.TicketPatch) domain.TicketPatch {
	if actor != nil && actor.IsAdmin {
		return patch
	}
	patch.Status = nil
	patch.AssignedTo = domain.AssigneeChange{}
	return patch
}
