package events

import (
	"time"

	"github.com/spec-kit/ticketing-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketUpdated  EventType = "ticket_updated"
	EventTicketAssigned EventType = "ticket_assigned"
	EventTicketDeleted  EventType = "ticket_deleted"
)

// Actor identifies the user whose request produced the event.
type Actor struct {
	UserID  int64 `json:"user_id"`
	IsAdmin bool  `json:"is_admin"`
}

// ActorFrom builds an Actor from a user.
func ActorFrom(u *domain.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{UserID: u.ID, IsAdmin: u.IsAdmin}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  int64     `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID    int64                 `json:"owner_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
	AssignedTo *int64                `json:"assigned_to,omitempty"`
}

// TicketUpdatedPayload lists the fields whose value changed.
type TicketUpdatedPayload struct {
	Changed   []string            `json:"changed"`
	OldStatus domain.TicketStatus `json:"old_status,omitempty"`
	NewStatus domain.TicketStatus `json:"new_status,omitempty"`
}

// TicketAssignedPayload payload. A nil assignee means the ticket was unassigned.
type TicketAssignedPayload struct {
	PreviousAssignee *int64 `json:"previous_assignee,omitempty"`
	Assignee         *int64 `json:"assignee,omitempty"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	OwnerID int64  `json:"owner_id"`
	Title   string `json:"title"`
}
