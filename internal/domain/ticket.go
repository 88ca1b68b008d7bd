package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Any status may follow any other.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// UserID is the owner and never changes after creation. AssignedTo, when set, pointed at
// an admin at the time it was assigned.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	UserID      int64
	AssignedTo  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Read-only display names resolved from the referenced users.
	OwnerName    string
	AssigneeName string
}

// IsOwner reports whether userID owns the ticket.
func (t *Ticket) IsOwner(userID int64) bool {
	return t.UserID == userID
}

// IsAssignee reports whether the ticket is assigned to userID.
func (t *Ticket) IsAssignee(userID int64) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// AssigneeChange distinguishes "leave alone" from "set" and "clear".
type AssigneeChange struct {
	Set    bool
	UserID *int64
}

// TicketPatch is a partial update. Nil fields are left unchanged.
type TicketPatch struct {
	Title       *string
	Description *string
	Priority    *TicketPriority
	Status      *TicketStatus
	AssignedTo  AssigneeChange
}

// Apply copies the set fields onto t.
func (p TicketPatch) Apply(t *Ticket) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.AssignedTo.Set {
		t.AssignedTo = p.AssignedTo.UserID
	}
}
