package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/spec-kit/ticketing-api/internal/domain"
)

// CreateTicketRequest payload. Status and assigned_to are honoured for admins only.
type CreateTicketRequest struct {
	Title       string                 `json:"title" form:"title"`
	Description string                 `json:"description" form:"description"`
	Priority    *domain.TicketPriority `json:"priority" form:"priority"`
	Status      *domain.TicketStatus   `json:"status" form:"status"`
	AssignedTo  *int64                 `json:"assigned_to" form:"assigned_to"`
}

// UpdateTicketRequest payload. Absent fields are left unchanged.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      *domain.TicketStatus   `json:"status"`
	AssignedTo  OptionalID             `json:"assigned_to"`
}

// Patch converts the request into a domain patch.
func (r UpdateTicketRequest) Patch() domain.TicketPatch {
	return domain.TicketPatch{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		AssignedTo:  domain.AssigneeChange{Set: r.AssignedTo.Set, UserID: r.AssignedTo.Value},
	}
}

// AssignTicketRequest payload for the admin assign endpoint. A null or missing
// assigned_to unassigns.
type AssignTicketRequest struct {
	AssignedTo *int64 `json:"assigned_to"`
}

// OptionalID tells an absent JSON field apart from an explicit null.
type OptionalID struct {
	Set   bool
	Value *int64
}

// UnmarshalJSON is only invoked when the key is present.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// TicketResponse is the serialized ticket view.
type TicketResponse struct {
	ID           int64                 `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	UserID       int64                 `json:"user_id"`
	AssignedTo   *int64                `json:"assigned_to"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	UserName     string                `json:"user_name"`
	AssigneeName *string               `json:"assignee_name"`
}

// NewTicketResponse maps a domain ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		UserID:      t.UserID,
		AssignedTo:  t.AssignedTo,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		UserName:    t.OwnerName,
	}
	if t.AssignedTo != nil {
		name := t.AssigneeName
		resp.AssigneeName = &name
	}
	return resp
}

// NewTicketList maps a slice, never returning nil so the body is always a JSON array.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, NewTicketResponse(&tickets[i]))
	}
	return items
}
