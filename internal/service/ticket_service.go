package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/events"
	"github.com/spec-kit/ticketing-api/internal/repository"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// TicketService applies access decisions and field rules around ticket persistence.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// TicketCreateInput describes ticket creation payload. Status and AssignedTo are honoured
// for admins only.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    *domain.TicketPriority
	Status      *domain.TicketStatus
	AssignedTo  *int64
}

// AdminTicketFilter holds the optional exact-match filters of the admin listing.
type AdminTicketFilter struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	AssignedTo *int64
}

// Create stores a ticket owned by the actor.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		UserID:      actor.ID,
	}
	if ticket.Title == "" {
		return nil, apperrors.NewValidationError("title is required")
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if actor.IsAdmin {
		if input.Status != nil {
			ticket.Status = *input.Status
		}
		if input.AssignedTo != nil {
			if err := s.validateAssignee(ctx, *input.AssignedTo); err != nil {
				return nil, err
			}
			ticket.AssignedTo = input.AssignedTo
		}
	}
	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, writeError(err, "Ticket")
	}
	created := s.reload(ctx, ticket)

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: created.ID,
		Actor:    events.ActorFrom(actor),
		Payload: events.TicketCreatedPayload{
			OwnerID:    created.UserID,
			Priority:   created.Priority,
			Title:      created.Title,
			AssignedTo: created.AssignedTo,
		},
	})
	return created, nil
}

// ListForActor returns the tickets the actor owns or is assigned to, newest first. Admins
// get the same scoped view here; the unscoped listing is ListAll.
func (s *TicketService) ListForActor(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}
	id := actor.ID
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{OwnerOrAssignee: &id})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ListAll returns every ticket matching filter. Admin only.
func (s *TicketService) ListAll(ctx context.Context, actor *domain.User, filter AdminTicketFilter) ([]domain.Ticket, error) {
	if err := auth.RequireAdmin(actor).Err(); err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		Status:     filter.Status,
		Priority:   filter.Priority,
		AssignedTo: filter.AssignedTo,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// ListAdmins returns the users tickets may be assigned to. Admin only.
func (s *TicketService) ListAdmins(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	if err := auth.RequireAdmin(actor).Err(); err != nil {
		return nil, err
	}
	isAdmin := true
	admins, err := s.users.List(ctx, repository.UserFilter{IsAdmin: &isAdmin})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return admins, nil
}

// Get returns a ticket the actor may read. A missing ticket is reported before ownership.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, id int64) (*domain.Ticket, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeTicket(actor, ticket, auth.ActionRead).Err(); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update applies patch after the ownership check. Status and assignee changes from
// non-admins are dropped; an invalid assignee rejects the whole update before any write.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return nil, err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeTicket(actor, ticket, auth.ActionUpdate).Err(); err != nil {
		return nil, err
	}

	patch = auth.RestrictTicketPatch(actor, patch)
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty")
		}
		patch.Title = &title
	}
	if patch.AssignedTo.Set && patch.AssignedTo.UserID != nil {
		if err := s.validateAssignee(ctx, *patch.AssignedTo.UserID); err != nil {
			return nil, err
		}
	}

	before := *ticket
	patch.Apply(ticket)
	if err := validateTicket(ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, writeError(err, "Ticket")
	}
	updated := s.reload(ctx, ticket)

	s.publishChanges(ctx, actor, &before, updated)
	return updated, nil
}

// Assign sets or clears the assignee. Admin only; a nil assignee unassigns.
func (s *TicketService) Assign(ctx context.Context, actor *domain.User, id int64, assignee *int64) (*domain.Ticket, error) {
	if err := auth.RequireAdmin(actor).Err(); err != nil {
		return nil, err
	}
	return s.Update(ctx, actor, id, domain.TicketPatch{
		AssignedTo: domain.AssigneeChange{Set: true, UserID: assignee},
	})
}

// Delete removes a ticket. A missing ticket is reported before the admin check.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id int64) error {
	if err := auth.Authenticate(actor).Err(); err != nil {
		return err
	}
	ticket, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.AuthorizeTicket(actor, ticket, auth.ActionDelete).Err(); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return writeError(err, "Ticket")
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    events.ActorFrom(actor),
		Payload:  events.TicketDeletedPayload{OwnerID: ticket.UserID, Title: ticket.Title},
	})
	return nil
}

func (s *TicketService) load(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Ticket")
	}
	return ticket, nil
}

// reload fetches the stored row so display names reflect the write. The write has already
// succeeded, so a failed read falls back to the in-memory copy.
func (s *TicketService) reload(ctx context.Context, ticket *domain.Ticket) *domain.Ticket {
	fresh, err := s.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		s.logger.Warn("reload after write failed", zap.Int64("ticket_id", ticket.ID), zap.Error(err))
		return ticket
	}
	return fresh
}

// validateAssignee checks the assignee is an existing admin. Later demotion is not re-checked.
func (s *TicketService) validateAssignee(ctx context.Context, userID int64) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewAssignmentInvalid(MsgInvalidAssignee)
		}
		return apperrors.NewInternalError(err)
	}
	if !user.IsAdmin {
		return apperrors.NewAssignmentInvalid(MsgInvalidAssignee)
	}
	return nil
}

func validateTicket(t *domain.Ticket) error {
	if !t.Status.Valid() {
		return apperrors.NewValidationError("invalid status: " + string(t.Status))
	}
	if !t.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority: " + string(t.Priority))
	}
	return nil
}

func (s *TicketService) publishChanges(ctx context.Context, actor *domain.User, before, after *domain.Ticket) {
	var changed []string
	if before.Title != after.Title {
		changed = append(changed, "title")
	}
	if before.Description != after.Description {
		changed = append(changed, "description")
	}
	if before.Priority != after.Priority {
		changed = append(changed, "priority")
	}
	if before.Status != after.Status {
		changed = append(changed, "status")
	}
	if len(changed) > 0 {
		payload := events.TicketUpdatedPayload{Changed: changed}
		if before.Status != after.Status {
			payload.OldStatus, payload.NewStatus = before.Status, after.Status
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: after.ID,
			Actor:    events.ActorFrom(actor),
			Payload:  payload,
		})
	}
	if !sameAssignee(before.AssignedTo, after.AssignedTo) {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: after.ID,
			Actor:    events.ActorFrom(actor),
			Payload: events.TicketAssignedPayload{
				PreviousAssignee: before.AssignedTo,
				Assignee:         after.AssignedTo,
			},
		})
	}
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event not published", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
