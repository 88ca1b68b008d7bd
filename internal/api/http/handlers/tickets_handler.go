package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/api/dto"
	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/service"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), auth.FromCtx(c).Actor, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListForActor(c.UserContext(), auth.FromCtx(c).Actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.Get(c.UserContext(), auth.FromCtx(c).Actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// UpdateTicket PUT /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), auth.FromCtx(c).Actor, id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), auth.FromCtx(c).Actor, id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Ticket deleted successfully"})
}

// ListAllTickets GET /tickets/admin/all?status=&priority=&assigned_to=.
func (h *TicketsHandler) ListAllTickets(c *fiber.Ctx) error {
	filter, err := parseAdminFilter(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListAll(c.UserContext(), auth.FromCtx(c).Actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}

// ListAdmins GET /tickets/admin/users.
func (h *TicketsHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.service.ListAdmins(c.UserContext(), auth.FromCtx(c).Actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(admins))
}

// AssignTicket PUT /tickets/admin/assign/:id.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ticket, err := h.service.Assign(c.UserContext(), auth.FromCtx(c).Actor, id, req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// parseAdminFilter reads the optional exact-match filters. Empty values do not filter.
func parseAdminFilter(c *fiber.Ctx) (service.AdminTicketFilter, error) {
	var filter service.AdminTicketFilter
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("assigned_to"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("assigned_to must be an integer")
		}
		filter.AssignedTo = &id
	}
	return filter, nil
}
