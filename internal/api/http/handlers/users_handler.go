package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/api/dto"
	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/service"
)

// UsersHandler exposes user records.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// ListUsers GET /users.
func (h *UsersHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext(), auth.FromCtx(c).Actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserList(users))
}

// CreateUser POST /users.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), auth.FromCtx(c).Actor, service.NewUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsAdmin:   req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// GetUser GET /users/:id.
func (h *UsersHandler) GetUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.UserContext(), auth.FromCtx(c).Actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateUser PUT /users/:id.
func (h *UsersHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.service.Update(c.UserContext(), auth.FromCtx(c).Actor, id, service.UserPatch{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// DeleteUser DELETE /users/:id. Deleting yourself also ends the session.
func (h *UsersHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	rc := auth.FromCtx(c)
	if err := h.service.Delete(c.UserContext(), rc.Actor, id); err != nil {
		return err
	}
	rc.Session.Clear()
	return c.JSON(dto.MessageResponse{Message: "User deleted successfully"})
}

// ListUserTickets GET /users/:id/tickets.
func (h *UsersHandler) ListUserTickets(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), auth.FromCtx(c).Actor, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketList(tickets))
}
