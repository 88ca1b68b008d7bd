package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/api/dto"
	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/service"
	"github.com/spec-kit/ticketing-api/internal/session"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// AuthHandler serves login, logout, registration and the profile.
type AuthHandler struct {
	service    *service.AuthService
	responders auth.Responders
	routes     config.RoutesConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, responders auth.Responders, routes config.RoutesConfig) *AuthHandler {
	return &AuthHandler{service: authService, responders: responders, routes: routes}
}

// LoginPage GET /auth/login.
func (h *AuthHandler) LoginPage(c *fiber.Ctx) error {
	return renderPage(c, "Login", "POST username and password to this URL.")
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.service.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeUnauthenticated) {
			return err
		}
		// Browser form posts only reach the redirect branch when the auth routes sit
		// outside the API prefix.
		return h.responders.For(c).Reply(c, auth.Result{
			Status:   http.StatusUnauthorized,
			Body:     fiber.Map{"error": service.MsgInvalidCredentials},
			Flash:    &session.Flash{Category: auth.FlashError, Message: service.MsgInvalidCredentials},
			Redirect: h.routes.LoginPath,
		})
	}

	auth.FromCtx(c).Session.Login(user.ID, user.Username)
	return h.responders.For(c).Reply(c, auth.Result{
		Body:     dto.AuthResponse{Message: "Login successful", User: dto.NewUserResponse(user)},
		Flash:    &session.Flash{Category: auth.FlashSuccess, Message: "Login successful!"},
		Redirect: h.routes.HomePath,
	})
}

// Logout GET|POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	auth.FromCtx(c).Session.Clear()
	return h.responders.For(c).Reply(c, auth.Result{
		Body:     dto.MessageResponse{Message: "Logout successful"},
		Flash:    &session.Flash{Category: auth.FlashInfo, Message: "You have been logged out"},
		Redirect: h.routes.HomePath,
	})
}

// RegisterPage GET /auth/register.
func (h *AuthHandler) RegisterPage(c *fiber.Ctx) error {
	return renderPage(c, "Register", "POST username, email, password, first_name and last_name to this URL.")
}

// Register POST /auth/register. Registration does not log the user in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.service.Register(c.UserContext(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= http.StatusInternalServerError {
			return err
		}
		return h.responders.For(c).Reply(c, auth.Result{
			Status:   de.HTTPStatus,
			Body:     fiber.Map{"error": de.Message},
			Flash:    &session.Flash{Category: auth.FlashError, Message: de.Message},
			Redirect: c.Path(),
		})
	}

	return h.responders.For(c).Reply(c, auth.Result{
		Status:   http.StatusCreated,
		Body:     dto.AuthResponse{Message: "Registration successful", User: dto.NewUserResponse(user)},
		Flash:    &session.Flash{Category: auth.FlashSuccess, Message: "Registration successful! Please log in."},
		Redirect: h.routes.LoginPath,
	})
}

// Profile GET /auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.service.Profile(auth.FromCtx(c).Actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
