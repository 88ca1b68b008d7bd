package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/auth"
)

// PagesHandler serves the minimal browser pages.
type PagesHandler struct {
	appName string
}

// NewPagesHandler constructs handler.
func NewPagesHandler(appName string) *PagesHandler {
	return &PagesHandler{appName: appName}
}

// Home GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	rc := auth.FromCtx(c)
	greeting := "Not logged in."
	if rc.Authenticated() {
		greeting = "Logged in as " + rc.Actor.Username + "."
	}
	return renderPage(c, h.appName, greeting)
}

// About GET /about.
func (h *PagesHandler) About(c *fiber.Ctx) error {
	return renderPage(c, "About "+h.appName, "Submit and track support tickets.")
}

// Dashboard GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	return renderPage(c, "Dashboard", "Welcome, "+auth.FromCtx(c).Actor.Username+".")
}

// AdminDashboard GET /admin.
func (h *PagesHandler) AdminDashboard(c *fiber.Ctx) error {
	return renderPage(c, "Admin dashboard", "Signed in as "+auth.FromCtx(c).Actor.Username+".")
}
