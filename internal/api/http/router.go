package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/api/http/handlers"
	"github.com/spec-kit/ticketing-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	APIPrefix string
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	Tickets   *handlers.TicketsHandler
	Users     *handlers.UsersHandler
	Pages     *handlers.PagesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	app.Get("/", cfg.Pages.Home)
	app.Get("/about", cfg.Pages.About)
	app.Get("/dashboard", auth.LoginRequired(), cfg.Pages.Dashboard)
	app.Get("/admin", auth.AdminRequired(), cfg.Pages.AdminDashboard)

	api := app.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	authGroup.Get("/login", cfg.Auth.LoginPage)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/logout", cfg.Auth.Logout)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Get("/register", cfg.Auth.RegisterPage)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Get("/profile", auth.LoginRequired(), cfg.Auth.Profile)

	tickets := api.Group("/tickets", auth.LoginRequired())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)

	// Admin routes are registered before /:id so "admin" is never read as an id.
	admin := tickets.Group("/admin", auth.AdminRequired())
	admin.Get("/all", cfg.Tickets.ListAllTickets)
	admin.Get("/users", cfg.Tickets.ListAdmins)
	admin.Put("/assign/:id", cfg.Tickets.AssignTicket)

	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	users := api.Group("/users", auth.LoginRequired())
	users.Get("/", cfg.Users.ListUsers)
	users.Post("/", auth.AdminRequired(), cfg.Users.CreateUser)
	users.Get("/:id", cfg.Users.GetUser)
	users.Put("/:id", cfg.Users.UpdateUser)
	users.Delete("/:id", cfg.Users.DeleteUser)
	users.Get("/:id/tickets", cfg.Users.ListUserTickets)
}
