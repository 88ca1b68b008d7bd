package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/api/http/handlers"
	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/events"
	"github.com/spec-kit/ticketing-api/internal/observability"
	"github.com/spec-kit/ticketing-api/internal/repository"
	"github.com/spec-kit/ticketing-api/internal/service"
	"github.com/spec-kit/ticketing-api/internal/session"
)

// ServerDeps holds everything the HTTP server is assembled from.
type ServerDeps struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Users        repository.UserRepository
	Tickets      repository.TicketRepository
	SessionStore session.Store
	Dispatcher   events.Dispatcher
	Dependencies map[string]handlers.Pinger
}

// NewServer builds the fiber app with services, middlewares and routes wired.
func NewServer(deps ServerDeps) *fiber.App {
	cfg := deps.Config

	sessions := session.NewManager(
		deps.SessionStore,
		session.NewCookieCodec(cfg.Session.Secret, cfg.Session.TTL()),
		session.Options{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL(),
			Secure:     cfg.Session.CookieSecure,
		},
		deps.Logger,
	)
	sessionMiddleware := auth.NewSessionMiddleware(
		sessions,
		auth.NewIdentityResolver(deps.Users, deps.Logger),
		auth.NewClassifier(cfg.Routes.APIPrefix),
		deps.Logger,
	)
	responders := auth.NewResponders(cfg.Routes.LoginPath, cfg.Routes.HomePath)

	authService := service.NewAuthService(cfg.Auth, deps.Users, deps.Logger)
	userService := service.NewUserService(cfg.Auth, deps.Users, deps.Tickets)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: deps.Tickets,
		UserRepo:   deps.Users,
		Dispatcher: deps.Dispatcher,
		Logger:     deps.Logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	RegisterMiddlewares(app, MiddlewareConfig{
		Logger:     deps.Logger,
		Metrics:    deps.Metrics,
		Timeout:    cfg.App.RequestTimeout(),
		Sessions:   sessionMiddleware,
		Responders: responders,
	})
	RegisterRoutes(app, RouteConfig{
		APIPrefix: cfg.Routes.APIPrefix,
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Dependencies, deps.Metrics),
		Auth:      handlers.NewAuthHandler(authService, responders, cfg.Routes),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Users:     handlers.NewUsersHandler(userService),
		Pages:     handlers.NewPagesHandler(cfg.App.Name),
	})
	return app
}
