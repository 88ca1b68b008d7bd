package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/session"
)

// SessionMiddleware loads the session, classifies the request and resolves the actor before
// the handler chain runs, then persists session changes once it returns.
type SessionMiddleware struct {
	sessions   *session.Manager
	resolver   *IdentityResolver
	classifier Classifier
	logger     *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions *session.Manager, resolver *IdentityResolver, classifier Classifier, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, resolver: resolver, classifier: classifier, logger: logger}
}

// Handle attaches the RequestContext. It must run outside the error middleware so flashes
// added while rendering an error are committed.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	sess := m.sessions.Load(c)
	actor, _ := m.resolver.Resolve(c.UserContext(), sess)
	rc := &RequestContext{
		Session: sess,
		Actor:   actor,
		Mode:    m.classifier.ClassifyCtx(c),
	}
	setRequestContext(c, rc)

	err := c.Next()

	if commitErr := m.sessions.Commit(c, rc.Session); commitErr != nil {
		m.logger.Error("session commit failed", zap.String("path", c.Path()), zap.Error(commitErr))
	}
	return err
}

// LoginRequired rejects anonymous callers.
func LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authenticate(FromCtx(c).Actor).Err(); err != nil {
			return err
		}
		return c.Next()
	}
}

// AdminRequired rejects anonymous callers and non-admins.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := RequireAdmin(FromCtx(c).Actor).Err(); err != nil {
			return err
		}
		return c.Next()
	}
}
