package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/session"
)

const requestContextKey = "auth_request_context"

// RequestContext is the per-request authentication state handlers and guards read.
type RequestContext struct {
	Session *session.Session
	Actor   *domain.User
	Mode    Mode
}

// Authenticated reports whether an actor was resolved.
func (rc *RequestContext) Authenticated() bool { return rc.Actor != nil }

// FromCtx returns the request context attached by the session middleware. Without the
// middleware it returns an anonymous API context with a throwaway session.
func FromCtx(c *fiber.Ctx) *RequestContext {
	if rc, ok := c.Locals(requestContextKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{Session: session.New(), Mode: ModeAPI}
}

func setRequestContext(c *fiber.Ctx, rc *RequestContext) {
	c.Locals(requestContextKey, rc)
}
