package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/session"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// MsgLoginRequiredFlash is flashed to browsers bounced to the login page.
const MsgLoginRequiredFlash = "Please log in to access this page."

// MsgAdminPageFlash is flashed to browsers turned away by the admin guard.
const MsgAdminPageFlash = "Admin privileges required to access this page."

// Flash categories.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

// Result describes an outcome handled by the handler itself, independently of the client
// kind. API clients get Status and Body; interactive clients get Flash and, when set, a
// redirect to Redirect.
type Result struct {
	Status   int
	Body     any
	Flash    *session.Flash
	Redirect string
}

// Responder renders outcomes for one client kind.
type Responder interface {
	Fail(c *fiber.Ctx, err *apperrors.DomainError) error
	Reply(c *fiber.Ctx, res Result) error
}

// APIResponder answers with a status code and JSON.
type APIResponder struct{}

func (APIResponder) Fail(c *fiber.Ctx, err *apperrors.DomainError) error {
	return c.Status(err.HTTPStatus).JSON(fiber.Map{"error": err.Message})
}

func (APIResponder) Reply(c *fiber.Ctx, res Result) error {
	return c.Status(statusOrOK(res.Status)).JSON(res.Body)
}

// InteractiveResponder answers browsers: authentication and permission failures redirect
// with a flash, everything else is a plain-text status page.
type InteractiveResponder struct {
	LoginPath string
	HomePath  string
}

func (r InteractiveResponder) Fail(c *fiber.Ctx, err *apperrors.DomainError) error {
	sess := FromCtx(c).Session
	switch err.Code {
	case apperrors.CodeUnauthenticated:
		sess.AddFlash(FlashWarning, MsgLoginRequiredFlash)
		return c.Redirect(r.LoginPath, http.StatusFound)
	case apperrors.CodeForbidden:
		msg := err.Message
		if msg == MsgAdminRequired {
			msg = MsgAdminPageFlash
		}
		sess.AddFlash(FlashError, msg)
		return c.Redirect(r.HomePath, http.StatusFound)
	}
	return c.Status(err.HTTPStatus).SendString(err.Message)
}

func (r InteractiveResponder) Reply(c *fiber.Ctx, res Result) error {
	if res.Flash != nil {
		FromCtx(c).Session.AddFlash(res.Flash.Category, res.Flash.Message)
	}
	if res.Redirect != "" {
		return c.Redirect(res.Redirect, http.StatusFound)
	}
	return c.Status(statusOrOK(res.Status)).JSON(res.Body)
}

// Responders selects the responder for a request's mode.
type Responders struct {
	API         Responder
	Interactive Responder
}

// NewResponders builds both strategies.
func NewResponders(loginPath, homePath string) Responders {
	return Responders{
		API:         APIResponder{},
		Interactive: InteractiveResponder{LoginPath: loginPath, HomePath: homePath},
	}
}

// For returns the responder matching the request's classification.
func (r Responders) For(c *fiber.Ctx) Responder {
	if FromCtx(c).Mode == ModeInteractive {
		return r.Interactive
	}
	return r.API
}

func statusOrOK(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}
