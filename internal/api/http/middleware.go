package http

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/auth"
	"github.com/spec-kit/ticketing-api/internal/observability"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// MiddlewareConfig bundles the global middleware dependencies.
type MiddlewareConfig struct {
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Timeout    time.Duration
	Sessions   *auth.SessionMiddleware
	Responders auth.Responders
}

// RegisterMiddlewares attaches global middlewares. Order matters: the request logger sees
// the final status, the session middleware commits flashes written while rendering errors,
// and the error middleware sits closest to the routes.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(cfg.Sessions.Handle)
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics, cfg.Responders))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, responders auth.Responders) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= http.StatusInternalServerError {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				err = responders.For(c).Fail(c, domainErr)
			}
		}()
		return c.Next()
	}
}

// toDomainError also understands fiber's own errors, such as the 404 for unmatched routes.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code)
	}
	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return apperrors.CodeUnauthenticated
	case status == http.StatusForbidden:
		return apperrors.CodeForbidden
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return apperrors.CodeNotFound
	case status >= http.StatusInternalServerError:
		return apperrors.CodeInternal
	}
	return apperrors.CodeValidationFailed
}
