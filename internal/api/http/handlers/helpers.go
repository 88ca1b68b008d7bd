package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticketing-api/internal/auth"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

// pathID reads the :id parameter. A non-numeric id matches no route, so it is a 404.
func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewDomainError(apperrors.CodeNotFound, "Not found", http.StatusNotFound)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	return nil
}

// renderPage writes a plain-text page followed by any pending flashes.
func renderPage(c *fiber.Ctx, lines ...string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, f := range auth.FromCtx(c).Session.PopFlashes() {
		b.WriteString("[" + f.Category + "] " + f.Message + "\n")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(b.String())
}
