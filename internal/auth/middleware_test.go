package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/domain"
	"github.com/spec-kit/ticketing-api/internal/session"
	apperrors "github.com/spec-kit/ticketing-api/pkg/util"
)

type guardedApp struct {
	app   *fiber.App
	store *session.MemoryStore
}

func newGuardedApp(t *testing.T) guardedApp {
	t.Helper()
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, session.NewCookieCodec("secret", time.Hour), session.Options{TTL: time.Hour}, zap.NewNop())
	lookup := stubLookup{users: map[int64]*domain.User{owner.ID: owner, admin.ID: admin}}
	mw := NewSessionMiddleware(mgr, NewIdentityResolver(lookup, zap.NewNop()), NewClassifier("/api"), zap.NewNop())
	responders := NewResponders("/api/auth/login", "/")

	app := fiber.New()
	app.Use(mw.Handle)
	app.Use(func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return responders.For(c).Fail(c, apperrors.ToDomainError(err))
		}
		return nil
	})
	app.Post("/login/:id", func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		FromCtx(c).Session.Login(int64(id), "someone")
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/api/private", LoginRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": FromCtx(c).Actor.Username})
	})
	app.Get("/dashboard", LoginRequired(), func(c *fiber.Ctx) error {
		return c.SendString("dashboard")
	})
	app.Get("/admin", AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendString("admin")
	})
	return guardedApp{app: app, store: store}
}

func (g guardedApp) login(t *testing.T, id string) *http.Cookie {
	t.Helper()
	resp, err := g.app.Test(httptest.NewRequest(http.MethodPost, "/login/"+id, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())
	return resp.Cookies()[0]
}

func TestLoginRequiredAPI(t *testing.T) {
	g := newGuardedApp(t)

	resp, err := g.app.Test(httptest.NewRequest(http.MethodGet, "/api/private", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, MsgAuthenticationRequired, body["error"])
	assert.Equal(t, 0, g.store.Len(), "API denials do not create sessions")

	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.AddCookie(g.login(t, "1"))
	resp, err = g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRequiredInteractiveRedirects(t *testing.T) {
	g := newGuardedApp(t)

	resp, err := g.app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/auth/login", resp.Header.Get("Location"))
	assert.NotEmpty(t, resp.Cookies(), "flash is carried in a new session")
	assert.Equal(t, 1, g.store.Len())
}

func TestLoginRequiredInteractiveWithJSONAccept(t *testing.T) {
	g := newGuardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRequired(t *testing.T) {
	g := newGuardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(g.login(t, "1"))
	resp, err := g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.AddCookie(g.login(t, "1"))
	resp, err = g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"Admin privileges required"}`, string(raw))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(g.login(t, "4"))
	resp, err = g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionForDeletedUserIsAnonymous(t *testing.T) {
	g := newGuardedApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/private", nil)
	req.AddCookie(g.login(t, "77"))
	resp, err := g.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestInteractiveFailPlainText(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return InteractiveResponder{LoginPath: "/login", HomePath: "/"}.
			Fail(c, apperrors.ToDomainError(apperrors.NewNotFound("Ticket")))
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Ticket not found", string(raw))
}
