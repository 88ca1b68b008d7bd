package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/events"
	"github.com/spec-kit/ticketing-api/internal/observability"
	"github.com/spec-kit/ticketing-api/internal/repository"
	"github.com/spec-kit/ticketing-api/internal/session"
	"github.com/spec-kit/ticketing-api/internal/testutil"
)

type testServer struct {
	t        *testing.T
	app      *fiber.App
	store    *testutil.Store
	sessions *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWithPrefix(t, "/api")
}

func newTestServerWithPrefix(t *testing.T, prefix string) *testServer {
	t.Helper()
	store := testutil.NewStore()
	sessions := session.NewMemoryStore()
	cfg := &config.Config{
		App:  config.AppConfig{Name: "ticketing-test", Version: "test"},
		Auth: config.AuthConfig{BcryptCost: 4},
		Session: config.SessionConfig{
			Backend:    "memory",
			Secret:     "test-secret",
			CookieName: "session",
			TTLSeconds: 3600,
		},
		Routes: config.RoutesConfig{APIPrefix: prefix, LoginPath: prefix + "/auth/login", HomePath: "/"},
	}
	app := NewServer(ServerDeps{
		Config:       cfg,
		Logger:       zap.NewNop(),
		Metrics:      observability.NewMetrics(),
		Users:        store.Users(),
		Tickets:      store.Tickets(),
		SessionStore: sessions,
		Dispatcher:   events.NewInMemoryDispatcher(zap.NewNop()),
	})
	return &testServer{t: t, app: app, store: store, sessions: sessions}
}

type result struct {
	status int
	header stdhttp.Header
	body   []byte
	cookie *stdhttp.Cookie
}

func (r result) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r result) list(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(method, path string, body any, cookie *stdhttp.Cookie) result {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, cookie)
}

func (s *testServer) send(req *stdhttp.Request, cookie *stdhttp.Cookie) result {
	s.t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)

	res := result{status: resp.StatusCode, header: resp.Header, body: raw}
	for _, c := range resp.Cookies() {
		if c.Name == "session" && c.Value != "" {
			res.cookie = c
		}
	}
	return res
}

func (s *testServer) login(username string) *stdhttp.Cookie {
	s.t.Helper()
	res := s.do(fiber.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": testutil.DefaultPassword,
	}, nil)
	require.Equal(s.t, stdhttp.StatusOK, res.status, string(res.body))
	require.NotNil(s.t, res.cookie)
	return res.cookie
}

func ticketPath(id any) string {
	return "/api/tickets/" + toString(id)
}

func toString(id any) string {
	switch v := id.(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func TestOwnerAdminScenario(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedUser(t, "u1", false)
	admin := s.store.SeedUser(t, "a", true)
	u1 := s.login("u1")
	a := s.login("a")

	created := s.do(fiber.MethodPost, "/api/tickets", map[string]any{"title": "X", "description": "broken"}, u1)
	require.Equal(t, stdhttp.StatusCreated, created.status, string(created.body))
	x := created.json(t)
	assert.Equal(t, "open", x["status"])
	assert.Equal(t, "medium", x["priority"])
	assert.Equal(t, "u1 Tester", x["user_name"])
	path := ticketPath(x["id"])

	res := s.do(fiber.MethodPut, "/api/tickets/admin/assign/"+toString(x["id"]), map[string]any{"assigned_to": admin.ID}, a)
	require.Equal(t, stdhttp.StatusOK, res.status, string(res.body))
	assert.Equal(t, "a Tester", res.json(t)["assignee_name"])

	res = s.do(fiber.MethodPut, path, map[string]any{"status": "in_progress"}, a)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "in_progress", res.json(t)["status"])

	res = s.do(fiber.MethodPut, path, map[string]any{"status": "closed", "priority": "high"}, u1)
	require.Equal(t, stdhttp.StatusOK, res.status)
	body := res.json(t)
	assert.Equal(t, "in_progress", body["status"], "owner cannot change status")
	assert.Equal(t, "high", body["priority"])

	res = s.do(fiber.MethodDelete, path, nil, u1)
	assert.Equal(t, stdhttp.StatusForbidden, res.status)
	assert.Equal(t, "Admin privileges required to delete tickets", res.json(t)["error"])
	assert.Equal(t, stdhttp.StatusOK, s.do(fiber.MethodGet, path, nil, u1).status, "ticket survives")

	res = s.do(fiber.MethodDelete, path, nil, a)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "Ticket deleted successfully", res.json(t)["message"])

	assert.Equal(t, stdhttp.StatusNotFound, s.do(fiber.MethodGet, path, nil, a).status)
	assert.Equal(t, stdhttp.StatusNotFound, s.do(fiber.MethodGet, path, nil, u1).status)
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	s := newTestServer(t)
	owner := s.store.SeedUser(t, "u1", false)
	ticket := s.store.SeedTicket(t, "t", owner.ID, nil)
	tp := ticketPath(ticket.ID)
	up := "/api/users/" + toString(owner.ID)

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{fiber.MethodGet, "/api/tickets", nil},
		{fiber.MethodPost, "/api/tickets", map[string]any{"title": "sneaky"}},
		{fiber.MethodGet, tp, nil},
		{fiber.MethodPut, tp, map[string]any{"title": "changed"}},
		{fiber.MethodDelete, tp, nil},
		{fiber.MethodGet, "/api/tickets/admin/all", nil},
		{fiber.MethodPut, "/api/tickets/admin/assign/" + toString(ticket.ID), map[string]any{"assigned_to": nil}},
		{fiber.MethodGet, "/api/users", nil},
		{fiber.MethodPost, "/api/users", map[string]any{"username": "x", "email": "x@x", "password": "x"}},
		{fiber.MethodGet, up, nil},
		{fiber.MethodPut, up, map[string]any{"first_name": "x"}},
		{fiber.MethodDelete, up, nil},
		{fiber.MethodGet, up + "/tickets", nil},
		{fiber.MethodGet, "/api/auth/profile", nil},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			res := s.do(tc.method, tc.path, tc.body, nil)
			assert.Equal(t, stdhttp.StatusUnauthorized, res.status)
			assert.Equal(t, "Authentication required", res.json(t)["error"])
		})
	}

	stored, err := s.store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Title)
	users, err := s.store.Users().List(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestTicketAccessByRole(t *testing.T) {
	s := newTestServer(t)
	owner := s.store.SeedUser(t, "owner", false)
	s.store.SeedUser(t, "stranger", false)
	admin := s.store.SeedUser(t, "admin", true)
	ticket := s.store.SeedTicket(t, "t", owner.ID, &admin.ID)
	path := ticketPath(ticket.ID)

	ownerCookie := s.login("owner")
	strangerCookie := s.login("stranger")
	adminCookie := s.login("admin")

	res := s.do(fiber.MethodGet, path, nil, strangerCookie)
	assert.Equal(t, stdhttp.StatusForbidden, res.status)
	assert.Equal(t, "Access denied", res.json(t)["error"])
	assert.Equal(t, stdhttp.StatusForbidden, s.do(fiber.MethodPut, path, map[string]any{"title": "x"}, strangerCookie).status)

	assert.Equal(t, stdhttp.StatusOK, s.do(fiber.MethodGet, path, nil, ownerCookie).status)
	assert.Equal(t, stdhttp.StatusOK, s.do(fiber.MethodGet, path, nil, adminCookie).status)

	res = s.do(fiber.MethodGet, "/api/tickets/9999", nil, strangerCookie)
	assert.Equal(t, stdhttp.StatusNotFound, res.status, "existence before ownership")
	assert.Equal(t, "Ticket not found", res.json(t)["error"])

	res = s.do(fiber.MethodGet, "/api/tickets/admin/all", nil, ownerCookie)
	assert.Equal(t, stdhttp.StatusForbidden, res.status)
	assert.Equal(t, "Admin privileges required", res.json(t)["error"])

	res = s.do(fiber.MethodGet, "/api/tickets/admin/all?status=open&assigned_to="+toString(admin.ID), nil, adminCookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Len(t, res.list(t), 1)

	res = s.do(fiber.MethodGet, "/api/tickets/admin/all?assigned_to=me", nil, adminCookie)
	assert.Equal(t, stdhttp.StatusBadRequest, res.status)

	res = s.do(fiber.MethodGet, "/api/tickets/admin/users", nil, adminCookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	admins := res.list(t)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0]["username"])

	assert.Equal(t, stdhttp.StatusNotFound, s.do(fiber.MethodGet, "/api/tickets/abc", nil, ownerCookie).status)
}

func TestAssignToNonAdminIsRejected(t *testing.T) {
	s := newTestServer(t)
	owner := s.store.SeedUser(t, "owner", false)
	s.store.SeedUser(t, "admin", true)
	ticket := s.store.SeedTicket(t, "t", owner.ID, nil)
	adminCookie := s.login("admin")

	for _, path := range []string{"/api/tickets/admin/assign/" + toString(ticket.ID), ticketPath(ticket.ID)} {
		res := s.do(fiber.MethodPut, path, map[string]any{"assigned_to": owner.ID, "title": "nope"}, adminCookie)
		assert.Equal(t, stdhttp.StatusBadRequest, res.status)
		assert.Equal(t, "Can only assign tickets to admin users", res.json(t)["error"])
	}

	stored, err := s.store.Tickets().GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedTo)
	assert.Equal(t, "t", stored.Title)

	res := s.do(fiber.MethodPut, ticketPath(ticket.ID), map[string]any{"assigned_to": nil}, adminCookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Nil(t, res.json(t)["assigned_to"])
}

func TestListTicketsUnion(t *testing.T) {
	s := newTestServer(t)
	u := s.store.SeedUser(t, "u", false)
	other := s.store.SeedUser(t, "other", false)
	admin := s.store.SeedUser(t, "admin", true)
	s.store.SeedTicket(t, "mine", u.ID, nil)
	s.store.SeedTicket(t, "not mine", other.ID, nil)
	s.store.SeedTicket(t, "self-assigned", admin.ID, &admin.ID)

	res := s.do(fiber.MethodGet, "/api/tickets", nil, s.login("u"))
	require.Equal(t, stdhttp.StatusOK, res.status)
	require.Len(t, res.list(t), 1)

	res = s.do(fiber.MethodGet, "/api/tickets", nil, s.login("admin"))
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Len(t, res.list(t), 1, "no duplicates when owner and assignee coincide")
}

func TestUserRecordEndpoints(t *testing.T) {
	s := newTestServer(t)
	u1 := s.store.SeedUser(t, "u1", false)
	s.store.SeedUser(t, "admin", true)
	u1Cookie := s.login("u1")
	adminCookie := s.login("admin")
	self := "/api/users/" + toString(u1.ID)

	res := s.do(fiber.MethodGet, self, nil, u1Cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	body := res.json(t)
	assert.Equal(t, "u1", body["username"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "password")

	res = s.do(fiber.MethodGet, self, nil, adminCookie)
	assert.Equal(t, stdhttp.StatusForbidden, res.status, "admins get no elevation on user records")

	res = s.do(fiber.MethodGet, "/api/users/9999", nil, u1Cookie)
	assert.Equal(t, stdhttp.StatusForbidden, res.status, "ownership before existence")

	res = s.do(fiber.MethodPut, self, map[string]any{"last_name": "Updated"}, u1Cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "Updated", res.json(t)["last_name"])

	res = s.do(fiber.MethodGet, "/api/users", nil, u1Cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Len(t, res.list(t), 2)

	res = s.do(fiber.MethodPost, "/api/users", map[string]any{"username": "new", "email": "new@example.com", "password": "pw"}, u1Cookie)
	assert.Equal(t, stdhttp.StatusForbidden, res.status)
	res = s.do(fiber.MethodPost, "/api/users", map[string]any{"username": "new", "email": "new@example.com", "password": "pw"}, adminCookie)
	assert.Equal(t, stdhttp.StatusCreated, res.status)

	s.store.SeedTicket(t, "blocking", u1.ID, nil)
	res = s.do(fiber.MethodGet, self+"/tickets", nil, u1Cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Len(t, res.list(t), 1)

	res = s.do(fiber.MethodDelete, self, nil, u1Cookie)
	assert.Equal(t, stdhttp.StatusBadRequest, res.status, "tickets still reference the user")
}

func TestDeleteSelfEndsSession(t *testing.T) {
	s := newTestServer(t)
	u1 := s.store.SeedUser(t, "u1", false)
	cookie := s.login("u1")

	res := s.do(fiber.MethodDelete, "/api/users/"+toString(u1.ID), nil, cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "User deleted successfully", res.json(t)["message"])
	assert.Equal(t, 0, s.sessions.Len())
	assert.Equal(t, stdhttp.StatusUnauthorized, s.do(fiber.MethodGet, "/api/auth/profile", nil, cookie).status)
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)

	payload := map[string]any{"username": "gina", "email": "gina@example.com", "password": "pw123456", "first_name": "Gina"}
	res := s.do(fiber.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, stdhttp.StatusCreated, res.status, string(res.body))
	body := res.json(t)
	assert.Equal(t, "Registration successful", body["message"])
	assert.NotContains(t, body["user"], "password_hash")
	assert.Nil(t, res.cookie, "registration does not log in")

	res = s.do(fiber.MethodPost, "/api/auth/register", map[string]any{"username": "other", "email": "gina@example.com", "password": "x"}, nil)
	assert.Equal(t, stdhttp.StatusBadRequest, res.status)
	assert.Equal(t, "Username or email already exists", res.json(t)["error"])
	users, err := s.store.Users().List(context.Background(), repository.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	res = s.do(fiber.MethodPost, "/api/auth/login", map[string]any{"username": "gina", "password": "wrong"}, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, res.status)
	assert.Equal(t, "Invalid username or password", res.json(t)["error"])

	form := url.Values{"username": {"gina"}, "password": {"pw123456"}}
	req := httptest.NewRequest(fiber.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	res = s.send(req, nil)
	require.Equal(t, stdhttp.StatusOK, res.status, string(res.body))
	assert.Equal(t, "Login successful", res.json(t)["message"])
	cookie := res.cookie
	require.NotNil(t, cookie)

	res = s.do(fiber.MethodGet, "/api/auth/profile", nil, cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "gina", res.json(t)["username"])

	res = s.do(fiber.MethodPost, "/api/auth/logout", nil, cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "Logout successful", res.json(t)["message"])
	assert.Equal(t, stdhttp.StatusUnauthorized, s.do(fiber.MethodGet, "/api/auth/profile", nil, cookie).status)
}

func TestInteractivePagesRedirectWithFlash(t *testing.T) {
	s := newTestServer(t)
	s.store.SeedUser(t, "u1", false)

	res := s.do(fiber.MethodGet, "/dashboard", nil, nil)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/api/auth/login", res.header.Get("Location"))
	assert.Empty(t, res.body)
	require.NotNil(t, res.cookie)

	res = s.do(fiber.MethodGet, "/", nil, res.cookie)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Contains(t, string(res.body), "[warning] Please log in to access this page.")

	u1 := s.login("u1")
	res = s.do(fiber.MethodGet, "/admin", nil, u1)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/", res.header.Get("Location"))

	res = s.do(fiber.MethodGet, "/", nil, u1)
	assert.Contains(t, string(res.body), "[error] Admin privileges required to access this page.")
	assert.Contains(t, string(res.body), "Logged in as u1.")

	res = s.do(fiber.MethodGet, "/", nil, u1)
	assert.NotContains(t, string(res.body), "Admin privileges required", "flashes are shown once")

	req := httptest.NewRequest(fiber.MethodGet, "/dashboard", nil)
	req.Header.Set("Accept", "application/json")
	res = s.send(req, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, res.status)
}

func postForm(path string, values url.Values) *stdhttp.Request {
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

// With a prefix of /v1, browser form posts to the auth routes are interactive.
func TestInteractiveLoginAndRegister(t *testing.T) {
	s := newTestServerWithPrefix(t, "/v1")
	s.store.SeedUser(t, "u1", false)

	res := s.send(postForm("/v1/auth/login", url.Values{"username": {"u1"}, "password": {"wrong"}}), nil)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/v1/auth/login", res.header.Get("Location"))
	require.NotNil(t, res.cookie)

	page := s.do(fiber.MethodGet, "/", nil, res.cookie)
	assert.Contains(t, string(page.body), "[error] Invalid username or password")

	res = s.send(postForm("/v1/auth/login", url.Values{"username": {"u1"}, "password": {testutil.DefaultPassword}}), nil)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/", res.header.Get("Location"))
	require.NotNil(t, res.cookie)

	page = s.do(fiber.MethodGet, "/", nil, res.cookie)
	assert.Contains(t, string(page.body), "[success] Login successful!")
	assert.Contains(t, string(page.body), "Logged in as u1.")

	form := url.Values{
		"username":   {"newbie"},
		"email":      {"newbie@example.com"},
		"password":   {"secret123"},
		"first_name": {"New"},
		"last_name":  {"Bie"},
	}
	res = s.send(postForm("/v1/auth/register", form), nil)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/v1/auth/login", res.header.Get("Location"))
	page = s.do(fiber.MethodGet, "/", nil, res.cookie)
	assert.Contains(t, string(page.body), "[success] Registration successful! Please log in.")

	res = s.send(postForm("/v1/auth/register", form), nil)
	require.Equal(t, stdhttp.StatusFound, res.status)
	assert.Equal(t, "/v1/auth/register", res.header.Get("Location"))
	page = s.do(fiber.MethodGet, "/", nil, res.cookie)
	assert.Contains(t, string(page.body), "[error] Username or email already exists")

	// JSON clients still get status codes under the custom prefix.
	res = s.do(fiber.MethodPost, "/v1/auth/login", map[string]string{"username": "u1", "password": "wrong"}, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, res.status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	res := s.do(fiber.MethodGet, "/health/live", nil, nil)
	require.Equal(t, stdhttp.StatusOK, res.status)
	assert.Equal(t, "alive", res.json(t)["status"])

	assert.Equal(t, stdhttp.StatusOK, s.do(fiber.MethodGet, "/health/ready", nil, nil).status)
	s.do(fiber.MethodGet, "/api/tickets", nil, nil)

	res = s.do(fiber.MethodGet, "/health/metrics", nil, nil)
	require.Equal(t, stdhttp.StatusOK, res.status)
	snap := res.json(t)
	assert.GreaterOrEqual(t, snap["total_requests"], float64(3))
	assert.NotEmpty(t, snap["errors"])
}
