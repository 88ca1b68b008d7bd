package session

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads a Session at the start of a request and persists it at the end.
type Manager struct {
	store  Store
	codec  *CookieCodec
	opts   Options
	logger *zap.Logger
}

// NewManager wires a store and codec together.
func NewManager(store Store, codec *CookieCodec, opts Options, logger *zap.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "session"
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	return &Manager{store: store, codec: codec, opts: opts, logger: logger}
}

// Load returns the session referenced by the request cookie. A missing, forged, expired or
// unreadable session yields an empty one; store failures are logged and never surfaced.
func (m *Manager) Load(c *fiber.Ctx) *Session {
	raw := c.Cookies(m.opts.CookieName)
	if raw == "" {
		return newSession("", Data{})
	}

	id, err := m.codec.Decode(raw)
	if err != nil {
		m.logger.Debug("rejected session cookie", zap.Error(err))
		return newSession("", Data{})
	}

	data, err := m.store.Get(c.UserContext(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("session store read failed", zap.Error(err))
		}
		return newSession("", Data{})
	}
	return newSession(id, data)
}

// Commit persists pending changes and keeps the cookie in sync with the store.
func (m *Manager) Commit(c *fiber.Ctx, s *Session) error {
	ctx := c.UserContext()

	if s.destroyed {
		if s.id != "" {
			if err := m.store.Delete(ctx, s.id); err != nil {
				return err
			}
		}
		s.id = ""
		m.expireCookie(c)
		return nil
	}

	if !s.dirty {
		return nil
	}

	if s.regenerate || s.id == "" {
		if s.id != "" {
			if err := m.store.Delete(ctx, s.id); err != nil {
				m.logger.Warn("failed to drop rotated session", zap.Error(err))
			}
		}
		s.id = uuid.NewString()
	}

	if err := m.store.Set(ctx, s.id, s.data, m.opts.TTL); err != nil {
		return err
	}
	value, err := m.codec.Encode(s.id)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.opts.TTL.Seconds()),
		Secure:   m.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	s.dirty = false
	s.regenerate = false
	return nil
}

func (m *Manager) expireCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     m.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
