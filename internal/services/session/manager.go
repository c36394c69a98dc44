// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// Manager issues session cookies and loads sessions from a Store.
type Manager struct {
	store  Store
	codec  *securecookie.SecureCookie
	name   string
	maxAge int
	secure bool
}

// NewManager creates a session manager. An empty hash key generates a random
// one, which invalidates all sessions on restart.
func NewManager(cfg *config.SessionConfig, secure bool, store Store) (*Manager, error) {
	hashKey, err := decodeKey(cfg.HashKey, "hash")
	if err != nil {
		return nil, err
	}
	if hashKey == nil {
		hashKey = make([]byte, 32)
		if _, err := rand.Read(hashKey); err != nil {
			return nil, fmt.Errorf("generating session hash key: %w", err)
		}
		slog.Warn("no session hash key configured, sessions will not survive a restart")
	}

	blockKey, err := decodeKey(cfg.BlockKey, "block")
	if err != nil {
		return nil, err
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &Manager{
		store:  store,
		codec:  codec,
		name:   cfg.CookieName,
		maxAge: cfg.MaxAge,
		secure: secure,
	}, nil
}

func decodeKey(raw, kind string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid session %s key: %w", kind, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("session %s key must be 32 bytes, got %d", kind, len(key))
	}
	return key, nil
}

// Load returns the session referenced by the request cookie, or a fresh
// unsaved session when the cookie is missing, invalid or expired.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return m.newSession(), nil
	}

	var id string
	if err := m.codec.Decode(m.name, cookie.Value, &id); err != nil {
		return m.newSession(), nil
	}

	values, err := m.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.newSession(), nil
		}
		return nil, err
	}

	return &Session{
		store:    m.store,
		values:   values,
		id:       id,
		lifetime: m.lifetime(),
	}, nil
}

func (m *Manager) newSession() *Session {
	return &Session{
		store:    m.store,
		values:   make(map[string]string),
		id:       uuid.NewString(),
		lifetime: m.lifetime(),
		isNew:    true,
	}
}

func (m *Manager) lifetime() time.Duration {
	return time.Duration(m.maxAge) * time.Second
}

// Renew moves the session to a fresh ID, keeping its values.
func (m *Manager) Renew(ctx context.Context, s *Session) error {
	oldID := s.id
	s.id = uuid.NewString()
	if s.isNew {
		return nil
	}
	if err := s.store.Save(ctx, s.id, s.values, time.Now().Add(s.lifetime)); err != nil {
		return err
	}
	s.changed = true
	return s.store.Delete(ctx, oldID)
}

// Login renews the session and binds it to accountID.
func (m *Manager) Login(ctx context.Context, s *Session, accountID int64) error {
	if err := m.Renew(ctx, s); err != nil {
		return err
	}
	return s.Put(ctx, AccountIDKey, strconv.FormatInt(accountID, 10))
}

// Destroy deletes the session from the store and empties it.
func (m *Manager) Destroy(ctx context.Context, s *Session) error {
	if !s.isNew {
		if err := s.store.Delete(ctx, s.id); err != nil {
			return err
		}
	}
	s.values = make(map[string]string)
	s.id = uuid.NewString()
	s.isNew = true
	s.changed = false
	s.destroyed = true
	return nil
}

// Cookie returns the cookie carrying the session ID.
func (m *Manager) Cookie(s *Session) (*http.Cookie, error) {
	encoded, err := m.codec.Encode(m.name, s.id)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear returns a cookie that removes the session cookie.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Middleware loads the session for each request and writes the cookie
// just before the response headers go out when the session ID changed.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := m.Load(c.Request())
			if err != nil {
				return err
			}
			c.Set(contextKey, s)

			c.Response().Before(func() {
				switch {
				case s.destroyed:
					c.SetCookie(m.Clear())
				case s.changed:
					cookie, err := m.Cookie(s)
					if err != nil {
						slog.Error("encoding session cookie", "error", err)
						return
					}
					c.SetCookie(cookie)
				}
			})

			return next(c)
		}
	}
}

// FromContext returns the session loaded by Middleware, or nil.
func FromContext(c echo.Context) *Session {
	s, _ := c.Get(contextKey).(*Session)
	return s
}
