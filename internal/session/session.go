// Package session holds the customer's auth session: the bearer token, its
// expiry and the cached user profile. It is injected into the API client,
// which reads the token for every request and invalidates the session when
// the backend answers 401.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Data is the cached part of a session.
type Data struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      json.RawMessage `json:"user,omitempty"`
}

// Cache persists session data between restarts. A nil Cache keeps the
// session in memory only.
type Cache interface {
	Load(ctx context.Context) (Data, bool, error)
	Save(ctx context.Context, data Data) error
	Delete(ctx context.Context) error
}

// Hook runs after the session was cleared.
type Hook func(ctx context.Context)

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	data  Data
	hooks []Hook

	cache      Cache
	defaultTTL time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// New creates an empty session. defaultTTL applies when the backend does not
// say how long a token lives.
func New(cache Cache, defaultTTL time.Duration, logger *slog.Logger) *Session {
	return &Session{
		cache:      cache,
		defaultTTL: defaultTTL,
		now:        time.Now,
		logger:     logger.With("component", "session"),
	}
}

// Restore loads a previously cached session, dropping it when expired.
func (s *Session) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	data, ok, err := s.cache.Load(ctx)
	if err != nil || !ok {
		return err
	}
	if !data.ExpiresAt.After(s.now()) {
		s.logger.InfoContext(ctx, "Cached session expired, discarding")
		return s.cache.Delete(ctx)
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "Session restored from cache", "expires_at", data.ExpiresAt)
	return nil
}

// Set stores a fresh token. A non-positive ttl falls back to the default.
func (s *Session) Set(ctx context.Context, token string, ttl time.Duration, user json.RawMessage) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data := Data{
		Token:     strings.TrimSpace(token),
		ExpiresAt: s.now().Add(ttl),
		User:      user,
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	if s.cache != nil {
		return s.cache.Save(ctx, data)
	}
	return nil
}

// Token returns the bearer token, or "" when there is none. Reading an
// expired token clears the session.
func (s *Session) Token(ctx context.Context) string {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data.Token == "" {
		return ""
	}
	if !data.ExpiresAt.After(s.now()) {
		s.logger.InfoContext(ctx, "Session token expired")
		s.Clear(ctx)
		return ""
	}
	return data.Token
}

// Authenticated reports whether a valid token is present.
func (s *Session) Authenticated(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// User returns the cached user profile, if any.
func (s *Session) User() json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.User
}

// OnInvalidate registers a hook that runs every time the session is cleared.
func (s *Session) OnInvalidate(h Hook) {
	s.mu.Lock()
	s.hooks = append(s.hooks, h)
	s.mu.Unlock()
}

// Clear drops the token, the expiry and the user data, then runs the hooks.
func (s *Session) Clear(ctx context.Context) {
	s.mu.Lock()
	s.data = Data{}
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Delete(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete cached session", "error", err)
		}
	}
	for _, h := range hooks {
		h(ctx)
	}
}

// Invalidate is called when the backend rejected the token.
func (s *Session) Invalidate(ctx context.Context, reason string) {
	s.logger.WarnContext(ctx, "Session invalidated", "reason", reason)
	s.Clear(ctx)
}
