// Package session tracks signed-in viewers for the lifetime of the process.
// Credentials are held in memory only and never written anywhere.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	gh "github.com/johnqtcg/guescus/internal/github"
)

// DefaultTTL bounds how long an idle session is kept.
const DefaultTTL = 12 * time.Hour

// ErrInvalidCredential indicates the backend rejected a token.
var ErrInvalidCredential = errors.New("invalid token")

// Session is an authenticated viewer.
type Session struct {
	ID        string
	Token     string
	User      gh.User
	CreatedAt time.Time
}

// Validator resolves the identity behind a token.
type Validator interface {
	Viewer(ctx context.Context, token string) (gh.User, error)
}

// Manager creates, looks up and destroys sessions.
type Manager struct {
	validator Validator
	sessions  *cache.Cache
	now       func() time.Time
}

// NewManager constructs a Manager whose sessions expire after ttl without use.
func NewManager(validator Validator, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		validator: validator,
		sessions:  cache.New(ttl, 10*time.Minute),
		now:       time.Now,
	}
}

// SignIn validates token against the backend and opens a session for the
// viewer it belongs to. A rejected token leaves existing sessions untouched.
func (m *Manager) SignIn(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidCredential
	}

	user, err := m.validator.Viewer(ctx, token)
	if err != nil {
		if gh.IsAuthError(err) {
			return Session{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}
		return Session{}, fmt.Errorf("validate token: %w", err)
	}
	if user.Login == "" {
		return Session{}, ErrInvalidCredential
	}

	s := Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: m.now(),
	}
	m.sessions.Set(s.ID, s, cache.DefaultExpiration)
	return s, nil
}

// Get returns the session with id and extends its lifetime.
func (m *Manager) Get(id string) (Session, bool) {
	if id == "" {
		return Session{}, false
	}
	v, ok := m.sessions.Get(id)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	if ok {
		m.sessions.Set(id, s, cache.DefaultExpiration)
	}
	return s, ok
}

// SignOut destroys the session with id.
func (m *Manager) SignOut(id string) {
	m.sessions.Delete(id)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.sessions.ItemCount()
}
