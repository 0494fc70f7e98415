// ABOUTME: Auth session holding the bearer token and current user
// ABOUTME: Persists through a TokenStore so logins survive process restarts
package api

import (
	"fmt"
	"sync"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

// TokenStore persists the session between runs. store.Store implements it.
type TokenStore interface {
	LoadSession() (string, *models.User, error)
	SaveSession(token string, user *models.User) error
	ClearSession() error
}

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
	user  *models.User
	store TokenStore
}

// NewSession loads any persisted token from store.
func NewSession(store TokenStore) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	token, user, err := store.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.token = token
	s.user = user
	return s, nil
}

// NewMemorySession returns a session that is never persisted.
func NewMemorySession() *Session {
	return &Session{}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// IsAdmin reports whether the current user has the admin role.
func (s *Session) IsAdmin() bool {
	return s.User().IsAdmin()
}

// Set stores token and user, persisting them when a store is attached.
func (s *Session) Set(token string, user *models.User) error {
	s.mu.Lock()
	s.token = token
	if user != nil {
		u := *user
		s.user = &u
	} else {
		s.user = nil
	}
	st := s.store
	s.mu.Unlock()

	if st == nil {
		return nil
	}
	if err := st.SaveSession(token, user); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SetToken replaces the token and keeps the current user.
func (s *Session) SetToken(token string) error {
	return s.Set(token, s.User())
}

// SetUser replaces the cached user and keeps the token.
func (s *Session) SetUser(user *models.User) error {
	return s.Set(s.Token(), user)
}

// Clear forgets the token and user.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	st := s.store
	s.mu.Unlock()

	if st == nil {
		return nil
	}
	if err := st.ClearSession(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
