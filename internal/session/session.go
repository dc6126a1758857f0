// Package session holds the credentials of the currently authenticated user.
// The queue captures the token at enqueue time; the live session token is
// only a fallback for replay when the captured one is absent.
package session

import "sync"

// Session is the active user's identity and bearer token
type Session struct {
	mu     sync.RWMutex
	userID string
	token  string
}

// New creates an empty session
func New() *Session {
	return &Session{}
}

// Set replaces the active user
func (s *Session) Set(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.token = token
}

// Clear forgets the active user
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.token = ""
}

// UserID returns the active user identifier, or "" when logged out
func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Token returns the active bearer token, or "" when logged out
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Active reports whether a user is logged in
func (s *Session) Active() bool {
	return s.UserID() != "" || s.Token() != ""
}
