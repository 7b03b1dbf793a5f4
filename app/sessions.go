package app

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// Session is one browser's console state.
type Session struct {
	Console   *Console
	ExpiresAt time.Time
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewSessionStore keeps idle sessions for ttl. Zero means 24h.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// CreateSession generates a crypto/rand token (32 bytes, hex encoded) and
// stores the console under it.
func (s *SessionStore) CreateSession(console *Console) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.sessions[token] = &Session{Console: console, ExpiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return token, nil
}

// GetSession returns the session for the given token, or nil if expired or
// missing. Access extends the expiry; expired sessions are deleted on access.
func (s *SessionStore) GetSession(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil
	}

	now := time.Now()
	if now.After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil
	}
	session.ExpiresAt = now.Add(s.ttl)
	return session
}

// DeleteSession removes the session from the store.
func (s *SessionStore) DeleteSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep deletes every expired session and returns how many it removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
