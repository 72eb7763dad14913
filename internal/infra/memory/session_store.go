package memory

import (
	"context"
	"fmt"
	"sync"

	"live-trivia-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	codes    map[string]string // join code -> session id, live sessions only
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
		codes:    make(map[string]string),
	}
}

func (s *SessionStore) CreateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, sessionID string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	return session, ok, nil
}

func (s *SessionStore) UpdateSession(_ context.Context, sessionID string, mutate func(*domain.Session) error) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err := mutate(&session); err != nil {
		return domain.Session{}, err
	}
	if !session.Status.Live() && s.codes[session.JoinCode] == sessionID {
		delete(s.codes, session.JoinCode)
	}
	s.sessions[sessionID] = session
	return session, nil
}

func (s *SessionStore) FindLiveSession(_ context.Context, joinCode string) (domain.Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[joinCode]
	if !ok {
		return domain.Session{}, false, nil
	}
	session, ok := s.sessions[id]
	if !ok || !session.Status.Live() {
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func (s *SessionStore) ReserveJoinCode(_ context.Context, joinCode, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[joinCode]; taken {
		return false, nil
	}
	s.codes[joinCode] = sessionID
	return true, nil
}

func (s *SessionStore) ReleaseJoinCode(_ context.Context, joinCode, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes[joinCode] == sessionID {
		delete(s.codes, joinCode)
	}
	return nil
}
