package agent

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsight/finsight/internal/domain"
)

// SessionStore persists conversation sessions.
type SessionStore interface {
	// GetOrCreate returns the session with the given id, creating it if
	// needed. An empty id creates a session with a generated id.
	GetOrCreate(id string) (*domain.Session, error)

	// Append adds messages to a session.
	Append(sessionID string, msgs ...domain.UIMessage) error

	// History returns a session's messages in order.
	History(sessionID string) ([]domain.UIMessage, error)

	// List returns all session ids.
	List() ([]string, error)

	// Delete removes a session and its messages.
	Delete(sessionID string) error
}

// MemorySessionStore is an in-memory SessionStore implementation.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *MemorySessionStore) GetOrCreate(id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			return sess, nil
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	sess := &domain.Session{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.sessions[id] = sess
	return sess, nil
}

func (s *MemorySessionStore) Append(sessionID string, msgs ...domain.UIMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.Messages = append(sess.Messages, msgs...)
	sess.UpdatedAt = time.Now()
	return nil
}

func (s *MemorySessionStore) History(sessionID string) ([]domain.UIMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := make([]domain.UIMessage, len(sess.Messages))
	copy(out, sess.Messages)
	return out, nil
}

func (s *MemorySessionStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemorySessionStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
