package battle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("battle session not found")

type managedSession struct {
	mu      sync.Mutex
	session *Session
}

// Manager is the registry of live sessions keyed by id.
// All methods are safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*managedSession
	logger   *zap.Logger
}

// NewManager creates an empty Manager.
//
// Precondition: logger must be non-nil.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{sessions: make(map[string]*managedSession), logger: logger}
}

// Add registers s and returns its new id.
//
// Postcondition: Returns a fresh UUID string.
func (m *Manager) Add(s *Session) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &managedSession{session: s}
	m.mu.Unlock()
	m.logger.Debug("battle session registered", zap.String("session_id", id))
	return id
}

// Do runs fn with exclusive access to the session id.
//
// Postcondition: Returns ErrSessionNotFound (wrapped) for unknown ids,
// otherwise fn's error.
func (m *Manager) Do(id string, fn func(*Session) error) error {
	m.mu.RLock()
	ms, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return fn(ms.session)
}

// End removes the session id. Abandoning a battle has no other effect.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Debug("battle session ended", zap.String("session_id", id))
	return nil
}

// Count returns the number of registered sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
