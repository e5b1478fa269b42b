package session

import (
	"sync"

	"github.com/google/uuid"
)

// Manager is a uuid-keyed registry of sessions, one per browser. Sessions are
// never shared across users.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	engine   responder
}

// NewManager creates a session registry backed by the given chat responder.
func NewManager(engine responder) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		engine:   engine,
	}
}

// Get returns the session for id, or nil when unknown.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// GetOrCreate returns the session for id, creating a fresh one (with a new
// uuid when id is empty or unknown).
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{
		ID:     uuid.NewString(),
		engine: m.engine,
	}
	m.sessions[s.ID] = s
	return s
}
