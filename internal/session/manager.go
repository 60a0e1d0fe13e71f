package session

import (
	"fmt"
	"sync"
)

// Manager maps MCP session ids to their debug sessions.
type Manager struct {
	sessions map[string]*DebugSession
	mu       sync.RWMutex
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*DebugSession),
	}
}

// GetOrCreateSession gets an existing session or creates a new one.
func (m *Manager) GetOrCreateSession(sessionID string) *DebugSession {
	m.mu.RLock()
	s, exists := m.sessions[sessionID]
	m.mu.RUnlock()

	if exists {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if s, exists := m.sessions[sessionID]; exists {
		return s
	}

	s = NewDebugSession(sessionID)
	m.sessions[sessionID] = s
	return s
}

// GetSession retrieves an existing session, or nil.
func (m *Manager) GetSession(sessionID string) *DebugSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[sessionID]
}

// DeleteSession removes a session.
func (m *Manager) DeleteSession(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[sessionID]; !exists {
		return fmt.Errorf("session %q not found", sessionID)
	}
	delete(m.sessions, sessionID)
	return nil
}

// CloseAll drops every session. Sessions hold no external resources; the
// installed traces simply become garbage.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*DebugSession)
}
