package engine

import (
	"fmt"
	"sync"

	"github.com/contextd/mcp-stdio/sessions"
	"github.com/google/uuid"
)

// session is the engine's concrete sessions.Session. One engine serves one
// connection, so the session is minted at construction time and walks the
// lifecycle exactly once.
type session struct {
	id string

	mu              sync.RWMutex
	state           sessions.State
	protocolVersion string
	clientInfo      sessions.ClientInfo
}

func newSession() *session {
	return &session{
		id:    uuid.NewString(),
		state: sessions.StateUninitialized,
	}
}

// SessionID implements sessions.Session.
func (s *session) SessionID() string { return s.id }

// ProtocolVersion implements sessions.Session.
func (s *session) ProtocolVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocolVersion
}

// ClientInfo implements sessions.Session.
func (s *session) ClientInfo() sessions.ClientInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientInfo
}

// State implements sessions.Session.
func (s *session) State() sessions.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// initialize transitions the session to initialized. Only a fresh session can
// make the transition; anything else reports the current state.
func (s *session) initialize(protocolVersion string, info sessions.ClientInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessions.StateUninitialized {
		return fmt.Errorf("session is %s", s.state)
	}
	s.state = sessions.StateInitialized
	s.protocolVersion = protocolVersion
	s.clientInfo = info
	return nil
}

// close moves the session to its terminal state. Idempotent.
func (s *session) close() {
	s.mu.Lock()
	s.state = sessions.StateClosed
	s.mu.Unlock()
}
