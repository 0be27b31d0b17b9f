package relay

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// SessionManager owns the live room sessions. Session creation is
// check-then-create under the manager lock so two concurrent ingest
// connections for the same room share one pipeline.
type SessionManager struct {
	deps   SessionDeps
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(deps SessionDeps, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		deps:     deps,
		logger:   logger.With().Str("component", "session_manager").Logger(),
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the room's session, starting a new one if needed.
func (m *SessionManager) GetOrCreate(ctx context.Context, room string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[room]; ok {
		return s, nil
	}

	s, err := NewSession(ctx, room, m.deps)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}

	m.sessions[room] = s
	m.logger.Info().Str("room", room).Int("active", len(m.sessions)).Msg("room session created")
	return s, nil
}

// Get returns the room's session if one is live.
func (m *SessionManager) Get(room string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[room]
	return s, ok
}

// Remove tears down and forgets the room's session.
func (m *SessionManager) Remove(room string) {
	m.mu.Lock()
	s, ok := m.sessions[room]
	if ok {
		delete(m.sessions, room)
	}
	active := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := s.Close(); err != nil {
		m.logger.Warn().Err(err).Str("room", room).Msg("session close failed")
	}
	m.logger.Info().Str("room", room).Int("active", active).Msg("room session removed")
}

// ActiveRooms returns the names of rooms with live sessions.
func (m *SessionManager) ActiveRooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]string, 0, len(m.sessions))
	for room := range m.sessions {
		rooms = append(rooms, room)
	}
	return rooms
}

// Shutdown closes every live session.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make(map[string]*Session, len(m.sessions))
	for room, s := range m.sessions {
		sessions[room] = s
		delete(m.sessions, room)
	}
	m.mu.Unlock()

	for room, s := range sessions {
		if err := s.Close(); err != nil {
			m.logger.Warn().Err(err).Str("room", room).Msg("session close failed during shutdown")
		}
	}
}
