package playback

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Store is the registry of live sessions, keyed by guild.
type Store struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*Session
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[snowflake.ID]*Session),
	}
}

// Get returns the session for the guild, if any.
func (s *Store) Get(guildID snowflake.ID) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[guildID]
	return session, ok
}

// GetOrCreate returns the session for the guild, creating it with factory
// when absent. factory runs under the store lock and must not block.
func (s *Store) GetOrCreate(guildID snowflake.ID, factory func() *Session) *Session {
	s.mu.RLock()
	session, ok := s.sessions[guildID]
	s.mu.RUnlock()
	if ok {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[guildID]; ok {
		return session
	}
	session = factory()
	s.sessions[guildID] = session
	return session
}

// Remove deletes the entry for the guild only if it still holds session.
// Returns true if an entry was removed.
func (s *Store) Remove(guildID snowflake.ID, session *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.sessions[guildID]; !ok || current != session {
		return false
	}
	delete(s.sessions, guildID)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// All returns a snapshot of every live session.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}
	return result
}
