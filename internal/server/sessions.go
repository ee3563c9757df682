package server

import (
	"time"

	"HealthBuddy/internal/geminiservice"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// SessionStore keeps chat sessions addressable by id. It is bounded in size and
// forgets sessions that stay idle longer than the TTL.
type SessionStore struct {
	sessions *expirable.LRU[string, *geminiservice.ChatSession]
}

func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	onEvict := func(id string, _ *geminiservice.ChatSession) {
		log.Debug().Str("session_id", id).Msg("Chat session evicted")
	}
	return &SessionStore{
		sessions: expirable.NewLRU[string, *geminiservice.ChatSession](size, onEvict, ttl),
	}
}

// Add registers a session and returns its new id.
func (s *SessionStore) Add(session *geminiservice.ChatSession) string {
	id := uuid.New().String()
	s.sessions.Add(id, session)
	return id
}

// Get looks a session up and restarts its idle timer.
func (s *SessionStore) Get(id string) (*geminiservice.ChatSession, bool) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s.sessions.Add(id, session)
	return session, true
}

func (s *SessionStore) Len() int {
	return s.sessions.Len()
}
