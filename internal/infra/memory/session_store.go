package memory

import (
	"sync"
	"time"

	"quiz-game-service/internal/app"
)

// SessionStore is the in-memory session registry: a concurrent map from game
// code to its single live session handle.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

// GetOrCreate returns the live session for code, invoking create under the
// registry lock when none exists so at most one session per code ever runs.
func (s *SessionStore) GetOrCreate(code string, create func() *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[code]; ok {
		return session
	}
	session := create()
	s.sessions[code] = session
	return session
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Evict(code string) {
	s.mu.Lock()
	session, ok := s.sessions[code]
	delete(s.sessions, code)
	s.mu.Unlock()
	if ok {
		session.End()
	}
}

// EvictIdle drops sessions with no attached connections that have been
// inactive longer than maxIdle. Returns the number evicted.
func (s *SessionStore) EvictIdle(maxIdle time.Duration, now time.Time) int {
	s.mu.Lock()
	var stale []*app.Session
	for code, session := range s.sessions {
		if session.ConnectionCount() == 0 && now.Sub(session.LastActive()) > maxIdle {
			stale = append(stale, session)
			delete(s.sessions, code)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		session.End()
	}
	return len(stale)
}
