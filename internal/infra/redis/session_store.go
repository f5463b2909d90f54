package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/app"
)

// SessionStore is a Redis-aware session registry.
// Notes:
//   - Sessions themselves stay in a local in-memory map: the engine's
//     single-writer and broadcast guarantees are in-process.
//   - Redis marks session liveness so other instances (or an ops dashboard)
//     can see which game codes are taken.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans out events across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(code string, create func() *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[code]; ok {
		return session
	}
	session := create()
	s.sessions[code] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(code), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(code)).Err()
	}
}

// EvictIdle drops sessions with no attached connections that have been
// inactive longer than maxIdle.
func (s *SessionStore) EvictIdle(maxIdle time.Duration, now time.Time) int {
	s.mu.Lock()
	stale := make(map[string]*app.Session)
	for code, session := range s.sessions {
		if session.ConnectionCount() == 0 && now.Sub(session.LastActive()) > maxIdle {
			stale[code] = session
			delete(s.sessions, code)
		}
	}
	s.mu.Unlock()

	for code, session := range stale {
		session.End()
		_ = s.client.Del(context.Background(), s.key(code)).Err()
	}
	return len(stale)
}

func (s *SessionStore) key(code string) string {
	return "game:session:" + code
}
