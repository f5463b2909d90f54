package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
	"quiz-game-service/internal/infra/memory"
)

func TestSessionStoreSetsAndClearsLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	sess := store.GetOrCreate("ROOM1", func() *app.Session {
		return app.NewSession(app.SessionConfig{
			Code:      "ROOM1",
			Quiz:      domain.Quiz{ID: "quiz-1"},
			HostName:  "Host",
			Responses: memory.NewResponseStore(),
		})
	})
	if !mr.Exists("game:session:ROOM1") {
		t.Fatalf("expected liveness key to be set")
	}

	again := store.GetOrCreate("ROOM1", func() *app.Session {
		t.Fatal("factory must not run for an existing code")
		return nil
	})
	if again != sess {
		t.Fatalf("expected the same handle for one code")
	}

	store.Evict("ROOM1")
	if mr.Exists("game:session:ROOM1") {
		t.Fatalf("expected liveness key to be removed")
	}
	if !sess.Finished() {
		t.Fatalf("eviction must finish the session")
	}
}
