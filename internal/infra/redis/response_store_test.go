package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/domain"
)

func TestResponseStoreSetNXIdempotency(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewResponseStore(client, time.Minute)
	ctx := context.Background()

	rec := domain.AnswerRecord{
		GameID:        "g1",
		QuestionID:    "q1",
		ParticipantID: "p1",
		Payload:       domain.Answer{OptionIDs: []string{"o1"}},
		Elapsed:       1500 * time.Millisecond,
		SubmittedAt:   time.Now(),
	}

	if err := store.RecordAnswer(ctx, rec); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.RecordAnswer(ctx, rec); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered on the second write, got %v", err)
	}

	answered, err := store.HasAnswered(ctx, "g1", "q1", "p1")
	if err != nil || !answered {
		t.Fatalf("expected answered=true, got %v %v", answered, err)
	}
}

func TestResponseStoreDeleteClearsQuestion(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewResponseStore(client, time.Minute)
	ctx := context.Background()

	for _, pid := range []string{"p1", "p2"} {
		rec := domain.AnswerRecord{GameID: "g1", QuestionID: "q1", ParticipantID: pid}
		if err := store.RecordAnswer(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", pid, err)
		}
	}

	if err := store.DeleteQuestionAnswers(ctx, "g1", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for _, pid := range []string{"p1", "p2"} {
		if answered, _ := store.HasAnswered(ctx, "g1", "q1", pid); answered {
			t.Fatalf("answers for %s should be gone after reset", pid)
		}
	}
	// A fresh submission is accepted again after the reset.
	rec := domain.AnswerRecord{GameID: "g1", QuestionID: "q1", ParticipantID: "p1"}
	if err := store.RecordAnswer(ctx, rec); err != nil {
		t.Fatalf("re-record after reset: %v", err)
	}
}
