package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-game-service/internal/domain"
)

func TestResponseStoreEnforcesSingleAnswer(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()

	rec := domain.AnswerRecord{
		GameID:        "g1",
		QuestionID:    "q1",
		ParticipantID: "p1",
		Payload:       domain.Answer{OptionIDs: []string{"o1"}},
		Elapsed:       2 * time.Second,
		SubmittedAt:   time.Now(),
	}

	if err := store.RecordAnswer(ctx, rec); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := store.RecordAnswer(ctx, rec); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	answered, err := store.HasAnswered(ctx, "g1", "q1", "p1")
	if err != nil || !answered {
		t.Fatalf("expected answered=true, got %v %v", answered, err)
	}
	answered, _ = store.HasAnswered(ctx, "g1", "q1", "p2")
	if answered {
		t.Fatalf("different participant must not be marked answered")
	}
}

func TestResponseStoreDeleteQuestionAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewResponseStore()

	for _, pid := range []string{"p1", "p2"} {
		rec := domain.AnswerRecord{GameID: "g1", QuestionID: "q1", ParticipantID: pid}
		if err := store.RecordAnswer(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", pid, err)
		}
	}
	other := domain.AnswerRecord{GameID: "g1", QuestionID: "q2", ParticipantID: "p1"}
	if err := store.RecordAnswer(ctx, other); err != nil {
		t.Fatalf("record other question: %v", err)
	}

	if err := store.DeleteQuestionAnswers(ctx, "g1", "q1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if answered, _ := store.HasAnswered(ctx, "g1", "q1", "p1"); answered {
		t.Fatalf("q1 answers should be gone")
	}
	if answered, _ := store.HasAnswered(ctx, "g1", "q2", "p1"); !answered {
		t.Fatalf("q2 answers must survive a q1 reset")
	}
}
