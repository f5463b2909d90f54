package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"quiz-game-service/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

// Cache misses for distinct quizzes fill their jittered TTLs concurrently;
// run with -race to verify the fill path shares no unsynchronized state.
func TestQuizRepositoryConcurrentMisses(t *testing.T) {
	quizzes := make(map[string]domain.Quiz)
	for i := 0; i < 8; i++ {
		id := fmt.Sprintf("quiz-%d", i)
		quizzes[id] = domain.Quiz{ID: id}
	}
	repo := NewQuizRepository(NewStaticQuizLoader(quizzes), time.Minute)

	var wg sync.WaitGroup
	for id := range quizzes {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			quiz, err := repo.GetQuiz(context.Background(), id)
			if err != nil || quiz.ID != id {
				t.Errorf("get %s: %v %+v", id, err, quiz)
			}
		}(id)
	}
	wg.Wait()
}

func TestQuizRepositoryUnknownQuiz(t *testing.T) {
	repo := NewQuizRepository(NewStaticQuizLoader(nil), time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{
				ID:   "q1",
				Type: domain.QuestionSingleChoice,
				Options: []domain.Option{
					{ID: "o1", Text: "3"},
					{ID: "o2", Text: "4", Correct: true},
				},
			},
		},
	}
}
