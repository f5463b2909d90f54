package app_test

import (
	"testing"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

func TestChoiceScoringSpeedBonus(t *testing.T) {
	policy := app.ScoringPolicy{BaseScore: 100, MaxSpeedBonus: 100}
	q := domain.Question{
		ID:   "q1",
		Type: domain.QuestionSingleChoice,
		Options: []domain.Option{
			{ID: "o1"},
			{ID: "o2", Correct: true},
		},
	}
	correct := domain.Answer{OptionIDs: []string{"o2"}}

	if got := policy.Score(q, correct, 0); got != 200 {
		t.Fatalf("instant answer: expected 200, got %d", got)
	}
	if got := policy.Score(q, correct, 0.5); got != 150 {
		t.Fatalf("half-time answer: expected 150, got %d", got)
	}
	if got := policy.Score(q, correct, 1); got != 100 {
		t.Fatalf("last-moment answer: expected 100, got %d", got)
	}
	// Out-of-range fractions clamp instead of inflating or flipping the bonus.
	if got := policy.Score(q, correct, 1.7); got != 100 {
		t.Fatalf("late fraction should clamp to floor, got %d", got)
	}

	wrong := domain.Answer{OptionIDs: []string{"o1"}}
	if got := policy.Score(q, wrong, 0); got != 0 {
		t.Fatalf("incorrect answer must score 0 regardless of speed, got %d", got)
	}
}

func TestMultipleChoiceRequiresExactSet(t *testing.T) {
	policy := app.DefaultScoringPolicy()
	q := domain.Question{
		ID:   "q1",
		Type: domain.QuestionMultipleChoice,
		Options: []domain.Option{
			{ID: "a", Correct: true},
			{ID: "b", Correct: true},
			{ID: "c"},
		},
	}

	if got := policy.Score(q, domain.Answer{OptionIDs: []string{"b", "a"}}, 1); got != 100 {
		t.Fatalf("exact set in any order should score, got %d", got)
	}
	// Partial credit is never awarded for multiple choice.
	if got := policy.Score(q, domain.Answer{OptionIDs: []string{"a"}}, 0); got != 0 {
		t.Fatalf("subset should score 0, got %d", got)
	}
	if got := policy.Score(q, domain.Answer{OptionIDs: []string{"a", "b", "c"}}, 0); got != 0 {
		t.Fatalf("superset should score 0, got %d", got)
	}
}

func TestBooleanScoring(t *testing.T) {
	policy := app.DefaultScoringPolicy()
	q := domain.Question{
		ID:   "q1",
		Type: domain.QuestionBoolean,
		Options: []domain.Option{
			{ID: "true", Correct: true},
			{ID: "false"},
		},
	}
	if got := policy.Score(q, domain.Answer{OptionIDs: []string{"true"}}, 1); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := policy.Score(q, domain.Answer{OptionIDs: []string{"false"}}, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestFreeTextNeverScores(t *testing.T) {
	policy := app.DefaultScoringPolicy()
	q := domain.Question{ID: "q1", Type: domain.QuestionFreeText}
	if got := policy.Score(q, domain.Answer{Text: "anything"}, 0); got != 0 {
		t.Fatalf("free text is collection-only, expected 0, got %d", got)
	}
}

func TestMatchingPairsPartialCredit(t *testing.T) {
	policy := app.ScoringPolicy{BaseScore: 100, MaxSpeedBonus: 100}
	q := domain.Question{
		ID:           "q1",
		Type:         domain.QuestionMatchingPairs,
		AllowPartial: true,
		Pairs: []domain.Pair{
			{LeftID: "l1", RightID: "r1"},
			{LeftID: "l2", RightID: "r2"},
		},
	}

	all := domain.Answer{Pairs: []domain.PairMatch{{LeftID: "l1", RightID: "r1"}, {LeftID: "l2", RightID: "r2"}}}
	if got := policy.Score(q, all, 0); got != 200 {
		t.Fatalf("all pairs matched: expected 200, got %d", got)
	}

	half := domain.Answer{Pairs: []domain.PairMatch{{LeftID: "l1", RightID: "r1"}, {LeftID: "l2", RightID: "r1"}}}
	if got := policy.Score(q, half, 0); got != 100 {
		t.Fatalf("half matched with partial credit: expected 100, got %d", got)
	}

	none := domain.Answer{Pairs: []domain.PairMatch{{LeftID: "l1", RightID: "r2"}, {LeftID: "l2", RightID: "r1"}}}
	if got := policy.Score(q, none, 0); got != 0 {
		t.Fatalf("nothing matched: expected 0, got %d", got)
	}

	q.AllowPartial = false
	if got := policy.Score(q, half, 0); got != 0 {
		t.Fatalf("partial without the flag is all-or-nothing, got %d", got)
	}
}

func TestScoringIsDeterministic(t *testing.T) {
	policy := app.DefaultScoringPolicy()
	q := domain.Question{
		ID:      "q1",
		Type:    domain.QuestionSingleChoice,
		Options: []domain.Option{{ID: "o1", Correct: true}},
	}
	a := domain.Answer{OptionIDs: []string{"o1"}}
	first := policy.Score(q, a, 0.33)
	for i := 0; i < 10; i++ {
		if got := policy.Score(q, a, 0.33); got != first {
			t.Fatalf("same inputs must yield the same delta: %d vs %d", got, first)
		}
	}
}
