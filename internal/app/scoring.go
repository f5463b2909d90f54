package app

import (
	"math"

	"quiz-game-service/internal/domain"
)

// ScoringPolicy fixes the correctness base score and the maximum speed bonus.
// Scoring is deterministic: the same (question, answer, elapsed fraction)
// always yields the same delta.
type ScoringPolicy struct {
	BaseScore     int
	MaxSpeedBonus int
}

// DefaultScoringPolicy mirrors the usual live-quiz policy of 100 base points
// plus up to 100 bonus points for answering instantly.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{BaseScore: 100, MaxSpeedBonus: 100}
}

// Score computes the signed point delta for a validated answer.
// elapsedFraction is elapsed/duration clamped to [0, 1]; the speed bonus decays
// linearly from MaxSpeedBonus at 0 to zero at 1. Incorrect answers and
// free-text submissions always score 0.
func (p ScoringPolicy) Score(q domain.Question, a domain.Answer, elapsedFraction float64) int {
	switch q.Type {
	case domain.QuestionFreeText:
		// Collection-only type; never scored.
		return 0
	case domain.QuestionMultipleChoice:
		if !sameIDSet(a.OptionIDs, q.CorrectOptionIDs()) {
			return 0
		}
		return p.full(elapsedFraction)
	case domain.QuestionSingleChoice, domain.QuestionBoolean:
		correct := q.CorrectOptionIDs()
		if len(a.OptionIDs) != 1 || len(correct) != 1 || a.OptionIDs[0] != correct[0] {
			return 0
		}
		return p.full(elapsedFraction)
	case domain.QuestionMatchingPairs:
		return p.scorePairs(q, a, elapsedFraction)
	default:
		return 0
	}
}

func (p ScoringPolicy) scorePairs(q domain.Question, a domain.Answer, elapsedFraction float64) int {
	if len(q.Pairs) == 0 {
		return 0
	}
	correctByLeft := make(map[string]string, len(q.Pairs))
	for _, pair := range q.Pairs {
		correctByLeft[pair.LeftID] = pair.RightID
	}
	matched := 0
	for _, m := range a.Pairs {
		if correctByLeft[m.LeftID] == m.RightID {
			matched++
		}
	}
	if matched == len(q.Pairs) {
		return p.full(elapsedFraction)
	}
	if !q.AllowPartial || matched == 0 {
		return 0
	}
	share := float64(matched) / float64(len(q.Pairs))
	return int(math.Round(share * float64(p.full(elapsedFraction))))
}

// full is the base score plus the linearly decaying speed bonus.
func (p ScoringPolicy) full(elapsedFraction float64) int {
	f := clampFraction(elapsedFraction)
	bonus := int(math.Round(float64(p.MaxSpeedBonus) * (1 - f)))
	return p.BaseScore + bonus
}

func clampFraction(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func sameIDSet(got, want []string) bool {
	if len(got) != len(want) || len(want) == 0 {
		return false
	}
	set := make(map[string]bool, len(want))
	for _, id := range want {
		set[id] = true
	}
	for _, id := range got {
		if !set[id] {
			return false
		}
	}
	return true
}
