package app

import (
	"sort"
	"time"

	"quiz-game-service/internal/domain"
)

// computeRanking derives the leaderboard from point totals. Ordering is a pure
// function of (score, join order): score descending, with the earlier joiner
// winning ties, so recomputing without a state change yields the identical
// list. Ranks are 1-based and distinct; tied scores occupy adjacent ranks.
// fastest marks the participant(s) that answered the most recently revealed
// question correctly with the lowest elapsed time.
func computeRanking(gameID string, ordered []*domain.Participant, fastest map[string]bool, now time.Time) domain.Ranking {
	entries := make([]domain.RankingEntry, 0, len(ordered))
	for _, p := range ordered {
		entries = append(entries, domain.RankingEntry{
			ParticipantID: p.ID,
			DisplayName:   p.DisplayName,
			Avatar:        p.Avatar,
			Score:         p.Score,
			IsHost:        p.IsHost,
			Fastest:       fastest[p.ID],
		})
	}

	// ordered is already in join order, so a stable sort on score alone
	// preserves join order as the tiebreak.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return domain.Ranking{GameID: gameID, Entries: entries, UpdatedAt: now}
}
