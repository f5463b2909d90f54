package domain

import "time"

// QuestionType is the closed set of question kinds the engine can score.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionBoolean        QuestionType = "boolean"
	QuestionFreeText       QuestionType = "free_text"
	QuestionMatchingPairs  QuestionType = "matching_pairs"
)

// GameState is the lifecycle state of a live session.
type GameState string

const (
	StateLobby          GameState = "lobby"
	StateQuestionActive GameState = "question_active"
	StateAnswerReveal   GameState = "answer_reveal"
	StateRankingReveal  GameState = "ranking_reveal"
	StateFinished       GameState = "finished"
)

// Option represents a possible answer for a choice-based question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Pair is one matching-pairs item; LeftID/RightID encode the correct pairing.
type Pair struct {
	LeftID    string `json:"leftId"`
	LeftText  string `json:"leftText"`
	RightID   string `json:"rightId"`
	RightText string `json:"rightText"`
}

// Question is immutable once a session holds its quiz snapshot.
type Question struct {
	ID           string       `json:"id"`
	Position     int          `json:"position"`
	Type         QuestionType `json:"type"`
	Prompt       string       `json:"prompt"`
	Options      []Option     `json:"options,omitempty"`
	Pairs        []Pair       `json:"pairs,omitempty"`
	AllowPartial bool         `json:"allowPartial,omitempty"`
	DurationSec  int          `json:"durationSec,omitempty"` // falls back to the configured default if zero
}

// CorrectOptionIDs returns the ids of all options flagged correct.
func (q Question) CorrectOptionIDs() []string {
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.Correct {
			ids = append(ids, opt.ID)
		}
	}
	return ids
}

// IsChoiceBased reports whether the question is scored by option selection.
func (q Question) IsChoiceBased() bool {
	switch q.Type {
	case QuestionMultipleChoice, QuestionSingleChoice, QuestionBoolean:
		return true
	}
	return false
}

// Quiz is the ordered question snapshot a session plays.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Participant represents one competitor or the host within a session.
type Participant struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	Avatar       string    `json:"avatar,omitempty"`
	IsHost       bool      `json:"isHost"`
	ExternalID   string    `json:"-"` // client-held rejoin token, never broadcast
	ConnectionID string    `json:"-"`
	Score        int       `json:"score"`
	JoinedAt     time.Time `json:"-"`
}

// AnswerRecord is the persisted fact that a participant answered a question.
// At most one record exists per (game, question, participant).
type AnswerRecord struct {
	GameID        string        `json:"gameId"`
	QuestionID    string        `json:"questionId"`
	ParticipantID string        `json:"participantId"`
	Payload       Answer        `json:"payload"`
	Elapsed       time.Duration `json:"elapsed"`
	SubmittedAt   time.Time     `json:"submittedAt"`
}

// RankingEntry is one row of the derived leaderboard.
type RankingEntry struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Avatar        string `json:"avatar,omitempty"`
	Score         int    `json:"score"`
	Rank          int    `json:"rank"`
	IsHost        bool   `json:"isHost"`
	Fastest       bool   `json:"fastest,omitempty"`
}

// Ranking captures the ordered scoreboard for a session.
type Ranking struct {
	GameID    string         `json:"gameId"`
	Entries   []RankingEntry `json:"entries"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
