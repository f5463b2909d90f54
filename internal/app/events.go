package app

import (
	"quiz-game-service/internal/domain"
)

// EventType names an outbound event broadcast to session connections.
type EventType string

const (
	EventStatus        EventType = "STATUS"
	EventMembers       EventType = "MEMBERS"
	EventQuestionData  EventType = "QUESTION_DATA"
	EventTimer         EventType = "TIMER"
	EventDisplayAnswer EventType = "DISPLAY_ANSWER"
	EventRanking       EventType = "RANKING"
	EventResults       EventType = "RESULTS"
	EventError         EventType = "ERROR"
)

// Event is the unit of fan-out from a session to its subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// StatusPayload describes the session lifecycle for clients.
type StatusPayload struct {
	State         domain.GameState `json:"state"`
	QuestionIndex int              `json:"questionIndex"`
	QuestionCount int              `json:"questionCount"`
}

// Member is the roster view of a participant; correctness-sensitive and
// identity-sensitive fields are stripped.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	IsHost      bool   `json:"isHost"`
	Connected   bool   `json:"connected"`
	Score       int    `json:"score"`
}

// MembersPayload is the roster snapshot.
type MembersPayload struct {
	GameID  string   `json:"gameId"`
	Members []Member `json:"members"`
}

// PublicOption is an option without its correctness flag.
type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PublicItem is one side of a matching pair, with the pairing hidden.
type PublicItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionPayload is the current question as broadcast to clients. Correct
// answers never leave the server before the reveal.
type QuestionPayload struct {
	ID          string              `json:"id"`
	Index       int                 `json:"index"`
	Total       int                 `json:"total"`
	Type        domain.QuestionType `json:"type"`
	Prompt      string              `json:"prompt"`
	Options     []PublicOption      `json:"options,omitempty"`
	Left        []PublicItem        `json:"left,omitempty"`
	Right       []PublicItem        `json:"right,omitempty"`
	DurationSec int                 `json:"durationSec"`
}

// TimerPayload carries the synchronized countdown.
type TimerPayload struct {
	QuestionID   string `json:"questionId"`
	RemainingSec int    `json:"remainingSec"`
}

// OptionCount aggregates submissions for one option after the reveal.
type OptionCount struct {
	OptionID string  `json:"optionId"`
	Text     string  `json:"text"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
	Correct  bool    `json:"correct"`
}

// DisplayAnswerPayload is the post-reveal aggregate for the closed question.
type DisplayAnswerPayload struct {
	QuestionID   string        `json:"questionId"`
	TotalAnswers int           `json:"totalAnswers"`
	Options      []OptionCount `json:"options,omitempty"`
	Texts        []string      `json:"texts,omitempty"`
}

// ErrorPayload describes a rejected inbound event; never fatal to the session.
type ErrorPayload struct {
	Message string `json:"message"`
}

func publicQuestion(q domain.Question, index, total, durationSec int) QuestionPayload {
	p := QuestionPayload{
		ID:          q.ID,
		Index:       index,
		Total:       total,
		Type:        q.Type,
		Prompt:      q.Prompt,
		DurationSec: durationSec,
	}
	for _, opt := range q.Options {
		p.Options = append(p.Options, PublicOption{ID: opt.ID, Text: opt.Text})
	}
	for _, pair := range q.Pairs {
		p.Left = append(p.Left, PublicItem{ID: pair.LeftID, Text: pair.LeftText})
		p.Right = append(p.Right, PublicItem{ID: pair.RightID, Text: pair.RightText})
	}
	return p
}
