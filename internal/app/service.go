package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
)

// SessionRepository is the registry: at most one live session per code, with
// all state-mutating calls for a code routed through the same handle.
type SessionRepository interface {
	GetOrCreate(code string, create func() *Session) *Session
	Get(code string) (*Session, bool)
	Evict(code string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ResponseStore persists answer records and enforces the at-most-one guarantee
// per (game, question, participant). RecordAnswer must fail with
// domain.ErrAlreadyAnswered when a record already exists.
type ResponseStore interface {
	HasAnswered(ctx context.Context, gameID, questionID, participantID string) (bool, error)
	RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error
	DeleteQuestionAnswers(ctx context.Context, gameID, questionID string) error
}

// Options tunes the engine; zero values fall back to sane defaults.
type Options struct {
	Clock            clockwork.Clock
	Policy           ScoringPolicy
	QuestionDuration time.Duration
	TimerTick        time.Duration
	Logger           zerolog.Logger
}

// GameService contains the live game use cases.
type GameService struct {
	sessions  SessionRepository
	quizzes   QuizRepository
	responses ResponseStore
	opts      Options
}

func NewGameService(sessions SessionRepository, quizzes QuizRepository, responses ResponseStore, opts Options) *GameService {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Policy == (ScoringPolicy{}) {
		opts.Policy = DefaultScoringPolicy()
	}
	if opts.QuestionDuration <= 0 {
		opts.QuestionDuration = 20 * time.Second
	}
	if opts.TimerTick <= 0 {
		opts.TimerTick = time.Second
	}
	return &GameService{sessions: sessions, quizzes: quizzes, responses: responses, opts: opts}
}

// Host creates the session for a code (taking an immutable question snapshot
// from the quiz) with the caller as its fixed host, or reattaches the host to
// an existing session when the rejoin token matches.
func (s *GameService) Host(ctx context.Context, code, quizID, displayName, avatar, externalID, connID string) (domain.Participant, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Participant{}, err
	}

	created := false
	session := s.sessions.GetOrCreate(code, func() *Session {
		created = true
		return NewSession(SessionConfig{
			Code:             code,
			Quiz:             quiz,
			HostName:         displayName,
			HostAvatar:       avatar,
			HostExternalID:   externalID,
			HostConnectionID: connID,
			Clock:            s.opts.Clock,
			Policy:           s.opts.Policy,
			QuestionDuration: s.opts.QuestionDuration,
			TimerTick:        s.opts.TimerTick,
			Responses:        s.responses,
			Logger:           s.opts.Logger,
		})
	})
	if created {
		s.opts.Logger.Info().Str("game", code).Str("quiz", quizID).Msg("session created")
		return session.Host(), nil
	}
	return session.JoinHost(connID, externalID)
}

// Join admits a competitor into a live session; unknown codes are rejected
// before any state machine is touched.
func (s *GameService) Join(ctx context.Context, code, displayName, avatar, externalID, connID string) (domain.Participant, error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.Participant{}, domain.ErrSessionNotFound
	}
	return session.Join(displayName, avatar, externalID, connID)
}

// Start begins the question timeline. Host only.
func (s *GameService) Start(code, connID string) error {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Start(connID)
}

// Next advances the timeline per the host's pacing.
func (s *GameService) Next(code, connID string) error {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Next(connID)
}

// ResetQuestion re-opens the current question for answering.
func (s *GameService) ResetQuestion(ctx context.Context, code, connID string) error {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.ResetQuestion(ctx, connID)
}

// SubmitAnswer records one answer for the connection's participant.
func (s *GameService) SubmitAnswer(ctx context.Context, code, connID, questionID string, answer domain.Answer) error {
	session, ok := s.sessions.Get(code)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Submit(ctx, connID, questionID, answer)
}

// Subscribe returns a channel of session events for a connection.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(code string) (<-chan Event, func(), error) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Leave detaches a connection and evicts the session once it is finished and
// no connections remain.
func (s *GameService) Leave(code, connID string) {
	session, ok := s.sessions.Get(code)
	if !ok {
		return
	}
	session.Leave(connID)
	if session.Finished() && session.ConnectionCount() == 0 {
		s.sessions.Evict(code)
		s.opts.Logger.Info().Str("game", code).Msg("session evicted")
	}
}
