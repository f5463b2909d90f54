package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"quiz-game-service/internal/domain"
)

// Session owns one live game. All mutating operations for a session code are
// serialized behind its mutex, so scoring, timer transitions, and roster
// changes never interleave. The broadcast side only ever reads snapshots.
type Session struct {
	code            string
	quiz            domain.Quiz
	hostID          string
	clk             clockwork.Clock
	policy          ScoringPolicy
	defaultDuration time.Duration
	tick            time.Duration
	responses       ResponseStore
	log             zerolog.Logger
	createdAt       time.Time

	mu             sync.Mutex
	state          domain.GameState
	questionIdx    int
	questionStart  time.Time
	questionWindow time.Duration
	ticker         *countdown
	generation     int // invalidates callbacks of cancelled countdowns

	participants map[string]*domain.Participant
	joinOrder    []string
	byConnection map[string]string
	byExternal   map[string]string

	answers     map[string]map[string]*answerMark // questionID -> participantID
	revealedIdx int                               // index of the last revealed question, -1 before any reveal

	subscribers map[chan Event]struct{}
	lastActive  time.Time
}

// answerMark is the in-session record of one accepted submission. The durable
// record lives in the ResponseStore; the mark carries what reveal and reset
// need without a read back.
type answerMark struct {
	payload domain.Answer
	elapsed time.Duration
	correct bool
	delta   int
}

// SessionConfig carries everything a new session needs. The host identity is
// fixed here and never changes for the session's lifetime.
type SessionConfig struct {
	Code             string
	Quiz             domain.Quiz
	HostName         string
	HostAvatar       string
	HostExternalID   string
	HostConnectionID string
	Clock            clockwork.Clock
	Policy           ScoringPolicy
	QuestionDuration time.Duration
	TimerTick        time.Duration
	Responses        ResponseStore
	Logger           zerolog.Logger
}

// NewSession creates a session in the lobby state with the host already joined.
func NewSession(cfg SessionConfig) *Session {
	clk := cfg.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	quiz := cfg.Quiz
	quiz.Questions = append([]domain.Question(nil), cfg.Quiz.Questions...)
	sort.SliceStable(quiz.Questions, func(i, j int) bool {
		return quiz.Questions[i].Position < quiz.Questions[j].Position
	})

	now := clk.Now()
	host := &domain.Participant{
		ID:           uuid.NewString(),
		DisplayName:  cfg.HostName,
		Avatar:       cfg.HostAvatar,
		IsHost:       true,
		ExternalID:   cfg.HostExternalID,
		ConnectionID: cfg.HostConnectionID,
		JoinedAt:     now,
	}
	if host.ExternalID == "" {
		host.ExternalID = uuid.NewString()
	}

	s := &Session{
		code:            cfg.Code,
		quiz:            quiz,
		hostID:          host.ID,
		clk:             clk,
		policy:          cfg.Policy,
		defaultDuration: cfg.QuestionDuration,
		tick:            cfg.TimerTick,
		responses:       cfg.Responses,
		log:             cfg.Logger.With().Str("game", cfg.Code).Logger(),
		createdAt:       now,
		state:           domain.StateLobby,
		revealedIdx:     -1,
		participants:    map[string]*domain.Participant{host.ID: host},
		joinOrder:       []string{host.ID},
		byConnection:    map[string]string{},
		byExternal:      map[string]string{host.ExternalID: host.ID},
		answers:         map[string]map[string]*answerMark{},
		subscribers:     map[chan Event]struct{}{},
		lastActive:      now,
	}
	if host.ConnectionID != "" {
		s.byConnection[host.ConnectionID] = host.ID
	}
	if s.defaultDuration <= 0 {
		s.defaultDuration = 20 * time.Second
	}
	if s.tick <= 0 {
		s.tick = time.Second
	}
	return s
}

// Code returns the session's short code.
func (s *Session) Code() string { return s.code }

// Host returns a copy of the host participant.
func (s *Session) Host() domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.participants[s.hostID]
}

// State returns the current lifecycle state.
func (s *Session) State() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Finished reports whether the game reached its terminal state.
func (s *Session) Finished() bool {
	return s.State() == domain.StateFinished
}

// LastActive is the time of the last mutating operation, used for idle eviction.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// ConnectionCount is the number of currently attached connections.
func (s *Session) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byConnection)
}

// Join admits a competitor, or reattaches one whose rejoin token is already
// known, preserving identity, score, and past answers across reconnects.
func (s *Session) Join(displayName, avatar, externalID, connID string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if externalID != "" {
		if pid, ok := s.byExternal[externalID]; ok {
			return s.reattachLocked(pid, connID), nil
		}
	}

	now := s.clk.Now()
	p := &domain.Participant{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Avatar:       avatar,
		ExternalID:   externalID,
		ConnectionID: connID,
		JoinedAt:     now,
	}
	if p.ExternalID == "" {
		p.ExternalID = uuid.NewString()
	}
	s.participants[p.ID] = p
	s.joinOrder = append(s.joinOrder, p.ID)
	s.byExternal[p.ExternalID] = p.ID
	s.byConnection[connID] = p.ID

	s.broadcastLocked(Event{Type: EventMembers, Payload: s.membersLocked()})
	return *p, nil
}

// JoinHost reattaches the host. The host seat is fixed at session creation;
// a different identity claiming it is rejected.
func (s *Session) JoinHost(connID, externalID string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	host := s.participants[s.hostID]
	if externalID == "" || externalID != host.ExternalID {
		return domain.Participant{}, domain.ErrNotHost
	}
	return s.reattachLocked(s.hostID, connID), nil
}

// Reattach rebinds a known rejoin token to a new connection.
func (s *Session) Reattach(externalID, connID string) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	pid, ok := s.byExternal[externalID]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return s.reattachLocked(pid, connID), nil
}

func (s *Session) reattachLocked(pid, connID string) domain.Participant {
	p := s.participants[pid]
	if p.ConnectionID != "" {
		delete(s.byConnection, p.ConnectionID)
	}
	p.ConnectionID = connID
	s.byConnection[connID] = pid
	s.broadcastLocked(Event{Type: EventMembers, Payload: s.membersLocked()})
	return *p
}

// ByConnection resolves the participant attached to a connection.
func (s *Session) ByConnection(connID string) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.byConnection[connID]
	if !ok {
		return domain.Participant{}, false
	}
	return *s.participants[pid], true
}

// Leave detaches a connection. The participant record survives for reattach;
// the game timeline keeps running regardless of connection health.
func (s *Session) Leave(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	pid, ok := s.byConnection[connID]
	if !ok {
		return
	}
	delete(s.byConnection, connID)
	if p := s.participants[pid]; p != nil && p.ConnectionID == connID {
		p.ConnectionID = ""
	}
	s.broadcastLocked(Event{Type: EventMembers, Payload: s.membersLocked()})
}

// Start moves lobby -> question_active. Host only.
func (s *Session) Start(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if err := s.requireHostLocked(connID); err != nil {
		return err
	}
	switch s.state {
	case domain.StateLobby:
	case domain.StateFinished:
		return domain.ErrGameFinished
	default:
		return domain.ErrInvalidTransition
	}
	// An empty question list is the only unplayable-quiz case: quizzes carry
	// no type tag, content that can't be played simply yields no questions.
	if len(s.quiz.Questions) == 0 {
		return domain.ErrNoQuestions
	}
	s.log.Info().Str("quiz", s.quiz.ID).Msg("game started")
	s.startQuestionLocked(0)
	return nil
}

// Next advances the timeline. From question_active it force-closes the
// question; from answer_reveal it moves to ranking_reveal; from ranking_reveal
// it starts the next question or finishes the game. Host only.
func (s *Session) Next(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if err := s.requireHostLocked(connID); err != nil {
		return err
	}
	switch s.state {
	case domain.StateQuestionActive:
		s.finalizeQuestionLocked()
	case domain.StateAnswerReveal:
		s.state = domain.StateRankingReveal
		s.broadcastLocked(Event{Type: EventStatus, Payload: s.statusLocked()})
		s.broadcastLocked(Event{Type: EventRanking, Payload: s.rankingLocked()})
	case domain.StateRankingReveal:
		if s.questionIdx >= len(s.quiz.Questions)-1 {
			s.finishLocked()
		} else {
			s.startQuestionLocked(s.questionIdx + 1)
		}
	case domain.StateFinished:
		return domain.ErrGameFinished
	default:
		return domain.ErrInvalidTransition
	}
	return nil
}

// ResetQuestion re-opens the current question: persisted answer records are
// dropped, already-awarded deltas are reversed, and the clock restarts.
// Allowed from question_active or answer_reveal. Host only.
func (s *Session) ResetQuestion(ctx context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	if err := s.requireHostLocked(connID); err != nil {
		return err
	}
	switch s.state {
	case domain.StateQuestionActive, domain.StateAnswerReveal:
	case domain.StateFinished:
		return domain.ErrGameFinished
	default:
		return domain.ErrInvalidTransition
	}

	q := s.quiz.Questions[s.questionIdx]
	if err := s.responses.DeleteQuestionAnswers(ctx, s.code, q.ID); err != nil {
		return err
	}
	for pid, mark := range s.answers[q.ID] {
		if p := s.participants[pid]; p != nil {
			p.Score -= mark.delta
		}
	}
	delete(s.answers, q.ID)
	if s.revealedIdx == s.questionIdx {
		s.revealedIdx = s.questionIdx - 1
	}
	s.log.Info().Str("question", q.ID).Msg("question reset")
	s.startQuestionLocked(s.questionIdx)
	return nil
}

// End finishes the game from any state, for an explicit host shutdown or
// registry eviction.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
	if s.state == domain.StateFinished {
		return
	}
	s.finishLocked()
}

// Submit is the answer-collection path: exactly one accepted answer per
// participant per question, scored by correctness and speed at accept time.
func (s *Session) Submit(ctx context.Context, connID, questionID string, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()

	pid, ok := s.byConnection[connID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	p := s.participants[pid]

	if s.state != domain.StateQuestionActive {
		return domain.ErrQuestionNotActive
	}
	q := s.quiz.Questions[s.questionIdx]
	if questionID != q.ID {
		// Late answer for an already-closed question, or a question that is
		// not open yet. Network delay is the client's problem.
		return domain.ErrQuestionNotActive
	}
	if err := answer.Validate(q); err != nil {
		return err
	}
	if _, dup := s.answers[q.ID][pid]; dup {
		return domain.ErrAlreadyAnswered
	}
	answered, err := s.responses.HasAnswered(ctx, s.code, q.ID, pid)
	if err != nil {
		return err
	}
	if answered {
		return domain.ErrAlreadyAnswered
	}

	now := s.clk.Now()
	elapsed := now.Sub(s.questionStart)
	rec := domain.AnswerRecord{
		GameID:        s.code,
		QuestionID:    q.ID,
		ParticipantID: pid,
		Payload:       answer,
		Elapsed:       elapsed,
		SubmittedAt:   now,
	}
	if err := s.responses.RecordAnswer(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrAlreadyAnswered) {
			return domain.ErrAlreadyAnswered
		}
		return err
	}

	fraction := float64(elapsed) / float64(s.questionWindow)
	delta := s.policy.Score(q, answer, fraction)
	// Score accrual happens under the session mutex, so concurrent
	// submissions from different participants never lose an increment.
	p.Score += delta

	if s.answers[q.ID] == nil {
		s.answers[q.ID] = map[string]*answerMark{}
	}
	s.answers[q.ID][pid] = &answerMark{
		payload: answer,
		elapsed: elapsed,
		correct: delta > 0,
		delta:   delta,
	}

	if s.allAnsweredLocked(q.ID) {
		s.finalizeQuestionLocked()
	}
	return nil
}

// Subscribe returns a channel of session events, primed with enough state for
// a (re)connecting client to render the current screen. The caller must invoke
// cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// Prime the channel before releasing the lock so no broadcast can slip
	// in ahead of the catch-up snapshot. The buffer comfortably holds it.
	for _, ev := range s.syncEventsLocked() {
		ch <- ev
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Ranking returns the current leaderboard snapshot.
func (s *Session) Ranking() domain.Ranking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rankingLocked()
}

func (s *Session) requireHostLocked(connID string) error {
	pid, ok := s.byConnection[connID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if pid != s.hostID {
		return domain.ErrNotHost
	}
	return nil
}

func (s *Session) touchLocked() {
	s.lastActive = s.clk.Now()
}

func (s *Session) questionDuration(q domain.Question) time.Duration {
	if q.DurationSec > 0 {
		return time.Duration(q.DurationSec) * time.Second
	}
	return s.defaultDuration
}

func (s *Session) startQuestionLocked(idx int) {
	if s.ticker != nil {
		s.ticker.Cancel()
	}
	s.generation++
	gen := s.generation

	s.state = domain.StateQuestionActive
	s.questionIdx = idx
	s.questionStart = s.clk.Now()
	q := s.quiz.Questions[idx]
	duration := s.questionDuration(q)
	s.questionWindow = duration

	s.broadcastLocked(Event{Type: EventStatus, Payload: s.statusLocked()})
	s.broadcastLocked(Event{Type: EventQuestionData, Payload: publicQuestion(q, idx, len(s.quiz.Questions), int(duration.Seconds()))})
	s.broadcastLocked(Event{Type: EventTimer, Payload: TimerPayload{QuestionID: q.ID, RemainingSec: int(duration.Seconds())}})

	s.ticker = startCountdown(s.clk, duration, s.tick,
		func(remaining time.Duration) { s.handleTick(gen, q.ID, remaining) },
		func() { s.handleExpiry(gen) },
	)
}

func (s *Session) handleTick(gen int, questionID string, remaining time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != domain.StateQuestionActive {
		return
	}
	secs := int((remaining + s.tick - 1) / time.Second)
	s.broadcastLocked(Event{Type: EventTimer, Payload: TimerPayload{QuestionID: questionID, RemainingSec: secs}})
}

func (s *Session) handleExpiry(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || s.state != domain.StateQuestionActive {
		return
	}
	s.finalizeQuestionLocked()
}

// finalizeQuestionLocked closes the current question and moves to the reveal.
// Expiry with zero answers is still a valid reveal with all counts zero.
func (s *Session) finalizeQuestionLocked() {
	if s.ticker != nil {
		s.ticker.Cancel()
	}
	s.generation++
	s.state = domain.StateAnswerReveal
	s.revealedIdx = s.questionIdx

	s.log.Debug().Int("question", s.questionIdx).Msg("question closed")
	s.broadcastLocked(Event{Type: EventStatus, Payload: s.statusLocked()})
	s.broadcastLocked(Event{Type: EventDisplayAnswer, Payload: s.displayAnswerLocked()})
}

func (s *Session) finishLocked() {
	if s.ticker != nil {
		s.ticker.Cancel()
	}
	s.generation++
	s.state = domain.StateFinished

	s.log.Info().Msg("game finished")
	s.broadcastLocked(Event{Type: EventStatus, Payload: s.statusLocked()})
	s.broadcastLocked(Event{Type: EventResults, Payload: s.rankingLocked()})
}

// allAnsweredLocked is the early-close optimization: every connected competitor
// has answered. Clock expiry alone remains authoritative; this only shortens
// the wait. The host never submits answers and is excluded.
func (s *Session) allAnsweredLocked(questionID string) bool {
	marks := s.answers[questionID]
	competitors := 0
	for _, p := range s.participants {
		if p.IsHost || p.ConnectionID == "" {
			continue
		}
		competitors++
		if _, ok := marks[p.ID]; !ok {
			return false
		}
	}
	return competitors > 0
}

func (s *Session) statusLocked() StatusPayload {
	return StatusPayload{
		State:         s.state,
		QuestionIndex: s.questionIdx,
		QuestionCount: len(s.quiz.Questions),
	}
}

func (s *Session) membersLocked() MembersPayload {
	members := make([]Member, 0, len(s.joinOrder))
	for _, pid := range s.joinOrder {
		p := s.participants[pid]
		members = append(members, Member{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Avatar:      p.Avatar,
			IsHost:      p.IsHost,
			Connected:   p.ConnectionID != "",
			Score:       p.Score,
		})
	}
	return MembersPayload{GameID: s.code, Members: members}
}

func (s *Session) rankingLocked() domain.Ranking {
	ordered := make([]*domain.Participant, 0, len(s.joinOrder))
	for _, pid := range s.joinOrder {
		ordered = append(ordered, s.participants[pid])
	}
	return computeRanking(s.code, ordered, s.fastestLocked(), s.clk.Now())
}

// fastestLocked marks who answered the last revealed question correctly with
// the lowest elapsed time. Informational only; ties all get the flag.
func (s *Session) fastestLocked() map[string]bool {
	fastest := map[string]bool{}
	if s.revealedIdx < 0 || s.revealedIdx >= len(s.quiz.Questions) {
		return fastest
	}
	marks := s.answers[s.quiz.Questions[s.revealedIdx].ID]
	best := time.Duration(-1)
	for _, mark := range marks {
		if mark.correct && (best < 0 || mark.elapsed < best) {
			best = mark.elapsed
		}
	}
	if best < 0 {
		return fastest
	}
	for pid, mark := range marks {
		if mark.correct && mark.elapsed == best {
			fastest[pid] = true
		}
	}
	return fastest
}

func (s *Session) displayAnswerLocked() DisplayAnswerPayload {
	q := s.quiz.Questions[s.questionIdx]
	marks := s.answers[q.ID]
	payload := DisplayAnswerPayload{
		QuestionID:   q.ID,
		TotalAnswers: len(marks),
	}

	if q.IsChoiceBased() {
		counts := make(map[string]int, len(q.Options))
		for _, mark := range marks {
			for _, id := range mark.payload.OptionIDs {
				counts[id]++
			}
		}
		for _, opt := range q.Options {
			oc := OptionCount{
				OptionID: opt.ID,
				Text:     opt.Text,
				Count:    counts[opt.ID],
				Correct:  opt.Correct,
			}
			if payload.TotalAnswers > 0 {
				oc.Percent = float64(oc.Count) / float64(payload.TotalAnswers) * 100
			}
			payload.Options = append(payload.Options, oc)
		}
	}
	if q.Type == domain.QuestionFreeText {
		for _, mark := range marks {
			payload.Texts = append(payload.Texts, mark.payload.Text)
		}
		sort.Strings(payload.Texts)
	}
	return payload
}

// syncEventsLocked is the state a fresh subscriber needs to catch up.
func (s *Session) syncEventsLocked() []Event {
	events := []Event{
		{Type: EventStatus, Payload: s.statusLocked()},
		{Type: EventMembers, Payload: s.membersLocked()},
	}
	switch s.state {
	case domain.StateQuestionActive:
		q := s.quiz.Questions[s.questionIdx]
		duration := s.questionWindow
		events = append(events, Event{Type: EventQuestionData, Payload: publicQuestion(q, s.questionIdx, len(s.quiz.Questions), int(duration.Seconds()))})
		remaining := duration - s.clk.Now().Sub(s.questionStart)
		if remaining < 0 {
			remaining = 0
		}
		events = append(events, Event{Type: EventTimer, Payload: TimerPayload{QuestionID: q.ID, RemainingSec: int(remaining / time.Second)}})
	case domain.StateAnswerReveal:
		events = append(events, Event{Type: EventDisplayAnswer, Payload: s.displayAnswerLocked()})
	case domain.StateRankingReveal:
		events = append(events, Event{Type: EventRanking, Payload: s.rankingLocked()})
	case domain.StateFinished:
		events = append(events, Event{Type: EventResults, Payload: s.rankingLocked()})
	}
	return events
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest update rather than block the session on a
			// slow consumer.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
