package memory

import (
	"context"
	"sync"

	"quiz-game-service/internal/domain"
)

type responseKey struct {
	gameID        string
	questionID    string
	participantID string
}

// ResponseStore keeps answer records in process memory. The check-then-insert
// in RecordAnswer is atomic under the store mutex, so duplicate submissions
// can never both pass.
type ResponseStore struct {
	mu      sync.RWMutex
	records map[responseKey]domain.AnswerRecord
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{records: make(map[responseKey]domain.AnswerRecord)}
}

func (s *ResponseStore) HasAnswered(_ context.Context, gameID, questionID, participantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[responseKey{gameID, questionID, participantID}]
	return ok, nil
}

func (s *ResponseStore) RecordAnswer(_ context.Context, rec domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := responseKey{rec.GameID, rec.QuestionID, rec.ParticipantID}
	if _, ok := s.records[key]; ok {
		return domain.ErrAlreadyAnswered
	}
	s.records[key] = rec
	return nil
}

func (s *ResponseStore) DeleteQuestionAnswers(_ context.Context, gameID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.records {
		if key.gameID == gameID && key.questionID == questionID {
			delete(s.records, key)
		}
	}
	return nil
}
