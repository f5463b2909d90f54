package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-game-service/internal/domain"
)

// ResponseStore keeps answer records in Redis:
//
//	SETNX game:{game}:answer:{question}:{participant} {json}
//	SADD  game:{game}:answered:{question} {participant}
//
// SETNX is the idempotency gate: the first writer wins, every later write for
// the same triple fails with ErrAlreadyAnswered. The set indexes a question's
// respondents so a reset can drop them without a scan.
type ResponseStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseStore(client *redis.Client, ttl time.Duration) *ResponseStore {
	return &ResponseStore{client: client, ttl: ttl}
}

func (s *ResponseStore) HasAnswered(ctx context.Context, gameID, questionID, participantID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.recordKey(gameID, questionID, participantID)).Result()
	if err != nil {
		return false, fmt.Errorf("check answer: %w", err)
	}
	return n > 0, nil
}

func (s *ResponseStore) RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	key := s.recordKey(rec.GameID, rec.QuestionID, rec.ParticipantID)
	ok, err := s.client.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyAnswered
	}

	indexKey := s.indexKey(rec.GameID, rec.QuestionID)
	pipe := s.client.Pipeline()
	pipe.SAdd(ctx, indexKey, rec.ParticipantID)
	if s.ttl > 0 {
		pipe.Expire(ctx, indexKey, s.ttl)
	}
	_, _ = pipe.Exec(ctx)
	return nil
}

func (s *ResponseStore) DeleteQuestionAnswers(ctx context.Context, gameID, questionID string) error {
	indexKey := s.indexKey(gameID, questionID)
	participants, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("list answers: %w", err)
	}

	keys := make([]string, 0, len(participants)+1)
	for _, pid := range participants {
		keys = append(keys, s.recordKey(gameID, questionID, pid))
	}
	keys = append(keys, indexKey)
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}

func (s *ResponseStore) recordKey(gameID, questionID, participantID string) string {
	return "game:" + gameID + ":answer:" + questionID + ":" + participantID
}

func (s *ResponseStore) indexKey(gameID, questionID string) string {
	return "game:" + gameID + ":answered:" + questionID
}
