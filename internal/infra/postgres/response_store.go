package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-game-service/internal/domain"
)

// ResponseStore persists answer records in the game_responses table. The
// unique (game_id, question_id, participant_id) index is the idempotency
// gate: INSERT ... ON CONFLICT DO NOTHING affects zero rows for a duplicate.
type ResponseStore struct {
	pool *pgxpool.Pool
}

func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

func (s *ResponseStore) HasAnswered(ctx context.Context, gameID, questionID, participantID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM game_responses WHERE game_id=$1 AND question_id=$2 AND participant_id=$3)`,
		gameID, questionID, participantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check answer: %w", err)
	}
	return exists, nil
}

func (s *ResponseStore) RecordAnswer(ctx context.Context, rec domain.AnswerRecord) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO game_responses (game_id, question_id, participant_id, payload, elapsed_ms, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (game_id, question_id, participant_id) DO NOTHING`,
		rec.GameID, rec.QuestionID, rec.ParticipantID, payload, rec.Elapsed.Milliseconds(), rec.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *ResponseStore) DeleteQuestionAnswers(ctx context.Context, gameID, questionID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM game_responses WHERE game_id=$1 AND question_id=$2`,
		gameID, questionID,
	)
	if err != nil {
		return fmt.Errorf("delete answers: %w", err)
	}
	return nil
}
