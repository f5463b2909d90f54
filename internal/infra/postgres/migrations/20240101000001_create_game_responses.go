package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

const createGameResponsesSQL = `
CREATE TABLE IF NOT EXISTS game_responses (
	game_id        TEXT        NOT NULL,
	question_id    TEXT        NOT NULL,
	participant_id TEXT        NOT NULL,
	payload        JSONB       NOT NULL,
	elapsed_ms     BIGINT      NOT NULL,
	submitted_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, question_id, participant_id)
)`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createGameResponsesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS game_responses`)
			return err
		},
	)
}
