package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// createSchema creates the submission tables.
// Safe to call multiple times - uses IF NOT EXISTS.
func createSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- One row per completed session
CREATE TABLE IF NOT EXISTS submission (
    session_id TEXT PRIMARY KEY,
    definition_id TEXT NOT NULL DEFAULT '',
    form_id TEXT NOT NULL,
    history_json TEXT NOT NULL,
    tags_json TEXT NOT NULL,
    completed_at_unix_nano INTEGER NOT NULL,
    sealed TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_submission_definition ON submission(definition_id);

-- Answers, kept in insertion order
CREATE TABLE IF NOT EXISTS submission_answer (
    session_id TEXT NOT NULL REFERENCES submission(session_id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    value_json TEXT NOT NULL,
    PRIMARY KEY (session_id, position),
    UNIQUE (session_id, question_id)
);
`
