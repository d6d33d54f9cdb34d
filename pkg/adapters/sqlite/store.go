package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/openrelief/surveyflow/pkg/domain"

	_ "modernc.org/sqlite"
)

// Store implements ports.SubmissionStore on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and prepares the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps pragmas per-connection consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save replaces the submission of the session in one transaction.
func (s *Store) Save(ctx context.Context, sub *domain.Submission) error {
	history, err := json.Marshal(nonNil(sub.History))
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	tags, err := json.Marshal(nonNil(sub.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM submission WHERE session_id = ?`, sub.SessionID); err != nil {
		return fmt.Errorf("failed to clear submission: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO submission (session_id, definition_id, form_id, history_json, tags_json, completed_at_unix_nano, sealed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.SessionID, sub.DefinitionID, sub.FormID, string(history), string(tags), sub.CompletedAt.UnixNano(), sub.Sealed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}

	for i, a := range sub.Answers {
		value, err := json.Marshal(a.Value)
		if err != nil {
			return fmt.Errorf("failed to marshal answer %s: %w", a.QuestionID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO submission_answer (session_id, position, question_id, value_json) VALUES (?, ?, ?, ?)`,
			sub.SessionID, i, a.QuestionID, string(value),
		)
		if err != nil {
			return fmt.Errorf("failed to insert answer %s: %w", a.QuestionID, err)
		}
	}

	return tx.Commit()
}

// Load reads a submission with its answers.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	var (
		sub           domain.Submission
		history, tags string
		completedAt   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, definition_id, form_id, history_json, tags_json, completed_at_unix_nano, sealed
		 FROM submission WHERE session_id = ?`, sessionID,
	).Scan(&sub.SessionID, &sub.DefinitionID, &sub.FormID, &history, &tags, &completedAt, &sub.Sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}

	if err := json.Unmarshal([]byte(history), &sub.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &sub.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if len(sub.Tags) == 0 {
		sub.Tags = nil
	}
	if len(sub.History) == 0 {
		sub.History = nil
	}
	sub.CompletedAt = time.Unix(0, completedAt).UTC()

	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, value_json FROM submission_answer WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a     domain.Answer
			value string
		)
		if err := rows.Scan(&a.QuestionID, &value); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		if err := json.Unmarshal([]byte(value), &a.Value); err != nil {
			return nil, fmt.Errorf("failed to decode answer %s: %w", a.QuestionID, err)
		}
		sub.Answers = append(sub.Answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	return &sub, nil
}

// Delete removes the submission; its answers cascade.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM submission WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

// List returns session IDs, most recently completed first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM submission ORDER BY completed_at_unix_nano DESC, session_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
