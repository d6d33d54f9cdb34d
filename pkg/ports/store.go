package ports

import (
	"context"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// SubmissionStore persists the record of completed sessions.
// It never holds in-progress state; a submission is written once a terminal form is reached.
type SubmissionStore interface {
	// Save stores the submission under its session ID, replacing any previous one.
	Save(ctx context.Context, sub *domain.Submission) error

	// Load retrieves the submission of a session.
	// Returns domain.ErrSubmissionNotFound if the session has none.
	Load(ctx context.Context, sessionID string) (*domain.Submission, error)

	// Delete removes the submission. Deleting a missing submission is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the session IDs that have a submission.
	List(ctx context.Context) ([]string, error)
}
