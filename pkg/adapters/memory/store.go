package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// Store implements ports.SubmissionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Submission
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Submission),
	}
}

// Save keeps a deep copy of the submission.
func (s *Store) Save(_ context.Context, sub *domain.Submission) error {
	copied := cloneSubmission(sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sub.SessionID] = copied
	return nil
}

// Load returns a copy so the caller can't mutate the stored submission.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSubmissionNotFound
	}
	return cloneSubmission(sub), nil
}

// Delete removes the submission.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs in sorted order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func cloneSubmission(sub *domain.Submission) *domain.Submission {
	copied := *sub
	copied.History = slices.Clone(sub.History)
	copied.Answers = slices.Clone(sub.Answers)
	copied.Tags = slices.Clone(sub.Tags)
	return &copied
}
