package middleware

import (
	"context"
	"regexp"
	"slices"

	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/openrelief/surveyflow/pkg/ports"
)

// Masked replaces the value of answers whose question id matches a PII pattern.
const Masked = "***"

type piiMiddleware struct {
	next     ports.SubmissionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers to questions whose id
// matches any of the patterns. Tags are derived before saving and stay intact.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SubmissionStore) ports.SubmissionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sub *domain.Submission) error {
	// Clone so the caller's submission keeps the real answers.
	masked := *sub
	masked.Answers = slices.Clone(sub.Answers)
	for i, a := range masked.Answers {
		if m.sensitive(a.QuestionID) {
			masked.Answers[i].Value = domain.One(Masked)
		}
	}
	return m.next.Save(ctx, &masked)
}

func (m *piiMiddleware) sensitive(questionID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(questionID) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Submission, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
