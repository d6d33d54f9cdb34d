package schema

import "github.com/openrelief/surveyflow/pkg/domain"

// AnswerLookup is the read side of an answer store.
type AnswerLookup interface {
	Get(questionID string) (domain.Answer, bool)
}

// ValidateForm returns one message per required question of the form that has no
// answer or an empty one. An empty result means the form may be exited forward.
func ValidateForm(form *domain.Form, answers AnswerLookup) []string {
	err := CheckForm(form, answers)
	if err == nil {
		return nil
	}
	return err.(*AggregateError).Messages()
}

// CheckForm is ValidateForm with typed errors. It returns nil or an *AggregateError.
func CheckForm(form *domain.Form, answers AnswerLookup) error {
	if form == nil {
		return nil
	}

	var errs []error
	for _, q := range form.Questions {
		if !q.Required {
			continue
		}
		a, ok := answers.Get(q.ID)
		if !ok || a.Value.IsEmpty() {
			errs = append(errs, &ValidationError{
				QuestionID: q.ID,
				Reason:     ReasonRequired,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// CheckAnswer verifies that an answer fits its question: the value kind matches the
// question kind and every selected option is declared exactly once. Empty selections
// pass; emptiness is only an error for required questions at navigation time.
func CheckAnswer(question *domain.Question, answer domain.Answer) error {
	var errs []error

	if !answer.Value.IsEmpty() && answer.Value.Kind() != question.Kind {
		errs = append(errs, &ValidationError{
			QuestionID: question.ID,
			Reason:     ReasonKindMismatch,
			Value:      answer.Value.Kind(),
		})
	}

	seen := make(map[string]bool)
	for _, id := range answer.Value.Options() {
		if seen[id] {
			errs = append(errs, &ValidationError{
				QuestionID: question.ID,
				Reason:     ReasonDuplicateValue,
				Value:      id,
			})
			continue
		}
		seen[id] = true

		if _, ok := question.Option(id); !ok {
			errs = append(errs, &ValidationError{
				QuestionID: question.ID,
				Reason:     ReasonUnknownOption,
				Value:      id,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
