package catalog

import "github.com/openrelief/surveyflow/pkg/domain"

// ResolveTags collects the tags of every selected option. Order follows the answers,
// then the selection order inside each answer; duplicates are kept. Answers for unknown
// questions and options without tags contribute nothing.
func ResolveTags(answers []domain.Answer, questions []domain.Question) []string {
	byID := make(map[string]*domain.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var tags []string
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		for _, optionID := range a.Value.Options() {
			if opt, ok := q.Option(optionID); ok {
				tags = append(tags, opt.Tags...)
			}
		}
	}
	return tags
}

// UniqueTags drops repeated tags, keeping the first occurrence.
func UniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
