package validator

import (
	"fmt"
	"strings"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// DefinitionError reports every structural problem found in a survey definition.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("found %d errors:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// Unwrap lets callers match with errors.Is(err, domain.ErrInvalidDefinition).
func (e *DefinitionError) Unwrap() error {
	return domain.ErrInvalidDefinition
}

// Check runs Validate and wraps a non-empty result in a *DefinitionError.
func Check(def *domain.Definition) error {
	if problems := Validate(def); len(problems) > 0 {
		return &DefinitionError{Problems: problems}
	}
	return nil
}

// Validate checks the structural integrity of a definition and returns human-readable
// problems, empty when the definition is valid. Checks run by category and stop at the
// first category that reports anything:
//
//  1. form ids are present and unique
//  2. question ids are present and unique across the definition
//  3. every next target names an existing form
//  4. every condition references an existing question
//  5. questions have a known kind and non-empty, uniquely identified options
//  6. conditional transitions sit on single-question forms, reference that form's own
//     single-choice question, and only key on its options
func Validate(def *domain.Definition) []string {
	if def == nil || len(def.Forms) == 0 {
		return []string{"definition has no forms"}
	}

	checks := []func(*domain.Definition) []string{
		checkFormIDs,
		checkQuestionIDs,
		checkTargets,
		checkConditionQuestions,
		checkQuestionShape,
		checkConditionalShape,
	}
	for _, check := range checks {
		if problems := check(def); len(problems) > 0 {
			return problems
		}
	}
	return nil
}

func checkFormIDs(def *domain.Definition) []string {
	var problems []string
	seen := make(map[string]int)
	for i, f := range def.Forms {
		if f.ID == "" {
			problems = append(problems, fmt.Sprintf("form at index %d has an empty id", i))
			continue
		}
		seen[f.ID]++
		if seen[f.ID] == 2 {
			problems = append(problems, fmt.Sprintf("duplicate form id %q", f.ID))
		}
	}
	return problems
}

func checkQuestionIDs(def *domain.Definition) []string {
	var problems []string
	seen := make(map[string]int)
	for _, f := range def.Forms {
		for i, q := range f.Questions {
			if q.ID == "" {
				problems = append(problems, fmt.Sprintf("form %q: question at index %d has an empty id", f.ID, i))
				continue
			}
			seen[q.ID]++
			if seen[q.ID] == 2 {
				problems = append(problems, fmt.Sprintf("duplicate question id %q", q.ID))
			}
		}
	}
	return problems
}

func checkTargets(def *domain.Definition) []string {
	forms := make(map[string]bool, len(def.Forms))
	for _, f := range def.Forms {
		forms[f.ID] = true
	}

	var problems []string
	for _, f := range def.Forms {
		if f.Next == nil {
			continue
		}
		if !f.Next.IsConditional() && f.Next.Default == "" {
			problems = append(problems, fmt.Sprintf("form %q: next has no target", f.ID))
			continue
		}
		for _, target := range f.Next.Targets() {
			if !forms[target] {
				problems = append(problems, fmt.Sprintf("form %q: next target %q does not exist", f.ID, target))
			}
		}
	}
	return problems
}

func checkConditionQuestions(def *domain.Definition) []string {
	var problems []string
	for _, f := range def.Forms {
		if !f.Next.IsConditional() {
			continue
		}
		if _, ok := def.Question(f.Next.QuestionID); !ok {
			problems = append(problems, fmt.Sprintf("form %q: condition references unknown question %q", f.ID, f.Next.QuestionID))
		}
	}
	return problems
}

func checkQuestionShape(def *domain.Definition) []string {
	var problems []string
	for _, f := range def.Forms {
		if len(f.Questions) == 0 {
			problems = append(problems, fmt.Sprintf("form %q has no questions", f.ID))
		}
		for _, q := range f.Questions {
			if !q.Kind.Valid() {
				problems = append(problems, fmt.Sprintf("question %q has unknown kind %s", q.ID, q.Kind))
			}
			if len(q.Options) == 0 {
				problems = append(problems, fmt.Sprintf("question %q has no options", q.ID))
			}
			seen := make(map[string]bool)
			for i, o := range q.Options {
				switch {
				case o.ID == "":
					problems = append(problems, fmt.Sprintf("question %q: option at index %d has an empty id", q.ID, i))
				case seen[o.ID]:
					problems = append(problems, fmt.Sprintf("question %q: duplicate option id %q", q.ID, o.ID))
				}
				seen[o.ID] = true
			}
		}
	}
	return problems
}

func checkConditionalShape(def *domain.Definition) []string {
	var problems []string
	for _, f := range def.Forms {
		if !f.Next.IsConditional() {
			continue
		}
		if len(f.Questions) != 1 {
			problems = append(problems, fmt.Sprintf("form %q: conditional next requires exactly one question, has %d", f.ID, len(f.Questions)))
			continue
		}
		q := f.Questions[0]
		if f.Next.QuestionID != q.ID {
			problems = append(problems, fmt.Sprintf("form %q: conditional next must reference question %q, references %q", f.ID, q.ID, f.Next.QuestionID))
			continue
		}
		if q.Kind != domain.KindSingle {
			problems = append(problems, fmt.Sprintf("form %q: conditional next on %s question %q is not supported", f.ID, q.Kind, q.ID))
			continue
		}
		for _, key := range f.Next.SortedCases() {
			if _, ok := q.Option(key); !ok {
				problems = append(problems, fmt.Sprintf("form %q: case %q is not an option of question %q", f.ID, key, q.ID))
			}
		}
	}
	return problems
}

// Unreachable crawls the definition from its entry form and returns the ids of forms
// no transition can reach, in definition order. Unreachable forms are not an error.
func Unreachable(def *domain.Definition) []string {
	entry := def.Entry()
	if entry == nil {
		return nil
	}

	visited := make(map[string]bool)
	queue := []string{entry.ID}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		form, ok := def.Form(currentID)
		if !ok {
			continue
		}
		for _, target := range form.Next.Targets() {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	var unreachable []string
	for _, f := range def.Forms {
		if !visited[f.ID] {
			unreachable = append(unreachable, f.ID)
		}
	}
	return unreachable
}
