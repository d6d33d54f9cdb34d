package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openrelief/surveyflow/pkg/domain"
)

// FormMarkdown renders a form with its questions and numbered options.
// Options already chosen in answers are marked. step is the 1-based position of the
// form in the session history.
func FormMarkdown(form *domain.Form, answers *domain.AnswerStore, step int) string {
	var sb strings.Builder

	title := form.Title
	if title == "" {
		title = form.ID
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "_%s step_\n\n", humanize.Ordinal(step))

	for _, q := range form.Questions {
		sb.WriteString(QuestionMarkdown(&q, answers))
		sb.WriteString("\n")
	}
	return sb.String()
}

// QuestionMarkdown renders one question and its options as a numbered list.
func QuestionMarkdown(q *domain.Question, answers *domain.AnswerStore) string {
	var sb strings.Builder

	prompt := q.Prompt
	if prompt == "" {
		prompt = q.ID
	}
	fmt.Fprintf(&sb, "**%s**", prompt)
	if q.Required {
		sb.WriteString(" *(required)*")
	}
	if q.Kind == domain.KindMulti {
		sb.WriteString(" *(choose any)*")
	}
	sb.WriteString("\n\n")

	selected := make(map[string]bool)
	if a, ok := answers.Get(q.ID); ok {
		for _, id := range a.Value.Options() {
			selected[id] = true
		}
	}

	for i, o := range q.Options {
		label := o.Label
		if label == "" {
			label = o.ID
		}
		mark := ""
		if selected[o.ID] {
			mark = " ✓"
		}
		fmt.Fprintf(&sb, "%d. %s%s\n", i+1, label, mark)
	}
	return sb.String()
}

// ResourcesMarkdown renders grouped resources, one section per category.
func ResourcesMarkdown(groups []domain.Group) string {
	if len(groups) == 0 {
		return "_No matching resources._\n"
	}

	var sb strings.Builder
	total := 0
	for _, g := range groups {
		name := g.Category.Name
		if name == "" {
			name = g.Category.Slug
		}
		fmt.Fprintf(&sb, "## %s\n\n", name)
		for _, r := range g.Resources {
			title := r.Title
			if title == "" {
				title = r.Slug
			}
			fmt.Fprintf(&sb, "- %s\n", title)
			total++
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "_%s across %s._\n", plural(total, "listing"), plural(len(groups), "category"))
	return sb.String()
}

// SummaryMarkdown renders a completion summary relative to now.
func SummaryMarkdown(history []string, answered int, completedAt, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Survey complete\n\n")
	fmt.Fprintf(&sb, "- Path: %s\n", strings.Join(history, " → "))
	fmt.Fprintf(&sb, "- %s\n", plural(answered, "answer"))
	fmt.Fprintf(&sb, "- Finished %s\n", humanize.RelTime(completedAt, now, "ago", "from now"))
	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	if strings.HasSuffix(word, "y") {
		return fmt.Sprintf("%s %sies", humanize.Comma(int64(n)), strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}
