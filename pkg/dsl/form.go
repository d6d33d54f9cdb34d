package dsl

import "github.com/openrelief/surveyflow/pkg/domain"

// Opt builds an option with optional tags.
func Opt(id, label string, tags ...string) domain.Option {
	return domain.Option{ID: id, Label: label, Tags: tags}
}

// FormBuilder provides a fluent API for configuring a form.
type FormBuilder struct {
	form domain.Form
}

// Title sets the form title.
func (f *FormBuilder) Title(title string) *FormBuilder {
	f.form.Title = title
	return f
}

// Single adds a single-choice question.
func (f *FormBuilder) Single(id, prompt string, options ...domain.Option) *FormBuilder {
	return f.question(id, prompt, domain.KindSingle, options)
}

// Multi adds a multi-choice question.
func (f *FormBuilder) Multi(id, prompt string, options ...domain.Option) *FormBuilder {
	return f.question(id, prompt, domain.KindMulti, options)
}

func (f *FormBuilder) question(id, prompt string, kind domain.Kind, options []domain.Option) *FormBuilder {
	f.form.Questions = append(f.form.Questions, domain.Question{
		ID:      id,
		Prompt:  prompt,
		Kind:    kind,
		Options: options,
	})
	return f
}

// Required marks the most recently added question as required.
func (f *FormBuilder) Required() *FormBuilder {
	if n := len(f.form.Questions); n > 0 {
		f.form.Questions[n-1].Required = true
	}
	return f
}

// Go sets an unconditional transition to the target form.
func (f *FormBuilder) Go(target string) *FormBuilder {
	f.next().Default = target
	return f
}

// When routes to target when the controlling question is answered with optionID.
// The controlling question defaults to the most recently added one; see On.
func (f *FormBuilder) When(optionID, target string) *FormBuilder {
	next := f.next()
	if next.QuestionID == "" && len(f.form.Questions) > 0 {
		next.QuestionID = f.form.Questions[len(f.form.Questions)-1].ID
	}
	if next.Cases == nil {
		next.Cases = make(map[string]string)
	}
	next.Cases[optionID] = target
	return f
}

// On sets the question controlling the conditional transition.
func (f *FormBuilder) On(questionID string) *FormBuilder {
	f.next().QuestionID = questionID
	return f
}

// Otherwise sets the fallback used when no When case matches.
func (f *FormBuilder) Otherwise(target string) *FormBuilder {
	return f.Go(target)
}

// Terminal removes any transition, making the form end the survey.
func (f *FormBuilder) Terminal() *FormBuilder {
	f.form.Next = nil
	return f
}

func (f *FormBuilder) next() *domain.Next {
	if f.form.Next == nil {
		f.form.Next = &domain.Next{}
	}
	return f.form.Next
}
