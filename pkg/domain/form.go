package domain

// Form is one navigable screen holding one or more questions.
type Form struct {
	ID        string     `json:"id" yaml:"id" mapstructure:"id"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Questions []Question `json:"questions" yaml:"questions" mapstructure:"questions"`

	// Next is nil for terminal forms.
	Next *Next `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
}

// Terminal reports whether the form ends the survey.
func (f *Form) Terminal() bool {
	return f.Next == nil
}

// Question returns the question with the given id inside this form.
func (f *Form) Question(id string) (*Question, bool) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], true
		}
	}
	return nil, false
}
