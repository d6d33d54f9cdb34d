package domain

// Definition is the ordered, read-only list of forms making up a survey.
// The first form is the entry point of every session.
type Definition struct {
	ID    string `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Forms []Form `json:"forms" yaml:"forms" mapstructure:"forms"`
}

// Entry returns the first form, or nil for an empty definition.
func (d *Definition) Entry() *Form {
	if d == nil || len(d.Forms) == 0 {
		return nil
	}
	return &d.Forms[0]
}

// Form looks up a form by id.
func (d *Definition) Form(id string) (*Form, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Forms {
		if d.Forms[i].ID == id {
			return &d.Forms[i], true
		}
	}
	return nil, false
}

// Question looks up a question by id across all forms.
func (d *Definition) Question(id string) (*Question, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Forms {
		if q, ok := d.Forms[i].Question(id); ok {
			return q, true
		}
	}
	return nil, false
}

// Questions returns every question in definition order.
func (d *Definition) Questions() []Question {
	if d == nil {
		return nil
	}
	var all []Question
	for _, f := range d.Forms {
		all = append(all, f.Questions...)
	}
	return all
}

// FormIDs returns the form ids in definition order.
func (d *Definition) FormIDs() []string {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Forms))
	for _, f := range d.Forms {
		ids = append(ids, f.ID)
	}
	return ids
}
