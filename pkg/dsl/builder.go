package dsl

import (
	"fmt"

	"github.com/openrelief/surveyflow/internal/validator"
	"github.com/openrelief/surveyflow/pkg/adapters/memory"
	"github.com/openrelief/surveyflow/pkg/domain"
)

// Builder manages the survey construction. Forms keep the order they were first added
// in, so the first form added is the entry form.
type Builder struct {
	def   domain.Definition
	forms map[string]*FormBuilder
	order []string
}

// New creates a new survey builder.
func New(id string) *Builder {
	return &Builder{
		def:   domain.Definition{ID: id},
		forms: make(map[string]*FormBuilder),
	}
}

// Title sets the survey title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// Form adds a form to the survey.
// If the form already exists, it returns the existing builder.
func (b *Builder) Form(id string) *FormBuilder {
	if fb, ok := b.forms[id]; ok {
		return fb
	}
	fb := &FormBuilder{form: domain.Form{ID: id}}
	b.forms[id] = fb
	b.order = append(b.order, id)
	return fb
}

// Definition assembles the definition without validating it.
func (b *Builder) Definition() *domain.Definition {
	def := b.def
	def.Forms = make([]domain.Form, 0, len(b.order))
	for _, id := range b.order {
		def.Forms = append(def.Forms, b.forms[id].form)
	}
	return &def
}

// Build validates the survey and compiles it into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	def := b.Definition()
	if err := validator.Check(def); err != nil {
		return nil, err
	}

	loader, err := memory.NewFromDefinition(def)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
