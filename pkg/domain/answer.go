package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// Value is the selection recorded for one question: a single option id for
// single-choice questions or a list of option ids for multi-choice ones.
// On the wire (JSON and YAML) a single value is a string and a multi value is a sequence.
type Value struct {
	kind    Kind
	options []string
}

// One returns a single-choice value. An empty id yields an empty value.
func One(optionID string) Value {
	v := Value{kind: KindSingle}
	if optionID != "" {
		v.options = []string{optionID}
	}
	return v
}

// Many returns a multi-choice value.
func Many(optionIDs ...string) Value {
	return Value{kind: KindMulti, options: slices.Clone(optionIDs)}
}

// Kind returns the arity the value was recorded with.
func (v Value) Kind() Kind { return v.kind }

// Options returns the selected option ids, normalizing a single value to one element.
func (v Value) Options() []string {
	return slices.Clone(v.options)
}

// Scalar returns the option id of a non-empty single-choice value.
func (v Value) Scalar() (string, bool) {
	if v.kind != KindSingle || len(v.options) == 0 {
		return "", false
	}
	return v.options[0], true
}

// IsEmpty reports whether nothing is selected.
func (v Value) IsEmpty() bool {
	return len(v.options) == 0
}

// Equal reports whether both values have the same kind and selection order.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && slices.Equal(v.options, o.options)
}

func (v Value) String() string {
	if s, ok := v.Scalar(); ok {
		return s
	}
	return fmt.Sprintf("%v", v.options)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindSingle:
		s, _ := v.Scalar()
		return json.Marshal(s)
	case KindMulti:
		if v.options == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.options)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("invalid multi-choice value: %w", err)
		}
		*v = Many(ids...)
		return nil
	default:
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("invalid single-choice value: %w", err)
		}
		*v = One(id)
		return nil
	}
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindSingle:
		s, _ := v.Scalar()
		return s, nil
	case KindMulti:
		if v.options == nil {
			return []string{}, nil
		}
		return v.options, nil
	}
	return nil, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return fmt.Errorf("invalid multi-choice value: %w", err)
		}
		*v = Many(ids...)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = Value{}
			return nil
		}
		*v = One(node.Value)
	default:
		return fmt.Errorf("invalid answer value at line %d: want a string or a list", node.Line)
	}
	return nil
}

// Answer is the recorded response to one question.
type Answer struct {
	QuestionID string `json:"question_id" yaml:"question_id"`
	Value      Value  `json:"value" yaml:"value"`
}

// AnswerStore holds the answers collected in a session, at most one per question.
// The zero value is ready to use. It is not safe for concurrent use; the owning
// session serializes access.
type AnswerStore struct {
	answers []Answer
	index   map[string]int
}

// NewAnswerStore creates a store seeded with the given answers, applied as upserts.
func NewAnswerStore(answers ...Answer) *AnswerStore {
	s := &AnswerStore{}
	for _, a := range answers {
		s.Upsert(a)
	}
	return s
}

// Upsert replaces the answer for the same question in place or appends a new one.
func (s *AnswerStore) Upsert(a Answer) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[a.QuestionID]; ok {
		s.answers[i] = a
		return
	}
	s.index[a.QuestionID] = len(s.answers)
	s.answers = append(s.answers, a)
}

// Get returns the answer recorded for the question.
func (s *AnswerStore) Get(questionID string) (Answer, bool) {
	if s == nil {
		return Answer{}, false
	}
	i, ok := s.index[questionID]
	if !ok {
		return Answer{}, false
	}
	return s.answers[i], true
}

// All returns the answers in insertion order.
func (s *AnswerStore) All() []Answer {
	if s == nil {
		return nil
	}
	return slices.Clone(s.answers)
}

// Len returns the number of answered questions.
func (s *AnswerStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.answers)
}

// Clone returns an independent copy of the store.
func (s *AnswerStore) Clone() *AnswerStore {
	if s == nil {
		return &AnswerStore{}
	}
	return NewAnswerStore(s.answers...)
}

// MarshalJSON encodes the store as an ordered array of answers.
func (s *AnswerStore) MarshalJSON() ([]byte, error) {
	answers := s.All()
	if answers == nil {
		answers = []Answer{}
	}
	return json.Marshal(answers)
}

// UnmarshalJSON rebuilds the store from an array of answers using upsert semantics.
func (s *AnswerStore) UnmarshalJSON(data []byte) error {
	var answers []Answer
	if err := json.Unmarshal(data, &answers); err != nil {
		return err
	}
	*s = *NewAnswerStore(answers...)
	return nil
}
