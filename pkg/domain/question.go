package domain

import "fmt"

// Kind is the answer arity of a question.
type Kind uint8

const (
	// KindSingle allows exactly one option to be selected.
	KindSingle Kind = iota + 1
	// KindMulti allows any subset of the options to be selected.
	KindMulti
)

const (
	kindSingleName = "single-choice"
	kindMultiName  = "multi-choice"
)

// ParseKind converts the wire name of a kind ("single-choice", "multi-choice").
func ParseKind(s string) (Kind, error) {
	switch s {
	case kindSingleName:
		return KindSingle, nil
	case kindMultiName:
		return KindMulti, nil
	}
	return 0, fmt.Errorf("unknown question kind %q", s)
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k == KindSingle || k == KindMulti
}

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return kindSingleName
	case KindMulti:
		return kindMultiName
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Option is one selectable choice within a question.
type Option struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`

	// Tags are category tag identifiers attached to this choice.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty" mapstructure:"tags"`
}

// Question is one prompt with a fixed answer kind.
type Question struct {
	ID       string   `json:"id" yaml:"id" mapstructure:"id"`
	Prompt   string   `json:"prompt,omitempty" yaml:"prompt,omitempty" mapstructure:"prompt"`
	Kind     Kind     `json:"kind" yaml:"kind" mapstructure:"kind"`
	Options  []Option `json:"options" yaml:"options" mapstructure:"options"`
	Required bool     `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// Option returns the option with the given id.
func (q *Question) Option(id string) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}
