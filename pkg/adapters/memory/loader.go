package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// Loader implements ports.DefinitionLoader from an in-memory document.
// Every Load decodes a fresh copy, so callers cannot mutate the source.
type Loader struct {
	raw []byte
}

// NewLoader creates a Loader from a raw JSON definition document.
func NewLoader(data []byte) *Loader {
	raw := make([]byte, len(data))
	copy(raw, data)
	return &Loader{raw: raw}
}

// NewFromDefinition creates a Loader from a domain object.
// This handles serialization automatically, improving DX for tests.
func NewFromDefinition(def *domain.Definition) (*Loader, error) {
	if def == nil {
		return nil, fmt.Errorf("definition is nil")
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}
	return &Loader{raw: raw}, nil
}

// Load decodes the definition.
func (l *Loader) Load(_ context.Context) (*domain.Definition, error) {
	var def domain.Definition
	if err := json.Unmarshal(l.raw, &def); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}
