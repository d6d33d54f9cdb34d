package file

import (
	"context"
	"fmt"
	"os"

	"github.com/openrelief/surveyflow/pkg/domain"
)

// Loader implements ports.DefinitionLoader for a definition file on disk.
// The file is re-read on every Load.
type Loader struct {
	path string
}

// NewLoader creates a loader for the YAML or JSON file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load reads and decodes the definition file.
func (l *Loader) Load(_ context.Context) (*domain.Definition, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := DecodeDefinition(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.path, err)
	}
	return def, nil
}

// DecodeDefinition decodes a definition document.
func DecodeDefinition(data []byte) (*domain.Definition, error) {
	var def domain.Definition
	if err := decode(data, &def); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	return &def, nil
}
